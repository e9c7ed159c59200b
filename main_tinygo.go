//go:build tinygo

package main

import (
	"context"

	"co2scope/app"
	"co2scope/config"
	"co2scope/hal"
)

func main() {
	app.Run(context.Background(), hal.New(), config.Default())
	select {}
}

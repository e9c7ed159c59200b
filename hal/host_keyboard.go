//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// hostKeys maps each button to the keys that drive it.
var hostKeys = [ButtonCount][]ebiten.Key{
	ButtonBacklight: {ebiten.KeyB, ebiten.Key1},
	ButtonCoarser:   {ebiten.KeyArrowRight, ebiten.KeyArrowUp, ebiten.Key2},
	ButtonFiner:     {ebiten.KeyArrowLeft, ebiten.KeyArrowDown, ebiten.Key3},
}

type hostKeyboard struct {
	buttons *buttonSet
}

func newHostKeyboard(buttons *buttonSet) *hostKeyboard {
	return &hostKeyboard{buttons: buttons}
}

// poll forwards key transitions to the button pins. It reports whether the
// window should close.
func (k *hostKeyboard) poll() (quit bool) {
	for b, keys := range hostKeys {
		for _, key := range keys {
			if inpututil.IsKeyJustPressed(key) {
				k.buttons.press(Button(b), true)
			}
			if inpututil.IsKeyJustReleased(key) && !anyPressed(keys) {
				k.buttons.press(Button(b), false)
			}
		}
	}
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape)
}

func anyPressed(keys []ebiten.Key) bool {
	for _, key := range keys {
		if ebiten.IsKeyPressed(key) {
			return true
		}
	}
	return false
}

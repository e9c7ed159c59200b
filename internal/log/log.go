//go:build !tinygo

// Package log provides the host logger, built on zap.
package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger
var baseLogger *zap.Logger

// Init initializes the package-level logger
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	baseLogger = zapLogger
	log = zapLogger.Sugar()
	return nil
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		baseLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
		log = baseLogger.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		log.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	GetSugaredLogger().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	GetSugaredLogger().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	GetSugaredLogger().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	GetSugaredLogger().Errorf(template, args...)
}

// LineLogger adapts a sugared logger to the line-oriented station logger.
// A line "component: message" is logged as message with a component field;
// sensor outages and alerts are logged at warn level, a halt at error level.
type LineLogger struct {
	l *zap.SugaredLogger
}

// NewLineLogger wraps l; a nil l selects the package logger.
func NewLineLogger(l *zap.SugaredLogger) *LineLogger {
	if l == nil {
		l = GetSugaredLogger()
	}
	return &LineLogger{l: l.WithOptions(zap.AddCallerSkip(-1))}
}

func (ll *LineLogger) WriteLineString(s string) {
	component, msg, ok := strings.Cut(s, ": ")
	if !ok || strings.ContainsAny(component, " \t") {
		ll.l.Info(s)
		return
	}
	if strings.HasPrefix(msg, "halted") {
		ll.l.Errorw(msg, "component", component)
		return
	}
	if component == "alert" || strings.HasPrefix(msg, "unavailable") {
		ll.l.Warnw(msg, "component", component)
		return
	}
	ll.l.Infow(msg, "component", component)
}

func (ll *LineLogger) WriteLineBytes(b []byte) { ll.WriteLineString(string(b)) }

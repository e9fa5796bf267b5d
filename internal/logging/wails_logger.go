package logging

import (
	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
)

// WailsLogger routes the Wails runtime log calls through logrus.
type WailsLogger struct{}

var _ wailslogger.Logger = WailsLogger{}

func NewWailsLogger() WailsLogger {
	return WailsLogger{}
}

func (WailsLogger) Print(message string)   { logger.Print(message) }
func (WailsLogger) Trace(message string)   { logger.Trace(message) }
func (WailsLogger) Debug(message string)   { logger.Debug(message) }
func (WailsLogger) Info(message string)    { logger.Info(message) }
func (WailsLogger) Warning(message string) { logger.Warn(message) }
func (WailsLogger) Error(message string)   { logger.Error(message) }
func (WailsLogger) Fatal(message string)   { logger.Fatal(message) }

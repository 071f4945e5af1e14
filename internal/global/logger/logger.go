package logger

import "gitlab.com/mips-autograder.net/internal/adapter/logging"

// Logger is the process logger used before the service graph is wired.
var Logger = logging.NewZapLogger(false)

// Use replaces the process logger, typically once config is loaded.
func Use(l *logging.ZapLogger) {
	Logger = l
}

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...interface{}) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger.Warn(msg, args...)
}

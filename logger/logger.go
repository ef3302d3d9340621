package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the shared application logger.
var Log = logrus.New()

// Init wires rotation and level from the environment. Safe to call once at
// boot; packages can use Log before Init with default settings.
func Init() {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		Log.SetLevel(lvl)
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		Log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

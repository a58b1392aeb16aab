package main

import (
	"io"
	"os"

	"github.com/YaleSpinup/bugsnag-mini/common"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// configureLogging sets the log level and, if a log file is configured,
// points logging at a rotating file.  The returned writer is where access
// logs should go.
func configureLogging(config common.Config) io.Writer {
	// Set the loglevel, info if it's unset
	switch config.LogLevel {
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	if config.Log.File == "" {
		return os.Stdout
	}

	out := &lumberjack.Logger{
		Filename:   config.Log.File,
		MaxSize:    config.Log.MaxSize,
		MaxBackups: config.Log.MaxBackups,
		MaxAge:     config.Log.MaxAge,
		Compress:   config.Log.Compress,
	}
	log.SetOutput(out)
	log.SetFormatter(&log.JSONFormatter{})

	return out
}

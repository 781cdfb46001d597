package entrypoint

import (
	"io"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/versemate/offlinestore/internal/config"
)

// SetupLogging copies the standard logger and gin's request log into a rotated file
// when one is configured. The returned func restores stderr and closes the file.
func SetupLogging(cfg config.Log) func() {
	if cfg.File == "" {
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, rotator)
	gin.DefaultErrorWriter = io.MultiWriter(os.Stderr, rotator)

	return func() {
		log.SetOutput(os.Stderr)
		gin.DefaultWriter = os.Stdout
		gin.DefaultErrorWriter = os.Stderr
		if err := rotator.Close(); err != nil {
			log.Printf("Error closing log file: %v", err)
		}
	}
}

package logger

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// GetLogger returns zap.Logger instance, but using singleton pattern creates only one reusable instace.
// APP_ENV=production switches to the JSON production config, LOG_LEVEL overrides the level.
// development config by default
func GetLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = build()
		if err != nil {
			panic("failed logger setup : " + err.Error())
		}
	})
	return logger
}

func build() (*zap.Logger, error) {
	// package level loggers are built before config.Load runs, so read .env here too.
	// variables already set in the environment win.
	_ = godotenv.Load()

	cfg := zap.NewDevelopmentConfig()
	if os.Getenv("APP_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg.Build()
}

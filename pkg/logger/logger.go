package logger

import (
	"fmt"

	"github.com/GlebRadaev/loyalty/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "15:04:05 02-01-2006"

var logLvlMap = map[string]zapcore.Level{
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"debug": zapcore.DebugLevel,
}

// Empty format falls back to console.
var levelEncoders = map[string]zapcore.LevelEncoder{
	"":        zapcore.CapitalColorLevelEncoder,
	"console": zapcore.CapitalColorLevelEncoder,
	"json":    zapcore.LowercaseLevelEncoder,
}

func InitLogger(conf *config.Config) error {
	c, err := buildConfig(conf)
	if err != nil {
		return err
	}

	logger, err := c.Build()
	if err != nil {
		return fmt.Errorf("unable to create zap logger, error: %w", err)
	}

	zap.ReplaceGlobals(logger)

	return nil
}

func buildConfig(conf *config.Config) (zap.Config, error) {
	lvl, ok := logLvlMap[conf.LogLvl]
	if !ok {
		return zap.Config{}, fmt.Errorf("unsupported log lvl: %s", conf.LogLvl)
	}
	encodeLevel, ok := levelEncoders[conf.LogFormat]
	if !ok {
		return zap.Config{}, fmt.Errorf("unsupported log format: %s", conf.LogFormat)
	}
	encoding := conf.LogFormat
	if encoding == "" {
		encoding = "console"
	}

	encodeConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeLevel:    encodeLevel,
	}

	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Sampling:         nil,
		Encoding:         encoding,
		EncoderConfig:    encodeConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if conf.ServiceName != "" {
		c.InitialFields = map[string]interface{}{"service": conf.ServiceName}
	}

	return c, nil
}

package logger

import (
	"testing"

	"github.com/GlebRadaev/loyalty/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name           string
		config         *config.Config
		expectedError  bool
		expectedLogLvl zapcore.Level
	}{
		{
			name:           "Info level",
			config:         &config.Config{LogLvl: "info", ServiceName: "loyalty"},
			expectedLogLvl: zapcore.InfoLevel,
		},
		{
			name:           "Warn level as json",
			config:         &config.Config{LogLvl: "warn", LogFormat: "json", ServiceName: "loyalty"},
			expectedLogLvl: zapcore.WarnLevel,
		},
		{
			name:           "Error level",
			config:         &config.Config{LogLvl: "error", LogFormat: "console"},
			expectedLogLvl: zapcore.ErrorLevel,
		},
		{
			name:           "Debug level",
			config:         &config.Config{LogLvl: "debug"},
			expectedLogLvl: zapcore.DebugLevel,
		},
		{
			name:          "Unknown level",
			config:        &config.Config{LogLvl: "invalid"},
			expectedError: true,
		},
		{
			name:          "Unknown format",
			config:        &config.Config{LogLvl: "info", LogFormat: "xml"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, zap.L().Core().Enabled(tt.expectedLogLvl))
			assert.False(t, zap.L().Core().Enabled(tt.expectedLogLvl-1))
		})
	}
}

func TestBuildConfig(t *testing.T) {
	c, err := buildConfig(&config.Config{LogLvl: "info", LogFormat: "json", ServiceName: "loyalty"})
	require.NoError(t, err)
	assert.Equal(t, "json", c.Encoding)
	assert.Equal(t, map[string]interface{}{"service": "loyalty"}, c.InitialFields)

	c, err = buildConfig(&config.Config{LogLvl: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "console", c.Encoding)
	assert.Nil(t, c.InitialFields)
	assert.Equal(t, zapcore.DebugLevel, c.Level.Level())
}

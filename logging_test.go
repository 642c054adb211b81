package spritecomp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"trace", logrus.TraceLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := NewLogger(LogConfig{Level: tt.level})
			assert.Equal(t, tt.want, log.GetLevel())
			assert.Equal(t, os.Stderr, log.Out)
		})
	}
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spritecomp.log")
	log := NewLogger(LogConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 2})

	lj, ok := log.Out.(*lumberjack.Logger)
	require.True(t, ok)
	t.Cleanup(func() { _ = lj.Close() })
	assert.Equal(t, path, lj.Filename)
	assert.Equal(t, 2, lj.MaxBackups)

	log.WithField("key", "(O)1").Info("composited")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "composited")
	assert.Contains(t, string(data), "(O)1")
}

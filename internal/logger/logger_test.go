package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"DEBUG", logrus.DebugLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"INFO", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, parseLevel(test.input), "level %q", test.input)
	}
}

func TestInitialize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	Initialize("DEBUG", path)
	t.Cleanup(func() { Logger = nil })

	WithError(errors.New("boom"), "test").Error("upload failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "upload failed")
	assert.Contains(t, string(data), "component=test")
	assert.Contains(t, string(data), "stack_trace=")
}

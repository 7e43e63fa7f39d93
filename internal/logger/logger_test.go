package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotelops.log")
	log, err := New(Options{Level: "debug", FilePath: path, Production: true})
	require.NoError(t, err)

	log.Info("board.load.done")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"board.load.done"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

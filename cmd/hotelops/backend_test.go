package main

import (
	"context"
	"path/filepath"
	"testing"

	"hotelops/internal/board"
	"hotelops/internal/client"
	"hotelops/internal/config"
	"hotelops/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenBackend_Remote(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.URL = "http://ops-core:8080"

	be, err := openBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	defer be.close()

	assert.IsType(t, &client.Client{}, be.tasks)
	assert.IsType(t, &client.Client{}, be.menu)
}

func TestOpenBackend_Database(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "hotelops.db")

	be, err := openBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	defer be.close()

	assert.IsType(t, &store.TaskStore{}, be.tasks)
	tasks, err := be.tasks.ListTasks(context.Background(), board.Filter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

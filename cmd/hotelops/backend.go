package main

import (
	"net/http"

	"hotelops/internal/api"
	"hotelops/internal/client"
	"hotelops/internal/config"
	"hotelops/internal/database"
	"hotelops/internal/store"

	"go.uber.org/zap"
)

// backend is where tasks and menu items live: the local database, or
// another hotelops instance when backend.url is set.
type backend struct {
	menu  api.MenuBackend
	tasks api.TaskBackend
	close func() error
}

func openBackend(cfg *config.Config, zl *zap.Logger) (*backend, error) {
	if cfg.Backend.Remote() {
		c := client.New(cfg.Backend.URL,
			client.WithToken(cfg.Backend.Token),
			client.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
			client.WithLogger(zl),
		)
		zl.Info("backend.remote", zap.String("url", cfg.Backend.URL))
		return &backend{menu: c, tasks: c, close: func() error { return nil }}, nil
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Database.Seed {
		if err := database.Seed(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	zl.Info("backend.database", zap.String("driver", cfg.Database.Driver))
	return &backend{menu: store.NewMenuStore(db), tasks: store.NewTaskStore(db), close: db.Close}, nil
}

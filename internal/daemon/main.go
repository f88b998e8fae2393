// Package daemon wires configuration, database, storage and the web service
// together and runs them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	"github.com/catalog-admin/catalog-admin/internal/web"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// ErrConfigNil is returned by New without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// New opens and migrates the database, seeds it and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	ctx, err := tenant.WithSchema(context.Background(), cfg.DB.Schema)
	if err != nil {
		return nil, err
	}

	db, err := openDB(&cfg.DB, time.Duration(cfg.Log.SlowQueryMS)*time.Millisecond)
	if err != nil {
		return nil, err
	}

	if err = migrate(ctx, db, cfg.DB.Schema); err != nil {
		return nil, err
	}

	authService := auth.NewService(db)
	if err = seed(ctx, cfg, db, authService); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	secret, err := jwtSecret(cfg, db)
	if err != nil {
		return nil, err
	}

	blobs, media, err := newBlobStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	accounts := auth.NewLocalProvider(db, cfg.Seed.DefaultRole)

	env := &handler.Env{
		Cfg:      cfg,
		DB:       db,
		Auth:     authService,
		Accounts: accounts,
		Tokens: auth.NewTokenManager(secret, cfg.JWT.Issuer,
			time.Duration(cfg.JWT.AccessTTL)*time.Minute,
			time.Duration(cfg.JWT.RefreshTTL)*time.Minute,
			newRevocationStorage(&cfg.DB), accounts),
		ProductImages: attachment.New("product_image", attachment.PrefixProductImages, blobs),
		TeacherPhotos: attachment.New("teacher_photo", attachment.PrefixTeacherPhotos, blobs),
	}

	var mediaFs afero.Fs
	if media != nil {
		mediaFs = media.Fs()
	}

	webService, err := web.New(cfg, env, mediaFs)
	if err != nil {
		return nil, err
	}

	return &Daemon{cfg: cfg, db: db, webService: webService}, nil
}

// Start serves http until SIGINT or SIGTERM, then shuts down gracefully.
func (d *Daemon) Start() error {
	errc := make(chan error, 1)

	go func() {
		errc <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	go d.webService.WaitShutdown()

	err := <-errc

	if sqlDB, dbErr := d.db.DB(); dbErr == nil {
		if cErr := sqlDB.Close(); cErr != nil {
			log.Error().Err(cErr).Msg("failed to close database")
		}
	}

	return err
}

package daemon

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	memorystorage "github.com/gofiber/storage/memory/v2"
	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	postgresstorage "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/dsn"
	"github.com/catalog-admin/catalog-admin/internal/storage"
)

// revokedTokensTable holds revoked refresh token ids on mysql and postgres.
const revokedTokensTable = "revoked_tokens"

// newBlobStore returns the configured blob store. The file store is also
// returned on its own so the web service can serve its files.
func newBlobStore(cfg config.Storage) (storage.Store, *storage.FileStore, error) {
	switch cfg.Driver {
	case config.StorageOSS:
		s, err := storage.NewOSSStore(cfg.OSS)
		if err != nil {
			return nil, nil, fmt.Errorf("oss storage: %w", err)
		}

		return s, nil, nil
	case config.StorageCloudinary:
		s, err := storage.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			return nil, nil, fmt.Errorf("cloudinary storage: %w", err)
		}

		return s, nil, nil
	default:
		s, err := storage.NewFileStore(cfg.File.Root, cfg.File.URLPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("file storage: %w", err)
		}

		return s, s, nil
	}
}

// newRevocationStorage keeps revoked tokens in the database of the service,
// in memory for sqlite.
func newRevocationStorage(cfg *config.DB) fiber.Storage {
	switch cfg.GormEngine {
	case config.EngineMySQL:
		return mysqlstorage.New(mysqlstorage.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         revokedTokensTable,
		})
	case config.EnginePostgres:
		return postgresstorage.New(postgresstorage.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         revokedTokensTable,
		})
	default:
		log.Warn().Msg("revoked tokens are kept in memory and forgotten on restart")

		return memorystorage.New()
	}
}

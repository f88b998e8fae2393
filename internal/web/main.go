// Package web assembles the fiber app serving the json api, the media
// files of the file storage driver, metrics and the health check.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	fiberlogger "github.com/catalog-admin/catalog-admin/internal/logger/adapter/fiber"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/account"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/admin/permission"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/admin/role"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/admin/user"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/category"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/dashboard"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/product"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/subject"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/teacher"
	tenantmw "github.com/catalog-admin/catalog-admin/internal/web/middleware/tenant"
)

const (
	// APIPath prefixes every api route.
	APIPath = "/api"
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// ErrNilDependency is returned by New for a missing config or env.
var ErrNilDependency = errors.New("config and env cannot be nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	go func() {
		err := s.App.Listen(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		doneFiber <- err
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// NewValidator returns a validator reporting fields by their json name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	return v
}

// New creates the web service. media, if not nil, is served below the
// URL prefix of the file storage driver.
func New(cfg *config.Config, env *handler.Env, media afero.Fs) (*Service, error) {
	if cfg == nil || env == nil {
		return nil, ErrNilDependency
	}

	if env.Validator == nil {
		env.Validator = NewValidator()
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.MaxUploadSize,
			ErrorHandler:   ErrorHandler,
		},
	)

	service := &Service{cfg: cfg, App: app, fastShutDown: cfg.DevMode}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log, CheckAliveURI: CheckAlivePath}))

	if cfg.Webserver.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Webserver.AllowOrigins,
			AllowHeaders: strings.Join([]string{
				fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept,
				fiber.HeaderAuthorization, tenant.HeaderSchema,
			}, ", "),
		}))
	}

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	if media != nil && cfg.Storage.File.URLPrefix != "" {
		app.Use(cfg.Storage.File.URLPrefix, filesystem.New(filesystem.Config{
			Root:   afero.NewHttpFs(media),
			Browse: false,
		}))
	}

	api := app.Group(APIPath, tenantmw.New(tenantmw.Config{
		Default:     cfg.DB.Schema,
		AllowHeader: cfg.Webserver.AllowTenantHeader,
	}))

	// init handlers (they register their own routes with permission checks)
	for _, h := range []handler.Service{
		new(account.Service),
		new(dashboard.Service),
		new(category.Service),
		new(product.Service),
		new(subject.Service),
		new(teacher.Service),
		new(user.Service),
		new(role.Service),
		new(permission.Service),
	} {
		if err := h.Init(api, env); err != nil {
			return nil, err
		}
	}

	return service, nil
}

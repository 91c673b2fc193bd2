// Package daemon wires configuration, storage, authentication and the web service together.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/cache"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/permission"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/role"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/user"
	"github.com/sg-semilla/semilla-auth/internal/db/dsn"
	"github.com/sg-semilla/semilla-auth/internal/db/engine"
	"github.com/sg-semilla/semilla-auth/internal/logger"
	"github.com/sg-semilla/semilla-auth/internal/web"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

// limiterTable holds the login rate limit counters on postgres and mysql.
const limiterTable = "login_limiter"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg            *config.Config
	webService     *web.Service
	db             *gorm.DB
	redis          *redis.Client
	limiterStorage fiber.Storage
}

// Start serves until SIGINT or SIGTERM and releases all resources afterwards.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))

	d.close()

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	if cfg.DevMode {
		log.Warn().Msg("dev mode enabled: do not run like this in production")
	}

	d := &Daemon{cfg: cfg}

	deps, err := d.build(context.Background())
	if err != nil {
		d.close()
		return nil, err
	}

	d.webService, err = web.New(cfg, deps)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("failed to init web service: %w", err)
	}

	return d, nil
}

// build opens the stores and assembles the services handlers depend on.
func (d *Daemon) build(ctx context.Context) (*handler.Deps, error) {
	cfg := d.cfg

	db, err := engine.Open(&cfg.DB, cfg.DevMode)
	if err != nil {
		return nil, err
	}

	d.db = db

	if err = engine.Migrate(db); err != nil {
		return nil, err
	}

	permCache, err := d.permissionCache(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.Enabled {
		if err = seed(ctx, cfg, db); err != nil {
			return nil, err
		}

		if err = permCache.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to drop cached permissions after seeding")
		}
	}

	users := user.New(db)
	roles := role.New(db, permCache)
	permissions := permission.New(db, permCache)

	if _, errRole := roles.FindByName(ctx, cfg.Auth.DefaultRole); errRole != nil {
		log.Warn().Err(errRole).Str("role", cfg.Auth.DefaultRole).
			Msg("default role not found, directory users can't be provisioned")
	}

	issuer, err := auth.NewTokenIssuer(cfg)
	if err != nil {
		return nil, err
	}

	authenticator := auth.NewAuthenticator(cfg, users, roles, directory(cfg.LDAP))

	d.limiterStorage = limiterStorage(cfg)

	return &handler.Deps{
		Auth:           auth.NewService(authenticator, users, roles, issuer),
		Users:          users,
		Roles:          roles,
		Permissions:    permissions,
		LimiterStorage: d.limiterStorage,
	}, nil
}

// permissionCache connects to redis when enabled.
func (d *Daemon) permissionCache(ctx context.Context) (cache.PermissionCache, error) {
	if !d.cfg.Redis.Enabled {
		return cache.Nop{}, nil
	}

	client, err := cache.Connect(ctx, d.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect permission cache: %w", err)
	}

	d.redis = client

	log.Info().Str("addr", d.cfg.Redis.Addr).Msg("permission cache enabled")

	return cache.NewRedis(client, d.cfg.Redis.TTL), nil
}

// directory returns the LDAP directory, or a directory that knows nobody when LDAP is off.
func directory(cfg config.LDAP) auth.Directory {
	dir, err := auth.NewLDAPDirectory(cfg)
	if err != nil {
		log.Info().Err(err).Msg("directory fallback disabled")
		return auth.NoDirectory{}
	}

	log.Info().Str("url", dir.URL()).Str("required_group", cfg.RequiredGroup).Msg("directory fallback enabled")

	return dir
}

// limiterStorage shares login rate limit counters through the database when
// it is a server. sqlite keeps them in process memory. Nothing is opened while
// the limiter is off.
func limiterStorage(c *config.Config) fiber.Storage {
	if !c.Webserver.LoginRateLimit.Enabled {
		return nil
	}

	cfg := &c.DB

	switch cfg.GormEngine {
	case config.EnginePostgres:
		return storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         limiterTable,
		})
	case config.EngineMySQL:
		return storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         limiterTable,
		})
	default:
		return nil
	}
}

func (d *Daemon) close() {
	if d.limiterStorage != nil {
		if err := d.limiterStorage.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close limiter storage")
		}
	}

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if d.db != nil {
		if sqlDB, err := d.db.DB(); err == nil {
			if errClose := sqlDB.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close database")
			}
		}
	}
}

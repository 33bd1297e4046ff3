package app

import (
	"context"
	"log"
	"os"
	"time"

	"propwatch/internal/config"
	"propwatch/internal/crawl"
	"propwatch/internal/database"
	"propwatch/internal/database/migration"
	dbpostgres "propwatch/internal/database/postgres"
	"propwatch/internal/delivery/http/handler"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/delivery/http/routes"
	"propwatch/internal/fetch"
	"propwatch/internal/geo"
	"propwatch/internal/infrastructure/cache"
	"propwatch/internal/pkg/jwt"
	"propwatch/internal/repository"
	"propwatch/internal/scrape"
	"propwatch/internal/ws"
)

// Container wires the whole application graph: database, cache,
// repositories, portal adapters, the crawl monitor and the HTTP surface.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Redis *cache.Redis

	Searches  repository.SavedSearchRepository
	Pending   *repository.PostgresPendingRepository
	Props     *repository.PostgresPropertyRepository
	PortalIDs repository.PortalIDRepository

	Fetcher  *fetch.Client
	Geocoder *geo.Geocoder
	Adapters map[string]scrape.Adapter
	Monitor  *crawl.Monitor

	Hub    *ws.Hub
	Routes *routes.Registry
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if sqlDB := db.SQLDB(); sqlDB != nil {
		if err := (migration.Runner{Dir: "migrations"}).Run(ctx, sqlDB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	redis := cache.NewRedis(logger)

	searches := repository.NewPostgresSavedSearchRepository(db)
	pending := repository.NewPostgresPendingRepository(db)
	props := repository.NewPostgresPropertyRepository(db)
	portalIDs := repository.NewPostgresPortalIDRepository(db)

	remaxTables, err := portalIDs.LoadRemaxTables(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	overrides, err := scrape.LoadOverrides(cfg.Crawl.PortalOverridesPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	adapters := scrape.NewRegistry(remaxTables, overrides)
	fetcher := fetch.NewClient(logger, cfg.Crawl.ChromeBin, true)
	geocoder := geo.NewGeocoder(cfg.Geocoding, redis, logger)

	hub := ws.NewHub(logger)
	notifier := ws.NewNotifier(hub)

	monitor := crawl.NewMonitor(
		logger, db,
		searches, pending, props,
		adapters, fetcher, geocoder, notifier,
		cfg.Crawl,
	)

	var auth *middleware.AuthMiddleware
	if cfg.Auth.AgentTokenSecret != "" {
		auth = middleware.NewAuthMiddleware(jwt.NewHMACService(cfg.Auth.AgentTokenSecret))
	} else {
		logger.Printf("[App] AGENT_TOKEN_SECRET not set, import/admin routes are unguarded")
	}

	reg := routes.NewRegistry(
		handler.NewHealthHandler(db),
		handler.NewSavedSearchHandler(searches, monitor),
		handler.NewPendingHandler(pending, monitor),
		handler.NewPropertyHandler(props),
		handler.NewPortalIDHandler(portalIDs),
		ws.NewHandler(hub, logger),
		auth,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     redis,
		Searches:  searches,
		Pending:   pending,
		Props:     props,
		PortalIDs: portalIDs,
		Fetcher:   fetcher,
		Geocoder:  geocoder,
		Adapters:  adapters,
		Monitor:   monitor,
		Hub:       hub,
		Routes:    reg,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

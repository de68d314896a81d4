// Package app assembles the cache, backend client, connectivity monitor and
// live tracking from configuration. Both the server and flightctl start here.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/config"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/connectivity"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/oauth"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/persistence"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/router"
	storeRepo "github.com/abhishek19273/flight-booking-sub000/internal/interface/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/interface/tracking"
	"github.com/abhishek19273/flight-booking-sub000/internal/usecase"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"
	"github.com/abhishek19273/flight-booking-sub000/templates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "skybound"

// App holds the wired components
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Cache      *usecase.ResultCache
	Tokens     *oauth.TokenProvider
	API        repository.FlightAPI
	Monitor    *connectivity.Monitor
	Searcher   *usecase.FlightSearcher
	Airports   *usecase.AirportLookup
	Bookings   *usecase.BookingService
	Sweeper    *usecase.CacheSweeper
	Subscriber *tracking.Subscriber
	Notifier   *usecase.StatusNotifier
}

// New wires every component. A local store that cannot be opened is logged and
// the app continues network-only.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(metricsNamespace, registry)

	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Metrics:  m,
	}

	store, err := OpenLocalStore(ctx, cfg, log)
	if err != nil {
		log.Warn("Local store unavailable, continuing without cache", "driver", cfg.StoreDriver, "error", err)
	}

	a.Cache = openResultCache(ctx, store, cfg, log, m)

	a.Tokens = oauth.NewTokenProvider(oauth.Settings{
		ClientID:     cfg.AuthClientID,
		ClientSecret: cfg.AuthClientSecret,
		AuthorizeURL: cfg.AuthAuthorizeURL,
		TokenURL:     cfg.AuthTokenURL,
		RedirectURL:  cfg.AuthRedirectURL,
		RefreshToken: cfg.AuthRefreshToken,
		AccessToken:  cfg.AuthAccessToken,
	}, log.Named("auth"))

	a.API = storeRepo.NewHTTPFlightAPI(storeRepo.FlightAPIConfig{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
	}, a.Tokens, log.Named("api"), m)

	a.Monitor = connectivity.NewMonitor(cfg.HealthCheckURL, cfg.ConnectivityTTL, 5*time.Second, log.Named("connectivity"))

	a.Searcher = usecase.NewFlightSearcher(a.Cache, a.API, a.Monitor, log.Named("search"), m)

	// the store handed out by Cache is nil when it failed to open
	var airports repository.AirportRepository
	var bookings repository.BookingRepository
	if local := a.Cache.Store(); local != nil {
		airports, bookings = local, local
	}
	a.Airports = usecase.NewAirportLookup(airports, a.API, a.Monitor, cfg.AirportMemoTTL, log.Named("airports"))
	a.Bookings = usecase.NewBookingService(a.API, bookings, a.Monitor, log.Named("bookings"))
	a.Sweeper = usecase.NewCacheSweeper(a.Cache, cfg.CacheSweepInterval, log.Named("sweeper"))

	trackingLog := log.Named("tracking")
	a.Subscriber = tracking.NewSubscriber(tracking.Config{
		URL:            cfg.StreamURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Token:          a.Tokens.Token,
	}, trackingLog, m)

	statusRouter := router.NewStatusRouter(trackingLog)
	for _, h := range templates.DefaultHandlers() {
		statusRouter.Register(h)
	}
	a.Notifier = usecase.NewStatusNotifier(statusRouter, 0, trackingLog)
	a.Subscriber.OnUpdate(a.Notifier.Handle)

	return a, nil
}

// Close closes the local store and its connection
func (a *App) Close(ctx context.Context) {
	if err := a.Cache.Close(ctx); err != nil {
		a.Logger.Error("Local store close error", "error", err)
	}
}

// OpenLocalStore connects the store selected by cfg.StoreDriver. The returned
// store still needs Open; its Close releases the connection.
func OpenLocalStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.LocalStore, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case config.StoreDriverSQLite:
		db, err := persistence.OpenGorm(config.StoreDriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storeRepo.NewGormLocalStore(db, log), nil

	case config.StoreDriverPostgres:
		db, err := persistence.OpenGorm(config.StoreDriverPostgres, cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		return storeRepo.NewGormLocalStore(db, log), nil

	case config.StoreDriverMongo:
		log.Info("Connecting to MongoDB")
		db, err := persistence.ConnectMongo(ctx, persistence.MongoSettings{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDB,
			Username: cfg.MongoUser,
			Password: cfg.MongoPassword,
		})
		if err != nil {
			return nil, err
		}
		return storeRepo.NewMongoLocalStore(db, log), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Deps returns the services behind the local HTTP facade
func (a *App) Deps() router.Deps {
	return router.Deps{
		Searcher: a.Searcher,
		Airports: a.Airports,
		Bookings: a.Bookings,
		Tracker:  a.Subscriber,
		Notices:  a.Notifier,
		Gatherer: a.Registry,
		Logger:   a.Logger,
	}
}

// openResultCache wraps store in a result cache. A store that fails to open is
// closed again so its connection does not leak.
func openResultCache(ctx context.Context, store repository.LocalStore, cfg *config.Config, log logger.Logger, m *metrics.Metrics) *usecase.ResultCache {
	cache := usecase.NewResultCache(store, usecase.CacheConfig{
		Freshness: cfg.CacheFreshness,
		Retention: cfg.CacheRetention,
	}, log.Named("cache"), m)
	if store == nil {
		return cache
	}

	if err := cache.Open(ctx); err != nil {
		log.Warn("Local cache failed to open, continuing without cache", "error", err)
		if err := store.Close(ctx); err != nil {
			log.Warn("Failed to close local store", "error", err)
		}
	}
	return cache
}

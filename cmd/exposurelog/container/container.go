package container

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/registry"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/repository"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/bootstrap"
	"github.com/lsst-sqre/exposurelog/common/db"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// ErrAlreadyInitialized is returned by a second NewContainer call in one process.
var ErrAlreadyInitialized = errors.New("container already initialized")

var initialized atomic.Bool

// Container holds the process-wide state: the message store, the
// registries and the services built on them. It is created once at startup.
type Container struct {
	// Components
	Components *bootstrap.Components
	Log        *logger.Logger

	// Storage
	Store    repository.MessageStore
	Resolver *registry.Resolver

	// Services
	MessageService       *service.MessageService
	ExposureService      *service.ExposureService
	ConfigurationService *service.ConfigurationService
}

// NewContainer opens the registries and builds every service once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	if !initialized.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}

	cfg := components.Config
	log := components.Logger

	store, err := NewMessageStore(components.DB)
	if err != nil {
		initialized.Store(false)
		return nil, err
	}

	policy, err := registry.ParseMatchPolicy(cfg.Registry.MatchPolicy)
	if err != nil {
		initialized.Store(false)
		return nil, err
	}

	registries, err := registry.OpenAll(ctx, cfg.Registry.URIs)
	if err != nil {
		initialized.Store(false)
		return nil, fmt.Errorf("failed to open registries: %w", err)
	}
	for i, reg := range registries {
		log.Info("registry opened", "index", i+1, "uri", reg.URI())
	}

	opts := []registry.ResolverOption{
		registry.WithMatchPolicy(policy),
		registry.WithTimeout(cfg.Registry.LookupTimeout),
	}
	if components.Cache != nil {
		opts = append(opts, registry.WithCache(components.Cache, cfg.Cache.DefaultTTL))
	}
	resolver := registry.NewResolver(registries, log, opts...)
	components.AddCleanup(resolver.Close)

	var events service.Publisher = service.NopPublisher{}
	if cfg.Features.EnableEvents && components.Redis != nil {
		events = service.NewRedisPublisher(components.Redis, cfg.Redis.Channel)
		log.Info("publishing message events", "channel", cfg.Redis.Channel)
	}

	return &Container{
		Components:           components,
		Log:                  log,
		Store:                store,
		Resolver:             resolver,
		MessageService:       service.NewMessageService(store, resolver, models.TAIClock{}, cfg.Site.SiteID, events, log),
		ExposureService:      service.NewExposureService(resolver, log),
		ConfigurationService: service.NewConfigurationService(cfg.Site.SiteID, cfg.Registry.URIs),
	}, nil
}

// NewMessageStore picks the store matching the database driver
func NewMessageStore(database *db.DB) (repository.MessageStore, error) {
	if database == nil {
		return nil, errors.New("message store needs a database")
	}
	switch database.Driver {
	case "postgres":
		return repository.NewPostgresStore(database.Pool), nil
	case "sqlite":
		return repository.NewSQLiteStore(database.SQL), nil
	}
	return nil, fmt.Errorf("unknown database driver: %s", database.Driver)
}

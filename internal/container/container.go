package container

import (
	"context"
	"fmt"

	"resultsdash/adapters/datasource"
	"resultsdash/adapters/memory"
	"resultsdash/adapters/postgres"
	"resultsdash/adapters/render"
	"resultsdash/adapters/sqlite"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/api"
	"resultsdash/internal/config"
	"resultsdash/internal/errors"
	"resultsdash/internal/migration"
	"resultsdash/ports"
	"resultsdash/ui"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Tabs       tabs.Config
	Renderer   *render.HTMLRenderer
	DataSource *datasource.Client
	Filters    ports.FilterRepository
	SSEHub     *api.SSEHub
	Sessions   *ui.Registry
	App        *ui.App
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Init builds every component. On error the components built so far are released.
func (c *Container) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tab configuration", c.initTabs},
		{"renderer", c.initRenderer},
		{"data source", c.initDataSource},
		{"filter store", c.initFilterStore},
		{"sessions", c.initSessions},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			c.Shutdown(ctx)
			return errors.Wrapf(err, "failed to initialize %s", step.name)
		}
	}
	c.Logger.Info("container initialized (filter store: %s)", c.Config.Store.Backend)
	return nil
}

func (c *Container) initTabs(context.Context) error {
	cfg, err := tabs.LoadFrom(c.Config.Tabs.File)
	if err != nil {
		return err
	}
	// fail at startup rather than on the first session
	tree, err := tabs.Build(cfg)
	if err != nil {
		return err
	}
	for _, k := range []tabs.Kind{tabs.KindPartyTrends, tabs.KindConstituencies} {
		if tree.Top(k) == nil {
			return errors.ConfigInvalid(fmt.Sprintf("tab configuration has no %s tab", k))
		}
	}
	c.Tabs = cfg
	return nil
}

func (c *Container) initRenderer(context.Context) error {
	r, err := render.New()
	if err != nil {
		return err
	}
	c.Renderer = r
	return nil
}

func (c *Container) initDataSource(context.Context) error {
	c.DataSource = datasource.NewClient(datasource.Config{
		BaseURL:  c.Config.Data.APIBaseURL,
		Timeout:  c.Config.Data.FetchTimeout,
		DataPath: c.Config.Data.DataPath,
		APIKey:   c.Config.Data.APIKey,
	}, c.Logger)
	return nil
}

// initFilterStore opens the configured store and runs its migrations
func (c *Container) initFilterStore(ctx context.Context) error {
	store := c.Config.Store
	switch store.Backend {
	case config.StoreMemory:
		c.Filters = memory.NewFilterRepository()
		return nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, store.DatabaseURL)
		if err != nil {
			return err
		}
		c.DB = db
		c.Filters = postgres.NewFilterRepository(db)
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, store.SQLitePath)
		if err != nil {
			return err
		}
		c.DB = db
		c.Filters = sqlite.NewFilterRepository(db)
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown filter store %q", store.Backend))
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, c.DB); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	c.Logger.Debug("filter store migrated to %s", migrator.Version())
	return nil
}

func (c *Container) initSessions(context.Context) error {
	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Sessions = ui.NewRegistry(c.Tabs, c.Renderer, c.DataSource, c.Filters, c.SSEHub, c.Logger)

	app, err := ui.NewApp(ui.Config{
		Port:          c.Config.Server.Port,
		GinMode:       c.Config.Server.GinMode,
		SessionCookie: c.Config.Server.SessionCookie,
	}, c.Sessions, c.DataSource, c.SSEHub, c.Logger)
	if err != nil {
		return err
	}
	c.App = app
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	// sessions flush their pending filter writes on close, so they go before the database
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.DB != nil {
		err := c.DB.Close()
		c.DB = nil
		return err
	}
	return nil
}

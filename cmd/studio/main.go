// Command studio runs the practice and task backend: the HTTP API, the
// outbound webhook dispatcher and the redelivery worker, over the
// configured storage backend.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/httpapi"
	"github.com/goliatone/go-studio/inbound"
	"github.com/goliatone/go-studio/jobs"
	"github.com/goliatone/go-studio/progress"
	"github.com/goliatone/go-studio/protocols"
	"github.com/goliatone/go-studio/store/jsonfile"
	"github.com/goliatone/go-studio/store/memory"
	sqlstore "github.com/goliatone/go-studio/store/sql"
	"github.com/goliatone/go-studio/tasks"
	"github.com/goliatone/go-studio/webhooks"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	_, logger := glog.Resolve("studio", nil, nil)
	logger = glog.Ensure(logger)

	if err := run(configPath, addr, logger); err != nil {
		logger.Error("studio exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(configPath *string, addr *string, logger core.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, err := loadRawConfig(*configPath)
	if err != nil {
		return err
	}
	override := core.Config{}
	if addr != nil && strings.TrimSpace(*addr) != "" {
		override.Server.Address = strings.TrimSpace(*addr)
	}
	cfg, err := core.ResolveConfig(ctx,
		core.NewCfgxConfigProvider(core.NewStaticRawConfigLoader(raw)),
		core.GoOptionsResolver{},
		override,
	)
	if err != nil {
		return err
	}

	taskStore, protocolStore, sessionStore, closeStores, err := buildStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	runtime, err := core.NewRuntime(ctx, override,
		core.WithLogger(logger),
		core.WithConfigProvider(core.NewCfgxConfigProvider(core.NewStaticRawConfigLoader(raw))),
		core.WithTaskStore(taskStore),
		core.WithProtocolStore(protocolStore),
		core.WithSessionStore(sessionStore),
	)
	if err != nil {
		return err
	}
	logger = runtime.Logger()

	dispatcher := webhooks.NewDispatcher(cfg.Webhook, logger)

	redeliveryQueue := jobs.NewMemoryQueue(0)
	sink, err := jobs.NewQueueSink(redeliveryQueue, logger)
	if err != nil {
		return err
	}
	worker, err := jobs.NewRedeliveryWorker(redeliveryQueue, redeliveryQueue, dispatcher, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("redelivery worker stopped", "error", err.Error())
		}
	}()

	emitter := webhooks.NewEmitter(dispatcher, sink, logger)

	lifecycle, err := tasks.NewLifecycle(taskStore, emitter, logger)
	if err != nil {
		return err
	}
	engine, err := progress.NewEngine(protocolStore, sessionStore, logger)
	if err != nil {
		return err
	}
	catalog, err := protocols.NewService(protocolStore, logger)
	if err != nil {
		return err
	}
	receiver := inbound.NewReceiver(cfg.Inbound, logger)

	server, err := httpapi.NewServer(lifecycle, engine, catalog, sessionStore, receiver, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.Handler(),
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("studio listening", "address", cfg.Server.Address, "backend", cfg.Storage.Backend)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	emitter.Flush()
	return nil
}

func loadRawConfig(path string) (map[string]any, error) {
	raw := map[string]any{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("studio: read config file: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("studio: parse config file: %w", err)
		}
	}
	applyEnvOverrides(raw)
	return raw, nil
}

// applyEnvOverrides layers process environment on top of the file config.
func applyEnvOverrides(raw map[string]any) {
	setNested := func(section string, key string, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		child, _ := raw[section].(map[string]any)
		if child == nil {
			child = map[string]any{}
		}
		child[key] = value
		raw[section] = child
	}
	setNested("server", "address", os.Getenv("STUDIO_SERVER_ADDRESS"))
	setNested("webhook", "target_url", os.Getenv("STUDIO_WEBHOOK_TARGET_URL"))
	setNested("inbound", "secret", os.Getenv("STUDIO_INBOUND_SECRET"))
	setNested("storage", "backend", os.Getenv("STUDIO_STORAGE_BACKEND"))
	setNested("storage", "data_dir", os.Getenv("STUDIO_STORAGE_DATA_DIR"))
	setNested("storage", "driver", os.Getenv("STUDIO_STORAGE_DRIVER"))
	setNested("storage", "dsn", os.Getenv("STUDIO_STORAGE_DSN"))
}

func buildStores(
	ctx context.Context,
	cfg core.StorageConfig,
	logger core.Logger,
) (core.TaskStore, core.ProtocolStore, core.SessionStore, func(), error) {
	noop := func() {}
	switch strings.TrimSpace(strings.ToLower(cfg.Backend)) {
	case core.StorageBackendMemory:
		return memory.NewTaskStore(), memory.NewProtocolStore(seedProtocols()...), memory.NewSessionStore(), noop, nil
	case core.StorageBackendSQL:
		return buildSQLStores(ctx, cfg)
	default:
		protocolStore := jsonfile.NewProtocolStore(cfg.DataDir, logger)
		if err := protocolStore.Seed(seedProtocols()); err != nil {
			return nil, nil, nil, noop, err
		}
		return jsonfile.NewTaskStore(cfg.DataDir, logger),
			protocolStore,
			jsonfile.NewSessionStore(cfg.DataDir, logger),
			noop, nil
	}
}

func buildSQLStores(
	ctx context.Context,
	cfg core.StorageConfig,
) (core.TaskStore, core.ProtocolStore, core.SessionStore, func(), error) {
	noop := func() {}
	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" && driver == "sqlite3" {
		dsn = "file:studio.db?_foreign_keys=on"
	}

	var dialect schema.Dialect
	switch driver {
	case "sqlite3":
		dialect = sqlitedialect.New()
	case "postgres":
		dialect = pgdialect.New()
	default:
		return nil, nil, nil, noop, fmt.Errorf("studio: unsupported sql driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, nil, noop, fmt.Errorf("studio: open database: %w", err)
	}
	if driver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{driver: driver, server: dsn}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, noop, fmt.Errorf("studio: persistence client: %w", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, noop, err
	}
	if err := factory.EnsureSchema(ctx); err != nil {
		_ = client.Close()
		return nil, nil, nil, noop, err
	}

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, noop, fmt.Errorf("studio: cache service: %w", err)
	}
	protocolStore, err := sqlstore.NewCachedProtocolStore(factory.ProtocolStore(), cacheService)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, noop, err
	}

	closeStores := func() { _ = client.Close() }
	return factory.TaskStore(), protocolStore, factory.SessionStore(), closeStores, nil
}

type persistenceConfig struct {
	driver string
	server string
}

func (c persistenceConfig) GetDebug() bool                { return false }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "go-studio" }

// seedProtocols is the starting practice catalog for a fresh install.
func seedProtocols() []core.Protocol {
	names := []string{
		"Scales and arpeggios",
		"Sight reading",
		"Repertoire polishing",
		"Improvisation",
		"Ear training",
	}
	out := make([]core.Protocol, 0, len(names))
	for i, name := range names {
		out = append(out, core.Protocol{
			ID:           i + 1,
			Name:         name,
			Status:       core.ProtocolStatusNotStarted,
			DesignStatus: core.DesignStatusDraft,
		})
	}
	return out
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type runtimeBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	taskStore       TaskStore
	protocolStore   ProtocolStore
	sessionStore    SessionStore
	dispatcher      EventDispatcher
	deadLetter      DeadLetterSink
}

type Option func(*runtimeBuilder)

func WithLogger(logger Logger) Option {
	return func(b *runtimeBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *runtimeBuilder) {
		b.loggerProvider = provider
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *runtimeBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *runtimeBuilder) {
		b.optionsResolver = resolver
	}
}

func WithTaskStore(store TaskStore) Option {
	return func(b *runtimeBuilder) {
		b.taskStore = store
	}
}

func WithProtocolStore(store ProtocolStore) Option {
	return func(b *runtimeBuilder) {
		b.protocolStore = store
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(b *runtimeBuilder) {
		b.sessionStore = store
	}
}

func WithDispatcher(dispatcher EventDispatcher) Option {
	return func(b *runtimeBuilder) {
		b.dispatcher = dispatcher
	}
}

func WithDeadLetterSink(sink DeadLetterSink) Option {
	return func(b *runtimeBuilder) {
		b.deadLetter = sink
	}
}

func defaultRuntimeBuilder(runtime Config) runtimeBuilder {
	loggerProvider, logger := glog.Resolve("studio", nil, nil)
	return runtimeBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader wraps an already-materialized raw config map.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Server.Address) != "" {
		layer["server"] = map[string]any{
			"address": cfg.Server.Address,
		}
	}
	webhook := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Webhook.TargetURL) != "" {
		webhook["target_url"] = cfg.Webhook.TargetURL
	}
	if includeZero || cfg.Webhook.MaxAttempts != 0 {
		webhook["max_attempts"] = cfg.Webhook.MaxAttempts
	}
	if includeZero || cfg.Webhook.TimeoutSeconds != 0 {
		webhook["timeout_seconds"] = cfg.Webhook.TimeoutSeconds
	}
	if includeZero || cfg.Webhook.InitialBackoffSeconds != 0 {
		webhook["initial_backoff_seconds"] = cfg.Webhook.InitialBackoffSeconds
	}
	if len(webhook) > 0 {
		layer["webhook"] = webhook
	}
	if includeZero || strings.TrimSpace(cfg.Inbound.Secret) != "" {
		layer["inbound"] = map[string]any{
			"secret": cfg.Inbound.Secret,
		}
	}
	storage := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Storage.Backend) != "" {
		storage["backend"] = cfg.Storage.Backend
	}
	if includeZero || strings.TrimSpace(cfg.Storage.DataDir) != "" {
		storage["data_dir"] = cfg.Storage.DataDir
	}
	if includeZero || strings.TrimSpace(cfg.Storage.Driver) != "" {
		storage["driver"] = cfg.Storage.Driver
	}
	if includeZero || strings.TrimSpace(cfg.Storage.DSN) != "" {
		storage["dsn"] = cfg.Storage.DSN
	}
	if len(storage) > 0 {
		layer["storage"] = storage
	}
	return layer
}

// ResolveConfig runs the defaults < loaded < runtime layering once so the
// binary and tests share one resolution path.
func ResolveConfig(
	ctx context.Context,
	provider ConfigProvider,
	resolver OptionsResolver,
	runtime Config,
) (Config, error) {
	defaults := DefaultConfig()
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryOperation, "core: load config")
	}
	return resolver.Resolve(defaults, loaded, runtime)
}

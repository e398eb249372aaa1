package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Runtime bundles the resolved configuration and wired dependencies the
// transport and command layers pull from.
type Runtime struct {
	config         Config
	logger         Logger
	loggerProvider LoggerProvider
	taskStore      TaskStore
	protocolStore  ProtocolStore
	sessionStore   SessionStore
	dispatcher     EventDispatcher
	deadLetter     DeadLetterSink
}

func NewRuntime(ctx context.Context, runtime Config, options ...Option) (*Runtime, error) {
	builder := defaultRuntimeBuilder(runtime)
	for _, option := range options {
		if option != nil {
			option(&builder)
		}
	}

	resolved, err := ResolveConfig(ctx, builder.configProvider, builder.optionsResolver, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	provider, logger := glog.Resolve("studio", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(resolved.ServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.taskStore == nil {
		return nil, fmt.Errorf("core: task store is required")
	}
	if builder.protocolStore == nil {
		return nil, fmt.Errorf("core: protocol store is required")
	}
	if builder.sessionStore == nil {
		return nil, fmt.Errorf("core: session store is required")
	}

	return &Runtime{
		config:         resolved,
		logger:         logger,
		loggerProvider: provider,
		taskStore:      builder.taskStore,
		protocolStore:  builder.protocolStore,
		sessionStore:   builder.sessionStore,
		dispatcher:     builder.dispatcher,
		deadLetter:     builder.deadLetter,
	}, nil
}

func (r *Runtime) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Runtime) Logger() Logger {
	if r == nil {
		return glog.Nop()
	}
	return r.logger
}

func (r *Runtime) LoggerProvider() LoggerProvider {
	if r == nil {
		return nil
	}
	return r.loggerProvider
}

func (r *Runtime) TaskStore() TaskStore {
	if r == nil {
		return nil
	}
	return r.taskStore
}

func (r *Runtime) ProtocolStore() ProtocolStore {
	if r == nil {
		return nil
	}
	return r.protocolStore
}

func (r *Runtime) SessionStore() SessionStore {
	if r == nil {
		return nil
	}
	return r.sessionStore
}

func (r *Runtime) Dispatcher() EventDispatcher {
	if r == nil {
		return nil
	}
	return r.dispatcher
}

func (r *Runtime) DeadLetterSink() DeadLetterSink {
	if r == nil {
		return nil
	}
	return r.deadLetter
}

// LogWith emits a message at the given level with sorted structured fields,
// upgrading the logger through FieldsLogger/WithContext when available.
func LogWith(ctx context.Context, logger Logger, level string, message string, fields map[string]any) {
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

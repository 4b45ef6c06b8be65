package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"questionnaire-builder/application/commands/bus"
	commandhandlers "questionnaire-builder/application/commands/handlers"
	"questionnaire-builder/application/ports"
	querybus "questionnaire-builder/application/queries/bus"
	queryhandlers "questionnaire-builder/application/queries/handlers"
	"questionnaire-builder/application/services"
	"questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/identity"
	"questionnaire-builder/infrastructure/layout"
	"questionnaire-builder/infrastructure/messaging"
	"questionnaire-builder/infrastructure/observability"
	"questionnaire-builder/infrastructure/persistence/memory"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const metricsNamespace = "questionnaire_builder"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideTracing installs the OpenTelemetry provider when tracing is
// enabled. The returned provider is nil otherwise; Shutdown is nil-safe.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideSessionStore creates the in-memory session store
func ProvideSessionStore(cfg *config.Config) *memory.SessionStore {
	return memory.NewSessionStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
}

// ProvideQuestionnaireRepository exposes the session store through its port
func ProvideQuestionnaireRepository(store *memory.SessionStore) ports.QuestionnaireRepository {
	return store
}

// ProvideIDProvider creates the identifier source
func ProvideIDProvider() ports.IDProvider {
	return identity.NewUUIDProvider()
}

// ProvideDomainConfig serves the domain configuration. With a config file
// the file is watched and hot reloaded; otherwise the built-in defaults
// for the environment are used.
func ProvideDomainConfig(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.DomainConfigProvider, func(), error) {
	if cfg.DomainConfigFile == "" {
		dc, err := config.LoadDomainConfig("", cfg.Environment)
		if err != nil {
			return nil, nil, err
		}
		return config.NewStaticDomainConfig(dc), func() {}, nil
	}

	watcher, err := config.NewDomainConfigWatcher(cfg.DomainConfigFile, cfg.Environment, metrics, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.Start()
	logger.Info("Watching domain config", zap.String("path", cfg.DomainConfigFile))
	return watcher, watcher.Stop, nil
}

// ProvideLayoutEngine wraps the layered engine in a circuit breaker
func ProvideLayoutEngine(configs ports.DomainConfigProvider, logger *zap.Logger) ports.LayoutEngine {
	return layout.NewResilientEngine(
		layout.NewLayeredEngine(configs),
		configs,
		layout.DefaultBreakerConfig(),
		logger,
	)
}

// ProvideEventDispatcher creates the in-process event dispatcher
func ProvideEventDispatcher(metrics *observability.Collector, logger *zap.Logger) *messaging.EventDispatcher {
	return messaging.NewEventDispatcher(metrics, logger)
}

// ProvideEventPublisher exposes the dispatcher through its port
func ProvideEventPublisher(dispatcher *messaging.EventDispatcher) ports.EventPublisher {
	return dispatcher
}

// ProvideMetricsRecorder exposes the collector through its port
func ProvideMetricsRecorder(metrics *observability.Collector) ports.MetricsRecorder {
	return metrics
}

// ProvideQuestionnaireService creates the application service
func ProvideQuestionnaireService(
	repo ports.QuestionnaireRepository,
	publisher ports.EventPublisher,
	ids ports.IDProvider,
	engine ports.LayoutEngine,
	configs ports.DomainConfigProvider,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *services.QuestionnaireService {
	return services.NewQuestionnaireService(repo, publisher, ids, engine, configs, metrics, logger)
}

// ProvideCommandBus creates the command bus and registers every handler
func ProvideCommandBus(service *services.QuestionnaireService, metrics *observability.Collector, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)
	if err := commandhandlers.NewQuestionnaireHandlers(service, logger).Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus and registers every handler
func ProvideQueryBus(service *services.QuestionnaireService, metrics *observability.Collector, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		querybus.MetricsMiddleware(metrics),
	)
	if err := queryhandlers.NewQuestionnaireQueryHandlers(service).Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

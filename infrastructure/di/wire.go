//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"questionnaire-builder/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideSessionStore,
	ProvideQuestionnaireRepository,
	ProvideIDProvider,
	ProvideDomainConfig,
	ProvideLayoutEngine,
	ProvideEventDispatcher,
	ProvideEventPublisher,
	ProvideMetricsRecorder,
	ProvideQuestionnaireService,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned
// cleanup stops the config watcher and flushes the tracer.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}

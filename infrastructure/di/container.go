package di

import (
	"context"
	"time"

	"questionnaire-builder/application/commands/bus"
	"questionnaire-builder/application/ports"
	querybus "questionnaire-builder/application/queries/bus"
	"questionnaire-builder/application/services"
	"questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/messaging"
	"questionnaire-builder/infrastructure/observability"
	"questionnaire-builder/infrastructure/persistence/memory"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Tracing    *observability.TracerProvider
	Sessions   *memory.SessionStore
	Configs    ports.DomainConfigProvider
	IDs        ports.IDProvider
	Layout     ports.LayoutEngine
	Dispatcher *messaging.EventDispatcher
	Service    *services.QuestionnaireService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
}

// Ready reports whether the session store answers.
func (c *Container) Ready(ctx context.Context) error {
	_, err := c.Sessions.List(ctx)
	return err
}

// RunSessionJanitor evicts idle sessions until ctx is done and keeps the
// session gauge current. It returns at once when sessions never expire.
func (c *Container) RunSessionJanitor(ctx context.Context) {
	ttl := time.Duration(c.Config.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	c.Sessions.RunJanitor(ctx, interval, func(removed int) {
		ids, err := c.Sessions.List(ctx)
		if err == nil {
			c.Metrics.SetSessions(len(ids))
		}
		c.Logger.Info("Evicted idle sessions", zap.Int("removed", removed), zap.Int("remaining", len(ids)))
	})
}

package layout

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"questionnaire-builder/application/ports"
	"questionnaire-builder/domain/config"
)

// BreakerConfig holds the circuit breaker settings of ResilientEngine.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "layout",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// ResilientEngine guards a layout engine with a circuit breaker. When the
// inner engine fails or the breaker is open the nodes are stacked in a
// single column, so callers always get a position for every node.
type ResilientEngine struct {
	inner   ports.LayoutEngine
	cb      *gobreaker.CircuitBreaker
	configs ports.DomainConfigProvider
	logger  *zap.Logger
}

// NewResilientEngine wraps inner
func NewResilientEngine(inner ports.LayoutEngine, configs ports.DomainConfigProvider, cfg BreakerConfig, logger *zap.Logger) *ResilientEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Layout circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &ResilientEngine{inner: inner, cb: cb, configs: configs, logger: logger}
}

// Layout delegates to the inner engine and falls back to a column
func (e *ResilientEngine) Layout(ctx context.Context, nodes []string, edges []ports.LayoutEdge) (map[string]ports.Position, error) {
	result, err := e.cb.Execute(func() (interface{}, error) {
		return e.inner.Layout(ctx, nodes, edges)
	})
	if err == nil {
		return result.(map[string]ports.Position), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	e.logger.Warn("Layout engine unavailable, using column fallback",
		zap.Int("nodes", len(nodes)),
		zap.Error(err),
	)
	return columnLayout(nodes, e.params()), nil
}

// State reports the breaker state
func (e *ResilientEngine) State() gobreaker.State {
	return e.cb.State()
}

func (e *ResilientEngine) params() config.LayoutConfig {
	if e.configs == nil {
		return config.DefaultDomainConfig().Layout
	}
	return e.configs.Current().Layout
}

func columnLayout(nodes []string, p config.LayoutConfig) map[string]ports.Position {
	positions := make(map[string]ports.Position, len(nodes))
	row := 0
	for _, n := range nodes {
		if _, dup := positions[n]; dup {
			continue
		}
		positions[n] = ports.Position{
			X: p.NodeWidth / 2,
			Y: p.NodeHeight/2 + float64(row)*(p.NodeHeight+p.RankSep),
		}
		row++
	}
	return positions
}

package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct {
	Name string
}

func (c *pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

type timings struct{ ops []string }

func (t *timings) ObserveOperation(op string, _ time.Duration, _ error) { t.ops = append(t.ops, op) }

func TestCommandBus_Send(t *testing.T) {
	rec := &timings{}
	b := NewCommandBus(LoggingMiddleware(zap.NewNop()), MetricsMiddleware(rec))

	var got string
	require.NoError(t, b.Register(&pingCommand{}, CommandHandlerFunc(func(_ context.Context, cmd Command) error {
		got = cmd.(*pingCommand).Name
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), &pingCommand{Name: "hello"}))
	assert.Equal(t, "hello", got)
	assert.Equal(t, []string{"command.pingCommand"}, rec.ops)
}

func TestCommandBus_Errors(t *testing.T) {
	b := NewCommandBus()
	boom := errors.New("boom")
	require.NoError(t, b.Register(&pingCommand{}, CommandHandlerFunc(func(context.Context, Command) error {
		return boom
	})))

	t.Run("duplicate registration", func(t *testing.T) {
		assert.Error(t, b.Register(&pingCommand{}, CommandHandlerFunc(func(context.Context, Command) error { return nil })))
	})
	t.Run("validation runs first", func(t *testing.T) {
		err := b.Send(context.Background(), &pingCommand{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})
	t.Run("handler error is returned unchanged", func(t *testing.T) {
		assert.ErrorIs(t, b.Send(context.Background(), &pingCommand{Name: "x"}), boom)
	})
	t.Run("unregistered command", func(t *testing.T) {
		assert.ErrorIs(t, b.Send(context.Background(), otherCommand{}), ErrHandlerNotFound)
	})
}

func TestPipeline_Order(t *testing.T) {
	var trail []string
	mark := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
				trail = append(trail, name)
				return next.Handle(ctx, cmd)
			})
		}
	}

	h := NewPipeline(mark("outer"), mark("inner")).Execute(CommandHandlerFunc(func(context.Context, Command) error {
		trail = append(trail, "handler")
		return nil
	}))
	require.NoError(t, h.Handle(context.Background(), otherCommand{}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trail)
}

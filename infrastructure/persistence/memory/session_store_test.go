package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	pkgerrors "questionnaire-builder/pkg/errors"
)

func newQuestionnaire(t *testing.T, id string) *aggregates.Questionnaire {
	t.Helper()
	q, err := aggregates.NewQuestionnaire(id, nil)
	require.NoError(t, err)
	return q
}

func TestSessionStore_CreateAndView(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)

	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "s1")))

	err := store.Create(ctx, newQuestionnaire(t, "s1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	var seen string
	require.NoError(t, store.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		seen = q.ID()
		return nil
	}))
	assert.Equal(t, "s1", seen)

	err = store.View(ctx, "missing", func(*aggregates.Questionnaire) error { return nil })
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeQuestionnaireNotFound))
}

func TestSessionStore_UpdatePropagatesCallbackError(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "s1")))

	boom := errors.New("boom")
	err := store.Update(ctx, "s1", func(*aggregates.Questionnaire) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSessionStore_ReplaceSwapsSession(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)

	first := newQuestionnaire(t, "s1")
	require.NoError(t, store.Create(ctx, first))

	second := newQuestionnaire(t, "s1")
	_, err := second.AddQuestion(valueobjects.MustQuestionID("q1"), entities.QuestionContent{Title: "Age"})
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, second))

	require.NoError(t, store.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		assert.Equal(t, 1, q.Len())
		return nil
	}))

	// Replace creates missing sessions.
	require.NoError(t, store.Replace(ctx, newQuestionnaire(t, "s2")))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestSessionStore_ReplaceSurvivesConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "s1")))

	replacement := newQuestionnaire(t, "s1")
	_, err := replacement.AddQuestion(valueobjects.MustQuestionID("q1"), entities.QuestionContent{Title: "Age"})
	require.NoError(t, err)

	done := make(chan error, 1)
	require.NoError(t, store.Update(ctx, "s1", func(*aggregates.Questionnaire) error {
		// The replace blocks on the session lock held here; the delete
		// drops the entry it already looked up.
		go func() { done <- store.Replace(ctx, replacement) }()
		time.Sleep(20 * time.Millisecond)
		return store.Delete(ctx, "s1")
	}))
	require.NoError(t, <-done)

	require.NoError(t, store.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		assert.Equal(t, 1, q.Len())
		return nil
	}))
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "s1")))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.Error(t, store.Delete(ctx, "s1"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionStore_ConcurrentUpdatesAreSerialised(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "s1")))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Update(ctx, "s1", func(q *aggregates.Questionnaire) error {
				id := valueobjects.MustQuestionID(string(rune('a' + i)))
				_, err := q.AddQuestion(id, entities.QuestionContent{Title: "Q"})
				return err
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, store.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		assert.Equal(t, workers, q.Len())
		return nil
	}))
}

func TestSessionStore_CleanupDropsIdleSessions(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "old")))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Create(ctx, newQuestionnaire(t, "fresh")))

	assert.Equal(t, 1, store.Cleanup(ctx))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestSessionStore_CancelledContext(t *testing.T) {
	store := NewSessionStore(0)
	require.NoError(t, store.Create(context.Background(), newQuestionnaire(t, "s1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Update(ctx, "s1", func(*aggregates.Questionnaire) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

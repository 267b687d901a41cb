package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdirudian/pressflow/internal/domain"
)

type fakeIngest struct {
	created []domain.Article
	err     error
	release chan struct{}
	calls   int
}

func (f *fakeIngest) Run(_ context.Context) ([]domain.Article, error) {
	f.calls++
	if f.release != nil {
		<-f.release
	}
	return f.created, f.err
}

type fakePoster struct {
	err   error
	calls int
}

func (f *fakePoster) RunScheduledPosting(_ context.Context) error {
	f.calls++
	return f.err
}

func TestCoordinatorRunNow(t *testing.T) {
	t.Run("runs both phases", func(t *testing.T) {
		ingest := &fakeIngest{}
		poster := &fakePoster{}
		coordinator := NewCoordinator(ingest, poster, &recordingAudit{}, nil)

		require.NoError(t, coordinator.RunNow(context.Background()))
		assert.Equal(t, 1, ingest.calls)
		assert.Equal(t, 1, poster.calls)
		assert.False(t, coordinator.Running())
	})

	t.Run("posting still runs when ingestion fails", func(t *testing.T) {
		ingest := &fakeIngest{err: errors.New("feed storm")}
		poster := &fakePoster{}
		auditLog := &recordingAudit{}
		coordinator := NewCoordinator(ingest, poster, auditLog, nil)

		require.NoError(t, coordinator.RunNow(context.Background()))
		assert.Equal(t, 1, poster.calls)
		assert.Equal(t, 1, auditLog.countLevel(domain.LevelError))
	})

	t.Run("posting failure is logged, not returned", func(t *testing.T) {
		ingest := &fakeIngest{}
		poster := &fakePoster{err: errors.New("wordpress down")}
		auditLog := &recordingAudit{}
		coordinator := NewCoordinator(ingest, poster, auditLog, nil)

		require.NoError(t, coordinator.RunNow(context.Background()))
		assert.Equal(t, 1, auditLog.countLevel(domain.LevelError))
	})

	t.Run("guard resets after a failed run", func(t *testing.T) {
		ingest := &fakeIngest{err: errors.New("boom")}
		poster := &fakePoster{err: errors.New("boom")}
		coordinator := NewCoordinator(ingest, poster, &recordingAudit{}, nil)

		require.NoError(t, coordinator.RunNow(context.Background()))
		require.NoError(t, coordinator.RunNow(context.Background()))
		assert.Equal(t, 2, ingest.calls)
	})
}

func TestCoordinatorTrigger(t *testing.T) {
	t.Run("second trigger during a run is rejected", func(t *testing.T) {
		release := make(chan struct{})
		ingest := &fakeIngest{release: release}
		poster := &fakePoster{}
		coordinator := NewCoordinator(ingest, poster, &recordingAudit{}, nil)

		require.NoError(t, coordinator.Trigger())
		assert.True(t, coordinator.Running())

		require.ErrorIs(t, coordinator.Trigger(), ErrAlreadyRunning)
		require.ErrorIs(t, coordinator.RunNow(context.Background()), ErrAlreadyRunning)

		close(release)
		require.Eventually(t, func() bool { return !coordinator.Running() }, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, ingest.calls)
		assert.Equal(t, 1, poster.calls)
	})

	t.Run("trigger is accepted again once the run finishes", func(t *testing.T) {
		ingest := &fakeIngest{}
		poster := &fakePoster{}
		coordinator := NewCoordinator(ingest, poster, &recordingAudit{}, nil)

		require.NoError(t, coordinator.Trigger())
		require.Eventually(t, func() bool { return !coordinator.Running() }, time.Second, 5*time.Millisecond)

		require.NoError(t, coordinator.Trigger())
		require.Eventually(t, func() bool { return !coordinator.Running() }, time.Second, 5*time.Millisecond)
		assert.Equal(t, 2, ingest.calls)
	})
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu     sync.Mutex
	items  [][]byte
	pushed [][]byte
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	q.mu.Lock()
	if len(q.items) > 0 {
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		return item, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, ErrQueueEmpty
	}
}

func (q *memQueue) Push(_ context.Context, raw []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushed = append(q.pushed, raw)
	return nil
}

func (q *memQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type recompute struct {
	students []int
	subjects []int
}

type fakeStats struct {
	mu       sync.Mutex
	calls    []recompute
	failBulk bool
	failPair map[[2]int]bool
}

func (f *fakeStats) Recompute(_ context.Context, students, subjects []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recompute{students, subjects})
	if len(students) > 1 && f.failBulk {
		return errors.New("bulk failed")
	}
	if len(students) == 1 && f.failPair[[2]int{students[0], subjects[0]}] {
		return errors.New("row failed")
	}
	return nil
}

type fakeInvalidator struct {
	mu  sync.Mutex
	ids []int
}

func (f *fakeInvalidator) Invalidate(_ context.Context, ids ...int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
	return nil
}

func event(t *testing.T, resultID int64, student, subject int) []byte {
	t.Helper()
	raw, err := json.Marshal(model.ResultEvent{ResultID: resultID, StudentID: student, SubjectID: subject})
	require.NoError(t, err)
	return raw
}

func TestFlush_DedupesPairsAndInvalidates(t *testing.T) {
	stats := &fakeStats{}
	inv := &fakeInvalidator{}
	w := NewStatsWorker(&memQueue{}, stats, inv, zerolog.Nop())

	w.flushSafe(context.Background(), []model.ResultEvent{
		{ResultID: 1, StudentID: 7, SubjectID: 2},
		{ResultID: 2, StudentID: 7, SubjectID: 2},
		{ResultID: 3, StudentID: 7, SubjectID: 3},
		{ResultID: 4, StudentID: 8, SubjectID: 2},
	})

	require.Len(t, stats.calls, 1)
	assert.Equal(t, []int{7, 7, 8}, stats.calls[0].students)
	assert.Equal(t, []int{2, 3, 2}, stats.calls[0].subjects)
	assert.Equal(t, []int{7, 8}, inv.ids)
}

func TestFlush_FallbackRequeuesFailedPairs(t *testing.T) {
	stats := &fakeStats{failBulk: true, failPair: map[[2]int]bool{{8, 2}: true}}
	inv := &fakeInvalidator{}
	q := &memQueue{}
	w := NewStatsWorker(q, stats, inv, zerolog.Nop())

	w.flushSafe(context.Background(), []model.ResultEvent{
		{ResultID: 1, StudentID: 7, SubjectID: 2},
		{ResultID: 2, StudentID: 8, SubjectID: 2},
		{ResultID: 3, StudentID: 8, SubjectID: 2},
	})

	assert.Len(t, stats.calls, 3)
	assert.Equal(t, []int{7}, inv.ids)
	require.Len(t, q.pushed, 1)

	var ev model.ResultEvent
	require.NoError(t, json.Unmarshal(q.pushed[0], &ev))
	assert.Equal(t, 8, ev.StudentID)
	assert.Equal(t, 1, ev.Attempts)
}

func TestFlush_DeadLettersAfterMaxAttempts(t *testing.T) {
	stats := &fakeStats{failPair: map[[2]int]bool{{8, 2}: true}}
	q := &memQueue{}
	dlq := &memQueue{}
	w := NewStatsWorker(q, stats, nil, zerolog.Nop()).WithDeadLetter(dlq)

	batch := []model.ResultEvent{{ResultID: 2, StudentID: 8, SubjectID: 2}}
	for i := 1; i < StatsMaxAttempts; i++ {
		w.flushSafe(context.Background(), batch)
		require.Len(t, q.pushed, i)
		require.NoError(t, json.Unmarshal(q.pushed[i-1], &batch[0]))
		assert.Equal(t, i, batch[0].Attempts)
	}
	assert.Empty(t, dlq.pushed)

	w.flushSafe(context.Background(), batch)

	assert.Len(t, q.pushed, StatsMaxAttempts-1, "exhausted event must not go back on the queue")
	require.Len(t, dlq.pushed, 1)
	var ev model.ResultEvent
	require.NoError(t, json.Unmarshal(dlq.pushed[0], &ev))
	assert.Equal(t, int64(2), ev.ResultID)
	assert.Equal(t, StatsMaxAttempts, ev.Attempts)
}

func TestFlush_ExhaustedEventDroppedWithoutDeadLetter(t *testing.T) {
	stats := &fakeStats{failPair: map[[2]int]bool{{8, 2}: true}}
	q := &memQueue{}
	w := NewStatsWorker(q, stats, nil, zerolog.Nop())

	w.flushSafe(context.Background(), []model.ResultEvent{
		{ResultID: 2, StudentID: 8, SubjectID: 2, Attempts: StatsMaxAttempts - 1},
	})

	assert.Empty(t, q.pushed)
}

func TestStart_FlushesOnShutdown(t *testing.T) {
	q := &memQueue{items: [][]byte{
		event(t, 1, 7, 2),
		[]byte("garbage"),
		event(t, 2, 0, 2),
		event(t, 3, 9, 4),
	}}
	stats := &fakeStats{}
	inv := &fakeInvalidator{}
	w := NewStatsWorker(q, stats, inv, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, _ := q.Len(context.Background())
		return n == 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	var students []int
	for _, c := range stats.calls {
		students = append(students, c.students...)
	}
	assert.ElementsMatch(t, []int{7, 9}, students)
	assert.ElementsMatch(t, []int{7, 9}, inv.ids)
}

func TestPending(t *testing.T) {
	w := NewStatsWorker(&memQueue{items: [][]byte{{1}, {2}}}, &fakeStats{}, nil, zerolog.Nop())

	n, err := w.Pending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

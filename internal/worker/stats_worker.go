package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatsBatchSize    = 50
	StatsBatchTimeout = 2 * time.Second
	StatsPollTimeout  = 1 * time.Second

	// StatsMaxAttempts is how many failed recomputes an event gets before it
	// is moved to the dead-letter list.
	StatsMaxAttempts = 5
)

// ErrQueueEmpty is returned by Pop when nothing arrived within the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is the list the grading service pushes result events onto.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Push(ctx context.Context, raw []byte) error
	Len(ctx context.Context) (int64, error)
}

// StatsStore rebuilds per-subject aggregates from stored results.
type StatsStore interface {
	Recompute(ctx context.Context, students, subjects []int) error
}

// SummaryInvalidator drops cached report summaries.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, studentIDs ...int) error
}

// StatsWorker keeps student_subject_stats in step with exam_results.
// Recomputing is idempotent, so a redelivered event does no harm.
type StatsWorker struct {
	queue      Queue
	deadLetter Queue
	stats      StatsStore
	summaries  SummaryInvalidator
	log        zerolog.Logger
}

// NewStatsWorker creates a StatsWorker. summaries may be nil.
func NewStatsWorker(queue Queue, stats StatsStore, summaries SummaryInvalidator, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		queue:     queue,
		stats:     stats,
		summaries: summaries,
		log:       log.With().Str("component", "stats_worker").Logger(),
	}
}

// WithDeadLetter sets the list that receives events which failed
// StatsMaxAttempts times. Without one those events are logged and dropped.
func (w *StatsWorker) WithDeadLetter(q Queue) *StatsWorker {
	w.deadLetter = q
	return w
}

type statsKey struct {
	studentID int
	subjectID int
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start drains the queue until ctx is cancelled, then flushes what it holds.
func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	batch := make([]model.ResultEvent, 0, StatsBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= StatsBatchSize || time.Since(lastFlush) >= StatsBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, StatsPollTimeout)
			if err != nil {
				if !errors.Is(err, ErrQueueEmpty) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop failed")
					// Avoid spinning while Redis is unreachable.
					sleepCtx(ctx, StatsPollTimeout)
				}
				continue
			}

			var ev model.ResultEvent
			if err := json.Unmarshal(raw, &ev); err != nil || ev.StudentID <= 0 || ev.SubjectID <= 0 {
				w.log.Error().Err(err).Bytes("payload", raw).Msg("Invalid result event dropped")
				continue
			}
			batch = append(batch, ev)
		}
	}
}

// Pending reports the queue length.
func (w *StatsWorker) Pending(ctx context.Context) (int64, error) {
	return w.queue.Len(ctx)
}

// ----------------------------------------------------------------
// Batch recompute with per-pair fallback
// ----------------------------------------------------------------

func (w *StatsWorker) flushSafe(ctx context.Context, batch []model.ResultEvent) {
	if len(batch) == 0 {
		return
	}

	pairs := uniquePairs(batch)
	students := make([]int, len(pairs))
	subjects := make([]int, len(pairs))
	for i, p := range pairs {
		students[i], subjects[i] = p.studentID, p.subjectID
	}

	done := pairs
	if err := w.stats.Recompute(ctx, students, subjects); err != nil {
		w.log.Warn().Err(err).Int("pairs", len(pairs)).Msg("Bulk stats recompute failed, using fallback")

		done = done[:0:0]
		for _, p := range pairs {
			if err := w.stats.Recompute(ctx, []int{p.studentID}, []int{p.subjectID}); err != nil {
				w.log.Error().Err(err).
					Int("student_id", p.studentID).
					Int("subject_id", p.subjectID).
					Msg("Stats recompute failed, requeueing")
				w.requeue(ctx, batch, p)
				continue
			}
			done = append(done, p)
		}
	}

	w.invalidate(ctx, done)
}

// requeue pushes back one event of the pair with its attempt count raised.
// One event is enough since recompute reads every stored result of the pair.
// An event that has used up its attempts goes to the dead-letter list.
func (w *StatsWorker) requeue(ctx context.Context, batch []model.ResultEvent, p statsKey) {
	var ev model.ResultEvent
	found := false
	for _, e := range batch {
		if e.StudentID != p.studentID || e.SubjectID != p.subjectID {
			continue
		}
		if !found || e.Attempts > ev.Attempts {
			ev = e
		}
		found = true
	}
	if !found {
		return
	}
	ev.Attempts++

	raw, _ := json.Marshal(ev)
	if ev.Attempts < StatsMaxAttempts {
		if err := w.queue.Push(ctx, raw); err != nil {
			w.log.Error().Err(err).Int64("result_id", ev.ResultID).Msg("Requeue failed, event lost")
		}
		return
	}

	logEv := w.log.Error().
		Int64("result_id", ev.ResultID).
		Int("student_id", ev.StudentID).
		Int("subject_id", ev.SubjectID).
		Int("attempts", ev.Attempts)
	if w.deadLetter == nil {
		logEv.Msg("Stats recompute gave up, event dropped")
		return
	}
	if err := w.deadLetter.Push(ctx, raw); err != nil {
		logEv.AnErr("push_error", err).Msg("Dead-letter push failed, event lost")
		return
	}
	logEv.Msg("Stats recompute gave up, event dead-lettered")
}

func (w *StatsWorker) invalidate(ctx context.Context, pairs []statsKey) {
	if w.summaries == nil || len(pairs) == 0 {
		return
	}
	seen := make(map[int]bool, len(pairs))
	ids := make([]int, 0, len(pairs))
	for _, p := range pairs {
		if !seen[p.studentID] {
			seen[p.studentID] = true
			ids = append(ids, p.studentID)
		}
	}
	if err := w.summaries.Invalidate(ctx, ids...); err != nil {
		w.log.Warn().Err(err).Ints("student_ids", ids).Msg("Summary invalidation failed")
	}
}

func uniquePairs(batch []model.ResultEvent) []statsKey {
	seen := make(map[statsKey]bool, len(batch))
	out := make([]statsKey, 0, len(batch))
	for _, ev := range batch {
		k := statsKey{studentID: ev.StudentID, subjectID: ev.SubjectID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ----------------------------------------------------------------
// Redis list queue
// ----------------------------------------------------------------

// RedisQueue is a Queue backed by a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewStatsQueue returns the queue the grading service publishes to.
func NewStatsQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.PersistStatsQueue}
}

// NewStatsDeadLetterQueue returns the list for events the worker gave up on.
func NewStatsDeadLetterQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.PersistStatsDeadLetter}
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(item) < 2 {
		return nil, ErrQueueEmpty
	}
	return []byte(item[1]), nil
}

func (q *RedisQueue) Push(ctx context.Context, raw []byte) error {
	return q.rdb.RPush(ctx, q.key, raw).Err()
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

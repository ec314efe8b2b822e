package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
)

// ErrPersistResult is returned when the graded submission could not be stored.
// Nothing of the submission is persisted in that case.
var ErrPersistResult = errors.New("persist exam result")

// ErrDuplicateAnswer is returned when two answer keys name the same question,
// such as "1" and "01".
var ErrDuplicateAnswer = errors.New("question answered twice")

// AnswerKeyRepository looks up correct answers in the primary store.
type AnswerKeyRepository interface {
	GetCorrectAnswers(ctx context.Context, ids []int) (map[int]string, error)
}

// AnswerKeySource lists the complete answer key, used for prewarming.
type AnswerKeySource interface {
	ListAnswerKey(ctx context.Context) (map[int]string, error)
}

// AnswerKeyCache is a fast lookaside copy of the answer key. Store adds
// entries; Replace makes the cache hold exactly the given answers.
type AnswerKeyCache interface {
	Lookup(ctx context.Context, ids []int) (map[int]string, error)
	Store(ctx context.Context, answers map[int]string) error
	Replace(ctx context.Context, answers map[int]string) error
}

// ResultStore persists a result and its graded answers atomically.
type ResultStore interface {
	CreateWithAnswers(ctx context.Context, res *model.GradingResult, answers []model.GradedAnswer) error
}

// ResultPublisher fans a persisted result out to background consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, ev model.ResultEvent) error
}

// GradingService scores submissions against the stored answer key.
type GradingService struct {
	keys      AnswerKeyRepository
	cache     AnswerKeyCache
	results   ResultStore
	publisher ResultPublisher
	log       zerolog.Logger
}

// NewGradingService creates a new GradingService. cache and publisher may be nil.
func NewGradingService(
	keys AnswerKeyRepository,
	cache AnswerKeyCache,
	results ResultStore,
	publisher ResultPublisher,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		keys:      keys,
		cache:     cache,
		results:   results,
		publisher: publisher,
		log:       log.With().Str("component", "grading_service").Logger(),
	}
}

// Grade scores a submission, persists the result and returns it.
func (s *GradingService) Grade(ctx context.Context, req model.SubmitExamRequest) (*model.GradingResult, error) {
	ids, dup := parseQuestionIDs(req.Answers)
	if dup != 0 {
		return nil, fmt.Errorf("%w: question %d", ErrDuplicateAnswer, dup)
	}

	key, err := s.answerKey(ctx, ids)
	if err != nil {
		return nil, err
	}

	graded := ScoreAnswers(req.Answers, key)
	res := Summarize(graded)
	res.StudentID = req.StudentID
	res.SubjectID = req.SubjectID
	res.ClassID = req.ClassID
	res.TimeTaken = req.TimeTaken

	if err := s.results.CreateWithAnswers(ctx, res, graded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistResult, err)
	}

	if skipped := len(req.Answers) - len(graded); skipped > 0 {
		s.log.Debug().Int("student_id", req.StudentID).Int("skipped", skipped).Msg("Unknown question ids skipped")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, res.Event()); err != nil {
			s.log.Warn().Err(err).Int64("result_id", res.ID).Msg("Failed to publish result event")
		}
	}

	s.log.Info().
		Int64("result_id", res.ID).
		Int("student_id", res.StudentID).
		Int("subject_id", res.SubjectID).
		Int("correct", res.Correct).
		Int("total", res.Total).
		Msg("Exam graded")
	return res, nil
}

// answerKey resolves correct answers from the cache, falling back to the
// repository for misses. Cache failures only cost the fast path.
func (s *GradingService) answerKey(ctx context.Context, ids []int) (map[int]string, error) {
	key := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return key, nil
	}

	missing := ids
	if s.cache != nil {
		cached, err := s.cache.Lookup(ctx, ids)
		if err != nil {
			s.log.Warn().Err(err).Msg("Answer key cache lookup failed, using database")
		} else {
			missing = missing[:0:0]
			for _, id := range ids {
				if v, ok := cached[id]; ok {
					key[id] = v
				} else {
					missing = append(missing, id)
				}
			}
		}
	}
	if len(missing) == 0 {
		return key, nil
	}

	stored, err := s.keys.GetCorrectAnswers(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	for id, v := range stored {
		key[id] = v
	}

	if s.cache != nil && len(stored) > 0 {
		if err := s.cache.Store(ctx, stored); err != nil {
			s.log.Warn().Err(err).Msg("Answer key cache backfill failed")
		}
	}
	return key, nil
}

// PrewarmAnswerKey replaces the cache with every stored correct answer, so
// questions deleted since the last warm-up stop being graded.
func (s *GradingService) PrewarmAnswerKey(ctx context.Context, src AnswerKeySource) error {
	if s.cache == nil {
		return nil
	}
	all, err := src.ListAnswerKey(ctx)
	if err != nil {
		return fmt.Errorf("list answer key: %w", err)
	}
	if err := s.cache.Replace(ctx, all); err != nil {
		return fmt.Errorf("store answer key: %w", err)
	}
	s.log.Info().Int("questions", len(all)).Msg("Answer key prewarmed")
	return nil
}

// ScoreAnswers compares each submitted answer with the answer key. Ids that do
// not parse or have no stored question are skipped. Comparison is exact after
// trimming surrounding whitespace. The result is ordered by question id.
// Grade rejects answers naming one id twice before they get here; should it
// happen anyway, the key that sorts first as a string is graded.
func ScoreAnswers(answers map[string]string, key map[int]string) []model.GradedAnswer {
	rawIDs := make([]string, 0, len(answers))
	for rawID := range answers {
		rawIDs = append(rawIDs, rawID)
	}
	sort.Strings(rawIDs)

	graded := make([]model.GradedAnswer, 0, len(answers))
	seen := make(map[int]bool, len(answers))
	for _, rawID := range rawIDs {
		id, err := strconv.Atoi(strings.TrimSpace(rawID))
		if err != nil || seen[id] {
			continue
		}
		correct, ok := key[id]
		if !ok {
			continue
		}
		seen[id] = true
		submitted := answers[rawID]
		graded = append(graded, model.GradedAnswer{
			QuestionID:      id,
			SubmittedAnswer: submitted,
			IsCorrect:       strings.TrimSpace(submitted) == strings.TrimSpace(correct),
		})
	}
	sort.Slice(graded, func(i, j int) bool { return graded[i].QuestionID < graded[j].QuestionID })
	return graded
}

// Summarize counts graded answers. Unanswered questions never reach here,
// so total is the number of graded answers.
func Summarize(graded []model.GradedAnswer) *model.GradingResult {
	res := &model.GradingResult{}
	for _, g := range graded {
		if g.IsCorrect {
			res.Correct++
		} else {
			res.Wrong++
		}
	}
	res.Total = res.Correct + res.Wrong
	res.Percentage = model.Percentage(res.Correct, res.Total)
	res.Message = model.Band(res.Percentage)
	return res
}

// parseQuestionIDs returns the distinct positive ids in ascending order, and
// the smallest id spelled by more than one key (0 when there is none).
// Other keys can never match a stored question.
func parseQuestionIDs(answers map[string]string) (ids []int, dup int) {
	ids = make([]int, 0, len(answers))
	seen := make(map[int]bool, len(answers))
	for rawID := range answers {
		id, err := strconv.Atoi(strings.TrimSpace(rawID))
		if err != nil || id <= 0 {
			continue
		}
		if seen[id] {
			if dup == 0 || id < dup {
				dup = id
			}
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, dup
}

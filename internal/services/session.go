package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the network boundary the session talks to. Transport and
// encoding are owned by the implementation; see internal/gateway for the
// HTTP client.
type Gateway interface {
	LoadQuestions(ctx context.Context, st SurveyType) (*Catalog, error)
	LoadResponses(ctx context.Context, clientID string, st SurveyType) (map[string]Value, error)
	SaveResponse(ctx context.Context, clientID, userID, questionID string, v Value) error
	RecordCompletion(ctx context.Context, clientID, userID string, completedAt time.Time) error
}

// DraftStore is an optional local write-through cache for answers, used to
// resume a session when the gateway cannot serve prior responses.
type DraftStore interface {
	SaveDraft(clientID string, st SurveyType, questionID string, v Value, at time.Time) error
	LoadDrafts(clientID string, st SurveyType) (map[string]Value, error)
	ClearDrafts(clientID string, st SurveyType) error
}

type SessionState string

const (
	SessionLoading    SessionState = "loading"
	SessionInProgress SessionState = "in_progress"
	SessionSubmitting SessionState = "submitting"
	SessionCompleted  SessionState = "completed"
)

// saveTimeout bounds one background persist call; the UI never waits on it.
const saveTimeout = 10 * time.Second

type SessionConfig struct {
	SurveyType SurveyType
	ClientID   string
	UserID     string
	Gateway    Gateway
	Drafts     DraftStore // optional
	Logger     *zap.Logger
	SaveWindow time.Duration // defaults to DefaultSaveWindow
}

// Session drives one user through one catalog: position, validation,
// debounced auto-save, and completion. All methods are safe for use from a
// single UI goroutine plus the internal save timers.
type Session struct {
	mu     sync.Mutex
	id     string
	cfg    SessionConfig
	logger *zap.Logger
	now    func() time.Time

	catalog *Catalog
	store   *ResponseStore
	saver   *saveScheduler

	state      SessionState
	secIdx     int
	qIdx       int
	maxSection int
	fieldErrs  map[string]string
	closed     bool
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if !ValidSurveyType(cfg.SurveyType) {
		return nil, NewInvalidError("unknown survey type " + string(cfg.SurveyType))
	}
	if cfg.Gateway == nil {
		return nil, NewInvalidError("gateway required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, NewInvalidError("client id required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:        shortID(12),
		cfg:       cfg,
		logger:    logger.With(zap.String("survey_type", string(cfg.SurveyType))),
		now:       func() time.Time { return time.Now().UTC() },
		store:     NewResponseStore(),
		saver:     newSaveScheduler(cfg.SaveWindow),
		state:     SessionLoading,
		fieldErrs: map[string]string{},
	}, nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *Session) ID() string { return s.id }

// Start resolves the catalog and prior responses, then opens the session
// for answering. Both loads degrade gracefully: a failed catalog fetch
// falls back to the bundled catalog, failed prior responses fall back to
// the local draft cache and finally to an empty store.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SessionLoading {
		s.mu.Unlock()
		return NewInvalidError("session already started")
	}
	s.mu.Unlock()

	catalog, err := ResolveCatalog(ctx, s.cfg.Gateway, s.cfg.SurveyType, s.logger)
	if err != nil {
		return err
	}

	prior, err := s.cfg.Gateway.LoadResponses(ctx, s.cfg.ClientID, s.cfg.SurveyType)
	if err != nil {
		s.logger.Warn("prior responses unavailable", zap.Error(err))
		prior = nil
		if s.cfg.Drafts != nil {
			drafts, derr := s.cfg.Drafts.LoadDrafts(s.cfg.ClientID, s.cfg.SurveyType)
			if derr != nil {
				s.logger.Warn("draft cache unavailable", zap.Error(derr))
			} else {
				prior = drafts
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
	s.store.BindCatalog(catalog)
	if len(prior) > 0 {
		s.store.Hydrate(prior)
	}
	s.state = SessionInProgress
	s.logger.Info("session started",
		zap.String("session_id", s.id),
		zap.Int("questions", catalog.TotalQuestionCount()),
		zap.Int("prior_answers", s.store.AnsweredCount()))
	return nil
}

// Answer records a new value for questionID and schedules a debounced
// persist. A completed session is read-only: answering is a silent no-op.
func (s *Session) Answer(questionID string, v Value) error {
	s.mu.Lock()
	switch s.state {
	case SessionCompleted:
		s.mu.Unlock()
		return nil
	case SessionInProgress:
	default:
		s.mu.Unlock()
		return NewInvalidError("session not accepting answers in state " + string(s.state))
	}
	if !s.catalog.Contains(questionID) {
		s.mu.Unlock()
		return NewNotFoundError("unknown question " + questionID)
	}
	s.store.Set(questionID, v, s.now())
	delete(s.fieldErrs, questionID)
	s.mu.Unlock()

	s.saver.Schedule(questionID, func() { s.flush(questionID) })
	return nil
}

// flush runs on a save timer goroutine once the debounce window closes. It
// re-reads the current value so only the latest edit is persisted, and
// checks liveness before touching session state afterwards.
func (s *Session) flush(questionID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	v, ok := s.store.Get(questionID)
	s.mu.Unlock()
	if !ok {
		return
	}

	if s.cfg.Drafts != nil {
		if err := s.cfg.Drafts.SaveDraft(s.cfg.ClientID, s.cfg.SurveyType, questionID, v, s.now()); err != nil {
			s.logger.Warn("draft write failed", zap.String("question_id", questionID), zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.cfg.Gateway.SaveResponse(ctx, s.cfg.ClientID, s.cfg.UserID, questionID, v)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err != nil {
		// Retained in memory; the next edit to this question retries.
		s.store.MarkSaveState(questionID, SaveFailed, s.now())
		s.logger.Warn("auto-save failed", zap.String("question_id", questionID), zap.Error(err))
		return
	}
	s.store.MarkSaveState(questionID, SaveDone, s.now())
}

// Next validates the current question and advances one step, crossing
// section boundaries. At the last question it reports done=true instead of
// advancing; the caller then presents the submit step.
func (s *Session) Next() (done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return false, NewInvalidError("session not navigable in state " + string(s.state))
	}
	q := s.catalog.questionAt(s.secIdx, s.qIdx)
	if q == nil {
		return false, NewNotFoundError("no question at current position")
	}
	if q.Required {
		if v, ok := s.store.Get(q.ID); !ok || v.IsEmpty() {
			s.fieldErrs[q.ID] = "answer required"
			return false, &ValidationError{QuestionIDs: []string{q.ID}}
		}
	}
	if s.qIdx+1 < s.catalog.sectionSize(s.secIdx) {
		s.qIdx++
		return false, nil
	}
	if s.secIdx+1 < len(s.catalog.sections) {
		s.secIdx++
		s.qIdx = 0
		if s.secIdx > s.maxSection {
			s.maxSection = s.secIdx
		}
		return false, nil
	}
	return true, nil
}

// Previous moves back one question, crossing section boundaries. At the
// very first question it is a no-op, not an error.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return
	}
	if s.qIdx > 0 {
		s.qIdx--
		return
	}
	if s.secIdx > 0 {
		s.secIdx--
		s.qIdx = s.catalog.sectionSize(s.secIdx) - 1
	}
}

// JumpToSection moves to the first question of an already-unlocked section.
// Skipping ahead of the highest section ever reached is rejected so the
// catalog is completed linearly at least once.
func (s *Session) JumpToSection(sectionIndex int) error {
	return s.JumpToQuestion(sectionIndex, 0)
}

// JumpToQuestion moves to any question within an unlocked section.
func (s *Session) JumpToQuestion(sectionIndex, questionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return NewInvalidError("session not navigable in state " + string(s.state))
	}
	if sectionIndex < 0 || sectionIndex >= len(s.catalog.sections) {
		return NewNotFoundError("no such section")
	}
	if sectionIndex > s.maxSection {
		return NewInvalidError("section not yet reached")
	}
	if questionIndex < 0 || questionIndex >= s.catalog.sectionSize(sectionIndex) {
		return NewNotFoundError("no such question in section")
	}
	s.secIdx = sectionIndex
	s.qIdx = questionIndex
	return nil
}

// Submit checks every required question across the catalog and records
// completion. A gateway failure on the completion call does not roll the
// session back: completion is recorded locally and the discrepancy logged.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SessionInProgress {
		s.mu.Unlock()
		return NewInvalidError("session not submittable in state " + string(s.state))
	}
	var missing []string
	for _, q := range s.catalog.QuestionsInOrder() {
		if !q.Required {
			continue
		}
		if v, ok := s.store.Get(q.ID); !ok || v.IsEmpty() {
			missing = append(missing, q.ID)
			s.fieldErrs[q.ID] = "answer required"
		}
	}
	if len(missing) > 0 {
		s.mu.Unlock()
		return &ValidationError{QuestionIDs: missing}
	}
	s.state = SessionSubmitting
	completedAt := s.now()
	s.mu.Unlock()

	err := s.cfg.Gateway.RecordCompletion(ctx, s.cfg.ClientID, s.cfg.UserID, completedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionCompleted
	if err != nil {
		s.logger.Warn("completion not recorded remotely", zap.Error(err))
		return nil
	}
	if s.cfg.Drafts != nil {
		if derr := s.cfg.Drafts.ClearDrafts(s.cfg.ClientID, s.cfg.SurveyType); derr != nil {
			s.logger.Warn("draft cleanup failed", zap.Error(derr))
		}
	}
	s.logger.Info("session completed", zap.String("session_id", s.id), zap.Time("completed_at", completedAt))
	return nil
}

// Close cancels pending save timers and marks the session dead so late
// save handlers do not mutate disposed state. Already-dispatched gateway
// calls are fire-and-forget.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.saver.CancelAll()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the current (section index, question index within
// section).
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secIdx, s.qIdx
}

// CurrentQuestion returns the question at the current position, or nil
// while the session is still loading.
func (s *Session) CurrentQuestion() *Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		return nil
	}
	return s.catalog.questionAt(s.secIdx, s.qIdx)
}

// HighestSectionReached is the unlock boundary for JumpToSection.
func (s *Session) HighestSectionReached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSection
}

// FieldError returns the inline validation message for questionID, if any.
func (s *Session) FieldError(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.fieldErrs[questionID]
	return msg, ok
}

// ResponseState exposes the save status of one answer for UI badges.
func (s *Session) ResponseState(questionID string) (SaveState, bool) {
	r, ok := s.store.Response(questionID)
	if !ok {
		return "", false
	}
	return r.SaveState, true
}

// AnsweredCount returns the number of non-empty answers in the store.
func (s *Session) AnsweredCount() int { return s.store.AnsweredCount() }

// Progress recomputes the overall and per-section completion summary.
func (s *Session) Progress() ProgressSummary {
	s.mu.Lock()
	catalog := s.catalog
	s.mu.Unlock()
	if catalog == nil {
		return ProgressSummary{}
	}
	return BuildProgress(catalog, s.store.Snapshot())
}

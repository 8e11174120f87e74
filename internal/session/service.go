package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cultural-survey/backend/internal/attention"
	"github.com/cultural-survey/backend/internal/cache"
	"github.com/cultural-survey/backend/internal/models"
	"github.com/cultural-survey/backend/internal/navigation"
	"github.com/cultural-survey/backend/internal/quality"
	"github.com/cultural-survey/backend/internal/questionbank"
)

const maxAnswerLength = 5000

var (
	ErrSessionCompleted   = errors.New("session already completed")
	ErrSessionExpired     = errors.New("session expired")
	ErrInterventionActive = errors.New("quality warning must be acknowledged before continuing")
	ErrNoPendingCheck     = errors.New("no attention check pending")
	ErrAtBeginning        = errors.New("already at the first question")
)

// Storage is the persistence surface the orchestrator needs.
type Storage interface {
	CreateSession(info models.UserInfo, totalQuestions int) (*models.Session, error)
	GetSession(sessionID string) (*models.Session, error)
	UpdateProgress(sessionID string, progress models.Progress) error
	TouchSession(sessionID string) error
	CountResponses(sessionID string) (int, error)
	MarkCompleted(sessionID string) error
	MarkExpired(sessionID string) error
	SaveResponse(r *models.Response) error
	SaveResponseBatch(responses []models.Response) error
	ListResponses(sessionID string) ([]models.Response, error)
	ListSurveyResponses(sessionID string) ([]models.Response, error)
}

type Config struct {
	AttentionCheckInterval int
	MinAnswerLength        int
	FastResponseSeconds    int
	SuspiciousRatePct      float64
	SessionTimeLimit       time.Duration // 0 disables expiry
}

// LoadConfig reads the orchestrator knobs from the environment.
func LoadConfig() Config {
	cfg := Config{
		AttentionCheckInterval: getEnvInt("ATTENTION_CHECK_INTERVAL", attention.DefaultInterval),
		MinAnswerLength:        getEnvInt("MIN_ANSWER_LENGTH", 4),
		FastResponseSeconds:    getEnvInt("FAST_RESPONSE_SECONDS", 8),
		SuspiciousRatePct:      float64(getEnvInt("SUSPICIOUS_RATE_PERCENT", 30)),
	}
	if minutes := getEnvInt("SESSION_TIME_LIMIT_MINUTES", 0); minutes > 0 {
		cfg.SessionTimeLimit = time.Duration(minutes) * time.Minute
	}
	log.Printf("Session service: interval=%d minAnswerLen=%d fastSecs=%d suspiciousRate=%.0f%% timeLimit=%s",
		cfg.AttentionCheckInterval, cfg.MinAnswerLength, cfg.FastResponseSeconds,
		cfg.SuspiciousRatePct, cfg.SessionTimeLimit)
	return cfg
}

type Service struct {
	store Storage
	cache cache.SessionCache
	tree  []models.Category
	cfg   Config

	// Intervention state is per-process. A suspicious verdict raises one
	// alert per streak; further submissions are blocked until the client
	// acknowledges it.
	mu       sync.Mutex
	pending  map[string]bool // sessionID -> unacknowledged warning
	alerted  map[string]bool // sessionID -> alert already raised this streak
	warnings map[string]quality.PatternVerdict

	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(store Storage, sessionCache cache.SessionCache, tree []models.Category, cfg Config) *Service {
	return &Service{
		store:    store,
		cache:    sessionCache,
		tree:     tree,
		cfg:      cfg,
		pending:  map[string]bool{},
		alerted:  map[string]bool{},
		warnings: map[string]quality.PatternVerdict{},
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// ── Session Lifecycle ───────────────────────────────────

func (s *Service) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	if err := validateDemographics(req); err != nil {
		return nil, err
	}
	info := models.UserInfo{Region: req.Region, Age: req.Age, YearsInRegion: req.YearsInRegion}
	session, err := s.store.CreateSession(info, navigation.TotalQuestions(s.tree))
	if err != nil {
		return nil, err
	}
	s.cacheSession(ctx, session)
	return session, nil
}

// GetSession loads a session, refreshing the stored question total when the
// survey tree changed between visits and reconciling the answered count with
// the stored responses in case a progress write was lost. Resume picks up
// exactly where the persisted progress points.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkExpiry(ctx, session); err != nil && !errors.Is(err, ErrSessionExpired) {
		return nil, err
	}
	if !session.IsExpired {
		if err := s.store.TouchSession(sessionID); err != nil {
			log.Printf("Warning: failed to touch session %s: %v", sessionID, err)
		}
	}

	total := navigation.TotalQuestions(s.tree)
	answered, err := s.store.CountResponses(sessionID)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	if session.Progress.TotalQuestions != total || session.Progress.CompletedQuestions != answered {
		session.Progress.TotalQuestions = total
		session.Progress.CompletedQuestions = answered
		s.syncProgress(sessionID, session.Progress)
		s.cacheSession(ctx, session)
	}
	return session, nil
}

func (s *Service) CurrentQuestion(ctx context.Context, sessionID string) (*models.QuestionContext, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if session.IsExpired {
		return nil, ErrSessionExpired
	}
	return navigation.QuestionAt(session.Progress.Position(), s.tree)
}

func (s *Service) CompleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.store.MarkCompleted(sessionID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("Warning: failed to evict session %s from cache: %v", sessionID, err)
		}
	}
	return nil
}

func (s *Service) UpdateProgress(ctx context.Context, sessionID string, progress models.Progress) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !navigation.Valid(progress.Position(), s.tree) {
		return fmt.Errorf("invalid position %s", progress.Position().QuestionID())
	}
	if err := s.store.UpdateProgress(sessionID, progress); err != nil {
		return err
	}
	session.Progress = progress
	s.cacheSession(ctx, session)
	return nil
}

func (s *Service) SurveyInfo() models.SurveyInfo {
	return questionbank.Totals(s.tree)
}

// ── Answer Submission ───────────────────────────────────

// SubmitResult is everything the client needs after one submitted answer.
type SubmitResult struct {
	QualityScore      int                      `json:"qualityScore"`
	Issues            []string                 `json:"issues,omitempty"`
	Pattern           *quality.PatternVerdict  `json:"pattern,omitempty"`
	Intervention      bool                     `json:"interventionRequired"`
	AttentionCheckDue bool                     `json:"attentionCheckDue"`
	Milestone         navigation.MilestoneKind `json:"milestone,omitempty"`
	Completed         bool                     `json:"surveyCompleted"`
	NextQuestion      *models.QuestionContext  `json:"nextQuestion,omitempty"`
	Progress          models.Progress          `json:"progress"`
}

// SubmitAnswer runs the full answer cycle: validate, score, persist,
// re-aggregate the history, decide interventions and cadence, then advance.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, req models.SubmitAnswerRequest) (*SubmitResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if err := s.checkExpiry(ctx, session); err != nil {
		return nil, err
	}
	if s.interventionPending(sessionID) {
		return nil, ErrInterventionActive
	}

	answer := strings.TrimSpace(req.Answer)
	if len(answer) < s.cfg.MinAnswerLength {
		return nil, fmt.Errorf("answer must be at least %d characters", s.cfg.MinAnswerLength)
	}
	if len(answer) > maxAnswerLength {
		return nil, fmt.Errorf("answer must be at most %d characters", maxAnswerLength)
	}
	if req.TimeSpent < 0 {
		return nil, fmt.Errorf("timeSpent must be non-negative")
	}

	pos := session.Progress.Position()
	question, err := navigation.QuestionAt(pos, s.tree)
	if err != nil {
		return nil, err
	}

	verdict := quality.Analyze(answer)

	response := &models.Response{
		SessionID:        sessionID,
		QuestionID:       question.QuestionID,
		CategoryIndex:    pos.CategoryIndex,
		SubcategoryIndex: pos.SubcategoryIndex,
		TopicIndex:       pos.TopicIndex,
		QuestionIndex:    pos.QuestionIndex,
		Category:         question.Category,
		Subcategory:      question.Subcategory,
		Topic:            question.Topic,
		Question:         question.Question,
		Answer:           answer,
		TimeSpent:        req.TimeSpent,
		QualityScore:     verdict.Score,
	}
	if err := s.store.SaveResponse(response); err != nil {
		return nil, err
	}

	history, err := s.store.ListSurveyResponses(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	entries := make([]quality.HistoryEntry, len(history))
	for i, r := range history {
		entries[i] = quality.HistoryEntry{Answer: r.Answer, TimeSpent: r.TimeSpent}
	}
	pattern := quality.AnalyzePattern(entries, quality.PatternConfig{
		FastResponseSeconds: s.cfg.FastResponseSeconds,
		SuspiciousRatePct:   s.cfg.SuspiciousRatePct,
	})

	result := &SubmitResult{
		QualityScore: verdict.Score,
		Issues:       verdict.Issues,
	}
	if len(entries) >= quality.MinHistoryForPattern {
		result.Pattern = &pattern
	}
	result.Intervention = s.updateIntervention(sessionID, pattern)

	result.Milestone = navigation.Milestone(pos, s.tree)
	next, completed := navigation.Advance(pos, s.tree)
	answered := len(entries)
	result.AttentionCheckDue = !completed && attention.IsCheckDue(answered, s.cfg.AttentionCheckInterval)

	session.Progress.CompletedQuestions = answered
	if completed {
		result.Completed = true
		if err := s.store.MarkCompleted(sessionID); err != nil {
			log.Printf("Warning: failed to mark session %s completed: %v", sessionID, err)
		}
		session.IsCompleted = true
	} else {
		session.Progress.SetPosition(next)
		if !result.AttentionCheckDue && !result.Intervention {
			nextQuestion, err := navigation.QuestionAt(next, s.tree)
			if err != nil {
				return nil, err
			}
			result.NextQuestion = nextQuestion
		}
	}

	s.syncProgress(sessionID, session.Progress)
	s.cacheSession(ctx, session)
	result.Progress = session.Progress
	return result, nil
}

// AcknowledgeWarning clears a pending intervention so the respondent can
// continue. The alert stays latched until the pattern clears, so the same
// streak does not raise a second alert.
func (s *Service) AcknowledgeWarning(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
}

// PendingWarning returns the verdict behind an unacknowledged intervention.
func (s *Service) PendingWarning(sessionID string) (quality.PatternVerdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.warnings[sessionID]
	return v, ok && s.pending[sessionID]
}

func (s *Service) interventionPending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[sessionID]
}

func (s *Service) updateIntervention(sessionID string, pattern quality.PatternVerdict) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !pattern.Suspicious {
		delete(s.alerted, sessionID)
		delete(s.warnings, sessionID)
		return false
	}
	s.warnings[sessionID] = pattern
	if s.alerted[sessionID] {
		return false
	}
	s.alerted[sessionID] = true
	s.pending[sessionID] = true
	return true
}

// ── Attention Checks ────────────────────────────────────

// CheckView is the client-facing shape of a pending attention check. The
// expected answers and correct option index never leave the server.
type CheckView struct {
	Type     attention.CheckType `json:"type"`
	Question string              `json:"question"`
	Options  []string            `json:"options,omitempty"`
}

func (s *Service) ServeAttentionCheck(ctx context.Context, sessionID string) (*CheckView, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if err := s.checkExpiry(ctx, session); err != nil {
		return nil, err
	}

	question, err := navigation.QuestionAt(session.Progress.Position(), s.tree)
	if err != nil {
		return nil, err
	}
	check := attention.Generate(question.Category, question.Topic, session.UserInfo.Region)
	if s.cache != nil {
		if err := s.cache.SetPendingCheck(ctx, sessionID, &check); err != nil {
			return nil, fmt.Errorf("store pending check: %w", err)
		}
	}
	return &CheckView{Type: check.Type, Question: check.Question, Options: check.Options}, nil
}

// AttentionResult reports the outcome of one graded check.
type AttentionResult struct {
	Correct bool `json:"correct"`
	Passed  int  `json:"attentionChecksPassed"`
	Failed  int  `json:"attentionChecksFailed"`
}

// SubmitAttentionCheck grades the pending check. The graded response is
// stored under a synthetic question ID so it never collides with a survey
// position, and the respondent resumes at the same tree position.
func (s *Service) SubmitAttentionCheck(ctx context.Context, sessionID string, req models.AttentionAnswerRequest) (*AttentionResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkExpiry(ctx, session); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return nil, ErrNoPendingCheck
	}
	check, err := s.cache.GetPendingCheck(ctx, sessionID)
	if err == cache.ErrNotFound {
		return nil, ErrNoPendingCheck
	}
	if err != nil {
		return nil, fmt.Errorf("load pending check: %w", err)
	}

	selected := -1
	if req.SelectedOption != nil {
		selected = *req.SelectedOption
	}
	correct := attention.Grade(*check, req.Answer, selected)

	if correct {
		session.Progress.AttentionChecksPassed++
	} else {
		session.Progress.AttentionChecksFailed++
	}
	taken := session.Progress.AttentionChecksPassed + session.Progress.AttentionChecksFailed

	pos := session.Progress.Position()
	answer := req.Answer
	if check.Type == attention.TypeMultipleChoice && req.SelectedOption != nil {
		answer = strconv.Itoa(*req.SelectedOption)
	}
	response := &models.Response{
		SessionID:             sessionID,
		QuestionID:            fmt.Sprintf("ac-%d", taken),
		CategoryIndex:         pos.CategoryIndex,
		SubcategoryIndex:      pos.SubcategoryIndex,
		TopicIndex:            pos.TopicIndex,
		QuestionIndex:         pos.QuestionIndex,
		Category:              check.Category,
		Subcategory:           "attention",
		Topic:                 check.Topic,
		Question:              check.Question,
		Answer:                answer,
		IsAttentionCheck:      true,
		AttentionCheckCorrect: &correct,
	}
	if err := s.store.SaveResponse(response); err != nil {
		return nil, err
	}

	if err := s.cache.DeletePendingCheck(ctx, sessionID); err != nil {
		log.Printf("Warning: failed to clear pending check for %s: %v", sessionID, err)
	}

	s.syncProgress(sessionID, session.Progress)
	s.cacheSession(ctx, session)
	return &AttentionResult{
		Correct: correct,
		Passed:  session.Progress.AttentionChecksPassed,
		Failed:  session.Progress.AttentionChecksFailed,
	}, nil
}

// ── Navigation ──────────────────────────────────────────

func (s *Service) NavigateBack(ctx context.Context, sessionID string) (*models.QuestionContext, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if err := s.checkExpiry(ctx, session); err != nil {
		return nil, err
	}
	prev, ok := navigation.Retreat(session.Progress.Position(), s.tree)
	if !ok {
		return nil, ErrAtBeginning
	}
	session.Progress.SetPosition(prev)
	s.syncProgress(sessionID, session.Progress)
	s.cacheSession(ctx, session)
	return navigation.QuestionAt(prev, s.tree)
}

func (s *Service) NavigateTo(ctx context.Context, sessionID, questionID string) (*models.QuestionContext, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if err := s.checkExpiry(ctx, session); err != nil {
		return nil, err
	}
	target, err := models.ParseQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	if err := navigation.JumpTo(target, s.tree); err != nil {
		return nil, err
	}
	session.Progress.SetPosition(target)
	s.syncProgress(sessionID, session.Progress)
	s.cacheSession(ctx, session)
	return navigation.QuestionAt(target, s.tree)
}

// ── Response Persistence ────────────────────────────────

// SaveResponse persists one externally submitted answer, scoring it if the
// client did not. Duplicate question IDs overwrite the earlier answer.
func (s *Service) SaveResponse(ctx context.Context, r *models.Response) error {
	if _, err := s.loadSession(ctx, r.SessionID); err != nil {
		return err
	}
	if !r.IsAttentionCheck && r.QualityScore == 0 {
		r.QualityScore = quality.Analyze(r.Answer).Score
	}
	return s.store.SaveResponse(r)
}

func (s *Service) SaveResponseBatch(ctx context.Context, req models.BatchSaveRequest) error {
	if _, err := s.loadSession(ctx, req.SessionID); err != nil {
		return err
	}
	for i := range req.Responses {
		r := &req.Responses[i]
		r.SessionID = req.SessionID
		if !r.IsAttentionCheck && r.QualityScore == 0 {
			r.QualityScore = quality.Analyze(r.Answer).Score
		}
	}
	return s.store.SaveResponseBatch(req.Responses)
}

func (s *Service) ListResponses(sessionID string) ([]models.Response, error) {
	return s.store.ListResponses(sessionID)
}

// PatternVerdict recomputes the aggregate verdict over the stored history.
func (s *Service) PatternVerdict(sessionID string) (quality.PatternVerdict, []models.Response, error) {
	history, err := s.store.ListSurveyResponses(sessionID)
	if err != nil {
		return quality.PatternVerdict{}, nil, err
	}
	entries := make([]quality.HistoryEntry, len(history))
	for i, r := range history {
		entries[i] = quality.HistoryEntry{Answer: r.Answer, TimeSpent: r.TimeSpent}
	}
	verdict := quality.AnalyzePattern(entries, quality.PatternConfig{
		FastResponseSeconds: s.cfg.FastResponseSeconds,
		SuspiciousRatePct:   s.cfg.SuspiciousRatePct,
	})
	return verdict, history, nil
}

// ── Internals ───────────────────────────────────────────

func (s *Service) loadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if s.cache != nil {
		if session, err := s.cache.GetSession(ctx, sessionID); err == nil {
			return session, nil
		}
	}
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.cacheSession(ctx, session)
	return session, nil
}

func (s *Service) cacheSession(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSession(ctx, session); err != nil {
		log.Printf("Warning: failed to cache session %s: %v", session.SessionID, err)
	}
}

func (s *Service) checkExpiry(ctx context.Context, session *models.Session) error {
	if session.IsExpired {
		return ErrSessionExpired
	}
	if s.cfg.SessionTimeLimit <= 0 || session.IsCompleted {
		return nil
	}
	if s.now().Sub(session.CreatedAt) <= s.cfg.SessionTimeLimit {
		return nil
	}
	session.IsExpired = true
	if err := s.store.MarkExpired(session.SessionID); err != nil {
		log.Printf("Warning: failed to mark session %s expired: %v", session.SessionID, err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, session.SessionID); err != nil {
			log.Printf("Warning: failed to evict expired session %s: %v", session.SessionID, err)
		}
	}
	return ErrSessionExpired
}

const progressSyncAttempts = 3

// syncProgress writes the durable progress row. The in-memory position is
// authoritative for the rest of the request, so a failed write is retried
// with backoff and then logged rather than surfaced to the respondent.
func (s *Service) syncProgress(sessionID string, progress models.Progress) {
	var err error
	for attempt := 0; attempt < progressSyncAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(time.Duration(1<<(attempt-1)) * 100 * time.Millisecond)
		}
		if err = s.store.UpdateProgress(sessionID, progress); err == nil {
			return
		}
	}
	log.Printf("Warning: progress sync failed for session %s after %d attempts: %v",
		sessionID, progressSyncAttempts, err)
}

func validateDemographics(req models.CreateSessionRequest) error {
	if !models.ValidRegions[req.Region] {
		return fmt.Errorf("invalid region: %q", req.Region)
	}
	if req.Age < 1 || req.Age > 120 {
		return fmt.Errorf("age must be between 1 and 120")
	}
	if req.YearsInRegion < 0 {
		return fmt.Errorf("yearsInRegion must be non-negative")
	}
	if req.YearsInRegion > req.Age {
		return fmt.Errorf("yearsInRegion cannot exceed age")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

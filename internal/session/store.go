package session

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cultural-survey/backend/internal/models"
)

// ErrSessionNotFound is returned when no session exists for the given ID.
var ErrSessionNotFound = fmt.Errorf("session not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Sessions ────────────────────────────────────────────

func (s *Store) CreateSession(info models.UserInfo, totalQuestions int) (*models.Session, error) {
	sessionID := uuid.NewString()

	var session models.Session
	err := s.db.QueryRow(
		`INSERT INTO sessions (session_id, region, age, years_in_region, total_questions)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING session_id, region, age, years_in_region,
		           current_category, current_subcategory, current_topic, current_question,
		           completed_questions, total_questions,
		           attention_checks_passed, attention_checks_failed,
		           is_completed, is_expired, last_active_at, created_at, updated_at`,
		sessionID, info.Region, info.Age, info.YearsInRegion, totalQuestions,
	).Scan(
		&session.SessionID, &session.UserInfo.Region, &session.UserInfo.Age, &session.UserInfo.YearsInRegion,
		&session.Progress.CurrentCategory, &session.Progress.CurrentSubcategory,
		&session.Progress.CurrentTopic, &session.Progress.CurrentQuestion,
		&session.Progress.CompletedQuestions, &session.Progress.TotalQuestions,
		&session.Progress.AttentionChecksPassed, &session.Progress.AttentionChecksFailed,
		&session.IsCompleted, &session.IsExpired, &session.LastActiveAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (s *Store) GetSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRow(
		`SELECT session_id, region, age, years_in_region,
		        current_category, current_subcategory, current_topic, current_question,
		        completed_questions, total_questions,
		        attention_checks_passed, attention_checks_failed,
		        is_completed, is_expired, last_active_at, created_at, updated_at
		 FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(
		&session.SessionID, &session.UserInfo.Region, &session.UserInfo.Age, &session.UserInfo.YearsInRegion,
		&session.Progress.CurrentCategory, &session.Progress.CurrentSubcategory,
		&session.Progress.CurrentTopic, &session.Progress.CurrentQuestion,
		&session.Progress.CompletedQuestions, &session.Progress.TotalQuestions,
		&session.Progress.AttentionChecksPassed, &session.Progress.AttentionChecksFailed,
		&session.IsCompleted, &session.IsExpired, &session.LastActiveAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (s *Store) UpdateProgress(sessionID string, progress models.Progress) error {
	result, err := s.db.Exec(
		`UPDATE sessions
		 SET current_category = $1, current_subcategory = $2,
		     current_topic = $3, current_question = $4,
		     completed_questions = $5, total_questions = $6,
		     attention_checks_passed = $7, attention_checks_failed = $8,
		     last_active_at = NOW(), updated_at = NOW()
		 WHERE session_id = $9`,
		progress.CurrentCategory, progress.CurrentSubcategory,
		progress.CurrentTopic, progress.CurrentQuestion,
		progress.CompletedQuestions, progress.TotalQuestions,
		progress.AttentionChecksPassed, progress.AttentionChecksFailed,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Store) TouchSession(sessionID string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET last_active_at = NOW(), updated_at = NOW() WHERE session_id = $1`,
		sessionID,
	)
	return err
}

func (s *Store) MarkCompleted(sessionID string) error {
	result, err := s.db.Exec(
		`UPDATE sessions SET is_completed = TRUE, last_active_at = NOW(), updated_at = NOW()
		 WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Store) MarkExpired(sessionID string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET is_expired = TRUE, updated_at = NOW() WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("mark expired: %w", err)
	}
	return nil
}

// ── Responses ───────────────────────────────────────────

// SaveResponse upserts one answer. Resubmitting the same question replaces
// the stored answer and refreshes the timestamp, so retried requests are
// treated as success.
func (s *Store) SaveResponse(r *models.Response) error {
	_, err := s.db.Exec(
		`INSERT INTO responses
		 (session_id, question_id, category_index, subcategory_index, topic_index, question_index,
		  category, subcategory, topic, question, answer, time_spent, quality_score,
		  is_attention_check, attention_check_correct)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (session_id, question_id)
		 DO UPDATE SET answer = $11, time_spent = $12, quality_score = $13,
		               attention_check_correct = $15, updated_at = NOW()`,
		r.SessionID, r.QuestionID,
		r.CategoryIndex, r.SubcategoryIndex, r.TopicIndex, r.QuestionIndex,
		r.Category, r.Subcategory, r.Topic, r.Question,
		r.Answer, r.TimeSpent, r.QualityScore,
		r.IsAttentionCheck, r.AttentionCheckCorrect,
	)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

func (s *Store) SaveResponseBatch(responses []models.Response) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := range responses {
		r := &responses[i]
		_, err := tx.Exec(
			`INSERT INTO responses
			 (session_id, question_id, category_index, subcategory_index, topic_index, question_index,
			  category, subcategory, topic, question, answer, time_spent, quality_score,
			  is_attention_check, attention_check_correct)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 ON CONFLICT (session_id, question_id)
			 DO UPDATE SET answer = $11, time_spent = $12, quality_score = $13,
			               attention_check_correct = $15, updated_at = NOW()`,
			r.SessionID, r.QuestionID,
			r.CategoryIndex, r.SubcategoryIndex, r.TopicIndex, r.QuestionIndex,
			r.Category, r.Subcategory, r.Topic, r.Question,
			r.Answer, r.TimeSpent, r.QualityScore,
			r.IsAttentionCheck, r.AttentionCheckCorrect,
		)
		if err != nil {
			return fmt.Errorf("save response %s: %w", r.QuestionID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListResponses(sessionID string) ([]models.Response, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id,
		        category_index, subcategory_index, topic_index, question_index,
		        category, subcategory, topic, question, answer, time_spent, quality_score,
		        is_attention_check, attention_check_correct, created_at, updated_at
		 FROM responses
		 WHERE session_id = $1
		 ORDER BY category_index, subcategory_index, topic_index, question_index, created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.QuestionID,
			&r.CategoryIndex, &r.SubcategoryIndex, &r.TopicIndex, &r.QuestionIndex,
			&r.Category, &r.Subcategory, &r.Topic, &r.Question,
			&r.Answer, &r.TimeSpent, &r.QualityScore,
			&r.IsAttentionCheck, &r.AttentionCheckCorrect, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// ListSurveyResponses returns stored answers excluding attention checks,
// oldest first by last write. This is the history fed to the response pattern
// analyzer, whose recency window must track submission time: a revised answer
// refreshes updated_at on upsert and moves to the tail.
func (s *Store) ListSurveyResponses(sessionID string) ([]models.Response, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id,
		        category_index, subcategory_index, topic_index, question_index,
		        category, subcategory, topic, question, answer, time_spent, quality_score,
		        is_attention_check, attention_check_correct, created_at, updated_at
		 FROM responses
		 WHERE session_id = $1 AND is_attention_check = FALSE
		 ORDER BY updated_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list survey responses: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.QuestionID,
			&r.CategoryIndex, &r.SubcategoryIndex, &r.TopicIndex, &r.QuestionIndex,
			&r.Category, &r.Subcategory, &r.Topic, &r.Question,
			&r.Answer, &r.TimeSpent, &r.QualityScore,
			&r.IsAttentionCheck, &r.AttentionCheckCorrect, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *Store) CountResponses(sessionID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM responses WHERE session_id = $1 AND is_attention_check = FALSE`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

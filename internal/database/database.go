package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "survey_user")
	password := getEnv("DB_PASSWORD", "survey_password")
	dbname := getEnv("DB_NAME", "cultural_survey")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id              BIGSERIAL PRIMARY KEY,
		session_id      VARCHAR(64) UNIQUE NOT NULL,
		region          VARCHAR(20) NOT NULL,
		age             INT NOT NULL CHECK (age >= 1 AND age <= 120),
		years_in_region INT NOT NULL CHECK (years_in_region >= 0),

		current_category    INT NOT NULL DEFAULT 0,
		current_subcategory INT NOT NULL DEFAULT 0,
		current_topic       INT NOT NULL DEFAULT 0,
		current_question    INT NOT NULL DEFAULT 0,
		completed_questions INT NOT NULL DEFAULT 0,
		total_questions     INT NOT NULL DEFAULT 0,
		attention_checks_passed INT NOT NULL DEFAULT 0,
		attention_checks_failed INT NOT NULL DEFAULT 0,

		is_completed    BOOLEAN NOT NULL DEFAULT FALSE,
		is_expired      BOOLEAN NOT NULL DEFAULT FALSE,
		last_active_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_session ON sessions(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_activity ON sessions(session_id, last_active_at DESC);

	CREATE TABLE IF NOT EXISTS responses (
		id                BIGSERIAL PRIMARY KEY,
		session_id        VARCHAR(64) NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		question_id       VARCHAR(32) NOT NULL,
		category_index    INT NOT NULL CHECK (category_index >= 0),
		subcategory_index INT NOT NULL CHECK (subcategory_index >= 0),
		topic_index       INT NOT NULL CHECK (topic_index >= 0),
		question_index    INT NOT NULL CHECK (question_index >= 0),
		category          TEXT NOT NULL,
		subcategory       TEXT NOT NULL,
		topic             TEXT NOT NULL,
		question          TEXT NOT NULL,
		answer            TEXT NOT NULL,
		time_spent        INT NOT NULL DEFAULT 0 CHECK (time_spent >= 0),
		quality_score     INT NOT NULL DEFAULT 0 CHECK (quality_score >= 0 AND quality_score <= 100),
		is_attention_check BOOLEAN NOT NULL DEFAULT FALSE,
		attention_check_correct BOOLEAN,
		created_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(session_id, question_id)
	);

	CREATE INDEX IF NOT EXISTS idx_responses_session ON responses(session_id);
	CREATE INDEX IF NOT EXISTS idx_responses_position ON responses(session_id, category_index, subcategory_index, topic_index, question_index);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent column additions for databases created before these fields
	// existed.
	alterStatements := []string{
		`ALTER TABLE sessions ADD COLUMN IF NOT EXISTS is_expired BOOLEAN NOT NULL DEFAULT FALSE`,
		`ALTER TABLE responses ADD COLUMN IF NOT EXISTS quality_score INT NOT NULL DEFAULT 0`,
		`ALTER TABLE responses ADD COLUMN IF NOT EXISTS attention_check_correct BOOLEAN`,
	}
	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	newIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_responses_attention ON responses(session_id, is_attention_check)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(is_completed)`,
	}
	for _, stmt := range newIndexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

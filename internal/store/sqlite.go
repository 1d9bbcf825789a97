package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeoul-ai/debate-server/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed report repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS debate_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id TEXT,
		logic_score INTEGER NOT NULL,
		persuasion_score INTEGER NOT NULL,
		topic_score INTEGER NOT NULL,
		summary TEXT NOT NULL,
		improvement_tips_json TEXT NOT NULL,
		ocr_alignment_score INTEGER,
		ocr_feedback TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_session ON debate_reports(session_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveReport persists one generated report record.
func (s *SQLiteStore) SaveReport(ctx context.Context, rec *domain.ReportRecord) error {
	tips, err := json.Marshal(rec.Report.ImprovementTips)
	if err != nil {
		return fmt.Errorf("marshal improvement tips: %w", err)
	}

	var ocrScore sql.NullInt64
	if rec.Report.OCRAlignmentScore != nil {
		ocrScore = sql.NullInt64{Int64: int64(*rec.Report.OCRAlignmentScore), Valid: true}
	}
	var ocrFeedback sql.NullString
	if rec.Report.OCRFeedback != nil {
		ocrFeedback = sql.NullString{String: *rec.Report.OCRFeedback, Valid: true}
	}
	var userID sql.NullString
	if rec.UserID != "" {
		userID = sql.NullString{String: rec.UserID, Valid: true}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO debate_reports (
			session_id, user_id, logic_score, persuasion_score, topic_score,
			summary, improvement_tips_json, ocr_alignment_score, ocr_feedback, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.SessionID, userID,
		rec.Report.LogicScore, rec.Report.PersuasionScore, rec.Report.TopicScore,
		rec.Report.Summary, string(tips), ocrScore, ocrFeedback, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns all reports stored for a session, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, sessionID string) ([]*domain.ReportRecord, error) {
	query := `
		SELECT session_id, user_id, logic_score, persuasion_score, topic_score,
		       summary, improvement_tips_json, ocr_alignment_score, ocr_feedback, created_at
		FROM debate_reports WHERE session_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReportRecord
	for rows.Next() {
		var rec domain.ReportRecord
		var userID sql.NullString
		var tipsJSON string
		var ocrScore sql.NullInt64
		var ocrFeedback sql.NullString
		var createdAt int64

		err := rows.Scan(
			&rec.SessionID, &userID,
			&rec.Report.LogicScore, &rec.Report.PersuasionScore, &rec.Report.TopicScore,
			&rec.Report.Summary, &tipsJSON, &ocrScore, &ocrFeedback, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}

		rec.UserID = userID.String
		if err := json.Unmarshal([]byte(tipsJSON), &rec.Report.ImprovementTips); err != nil {
			return nil, fmt.Errorf("unmarshal improvement tips: %w", err)
		}
		if ocrScore.Valid {
			v := int(ocrScore.Int64)
			rec.Report.OCRAlignmentScore = &v
		}
		if ocrFeedback.Valid {
			v := ocrFeedback.String
			rec.Report.OCRFeedback = &v
		}
		rec.CreatedAt = time.Unix(createdAt, 0)

		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

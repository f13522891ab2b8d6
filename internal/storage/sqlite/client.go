package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/storage/models"
	"github.com/math-agent/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT,
		helpful INTEGER NOT NULL,
		corrected_answer TEXT,
		comment TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	CREATE INDEX IF NOT EXISTS idx_feedback_helpful ON feedback(helpful);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveFeedback inserts one feedback row and returns its generated id.
func (c *Client) SaveFeedback(fb *models.Feedback) (int64, error) {
	query := `
		INSERT INTO feedback (question, answer, helpful, corrected_answer, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	helpful := 0
	if fb.Helpful {
		helpful = 1
	}

	createdAt := fb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := c.db.Exec(
		query,
		fb.Question,
		fb.Answer,
		helpful,
		fb.CorrectedAnswer,
		fb.Comment,
		createdAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to store feedback: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read feedback id: %w", err)
	}

	logger.Info("Feedback stored",
		zap.Int64("feedback_id", id),
		zap.Bool("helpful", fb.Helpful),
	)

	return id, nil
}

// AllFeedback returns every feedback row, newest first.
func (c *Client) AllFeedback() ([]models.Feedback, error) {
	query := `
		SELECT id, question, answer, helpful, corrected_answer, comment, created_at
		FROM feedback
		ORDER BY created_at DESC, id DESC
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	defer rows.Close()

	var records []models.Feedback
	for rows.Next() {
		var fb models.Feedback
		var helpful int
		var createdAt int64

		err := rows.Scan(&fb.ID, &fb.Question, &fb.Answer, &helpful, &fb.CorrectedAnswer, &fb.Comment, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		fb.Helpful = helpful != 0
		fb.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback rows: %w", err)
	}

	return records, nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/standbot/internal/domain"
)

// ChatLogRepository records completed chat turns for reporting
type ChatLogRepository struct {
	db *DB
}

// NewChatLogRepository creates a new chat log repository
func NewChatLogRepository(db *DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// Record stores one completed turn
func (r *ChatLogRepository) Record(ctx context.Context, log *domain.ChatLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_logs (id, session_id, website, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.ID, log.SessionID, log.Website, log.Question, log.Answer, log.CreatedAt)

	return err
}

// ListBySession retrieves the logged turns of a session, oldest first
func (r *ChatLogRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.ChatLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, website, question, answer, created_at
		FROM chat_logs WHERE session_id = ?
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.ChatLog
	for rows.Next() {
		log := &domain.ChatLog{}
		if err := rows.Scan(&log.ID, &log.SessionID, &log.Website, &log.Question,
			&log.Answer, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// CountChats returns the total number of logged turns
func (r *ChatLogRepository) CountChats(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_logs`).Scan(&count)
	return count, err
}

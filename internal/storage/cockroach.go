package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/pkg/models"
)

// NewCockroachMessageStore creates a CockroachDB-backed MessageStore using a
// DSN. The messages table is expected to already exist (see migrations);
// this constructor only opens and pings the pool.
func NewCockroachMessageStore(dsn string, config *CockroachConfig) (*CockroachMessageStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultCockroachConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &CockroachMessageStore{db: db}, nil
}

// CockroachMessageStore implements MessageStore over a `messages` table on
// Postgres/CockroachDB.
type CockroachMessageStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

var _ MessageStore = (*CockroachMessageStore)(nil)

// SetMetrics attaches metrics collection to the store. Operations before
// SetMetrics is called are simply not recorded.
func (s *CockroachMessageStore) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *CockroachMessageStore) Close() error {
	return s.db.Close()
}

func (s *CockroachMessageStore) Append(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ConversationID == "" {
		return fmt.Errorf("message is required")
	}
	if err := insertMessage(ctx, s.db, msg); err != nil {
		s.metrics.RecordStoreError("append")
		return err
	}
	return nil
}

// AppendTurn writes the user row and, if present, the assistant row inside
// one transaction. A failure after the user row is written rolls back the
// whole turn, so readers never observe an orphaned user-only row.
func (s *CockroachMessageStore) AppendTurn(ctx context.Context, user *models.Message, assistant *models.Message) error {
	if user == nil || user.ConversationID == "" {
		return fmt.Errorf("user message is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.metrics.RecordStoreError("append_turn")
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertMessage(ctx, tx, user); err != nil {
		s.metrics.RecordStoreError("append_turn")
		return err
	}
	if assistant != nil {
		if err := insertMessage(ctx, tx, assistant); err != nil {
			s.metrics.RecordStoreError("append_turn")
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		s.metrics.RecordStoreError("append_turn")
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertMessage(ctx context.Context, db execer, msg *models.Message) error {
	sources, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	row := db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, user_id, role, content, sources, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id, created_at`,
		msg.ConversationID,
		nullableString(msg.UserID),
		string(msg.Role),
		msg.Content,
		sources,
		msg.CreatedAt,
	)
	if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *CockroachMessageStore) Tail(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, user_id, role, content, sources, created_at
		 FROM messages WHERE conversation_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		conversationID, n,
	)
	if err != nil {
		s.metrics.RecordStoreError("tail")
		return nil, fmt.Errorf("query tail: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (s *CockroachMessageStore) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, user_id, role, content, sources, created_at
		 FROM messages WHERE conversation_id = $1
		 ORDER BY created_at ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		s.metrics.RecordStoreError("history")
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var out []models.Message
	for rows.Next() {
		var (
			m       models.Message
			userID  sql.NullString
			role    string
			sources []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &userID, &role, &m.Content, &sources, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.UserID = userID.String
		m.Role = models.Role(role)
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &m.Sources); err != nil {
				return nil, fmt.Errorf("unmarshal sources: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *CockroachMessageStore) ConversationsFor(ctx context.Context, userID, prefix string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, max(created_at) AS last_activity
		 FROM messages
		 WHERE user_id = $1 AND conversation_id LIKE $2
		 GROUP BY conversation_id
		 ORDER BY last_activity DESC`,
		userID, prefix+"%",
	)
	if err != nil {
		s.metrics.RecordStoreError("conversations_for")
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var lastActivity any
		if err := rows.Scan(&id, &lastActivity); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *CockroachMessageStore) Delete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	if err != nil {
		s.metrics.RecordStoreError("delete")
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// DeleteOlderThan removes every conversation whose most recent message
// predates cutoff. A conversation counts as stale only by its latest
// activity, not its oldest message, so an old conversation with one recent
// reply is kept.
func (s *CockroachMessageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE conversation_id IN (
			SELECT conversation_id FROM messages
			GROUP BY conversation_id
			HAVING max(created_at) < $1
		)`, cutoff)
	if err != nil {
		s.metrics.RecordStoreError("delete_older_than")
		return 0, fmt.Errorf("delete stale conversations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		s.metrics.RecordStoreError("delete_older_than")
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

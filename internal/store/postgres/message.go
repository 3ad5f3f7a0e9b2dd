package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// InsertMessagesMany batch-inserts envelopes in a single transaction,
// chunked at chunkSize rows per statement. Duplicate ids (expected under
// at-least-once redelivery) are ignored, not errored — the idempotent-
// persistence property this store exists to guarantee.
func (s *Store) InsertMessagesMany(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	return s.atomic(ctx, func(tx pgx.Tx) error {
		for _, batch := range chunk(messages, chunkSize) {
			if err := s.insertMessagesBatch(ctx, tx, batch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) insertMessagesBatch(ctx context.Context, tx pgx.Tx, batch []model.Message) error {
	if len(batch) == 0 {
		return nil
	}
	query := `INSERT INTO messages (id, source, mbox, text, reply_to, created, metadata) VALUES `
	args := make([]any, 0, len(batch)*7)
	for i, m := range batch {
		if i > 0 {
			query += ", "
		}
		base := i * 7
		query += placeholders(base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		var metadata []byte
		if m.Metadata != nil {
			encoded, err := json.Marshal(m.Metadata)
			if err != nil {
				return err
			}
			metadata = encoded
		}
		args = append(args, m.ID, m.Source, m.Mbox, m.Text, m.ReplyTo, m.Created, metadata)
	}
	query += ` ON CONFLICT (id) DO NOTHING`
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func (s *Store) RetrieveMessages(ctx context.Context, mbox string, filter model.MessageFilter) ([]model.Message, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT id, source, mbox, text, reply_to, created, metadata FROM messages WHERE mbox = $1`
	args := []any{mbox}

	if filter.Source != nil {
		args = append(args, *filter.Source)
		query += " AND source = $" + itoa(len(args))
	}
	if filter.ReplyTo != nil {
		args = append(args, *filter.ReplyTo)
		query += " AND reply_to = $" + itoa(len(args))
	}
	if filter.Created != nil {
		args = append(args, *filter.Created)
		query += " AND created = $" + itoa(len(args))
	}

	query += " ORDER BY created ASC"

	args = append(args, limit)
	query += " LIMIT $" + itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.Source, &m.Mbox, &m.Text, &m.ReplyTo, &m.Created, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) IsSender(ctx context.Context, messageID string, principal model.Principal) bool {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND source = $2)`,
		messageID, principal).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}

func (s *Store) InsertMailbox(ctx context.Context, mbox model.Mailbox) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO boxes (id, owner, kind) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		mbox.ID, mbox.Owner, mbox.Kind)
	return err
}

func (s *Store) GetMailboxByOwner(ctx context.Context, owner model.Principal) (*model.Mailbox, error) {
	var m model.Mailbox
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner, kind FROM boxes WHERE owner = $1 AND kind = $2 LIMIT 1`,
		owner, model.MailboxPeerInbox).Scan(&m.ID, &m.Owner, &m.Kind)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

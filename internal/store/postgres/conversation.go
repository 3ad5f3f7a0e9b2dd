package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

func (s *Store) InsertConversation(ctx context.Context, conv model.Conversation) error {
	if conv.Created == 0 {
		conv.Created = time.Now().UnixMilli()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (name, title, admin, created) VALUES ($1, $2, $3, $4)`,
		conv.Name, conv.Title, conv.Admin, conv.Created)
	return err
}

// InsertConversationWithParticipants creates the conversation row and
// every participant edge (including the creator) atomically: either the
// whole conversation is visible or none of it is (repo.rs/handlers.rs's
// create_conversation does this with a rollback on partial failure).
func (s *Store) InsertConversationWithParticipants(ctx context.Context, conv model.Conversation, participants []model.Principal) error {
	if conv.Created == 0 {
		conv.Created = time.Now().UnixMilli()
	}
	return s.atomic(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversations (name, title, admin, created) VALUES ($1, $2, $3, $4)`,
			conv.Name, conv.Title, conv.Admin, conv.Created); err != nil {
			return err
		}
		return s.insertParticipantsManyTx(ctx, tx, conv.Name, participants)
	})
}

func (s *Store) ListConversations(ctx context.Context, principal model.Principal) ([]model.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.name, c.title, c.admin, c.created FROM conversations c
		 JOIN participants p ON p.conversation = c.name
		 WHERE p.participant = $1
		 ORDER BY c.created ASC`, principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.Name, &c.Title, &c.Admin, &c.Created); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetConversation(ctx context.Context, name string) (*model.Conversation, error) {
	var c model.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT name, title, admin, created FROM conversations WHERE name = $1`, name).
		Scan(&c.Name, &c.Title, &c.Admin, &c.Created)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) InsertParticipant(ctx context.Context, p model.Participant) error {
	if p.Created == 0 {
		p.Created = time.Now().UnixMilli()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO participants (conversation, participant, created) VALUES ($1, $2, $3)
		 ON CONFLICT (conversation, participant) DO NOTHING`,
		p.Conversation, p.Principal, p.Created)
	return err
}

func (s *Store) InsertParticipantsMany(ctx context.Context, conversation string, principals []model.Principal) error {
	return s.atomic(ctx, func(tx pgx.Tx) error {
		return s.insertParticipantsManyTx(ctx, tx, conversation, principals)
	})
}

// insertParticipantsManyTx inserts principals in chunks of chunkSize
// (300 in repo.rs, folded into the shared chunkSize here — see the
// comment on chunkSize) to stay under the per-statement bind-variable
// ceiling.
func (s *Store) insertParticipantsManyTx(ctx context.Context, tx pgx.Tx, conversation string, principals []model.Principal) error {
	created := time.Now().UnixMilli()
	for _, batch := range chunk(principals, chunkSize) {
		if err := s.insertParticipantsBatch(ctx, tx, conversation, batch, created); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertParticipantsBatch(ctx context.Context, tx pgx.Tx, conversation string, batch []model.Principal, created int64) error {
	if len(batch) == 0 {
		return nil
	}
	query := `INSERT INTO participants (conversation, participant, created) VALUES `
	args := make([]any, 0, len(batch)*3)
	for i, p := range batch {
		if i > 0 {
			query += ", "
		}
		base := i * 3
		query += placeholders(base+1, base+2, base+3)
		args = append(args, conversation, p, created)
	}
	query += ` ON CONFLICT (conversation, participant) DO NOTHING`
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func (s *Store) RetrieveParticipants(ctx context.Context, conversation string, limit, offset int) ([]model.Participant, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT conversation, participant, created FROM participants
		 WHERE conversation = $1 ORDER BY created ASC LIMIT $2 OFFSET $3`,
		conversation, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.Conversation, &p.Principal, &p.Created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) IsParticipant(ctx context.Context, conversation string, principal model.Principal) bool {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE conversation = $1 AND participant = $2)`,
		conversation, principal).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}

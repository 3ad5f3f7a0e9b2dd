package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// UpsertReceiptsMany merges a batch of receipts in a single transaction.
// Merge rule (grounded in repo.rs's ON CONFLICT clause, resolving
// spec.md's ambiguous "reaction = incoming" — see DESIGN.md):
//   delivered_at = COALESCE(existing, incoming)  — never regress
//   read_at      = COALESCE(existing, incoming)  — never regress
//   reaction     = COALESCE(incoming, existing)  — last non-null wins
func (s *Store) UpsertReceiptsMany(ctx context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return s.atomic(ctx, func(tx pgx.Tx) error {
		for _, r := range receipts {
			if err := s.upsertReceiptTx(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) upsertReceiptTx(ctx context.Context, tx pgx.Tx, r model.Receipt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO message_receipts (message, "user", delivered_at, read_at, reaction)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message, "user") DO UPDATE SET
			delivered_at = COALESCE(message_receipts.delivered_at, excluded.delivered_at),
			read_at      = COALESCE(message_receipts.read_at, excluded.read_at),
			reaction     = COALESCE(excluded.reaction, message_receipts.reaction)
	`, r.Message, r.User, r.DeliveredAt, r.ReadAt, r.Reaction)
	return err
}

func (s *Store) RetrieveReceipts(ctx context.Context, messageID string) ([]model.Receipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT message, "user", delivered_at, read_at, reaction FROM message_receipts WHERE message = $1`,
		messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Receipt
	for rows.Next() {
		var r model.Receipt
		if err := rows.Scan(&r.Message, &r.User, &r.DeliveredAt, &r.ReadAt, &r.Reaction); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

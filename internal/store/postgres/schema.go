package postgres

import "context"

// schema follows spec.md §6's persisted layout verbatim: five tables —
// conversations, participants, messages, message_receipts, boxes.
// Grounded on original_source's repo.rs create_table statements,
// translated from SQLite to Postgres (serial ids, explicit FKs).
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	name    TEXT PRIMARY KEY,
	title   TEXT,
	admin   TEXT NOT NULL,
	created BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS boxes (
	id    TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	kind  SMALLINT NOT NULL
);
CREATE INDEX IF NOT EXISTS boxes_owner_idx ON boxes(owner);

CREATE TABLE IF NOT EXISTS participants (
	id           BIGSERIAL PRIMARY KEY,
	conversation TEXT NOT NULL REFERENCES conversations(name) ON DELETE CASCADE,
	participant  TEXT NOT NULL,
	created      BIGINT NOT NULL,
	UNIQUE(conversation, participant)
);
CREATE INDEX IF NOT EXISTS participants_conversation_idx ON participants(conversation);
CREATE INDEX IF NOT EXISTS participants_participant_idx ON participants(participant);

CREATE TABLE IF NOT EXISTS messages (
	id       TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	mbox     TEXT NOT NULL,
	text     TEXT NOT NULL,
	reply_to TEXT REFERENCES messages(id) ON DELETE SET NULL,
	created  BIGINT NOT NULL,
	metadata JSONB
);
CREATE INDEX IF NOT EXISTS messages_mbox_created_idx ON messages(mbox, created);

CREATE TABLE IF NOT EXISTS message_receipts (
	id           BIGSERIAL PRIMARY KEY,
	message      TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	"user"       TEXT NOT NULL,
	delivered_at BIGINT,
	read_at      BIGINT,
	reaction     INT,
	UNIQUE(message, "user")
);
`

// Migrate creates the schema if it does not already exist. Safe to call
// on every boot.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

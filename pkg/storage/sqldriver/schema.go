package sqldriver

const (
	usersTable = "users"
	factsTable = "facts"

	colID                 = "id"
	colExternalID         = "external_id"
	colWelcomed           = "welcomed"
	colSilenceUntil       = "silence_until"
	colCreatedAt          = "created_at"
	colOwnerID            = "owner_id"
	colQuestion           = "question"
	colQuestionKey        = "question_key"
	colAnswer             = "answer"
	colEaseFactor         = "ease_factor"
	colConsecutiveCorrect = "consecutive_correct"
	colLastReviewed       = "last_reviewed"
	colNextDue            = "next_due"
)

var (
	userColumns = []string{colID, colExternalID, colWelcomed, colSilenceUntil, colCreatedAt}
	factColumns = []string{
		colID, colOwnerID, colQuestion, colAnswer, colEaseFactor,
		colConsecutiveCorrect, colLastReviewed, colNextDue,
	}
)

// Timestamps are stored as Unix milliseconds in every dialect so that due
// date comparisons behave identically across backends.

// SQLiteSchema creates the studybot tables on SQLite and libSQL.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id   TEXT    NOT NULL UNIQUE,
		welcomed      BOOLEAN NOT NULL DEFAULT 0,
		silence_until INTEGER NULL,
		created_at    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS facts (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id            INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question            TEXT    NOT NULL CHECK (question <> ''),
		question_key        TEXT    NOT NULL,
		answer              TEXT    NOT NULL CHECK (answer <> ''),
		ease_factor         REAL    NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
		consecutive_correct INTEGER NOT NULL DEFAULT 0 CHECK (consecutive_correct >= 0),
		last_reviewed       INTEGER NOT NULL,
		next_due            INTEGER NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS facts_owner_question_key ON facts (owner_id, question_key)`,
	`CREATE INDEX IF NOT EXISTS facts_next_due ON facts (next_due)`,
}

// PostgresSchema creates the studybot tables on PostgreSQL.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		external_id   TEXT    NOT NULL UNIQUE,
		welcomed      BOOLEAN NOT NULL DEFAULT FALSE,
		silence_until BIGINT  NULL,
		created_at    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS facts (
		id                  BIGSERIAL PRIMARY KEY,
		owner_id            BIGINT           NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question            TEXT             NOT NULL CHECK (question <> ''),
		question_key        TEXT             NOT NULL,
		answer              TEXT             NOT NULL CHECK (answer <> ''),
		ease_factor         DOUBLE PRECISION NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
		consecutive_correct INTEGER          NOT NULL DEFAULT 0 CHECK (consecutive_correct >= 0),
		last_reviewed       BIGINT           NOT NULL,
		next_due            BIGINT           NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS facts_owner_question_key ON facts (owner_id, question_key)`,
	`CREATE INDEX IF NOT EXISTS facts_next_due ON facts (next_due)`,
}

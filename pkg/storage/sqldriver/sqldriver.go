// Package sqldriver implements storage.Driver on top of database/sql. Queries
// are rendered with ent's dialect-aware SQL builder, so one implementation
// serves SQLite, libSQL and PostgreSQL.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage"
)

// Dialect describes what differs between SQL backends.
type Dialect struct {
	// Name is the ent dialect name used to render queries,
	// e.g. dialect.SQLite or dialect.Postgres.
	Name string

	// Schema holds idempotent statements creating the tables and indexes.
	Schema []string

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(error) bool

	// IsCheckViolation reports whether err is a CHECK constraint failure.
	// Optional.
	IsCheckViolation func(error) bool
}

// Driver provides storage operations on a *sql.DB.
// It is database-agnostic and is embedded by the specific drivers.
type Driver struct {
	DB *sql.DB

	dialect Dialect
	now     func() time.Time
}

// New creates the schema on db and returns a driver using it.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Driver, error) {
	if d.IsUniqueViolation == nil {
		return nil, errors.New("dialect must detect unique violations")
	}

	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Driver{
		DB:      db,
		dialect: d,
		now:     time.Now,
	}, nil
}

// CreateFact inserts a fact for an existing owner.
func (d *Driver) CreateFact(ctx context.Context, fact *flashcard.Fact) (*flashcard.Fact, error) {
	if fact == nil {
		return nil, errors.New("cannot store nil fact")
	}
	if err := storage.ValidateFact(fact.Question, fact.Answer); err != nil {
		return nil, err
	}

	created := fact.Clone()
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		query, args := d.builder().
			Select(colID).
			From(entsql.Table(usersTable)).
			Where(entsql.EQ(colID, fact.OwnerID)).
			Query()
		var ownerID int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&ownerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.NotFoundError{Kind: storage.KindUser, Key: strconv.FormatInt(fact.OwnerID, 10)}
			}
			return fmt.Errorf("failed to look up owner: %w", err)
		}

		query, args = d.builder().
			Insert(factsTable).
			Columns(
				colOwnerID, colQuestion, colQuestionKey, colAnswer, colEaseFactor,
				colConsecutiveCorrect, colLastReviewed, colNextDue,
			).
			Values(
				fact.OwnerID, fact.Question, flashcard.QuestionKey(fact.Question), fact.Answer, fact.EaseFactor,
				fact.ConsecutiveCorrect, encodeTime(fact.LastReviewed), encodeNullTime(fact.NextDue),
			).
			Returning(colID).
			Query()
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
			return d.writeError(err, fact.Question)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateFact replaces the question and answer of an owned fact.
func (d *Driver) UpdateFact(ctx context.Context, ownerID, id int64, question, answer string) (*flashcard.Fact, error) {
	if err := storage.ValidateFact(question, answer); err != nil {
		return nil, err
	}

	var updated *flashcard.Fact
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		query, args := d.builder().
			Update(factsTable).
			Set(colQuestion, question).
			Set(colQuestionKey, flashcard.QuestionKey(question)).
			Set(colAnswer, answer).
			Where(ownedFact(ownerID, id)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return d.writeError(err, question)
		}
		if err := expectOneRow(res, id); err != nil {
			return err
		}

		updated, err = d.getFact(ctx, tx, ownedFact(ownerID, id), strconv.FormatInt(id, 10))
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SaveReview writes the scheduling fields of fact.
func (d *Driver) SaveReview(ctx context.Context, fact *flashcard.Fact) error {
	if fact == nil {
		return errors.New("cannot save review of nil fact")
	}

	return d.withTx(ctx, func(tx *sql.Tx) error {
		query, args := d.builder().
			Update(factsTable).
			Set(colEaseFactor, fact.EaseFactor).
			Set(colConsecutiveCorrect, fact.ConsecutiveCorrect).
			Set(colLastReviewed, encodeTime(fact.LastReviewed)).
			Set(colNextDue, encodeNullTime(fact.NextDue)).
			Where(ownedFact(fact.OwnerID, fact.ID)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if d.isCheckViolation(err) {
				return storage.ValidationError{Kind: storage.KindFact, Field: "schedule", Reason: err.Error()}
			}
			return fmt.Errorf("failed to save review: %w", err)
		}
		return expectOneRow(res, fact.ID)
	})
}

// DeleteFact removes an owned fact.
func (d *Driver) DeleteFact(ctx context.Context, ownerID, id int64) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		query, args := d.builder().
			Delete(factsTable).
			Where(ownedFact(ownerID, id)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete fact: %w", err)
		}
		return expectOneRow(res, id)
	})
}

// GetFactByID retrieves an owned fact by id.
func (d *Driver) GetFactByID(ctx context.Context, ownerID, id int64) (*flashcard.Fact, error) {
	return d.getFact(ctx, d.DB, ownedFact(ownerID, id), strconv.FormatInt(id, 10))
}

// GetFactByQuestion retrieves an owned fact by question, ignoring case.
func (d *Driver) GetFactByQuestion(ctx context.Context, ownerID int64, question string) (*flashcard.Fact, error) {
	pred := entsql.And(
		entsql.EQ(colOwnerID, ownerID),
		entsql.EQ(colQuestionKey, flashcard.QuestionKey(question)),
	)
	return d.getFact(ctx, d.DB, pred, question)
}

// ListFacts returns the facts of an owner ordered by id.
func (d *Driver) ListFacts(ctx context.Context, ownerID int64) ([]*flashcard.Fact, error) {
	query, args := d.builder().
		Select(factColumns...).
		From(entsql.Table(factsTable)).
		Where(entsql.EQ(colOwnerID, ownerID)).
		OrderBy(entsql.Asc(colID)).
		Query()

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	facts := make([]*flashcard.Fact, 0)
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	return facts, nil
}

// GetOrCreateUser returns the user with externalID, creating it on first use.
// A concurrent creation of the same user resolves to the existing row.
func (d *Driver) GetOrCreateUser(ctx context.Context, externalID string) (*flashcard.User, bool, error) {
	if externalID == "" {
		return nil, false, errors.New("external id must not be empty")
	}

	user, err := d.GetUser(ctx, externalID)
	if err == nil {
		return user, false, nil
	}
	var notFound storage.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, false, err
	}

	user = &flashcard.User{
		ExternalID: externalID,
		CreatedAt:  decodeTime(encodeTime(d.now())),
	}
	query, args := d.builder().
		Insert(usersTable).
		Columns(colExternalID, colCreatedAt).
		Values(externalID, encodeTime(user.CreatedAt)).
		Returning(colID).
		Query()
	if err := d.DB.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if d.dialect.IsUniqueViolation(err) {
			user, err = d.GetUser(ctx, externalID)
			return user, false, err
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return user, true, nil
}

// GetUser retrieves a user by external id.
func (d *Driver) GetUser(ctx context.Context, externalID string) (*flashcard.User, error) {
	query, args := d.builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.EQ(colExternalID, externalID)).
		Query()

	user, err := scanUser(d.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindUser, Key: externalID}
	}
	return user, err
}

// MarkWelcomed flags the user as greeted.
func (d *Driver) MarkWelcomed(ctx context.Context, userID int64) error {
	return d.updateUser(ctx, userID, "mark welcomed", colWelcomed, true)
}

// SetSilenceUntil stores the silence deadline of a user.
func (d *Driver) SetSilenceUntil(ctx context.Context, userID int64, until time.Time) error {
	return d.updateUser(ctx, userID, "set silence", colSilenceUntil, encodeTime(until))
}

// updateUser sets one column of a user row, reporting a missing user as
// NotFoundError.
func (d *Driver) updateUser(ctx context.Context, userID int64, op, column string, value any) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		query, args := d.builder().
			Update(usersTable).
			Set(column, value).
			Where(entsql.EQ(colID, userID)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to %s: %w", op, err)
		}
		if n == 0 {
			return storage.NotFoundError{Kind: storage.KindUser, Key: strconv.FormatInt(userID, 10)}
		}
		return nil
	})
}

// ListUsersWithDueFacts returns the unsilenced users owning a due fact,
// ordered by id.
func (d *Driver) ListUsersWithDueFacts(ctx context.Context, now time.Time) ([]*flashcard.User, error) {
	at := encodeTime(now)

	dueOwners := d.builder().
		Select(colOwnerID).
		From(entsql.Table(factsTable)).
		Where(entsql.Or(
			entsql.IsNull(colNextDue),
			entsql.LTE(colNextDue, at),
		))

	query, args := d.builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.And(
			entsql.Or(
				entsql.IsNull(colSilenceUntil),
				entsql.LTE(colSilenceUntil, at),
			),
			entsql.In(colID, dueOwners),
		)).
		OrderBy(entsql.Asc(colID)).
		Query()

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with due facts: %w", err)
	}
	defer rows.Close()

	users := make([]*flashcard.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users with due facts: %w", err)
	}

	return users, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func (d *Driver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.dialect.Name)
}

// withTx runs fn in a transaction, committing when it returns nil.
func (d *Driver) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// writeError maps a failed fact write to ConflictError when it broke the
// per-owner question uniqueness, and to ValidationError on a CHECK failure.
func (d *Driver) writeError(err error, question string) error {
	switch {
	case d.dialect.IsUniqueViolation(err):
		return storage.ConflictError{Kind: storage.KindFact, Key: question}
	case d.isCheckViolation(err):
		return storage.ValidationError{Kind: storage.KindFact, Field: "text", Reason: err.Error()}
	}
	return fmt.Errorf("failed to write fact: %w", err)
}

func (d *Driver) isCheckViolation(err error) bool {
	return d.dialect.IsCheckViolation != nil && d.dialect.IsCheckViolation(err)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *Driver) getFact(ctx context.Context, q queryRower, pred *entsql.Predicate, key string) (*flashcard.Fact, error) {
	query, args := d.builder().
		Select(factColumns...).
		From(entsql.Table(factsTable)).
		Where(pred).
		Query()

	fact, err := scanFact(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindFact, Key: key}
	}
	return fact, err
}

func ownedFact(ownerID, id int64) *entsql.Predicate {
	return entsql.And(
		entsql.EQ(colID, id),
		entsql.EQ(colOwnerID, ownerID),
	)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{Kind: storage.KindFact, Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

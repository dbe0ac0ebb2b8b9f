// Package inmemory provides a map-backed storage driver for tests and the
// local chat command.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu is a read write sync mutex guarding every map below
	mu sync.RWMutex

	users      map[int64]*flashcard.User
	byExternal map[string]int64
	facts      map[int64]*flashcard.Fact

	lastUserID int64
	lastFactID int64

	now func() time.Time
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		users:      make(map[int64]*flashcard.User),
		byExternal: make(map[string]int64),
		facts:      make(map[int64]*flashcard.Fact),
		now:        time.Now,
	}
}

// CreateFact stores a copy of fact under a fresh id.
func (d *Driver) CreateFact(_ context.Context, fact *flashcard.Fact) (*flashcard.Fact, error) {
	if fact == nil {
		return nil, errors.New("cannot store nil fact")
	}
	if err := storage.ValidateFact(fact.Question, fact.Answer); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[fact.OwnerID]; !ok {
		return nil, storage.NotFoundError{Kind: storage.KindUser, Key: strconv.FormatInt(fact.OwnerID, 10)}
	}
	if d.findByQuestion(fact.OwnerID, fact.Question) != nil {
		return nil, storage.ConflictError{Kind: storage.KindFact, Key: fact.Question}
	}

	d.lastFactID++
	stored := fact.Clone()
	stored.ID = d.lastFactID
	d.facts[stored.ID] = stored

	return stored.Clone(), nil
}

// UpdateFact replaces the question and answer of an owned fact.
func (d *Driver) UpdateFact(_ context.Context, ownerID, id int64, question, answer string) (*flashcard.Fact, error) {
	if err := storage.ValidateFact(question, answer); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fact, err := d.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if other := d.findByQuestion(ownerID, question); other != nil && other.ID != id {
		return nil, storage.ConflictError{Kind: storage.KindFact, Key: question}
	}

	fact.Question = question
	fact.Answer = answer
	return fact.Clone(), nil
}

// SaveReview copies the scheduling fields of fact onto the stored record.
func (d *Driver) SaveReview(_ context.Context, fact *flashcard.Fact) error {
	if fact == nil {
		return errors.New("cannot save review of nil fact")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.owned(fact.OwnerID, fact.ID)
	if err != nil {
		return err
	}

	update := fact.Clone()
	stored.EaseFactor = update.EaseFactor
	stored.ConsecutiveCorrect = update.ConsecutiveCorrect
	stored.LastReviewed = update.LastReviewed
	stored.NextDue = update.NextDue
	return nil
}

// DeleteFact removes an owned fact.
func (d *Driver) DeleteFact(_ context.Context, ownerID, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.owned(ownerID, id); err != nil {
		return err
	}
	delete(d.facts, id)
	return nil
}

// GetFactByID retrieves an owned fact by id.
func (d *Driver) GetFactByID(_ context.Context, ownerID, id int64) (*flashcard.Fact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	fact, err := d.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	return fact.Clone(), nil
}

// GetFactByQuestion retrieves an owned fact by question, ignoring case.
func (d *Driver) GetFactByQuestion(_ context.Context, ownerID int64, question string) (*flashcard.Fact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	fact := d.findByQuestion(ownerID, question)
	if fact == nil {
		return nil, storage.NotFoundError{Kind: storage.KindFact, Key: question}
	}
	return fact.Clone(), nil
}

// ListFacts returns the facts of an owner ordered by id.
func (d *Driver) ListFacts(_ context.Context, ownerID int64) ([]*flashcard.Fact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	facts := make([]*flashcard.Fact, 0)
	for _, f := range d.facts {
		if f.OwnerID == ownerID {
			facts = append(facts, f.Clone())
		}
	}
	slices.SortFunc(facts, func(a, b *flashcard.Fact) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return facts, nil
}

// GetOrCreateUser returns the user with externalID, creating it on first use.
func (d *Driver) GetOrCreateUser(_ context.Context, externalID string) (*flashcard.User, bool, error) {
	if externalID == "" {
		return nil, false, errors.New("external id must not be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byExternal[externalID]; ok {
		return cloneUser(d.users[id]), false, nil
	}

	d.lastUserID++
	user := &flashcard.User{
		ID:         d.lastUserID,
		ExternalID: externalID,
		CreatedAt:  d.now(),
	}
	d.users[user.ID] = user
	d.byExternal[externalID] = user.ID

	return cloneUser(user), true, nil
}

// GetUser retrieves a user by external id.
func (d *Driver) GetUser(_ context.Context, externalID string) (*flashcard.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byExternal[externalID]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindUser, Key: externalID}
	}
	return cloneUser(d.users[id]), nil
}

// MarkWelcomed flags the user as greeted.
func (d *Driver) MarkWelcomed(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return storage.NotFoundError{Kind: storage.KindUser, Key: strconv.FormatInt(userID, 10)}
	}
	user.Welcomed = true
	return nil
}

// SetSilenceUntil stores the silence deadline of a user.
func (d *Driver) SetSilenceUntil(_ context.Context, userID int64, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return storage.NotFoundError{Kind: storage.KindUser, Key: strconv.FormatInt(userID, 10)}
	}
	user.SilenceUntil = &until
	return nil
}

// ListUsersWithDueFacts returns the unsilenced users owning a due fact,
// ordered by id.
func (d *Driver) ListUsersWithDueFacts(_ context.Context, now time.Time) ([]*flashcard.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	due := make(map[int64]bool)
	for _, f := range d.facts {
		if f.NextDue == nil || !f.NextDue.After(now) {
			due[f.OwnerID] = true
		}
	}

	users := make([]*flashcard.User, 0, len(due))
	for id := range due {
		user := d.users[id]
		if user == nil || user.Silenced(now) {
			continue
		}
		users = append(users, cloneUser(user))
	}
	slices.SortFunc(users, func(a, b *flashcard.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// CountFacts returns the number of stored facts across all owners.
func (d *Driver) CountFacts() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.facts)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// owned returns the stored fact when it exists and belongs to ownerID.
// Callers must hold mu.
func (d *Driver) owned(ownerID, id int64) (*flashcard.Fact, error) {
	fact, ok := d.facts[id]
	if !ok || fact.OwnerID != ownerID {
		return nil, storage.NotFoundError{Kind: storage.KindFact, Key: strconv.FormatInt(id, 10)}
	}
	return fact, nil
}

// findByQuestion returns the owner's fact with a case-insensitively equal
// question. Callers must hold mu.
func (d *Driver) findByQuestion(ownerID int64, question string) *flashcard.Fact {
	key := flashcard.QuestionKey(question)
	for _, f := range d.facts {
		if f.OwnerID == ownerID && flashcard.QuestionKey(f.Question) == key {
			return f
		}
	}
	return nil
}

func cloneUser(u *flashcard.User) *flashcard.User {
	out := *u
	if u.SilenceUntil != nil {
		until := *u.SilenceUntil
		out.SilenceUntil = &until
	}
	return &out
}

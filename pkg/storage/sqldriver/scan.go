package sqldriver

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanFact(s scanner) (*flashcard.Fact, error) {
	var (
		fact         flashcard.Fact
		lastReviewed int64
		nextDue      sql.NullInt64
	)
	err := s.Scan(
		&fact.ID, &fact.OwnerID, &fact.Question, &fact.Answer, &fact.EaseFactor,
		&fact.ConsecutiveCorrect, &lastReviewed, &nextDue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fact: %w", err)
	}

	fact.LastReviewed = decodeTime(lastReviewed)
	fact.NextDue = decodeNullTime(nextDue)
	return &fact, nil
}

func scanUser(s scanner) (*flashcard.User, error) {
	var (
		user         flashcard.User
		silenceUntil sql.NullInt64
		createdAt    int64
	)
	if err := s.Scan(&user.ID, &user.ExternalID, &user.Welcomed, &silenceUntil, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.SilenceUntil = decodeNullTime(silenceUntil)
	user.CreatedAt = decodeTime(createdAt)
	return &user, nil
}

func encodeTime(t time.Time) int64 {
	return t.UnixMilli()
}

func encodeNullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func decodeTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func decodeNullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := decodeTime(v.Int64)
	return &t
}

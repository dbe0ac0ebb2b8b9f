// Package nlp reads the entities attached to an inbound message by the
// messaging platform's built-in NLP, and classifies plain text locally when
// no entities were attached.
package nlp

import (
	"math"
	"time"
)

// DefaultConfidenceThreshold is the confidence an entity must exceed to be
// trusted.
const DefaultConfidenceThreshold = 0.7

// Entity is one detected value with its confidence in [0,1].
type Entity struct {
	Confidence float64     `json:"confidence"`
	Value      any         `json:"value,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	Normalized *Normalized `json:"normalized,omitempty"`
}

// Normalized carries a value converted to a canonical unit, e.g. seconds for
// durations.
type Normalized struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Entities maps an entity kind to its candidates in the order they were
// presented. A missing kind means not detected.
type Entities map[string][]Entity

const (
	kindIntent   = "intent"
	kindDuration = "duration"
)

var greetingKinds = []string{"greetings", "greeting"}

// Greeting reports whether a greeting was detected above threshold.
func (e Entities) Greeting(threshold float64) bool {
	for _, kind := range greetingKinds {
		if first, ok := e.first(kind); ok && first.Confidence > threshold {
			return true
		}
	}
	return false
}

// Intent returns the highest-confidence intent above threshold, or
// IntentDefault. Equal confidences resolve to the candidate presented first.
func (e Entities) Intent(threshold float64) Intent {
	best := IntentDefault
	highest := threshold
	for _, candidate := range e[kindIntent] {
		label, ok := candidate.Value.(string)
		if !ok || label == "" {
			continue
		}
		if candidate.Confidence > highest {
			highest = candidate.Confidence
			best = Intent(label)
		}
	}
	return best
}

// Duration returns the first duration entity above threshold. Values are
// read in seconds from the normalized form when present.
func (e Entities) Duration(threshold float64) (time.Duration, bool) {
	first, ok := e.first(kindDuration)
	if !ok || first.Confidence <= threshold {
		return 0, false
	}

	var seconds float64
	switch {
	case first.Normalized != nil:
		seconds = first.Normalized.Value
	default:
		v, ok := first.Value.(float64)
		if !ok {
			return 0, false
		}
		seconds = v
	}

	if seconds <= 0 || math.IsNaN(seconds) || seconds > math.MaxInt64/float64(time.Second) {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func (e Entities) first(kind string) (Entity, bool) {
	candidates := e[kind]
	if len(candidates) == 0 {
		return Entity{}, false
	}
	return candidates[0], true
}

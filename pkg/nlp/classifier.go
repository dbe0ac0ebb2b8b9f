package nlp

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Classifier produces entities for raw text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Entities, error)
}

// KeywordClassifier is a rule-based Classifier for local use and for
// messages delivered without platform NLP. Every match has confidence 1.
type KeywordClassifier struct{}

var keywordIntents = []struct {
	intent Intent
	words  []string
}{
	{IntentHelp, []string{"help", "usage", "commands"}},
	{IntentAddFact, []string{"add", "new", "create"}},
	{IntentChangeFact, []string{"change", "edit", "update", "modify"}},
	{IntentDeleteFact, []string{"delete", "remove", "forget"}},
	{IntentViewFacts, []string{"view", "list", "show"}},
	{IntentSilenceStudying, []string{"silence", "mute", "quiet", "snooze"}},
	{IntentStudyNextFact, []string{"study", "quiz", "review", "practice"}},
}

var greetingWords = []string{"hi", "hello", "hey", "howdy", "yo"}

var durationPattern = regexp.MustCompile(`(\d+)\s*(s|sec|secs|seconds?|m|min|mins|minutes?|h|hr|hrs|hours?|d|days?|w|wk|wks|weeks?)\b`)

// Classify tags greetings, the first matching intent keyword and a
// "<n> <unit>" duration.
func (KeywordClassifier) Classify(_ context.Context, text string) (Entities, error) {
	entities := Entities{}
	lower := strings.ToLower(text)
	words := tokenize(lower)

	if containsAny(words, greetingWords) {
		entities["greetings"] = []Entity{{Confidence: 1, Value: "true"}}
	}

	for _, rule := range keywordIntents {
		if containsAny(words, rule.words) {
			entities[kindIntent] = []Entity{{Confidence: 1, Value: string(rule.intent)}}
			break
		}
	}

	if d, ok := parseDuration(lower); ok {
		seconds := d.Seconds()
		entities[kindDuration] = []Entity{{
			Confidence: 1,
			Value:      seconds,
			Unit:       "second",
			Normalized: &Normalized{Value: seconds, Unit: "second"},
		}}
	}

	return entities, nil
}

func parseDuration(text string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}

	var unit time.Duration
	switch m[2][0] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	}
	return time.Duration(n) * unit, true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
}

func containsAny(words, candidates []string) bool {
	return slices.ContainsFunc(words, func(w string) bool {
		return slices.Contains(candidates, w)
	})
}

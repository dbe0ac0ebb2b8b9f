package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// Performance is the user's 0-5 self-assessment of how hard a fact was to
// recall: 0 is impossible, 5 is trivial.
type Performance int

const (
	MinPerformance     Performance = 0
	MaxPerformance     Performance = 5
	PassingPerformance Performance = 3 // lowest rating counted as a correct answer
)

// IsValid reports whether p is within [0, 5].
func (p Performance) IsValid() bool {
	return p >= MinPerformance && p <= MaxPerformance
}

// Passed reports whether p counts as a correct recall.
func (p Performance) Passed() bool {
	return p >= PassingPerformance
}

func (p Performance) String() string {
	if p.IsValid() {
		return strconv.Itoa(int(p))
	}
	return fmt.Sprintf("Performance(%d)", int(p))
}

// ParsePerformance parses a chat reply into a Performance. Surrounding
// whitespace is ignored.
func ParsePerformance(text string) (Performance, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPerformance, text)
	}

	p := Performance(n)
	if !p.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPerformance, n)
	}
	return p, nil
}

package messenger

import "strings"

// SplitText breaks text into ordered chunks of at most limit runes.
// Chunks end on a line break when possible, then on a space, and are only cut
// mid-word when neither exists. Concatenating the chunks yields text.
func SplitText(text string, limit int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		window := string(runes[:limit])
		cut := limit

		if i := strings.LastIndex(window, "\n"); i > 0 {
			cut = len([]rune(window[:i+1]))
		} else if i := strings.LastIndex(window, " "); i > 0 {
			cut = len([]rune(window[:i+1]))
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}

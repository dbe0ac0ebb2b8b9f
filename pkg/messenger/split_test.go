package messenger_test

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/messenger"
)

var _ = Describe("SplitText", func() {
	expectLossless := func(text string, chunks []string, limit int) {
		Expect(strings.Join(chunks, "")).To(Equal(text))
		for _, c := range chunks {
			Expect(utf8.RuneCountInString(c)).To(BeNumerically("<=", limit))
			Expect(c).NotTo(BeEmpty())
		}
	}

	It("returns nothing for empty text", func() {
		Expect(messenger.SplitText("", 10)).To(BeEmpty())
	})

	It("keeps short text whole", func() {
		Expect(messenger.SplitText("hello", 10)).To(Equal([]string{"hello"}))
	})

	It("prefers line breaks", func() {
		text := "first line\nsecond line"
		chunks := messenger.SplitText(text, 15)
		Expect(chunks).To(Equal([]string{"first line\n", "second line"}))
	})

	It("falls back to spaces", func() {
		text := "alpha beta gamma delta"
		chunks := messenger.SplitText(text, 12)
		Expect(chunks[0]).To(Equal("alpha beta "))
		expectLossless(text, chunks, 12)
	})

	It("cuts words longer than the limit", func() {
		text := strings.Repeat("x", 25)
		chunks := messenger.SplitText(text, 10)
		Expect(chunks).To(HaveLen(3))
		expectLossless(text, chunks, 10)
	})

	It("counts runes, not bytes", func() {
		text := strings.Repeat("é", 30)
		chunks := messenger.SplitText(text, 10)
		Expect(chunks).To(HaveLen(3))
		expectLossless(text, chunks, 10)
	})

	It("splits a question longer than the platform limit without losing content", func() {
		text := "Question: " + strings.Repeat("why is the sky blue ", 150)
		chunks := messenger.SplitText(text, messenger.DefaultMessageLimit)
		Expect(len(chunks)).To(BeNumerically(">", 1))
		expectLossless(text, chunks, messenger.DefaultMessageLimit)
	})
})

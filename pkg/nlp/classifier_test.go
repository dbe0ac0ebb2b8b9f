package nlp_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/nlp"
)

var _ = Describe("KeywordClassifier", func() {
	const threshold = nlp.DefaultConfidenceThreshold

	var classifier nlp.Classifier = nlp.KeywordClassifier{}

	classify := func(text string) nlp.Entities {
		entities, err := classifier.Classify(context.Background(), text)
		Expect(err).NotTo(HaveOccurred())
		return entities
	}

	DescribeTable("intents",
		func(text string, want nlp.Intent) {
			Expect(classify(text).Intent(threshold)).To(Equal(want))
		},
		Entry("add", "I want to add a fact", nlp.IntentAddFact),
		Entry("change", "edit a fact", nlp.IntentChangeFact),
		Entry("delete", "Delete one", nlp.IntentDeleteFact),
		Entry("view", "show my facts", nlp.IntentViewFacts),
		Entry("silence", "mute for 2 hours", nlp.IntentSilenceStudying),
		Entry("study", "let's study", nlp.IntentStudyNextFact),
		Entry("help", "help!", nlp.IntentHelp),
		Entry("nothing", "the weather is nice", nlp.IntentDefault),
	)

	It("matches whole words only", func() {
		Expect(classify("addition is fun").Intent(threshold)).To(Equal(nlp.IntentDefault))
	})

	It("detects greetings", func() {
		Expect(classify("Hey there").Greeting(threshold)).To(BeTrue())
		Expect(classify("they said").Greeting(threshold)).To(BeFalse())
	})

	DescribeTable("durations",
		func(text string, want time.Duration) {
			d, ok := classify(text).Duration(threshold)
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(want))
		},
		Entry("days", "silence for 10 days", 10*24*time.Hour),
		Entry("hours", "2 hours", 2*time.Hour),
		Entry("compact minutes", "30m", 30*time.Minute),
		Entry("weeks", "1 week please", 7*24*time.Hour),
	)

	It("reports no duration without a number and unit", func() {
		_, ok := classify("for a while").Duration(threshold)
		Expect(ok).To(BeFalse())
	})
})

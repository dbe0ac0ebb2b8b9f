package session_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/session"
)

var _ = Describe("Session", func() {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	draft := func() *flashcard.Fact {
		due := now.Add(24 * time.Hour)
		return &flashcard.Fact{
			ID:                 7,
			OwnerID:            3,
			Question:           "Capital of France?",
			Answer:             "Paris",
			EaseFactor:         2.36,
			ConsecutiveCorrect: 2,
			LastReviewed:       now,
			NextDue:            &due,
		}
	}

	expectSameFact := func(got, want *flashcard.Fact) {
		Expect(got).NotTo(BeNil())
		Expect(got.ID).To(Equal(want.ID))
		Expect(got.OwnerID).To(Equal(want.OwnerID))
		Expect(got.Question).To(Equal(want.Question))
		Expect(got.Answer).To(Equal(want.Answer))
		Expect(got.EaseFactor).To(Equal(want.EaseFactor))
		Expect(got.ConsecutiveCorrect).To(Equal(want.ConsecutiveCorrect))
		Expect(got.LastReviewed.Equal(want.LastReviewed)).To(BeTrue())
		if want.NextDue == nil {
			Expect(got.NextDue).To(BeNil())
		} else {
			Expect(got.NextDue).NotTo(BeNil())
			Expect(got.NextDue.Equal(*want.NextDue)).To(BeTrue())
		}
	}

	Describe("State", func() {
		It("names every state", func() {
			Expect(session.StateDefault.String()).To(Equal("DEFAULT"))
			Expect(session.StateAwaitStudyEasiness.String()).To(Equal("AWAIT_STUDY_EASINESS"))
		})

		It("parses names back", func() {
			for s := session.StateDefault; s <= session.StateAwaitStudyEasiness; s++ {
				parsed, err := session.ParseState(s.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(s))
			}
		})

		It("rejects unknown names", func() {
			_, err := session.ParseState("NAPPING")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("New", func() {
		It("starts in DEFAULT without a draft", func() {
			s := session.New(3, "psid")
			Expect(s.State()).To(Equal(session.StateDefault))
			Expect(s.Draft()).To(BeNil())
			Expect(s.FirstContact).To(BeFalse())
		})
	})

	Describe("Encode and Decode", func() {
		DescribeTable("reproduce an equivalent session",
			func(step func() session.Step) {
				original := &session.Session{UserID: 3, ExternalID: "psid", Step: step()}

				data, err := session.Encode(original)
				Expect(err).NotTo(HaveOccurred())

				decoded, err := session.Decode(data)
				Expect(err).NotTo(HaveOccurred())
				Expect(decoded.UserID).To(Equal(original.UserID))
				Expect(decoded.ExternalID).To(Equal(original.ExternalID))
				Expect(decoded.State()).To(Equal(original.State()))
				if original.Draft() == nil {
					Expect(decoded.Draft()).To(BeNil())
				} else {
					expectSameFact(decoded.Draft(), original.Draft())
				}
			},
			Entry("DEFAULT", func() session.Step { return session.Idle{} }),
			Entry("AWAIT_QUESTION with a new draft", func() session.Step {
				return session.AwaitQuestion{Draft: &flashcard.Fact{OwnerID: 3, EaseFactor: 2.5}}
			}),
			Entry("AWAIT_QUESTION on an existing fact", func() session.Step {
				return session.AwaitQuestion{Draft: draft()}
			}),
			Entry("AWAIT_ANSWER", func() session.Step { return session.AwaitAnswer{Draft: draft()} }),
			Entry("AWAIT_FACT_TO_CHANGE", func() session.Step { return session.AwaitFactToChange{} }),
			Entry("AWAIT_FACT_TO_DELETE", func() session.Step { return session.AwaitFactToDelete{} }),
			Entry("CONFIRM_DELETE", func() session.Step { return session.ConfirmDelete{Fact: draft()} }),
			Entry("AWAIT_SILENCE_DURATION", func() session.Step { return session.AwaitSilenceDuration{} }),
			Entry("AWAIT_STUDY_ANSWER", func() session.Step { return session.AwaitStudyAnswer{Fact: draft()} }),
			Entry("AWAIT_STUDY_EASINESS", func() session.Step { return session.AwaitStudyEasiness{Fact: draft()} }),
		)

		It("writes the snapshot field names", func() {
			data, err := session.Encode(&session.Session{UserID: 3, ExternalID: "psid", Step: session.AwaitAnswer{Draft: draft()}})
			Expect(err).NotTo(HaveOccurred())

			var raw map[string]any
			Expect(json.Unmarshal(data, &raw)).To(Succeed())
			Expect(raw).To(HaveKeyWithValue("owner_id", BeNumerically("==", 3)))
			Expect(raw).To(HaveKeyWithValue("state", "AWAIT_ANSWER"))
			Expect(raw["draft_fact"]).To(HaveKey("ease_factor"))
			Expect(raw["draft_fact"]).To(HaveKey("consecutive_correct"))
			Expect(raw["draft_fact"]).To(HaveKey("next_due"))
			Expect(raw["draft_fact"]).To(HaveKey("last_reviewed"))
		})

		It("never persists FirstContact", func() {
			s := session.New(3, "psid")
			s.FirstContact = true
			data, err := session.Encode(s)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := session.Decode(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.FirstContact).To(BeFalse())
		})

		It("rejects a draft-carrying state without a draft", func() {
			_, err := session.Decode([]byte(`{"owner_id":3,"state":"CONFIRM_DELETE","draft_fact":null}`))
			Expect(err).To(HaveOccurred())
		})

		It("rejects garbage", func() {
			_, err := session.Decode([]byte(`not json`))
			Expect(err).To(HaveOccurred())
		})
	})
})

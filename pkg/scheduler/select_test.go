package scheduler_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/scheduler"
)

var _ = Describe("SelectNextDue", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	})

	at := func(id int64, offset time.Duration) *flashcard.Fact {
		due := now.Add(offset)
		return &flashcard.Fact{ID: id, NextDue: &due}
	}

	It("returns nil for no facts", func() {
		Expect(scheduler.SelectNextDue(nil, now)).To(BeNil())
	})

	It("returns nil when nothing is due yet", func() {
		facts := []*flashcard.Fact{at(1, time.Hour), at(2, 48*time.Hour)}
		Expect(scheduler.SelectNextDue(facts, now)).To(BeNil())
	})

	It("picks the smallest due date at or before now", func() {
		facts := []*flashcard.Fact{
			at(1, -time.Hour),
			at(2, -72*time.Hour),
			at(3, time.Hour),
			at(4, 0),
		}
		Expect(scheduler.SelectNextDue(facts, now).ID).To(Equal(int64(2)))
	})

	It("treats a fact due exactly now as due", func() {
		facts := []*flashcard.Fact{at(9, 0)}
		Expect(scheduler.SelectNextDue(facts, now).ID).To(Equal(int64(9)))
	})

	It("breaks ties on the smallest id", func() {
		facts := []*flashcard.Fact{at(5, -time.Hour), at(3, -time.Hour), at(4, -time.Hour)}
		Expect(scheduler.SelectNextDue(facts, now).ID).To(Equal(int64(3)))
	})

	It("includes facts without a due date", func() {
		facts := []*flashcard.Fact{at(1, -time.Hour), {ID: 2}}
		Expect(scheduler.SelectNextDue(facts, now).ID).To(Equal(int64(2)))
	})
})

// Package storagetest holds the behavioral tests every storage.Driver must
// pass. Driver packages call DescribeDriver from their own suites.
package storagetest

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage"
)

// Now is the fixed clock used by the shared tests. It is whole-second UTC so
// it survives every backend's timestamp encoding.
var Now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

// DescribeDriver registers the shared driver behaviors. newDriver is invoked
// before each test and must return an empty store.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		alice  *flashcard.User
		bob    *flashcard.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()

		var err error
		alice, _, err = driver.GetOrCreateUser(ctx, "alice-psid")
		Expect(err).NotTo(HaveOccurred())
		bob, _, err = driver.GetOrCreateUser(ctx, "bob-psid")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	create := func(owner *flashcard.User, question, answer string) *flashcard.Fact {
		fact, err := driver.CreateFact(ctx, flashcard.NewFact(owner.ID, question, answer, Now))
		Expect(err).NotTo(HaveOccurred())
		return fact
	}

	Describe("GetOrCreateUser", func() {
		It("creates a user once and returns it afterwards", func() {
			first, created, err := driver.GetOrCreateUser(ctx, "carol-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(first.ID).NotTo(BeZero())
			Expect(first.SilenceUntil).To(BeNil())
			Expect(first.Welcomed).To(BeFalse())

			again, created, err := driver.GetOrCreateUser(ctx, "carol-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(again.ID).To(Equal(first.ID))
		})

		It("gives distinct users distinct ids", func() {
			Expect(alice.ID).NotTo(Equal(bob.ID))
		})
	})

	Describe("GetUser", func() {
		It("returns a NotFoundError for unknown users", func() {
			_, err := driver.GetUser(ctx, "nobody")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.Kind).To(Equal(storage.KindUser))
		})

		It("returns a known user", func() {
			user, err := driver.GetUser(ctx, "alice-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(alice.ID))
		})
	})

	Describe("CreateFact", func() {
		It("assigns an id and keeps the scheduling defaults", func() {
			fact := create(alice, "What is 2+2?", "4")
			Expect(fact.ID).NotTo(BeZero())
			Expect(fact.OwnerID).To(Equal(alice.ID))
			Expect(fact.EaseFactor).To(Equal(flashcard.DefaultEaseFactor))
			Expect(fact.ConsecutiveCorrect).To(BeZero())
			Expect(fact.NextDue).NotTo(BeNil())
			Expect(fact.NextDue.Equal(Now.Add(24 * time.Hour))).To(BeTrue())

			stored, err := driver.GetFactByID(ctx, alice.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Question).To(Equal("What is 2+2?"))
			Expect(stored.Answer).To(Equal("4"))
			Expect(stored.LastReviewed.Equal(Now)).To(BeTrue())
			Expect(stored.NextDue.Equal(*fact.NextDue)).To(BeTrue())
		})

		It("rejects a duplicate question for the same owner regardless of case", func() {
			create(alice, "Capital of France?", "Paris")

			_, err := driver.CreateFact(ctx, flashcard.NewFact(alice.ID, "capital of FRANCE?", "Paris", Now))
			var conflict storage.ConflictError
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(conflict.Kind).To(Equal(storage.KindFact))
		})

		It("allows the same question for different owners", func() {
			create(alice, "Capital of France?", "Paris")
			create(bob, "Capital of France?", "Paris")
		})

		It("rejects blank text with a ValidationError", func() {
			_, err := driver.CreateFact(ctx, flashcard.NewFact(alice.ID, "  ", "Paris", Now))
			var invalid storage.ValidationError
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Field).To(Equal("question"))

			_, err = driver.CreateFact(ctx, flashcard.NewFact(alice.ID, "Capital of France?", "", Now))
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Field).To(Equal("answer"))
		})

		It("preserves text exactly", func() {
			long := "¿Dónde está la biblioteca? \"quoted\" 'single' \n second line"
			fact := create(alice, long, "Aquí")
			stored, err := driver.GetFactByID(ctx, alice.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Question).To(Equal(long))
		})
	})

	Describe("GetFactByID", func() {
		It("hides facts owned by someone else", func() {
			fact := create(alice, "Secret?", "Yes")

			_, err := driver.GetFactByID(ctx, bob.ID, fact.ID)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("returns NotFoundError for missing ids", func() {
			_, err := driver.GetFactByID(ctx, alice.ID, 9999)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("GetFactByQuestion", func() {
		It("matches case-insensitively within the owner", func() {
			fact := create(alice, "Capital of France?", "Paris")

			found, err := driver.GetFactByQuestion(ctx, alice.ID, "CAPITAL of france?")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(fact.ID))

			_, err = driver.GetFactByQuestion(ctx, bob.ID, "Capital of France?")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("UpdateFact", func() {
		It("replaces question and answer but keeps scheduling state", func() {
			fact := create(alice, "Old?", "old")

			updated, err := driver.UpdateFact(ctx, alice.ID, fact.ID, "New?", "new")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).To(Equal(fact.ID))
			Expect(updated.Question).To(Equal("New?"))
			Expect(updated.Answer).To(Equal("new"))
			Expect(updated.EaseFactor).To(Equal(fact.EaseFactor))
			Expect(updated.NextDue.Equal(*fact.NextDue)).To(BeTrue())
		})

		It("allows changing only the case of the own question", func() {
			fact := create(alice, "old?", "old")
			_, err := driver.UpdateFact(ctx, alice.ID, fact.ID, "OLD?", "old")
			Expect(err).NotTo(HaveOccurred())
		})

		It("conflicts with another fact of the same owner", func() {
			create(alice, "Taken?", "yes")
			fact := create(alice, "Free?", "yes")

			_, err := driver.UpdateFact(ctx, alice.ID, fact.ID, "taken?", "no")
			var conflict storage.ConflictError
			Expect(errors.As(err, &conflict)).To(BeTrue())
		})

		It("rejects blank text with a ValidationError and keeps the fact", func() {
			fact := create(alice, "Keep?", "kept")

			_, err := driver.UpdateFact(ctx, alice.ID, fact.ID, "", "")
			var invalid storage.ValidationError
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Kind).To(Equal(storage.KindFact))

			stored, err := driver.GetFactByID(ctx, alice.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Question).To(Equal("Keep?"))
			Expect(stored.Answer).To(Equal("kept"))
		})

		It("refuses to update another owner's fact", func() {
			fact := create(alice, "Mine?", "yes")
			_, err := driver.UpdateFact(ctx, bob.ID, fact.ID, "Yours?", "no")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("SaveReview", func() {
		It("persists the scheduling fields", func() {
			fact := create(alice, "Q?", "A")
			next := Now.Add(6 * 24 * time.Hour)
			reviewed := Now.Add(time.Hour)

			fact.EaseFactor = 2.6
			fact.ConsecutiveCorrect = 2
			fact.LastReviewed = reviewed
			fact.NextDue = &next
			Expect(driver.SaveReview(ctx, fact)).To(Succeed())

			stored, err := driver.GetFactByID(ctx, alice.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.EaseFactor).To(BeNumerically("~", 2.6, 1e-9))
			Expect(stored.ConsecutiveCorrect).To(Equal(2))
			Expect(stored.LastReviewed.Equal(reviewed)).To(BeTrue())
			Expect(stored.NextDue.Equal(next)).To(BeTrue())
		})

		It("returns NotFoundError for a deleted fact", func() {
			fact := create(alice, "Q?", "A")
			Expect(driver.DeleteFact(ctx, alice.ID, fact.ID)).To(Succeed())

			err := driver.SaveReview(ctx, fact)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("DeleteFact", func() {
		It("removes the fact", func() {
			fact := create(alice, "Q?", "A")
			Expect(driver.DeleteFact(ctx, alice.ID, fact.ID)).To(Succeed())

			_, err := driver.GetFactByID(ctx, alice.ID, fact.ID)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("refuses to delete another owner's fact", func() {
			fact := create(alice, "Q?", "A")
			err := driver.DeleteFact(ctx, bob.ID, fact.ID)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())

			_, err = driver.GetFactByID(ctx, alice.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ListFacts", func() {
		It("returns only the owner's facts ordered by id", func() {
			first := create(alice, "One?", "1")
			create(bob, "Other?", "x")
			second := create(alice, "Two?", "2")

			facts, err := driver.ListFacts(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(facts).To(HaveLen(2))
			Expect(facts[0].ID).To(Equal(first.ID))
			Expect(facts[1].ID).To(Equal(second.ID))
		})

		It("returns an empty list for an owner without facts", func() {
			facts, err := driver.ListFacts(ctx, bob.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(facts).To(BeEmpty())
		})
	})

	Describe("MarkWelcomed", func() {
		It("persists the welcomed flag", func() {
			Expect(driver.MarkWelcomed(ctx, alice.ID)).To(Succeed())

			user, err := driver.GetUser(ctx, "alice-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Welcomed).To(BeTrue())

			again, created, err := driver.GetOrCreateUser(ctx, "alice-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(again.Welcomed).To(BeTrue())

			other, err := driver.GetUser(ctx, "bob-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Welcomed).To(BeFalse())
		})

		It("returns NotFoundError for an unknown user", func() {
			err := driver.MarkWelcomed(ctx, 9999)
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.Kind).To(Equal(storage.KindUser))
		})
	})

	Describe("SetSilenceUntil", func() {
		It("stores the silence deadline", func() {
			until := Now.Add(2 * time.Hour)
			Expect(driver.SetSilenceUntil(ctx, alice.ID, until)).To(Succeed())

			user, err := driver.GetUser(ctx, "alice-psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.SilenceUntil).NotTo(BeNil())
			Expect(user.SilenceUntil.Equal(until)).To(BeTrue())
		})
	})

	Describe("ListUsersWithDueFacts", func() {
		It("returns users owning a fact due at or before now", func() {
			create(alice, "Due?", "yes")
			create(bob, "Not yet?", "no")

			due := Now.Add(-time.Minute)
			fact, err := driver.GetFactByQuestion(ctx, alice.ID, "Due?")
			Expect(err).NotTo(HaveOccurred())
			fact.NextDue = &due
			Expect(driver.SaveReview(ctx, fact)).To(Succeed())

			users, err := driver.ListUsersWithDueFacts(ctx, Now)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].ID).To(Equal(alice.ID))
		})

		It("treats a due date equal to now as due", func() {
			create(alice, "Due?", "yes")
			users, err := driver.ListUsersWithDueFacts(ctx, Now.Add(24*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})

		It("skips silenced users until the silence passes", func() {
			create(alice, "Due?", "yes")
			later := Now.Add(48 * time.Hour)
			Expect(driver.SetSilenceUntil(ctx, alice.ID, Now.Add(72*time.Hour))).To(Succeed())

			users, err := driver.ListUsersWithDueFacts(ctx, later)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())

			users, err = driver.ListUsersWithDueFacts(ctx, Now.Add(96*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})

		It("lists a user once no matter how many facts are due", func() {
			create(alice, "One?", "1")
			create(alice, "Two?", "2")

			users, err := driver.ListUsersWithDueFacts(ctx, Now.Add(48*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})
	})
}

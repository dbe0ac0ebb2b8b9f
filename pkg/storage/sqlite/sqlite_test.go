package sqlite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/sqlite"
	"github.com/papercomputeco/studybot/pkg/storage/storagetest"
)

var _ storage.Driver = (*sqlite.SQLiteDriver)(nil)

var _ = Describe("SQLiteDriver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		driver, err := sqlite.NewSQLiteDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return driver
	})

	Describe("NewSQLiteDriver", func() {
		It("creates a driver with file database", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			s, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			// Verify file was created
			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps data across reopening the same file", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "persist.db")

			s, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			user, _, err := s.GetOrCreateUser(ctx, "psid")
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateFact(ctx, flashcard.NewFact(user.ID, "Q?", "A", storagetest.Now))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Close()).To(Succeed())

			reopened, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			again, created, err := reopened.GetOrCreateUser(ctx, "psid")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			facts, err := reopened.ListFacts(ctx, again.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(facts).To(HaveLen(1))
		})
	})

	Describe("schema constraints", func() {
		It("rejects an ease factor below the floor", func() {
			ctx := context.Background()
			s, err := sqlite.NewSQLiteDriver(":memory:")
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			user, _, err := s.GetOrCreateUser(ctx, "psid")
			Expect(err).NotTo(HaveOccurred())
			fact, err := s.CreateFact(ctx, flashcard.NewFact(user.ID, "Q?", "A", storagetest.Now))
			Expect(err).NotTo(HaveOccurred())

			fact.EaseFactor = 1.0
			Expect(s.SaveReview(ctx, fact)).NotTo(Succeed())
		})
	})

	Describe("IsUniqueViolation", func() {
		It("ignores unrelated errors", func() {
			Expect(sqlite.IsUniqueViolation(errors.New("boom"))).To(BeFalse())
			Expect(sqlite.IsUniqueViolation(nil)).To(BeFalse())
		})
	})
})

package postgres_test

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/postgres"
	"github.com/papercomputeco/studybot/pkg/storage/storagetest"
)

var _ storage.Driver = (*postgres.Driver)(nil)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("STUDYBOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("STUDYBOT_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	Describe("against a live database", func() {
		storagetest.DescribeDriver(func() storage.Driver {
			ctx := context.Background()
			driver, err := postgres.NewDriver(ctx, connStr())
			Expect(err).NotTo(HaveOccurred())

			// Clean all rows before each test for isolation.
			_, err = driver.DB.ExecContext(ctx, "TRUNCATE facts, users RESTART IDENTITY CASCADE")
			Expect(err).NotTo(HaveOccurred())
			return driver
		})
	})

	Describe("IsUniqueViolation", func() {
		It("matches SQLSTATE 23505", func() {
			Expect(postgres.IsUniqueViolation(&pgconn.PgError{Code: "23505"})).To(BeTrue())
		})

		It("ignores other SQLSTATEs and plain errors", func() {
			Expect(postgres.IsUniqueViolation(&pgconn.PgError{Code: "23503"})).To(BeFalse())
			Expect(postgres.IsUniqueViolation(errors.New("boom"))).To(BeFalse())
		})
	})
})

package libsql_test

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/libsql"
	"github.com/papercomputeco/studybot/pkg/storage/storagetest"
)

var _ storage.Driver = (*libsql.Driver)(nil)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		path := filepath.Join(GinkgoT().TempDir(), "studybot.db")
		driver, err := libsql.NewDriver(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		return driver
	})

	Describe("IsUniqueViolation", func() {
		It("matches the SQLite constraint message", func() {
			err := errors.New("SQLite error: UNIQUE constraint failed: facts.owner_id, facts.question_key")
			Expect(libsql.IsUniqueViolation(err)).To(BeTrue())
		})

		It("ignores other errors", func() {
			Expect(libsql.IsUniqueViolation(errors.New("no such table"))).To(BeFalse())
			Expect(libsql.IsUniqueViolation(nil)).To(BeFalse())
		})
	})
})

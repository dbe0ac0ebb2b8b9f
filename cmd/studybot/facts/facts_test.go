package factscmder_test

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	factscmder "github.com/papercomputeco/studybot/cmd/studybot/facts"
	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage/sqlite"
)

var _ = Describe("NewFactsCmd", func() {
	It("has a list subcommand", func() {
		cmd := factscmder.NewFactsCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElement("list"))
	})
})

var _ = Describe("FactTable", func() {
	It("renders one row per fact with scheduling details", func() {
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		fact := flashcard.NewFact(1, "Capital of France?", "Paris", now)
		fact.ID = 7

		table := factscmder.FactTable([]*flashcard.Fact{fact}, now)
		Expect(table).To(ContainSubstring("| 7 | Capital of France? | Paris | 2.50 | 0 |"))
		Expect(table).To(ContainSubstring("Sun, 10 Mar 2024 12:00:00 UTC"))
		Expect(table).To(ContainSubstring("Mon, 11 Mar 2024 12:00:00 UTC (in 1d)"))
	})

	It("escapes pipes and newlines inside cells", func() {
		fact := &flashcard.Fact{ID: 1, Question: "a|b", Answer: "line\nbreak"}

		table := factscmder.FactTable([]*flashcard.Fact{fact}, time.Now())
		Expect(table).To(ContainSubstring(`a\|b`))
		Expect(table).To(ContainSubstring("line break"))
		Expect(table).To(ContainSubstring("| never | now |"))
	})
})

var _ = Describe("facts list", func() {
	var dbPath string

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "studybot.sqlite")

		ctx := context.Background()
		driver, err := sqlite.NewSQLiteDriver(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		user, _, err := driver.GetOrCreateUser(ctx, "psid-1")
		Expect(err).NotTo(HaveOccurred())
		_, err = driver.CreateFact(ctx, flashcard.NewFact(user.ID, "2 + 2?", "4", time.Now()))
		Expect(err).NotTo(HaveOccurred())
	})

	run := func(args ...string) (string, error) {
		cmd := factscmder.NewFactsCmd()
		cmd.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")

		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("lists the user's facts", func() {
		out, err := run("list", "psid-1", "--storage-driver", "sqlite", "--sqlite", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("| 2 + 2? | 4 |"))
	})

	It("fails for an unknown user", func() {
		_, err := run("list", "nobody", "--storage-driver", "sqlite", "--sqlite", dbPath)
		Expect(err).To(MatchError(ContainSubstring(`no user with external id "nobody"`)))
	})

	It("requires exactly one argument", func() {
		_, err := run("list")
		Expect(err).To(HaveOccurred())
	})
})

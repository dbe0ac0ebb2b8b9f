package inmemory_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/inmemory"
	"github.com/papercomputeco/studybot/pkg/storage/storagetest"
)

var _ storage.Driver = (*inmemory.Driver)(nil)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	Describe("isolation", func() {
		It("returns copies that callers cannot mutate", func() {
			ctx := context.Background()
			driver := inmemory.NewDriver()
			user, _, err := driver.GetOrCreateUser(ctx, "psid")
			Expect(err).NotTo(HaveOccurred())

			fact, err := driver.CreateFact(ctx, flashcard.NewFact(user.ID, "Q?", "A", storagetest.Now))
			Expect(err).NotTo(HaveOccurred())
			fact.Answer = "changed"

			stored, err := driver.GetFactByID(ctx, user.ID, fact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Answer).To(Equal("A"))
		})

		It("rejects facts for unknown owners", func() {
			driver := inmemory.NewDriver()
			_, err := driver.CreateFact(context.Background(), flashcard.NewFact(42, "Q?", "A", storagetest.Now))
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("concurrency", func() {
		It("creates each user exactly once under concurrent access", func() {
			ctx := context.Background()
			driver := inmemory.NewDriver()

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
			)
			for range 20 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, ok, err := driver.GetOrCreateUser(ctx, "same-psid")
					Expect(err).NotTo(HaveOccurred())
					if ok {
						mu.Lock()
						created++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			Expect(created).To(Equal(1))
		})
	})
})

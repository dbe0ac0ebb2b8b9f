package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// newTestPool creates a worker pool with the given shape.
// Callers should "wp.Close()" to drain enqueued jobs before asserting results.
func newTestPool(workers, queue uint) *Pool {
	wp, err := NewPool(&Config{
		NumWorkers: workers,
		QueueSize:  queue,
	})
	Expect(err).NotTo(HaveOccurred())
	return wp
}

var _ = Describe("Worker Pool", func() {
	Describe("NewPool", func() {
		It("applies defaults", func() {
			c := &Config{}
			wp, err := NewPool(c)
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(c.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(c.QueueSize).To(Equal(defaultJobQueueSize))
			Expect(c.JobTimeout).To(Equal(defaultJobTimeout))
			Expect(wp.queues).To(HaveLen(int(defaultNumWorkers)))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp := newTestPool(2, 4)
			done := make(chan struct{})

			ok := wp.Enqueue(Job{Key: "psid", Name: "turn", Run: func(context.Context) error {
				close(done)
				return nil
			}})
			Expect(ok).To(BeTrue())
			Eventually(done).Should(BeClosed())
			wp.Close()
		})

		It("drops jobs when the owning queue is full", func() {
			wp := newTestPool(1, 1)
			release := make(chan struct{})
			started := make(chan struct{})

			Expect(wp.Enqueue(Job{Key: "a", Run: func(context.Context) error {
				close(started)
				<-release
				return nil
			}})).To(BeTrue())
			Eventually(started).Should(BeClosed())

			Expect(wp.Enqueue(Job{Key: "a", Run: func(context.Context) error { return nil }})).To(BeTrue())
			Expect(wp.Enqueue(Job{Key: "a", Run: func(context.Context) error { return nil }})).To(BeFalse())

			close(release)
			wp.Close()
		})

		It("refuses jobs after Close", func() {
			wp := newTestPool(1, 1)
			wp.Close()
			Expect(wp.Enqueue(Job{Key: "a", Run: func(context.Context) error { return nil }})).To(BeFalse())
		})
	})

	Describe("ordering", func() {
		It("runs jobs for the same key in enqueue order", func() {
			wp := newTestPool(4, 64)

			var (
				mu    sync.Mutex
				order []int
			)
			for i := range 20 {
				Expect(wp.Enqueue(Job{Key: "same-user", Run: func(context.Context) error {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
					return nil
				}})).To(BeTrue())
			}
			wp.Close()

			Expect(order).To(HaveLen(20))
			for i := range order {
				Expect(order[i]).To(Equal(i))
			}
		})

		It("routes a key to the same worker every time", func() {
			wp := newTestPool(8, 1)
			defer wp.Close()
			Expect(wp.shard("psid-42")).To(Equal(wp.shard("psid-42")))
		})

		It("lets different keys proceed while one is blocked", func() {
			wp := newTestPool(8, 4)
			release := make(chan struct{})
			other := make(chan struct{})

			blockedKey := "user-a"
			otherKey := ""
			for i := range 100 {
				k := fmt.Sprintf("user-%d", i)
				if wp.shard(k) != wp.shard(blockedKey) {
					otherKey = k
					break
				}
			}
			Expect(otherKey).NotTo(BeEmpty())

			wp.Enqueue(Job{Key: blockedKey, Run: func(context.Context) error {
				<-release
				return nil
			}})
			wp.Enqueue(Job{Key: otherKey, Run: func(context.Context) error {
				close(other)
				return nil
			}})

			Eventually(other).Should(BeClosed())
			close(release)
			wp.Close()
		})
	})

	Describe("failures", func() {
		It("reports errors and recovers panics", func() {
			var (
				mu      sync.Mutex
				results = map[string]error{}
			)
			wp, err := NewPool(&Config{
				NumWorkers: 1,
				OnResult: func(job Job, err error) {
					mu.Lock()
					results[job.Name] = err
					mu.Unlock()
				},
			})
			Expect(err).NotTo(HaveOccurred())

			wp.Enqueue(Job{Key: "a", Name: "fails", Run: func(context.Context) error { return errors.New("boom") }})
			wp.Enqueue(Job{Key: "a", Name: "panics", Run: func(context.Context) error { panic("kaboom") }})
			wp.Enqueue(Job{Key: "a", Name: "ok", Run: func(context.Context) error { return nil }})
			wp.Enqueue(Job{Key: "a", Name: "empty"})
			wp.Close()

			Expect(results["fails"]).To(MatchError("boom"))
			Expect(results["panics"]).To(MatchError(ContainSubstring("kaboom")))
			Expect(results).To(HaveKey("ok"))
			Expect(results["ok"]).NotTo(HaveOccurred())
			Expect(results["empty"]).To(HaveOccurred())
		})

		It("bounds each job with the timeout", func() {
			var got error
			wp, err := NewPool(&Config{
				NumWorkers: 1,
				JobTimeout: 10 * time.Millisecond,
				OnResult:   func(_ Job, err error) { got = err },
			})
			Expect(err).NotTo(HaveOccurred())

			wp.Enqueue(Job{Key: "a", Run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}})
			wp.Close()

			Expect(got).To(MatchError(context.DeadlineExceeded))
		})
	})
})

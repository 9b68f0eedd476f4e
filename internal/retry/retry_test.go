package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRetry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Retry Suite")
}

var _ = Describe("Do", func() {
	var (
		ctx      context.Context
		delays   []time.Duration
		sleeper  Sleeper
		attempts int
	)

	BeforeEach(func() {
		ctx = context.Background()
		delays = nil
		attempts = 0
		sleeper = func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}
	})

	It("returns immediately on first success without sleeping", func() {
		err := Do(ctx, func(context.Context) error {
			attempts++
			return nil
		}, WithSleeper(sleeper))
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(1))
		Expect(delays).To(BeEmpty())
	})

	It("makes one initial attempt plus maxRetries retries", func() {
		boom := errors.New("boom")
		err := Do(ctx, func(context.Context) error {
			attempts++
			return boom
		}, WithSleeper(sleeper))
		Expect(err).To(MatchError(boom))
		Expect(attempts).To(Equal(4))
	})

	It("backs off 2x, 4x, 8x the base delay", func() {
		err := Do(ctx, func(context.Context) error {
			return errors.New("boom")
		}, WithSleeper(sleeper), WithBaseDelay(time.Second))
		Expect(err).To(HaveOccurred())
		Expect(delays).To(Equal([]time.Duration{
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
		}))
	})

	It("stops retrying once an attempt succeeds", func() {
		err := Do(ctx, func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, WithSleeper(sleeper))
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(3))
		Expect(delays).To(HaveLen(2))
	})

	It("surfaces the last error unmodified after exhaustion", func() {
		first := errors.New("first")
		last := errors.New("last")
		calls := 0
		err := Do(ctx, func(context.Context) error {
			calls++
			if calls < 4 {
				return first
			}
			return last
		}, WithSleeper(sleeper))
		Expect(err).To(MatchError(last))
	})

	It("honors a custom retry budget", func() {
		err := Do(ctx, func(context.Context) error {
			attempts++
			return errors.New("boom")
		}, WithSleeper(sleeper), WithMaxRetries(1))
		Expect(err).To(HaveOccurred())
		Expect(attempts).To(Equal(2))
	})

	It("treats maxRetries zero as a single attempt", func() {
		err := Do(ctx, func(context.Context) error {
			attempts++
			return errors.New("boom")
		}, WithSleeper(sleeper), WithMaxRetries(0))
		Expect(err).To(HaveOccurred())
		Expect(attempts).To(Equal(1))
		Expect(delays).To(BeEmpty())
	})

	It("returns the context error when cancelled mid-backoff", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := Do(cancelled, func(context.Context) error {
			attempts++
			return errors.New("boom")
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(attempts).To(Equal(1))
	})
})

var _ = Describe("DoValue", func() {
	It("returns the value produced by the successful attempt", func() {
		calls := 0
		v, err := DoValue(context.Background(), func(context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("transient")
			}
			return "ready", nil
		}, WithSleeper(func(context.Context, time.Duration) error { return nil }))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("ready"))
	})

	It("returns the zero value alongside the final error", func() {
		v, err := DoValue(context.Background(), func(context.Context) (int, error) {
			return 7, errors.New("boom")
		}, WithSleeper(func(context.Context, time.Duration) error { return nil }))
		Expect(err).To(HaveOccurred())
		Expect(v).To(BeZero())
	})
})

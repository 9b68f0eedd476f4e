package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"

	"github.com/budgyapp/budgy-backend/internal/model"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("BoltStore", func() {
	var (
		ctx context.Context
		s   *BoltStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		s, err = NewBoltStore(dbPath, time.Second)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
	})

	receipt := func(id string) model.Receipt {
		total := decimal.RequireFromString("12.34")
		return model.Receipt{
			ID:          id,
			StoreName:   "Corner Shop",
			TotalAmount: &total,
			ScannedTime: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			UserID:      "user-1",
		}
	}

	Describe("receipts", func() {
		It("round-trips a receipt", func() {
			Expect(s.SaveReceipt(ctx, "user-1", receipt("r1"))).To(Succeed())
			got, err := s.GetReceipt(ctx, "user-1", "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.StoreName).To(Equal("Corner Shop"))
			Expect(got.TotalAmount.StringFixed(2)).To(Equal("12.34"))
		})

		It("returns ErrNotFound for a missing receipt", func() {
			_, err := s.GetReceipt(ctx, "user-1", "missing")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("isolates receipts per user", func() {
			Expect(s.SaveReceipt(ctx, "user-1", receipt("r1"))).To(Succeed())
			_, err := s.GetReceipt(ctx, "user-2", "r1")
			Expect(err).To(MatchError(ErrNotFound))
			list, err := s.ListReceipts(ctx, "user-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("lists most recent effective transaction first", func() {
			older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			a := receipt("a")
			a.TransactionDateTime = &older
			b := receipt("b")
			b.TransactionDateTime = &newer
			Expect(s.SaveReceipt(ctx, "user-1", a)).To(Succeed())
			Expect(s.SaveReceipt(ctx, "user-1", b)).To(Succeed())

			list, err := s.ListReceipts(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal("b"))
		})

		It("overwrites on save with the same id", func() {
			Expect(s.SaveReceipt(ctx, "user-1", receipt("r1"))).To(Succeed())
			updated := receipt("r1")
			updated.StoreName = "Renamed"
			Expect(s.SaveReceipt(ctx, "user-1", updated)).To(Succeed())
			got, err := s.GetReceipt(ctx, "user-1", "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.StoreName).To(Equal("Renamed"))
			list, err := s.ListReceipts(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("deletes and reports already-deleted", func() {
			Expect(s.SaveReceipt(ctx, "user-1", receipt("r1"))).To(Succeed())
			Expect(s.DeleteReceipt(ctx, "user-1", "r1")).To(Succeed())
			Expect(s.DeleteReceipt(ctx, "user-1", "r1")).To(MatchError(ErrNotFound))
		})

		It("decodes drifted documents instead of dropping them", func() {
			// write a raw document with a numeric amount and a mistyped item
			raw := []byte(`{"storeName":"Legacy","totalAmount":7.5,"items":"oops"}`)
			err := s.db.Update(func(tx *bbolt.Tx) error {
				b, err := userSubBucket(tx, "user-1", receiptsBucket, true)
				if err != nil {
					return err
				}
				return b.Put([]byte("legacy"), raw)
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := s.GetReceipt(ctx, "user-1", "legacy")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("legacy"))
			Expect(got.StoreName).To(Equal("Legacy"))
			Expect(got.TotalAmount.StringFixed(2)).To(Equal("7.50"))
			Expect(got.Items).To(BeEmpty())
		})
	})

	Describe("budget settings", func() {
		It("round-trips the budget document", func() {
			set := BudgetSettings{
				MonthlyBudget: decimal.RequireFromString("250.00"),
				UpdatedAt:     time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			}
			Expect(s.SetBudget(ctx, "user-1", set)).To(Succeed())
			got, err := s.GetBudget(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.MonthlyBudget.StringFixed(2)).To(Equal("250.00"))
		})

		It("returns ErrNotFound when never set", func() {
			_, err := s.GetBudget(ctx, "user-1")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("usage counters", func() {
		It("starts at zero", func() {
			count, err := s.UsageCount(ctx, "user-1", "2024-03")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("increments and persists", func() {
			for want := 1; want <= 3; want++ {
				count, err := s.IncrementUsage(ctx, "user-1", "2024-03")
				Expect(err).NotTo(HaveOccurred())
				Expect(count).To(Equal(want))
			}
			count, err := s.UsageCount(ctx, "user-1", "2024-03")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})

		It("buckets counters by month", func() {
			_, err := s.IncrementUsage(ctx, "user-1", "2024-03")
			Expect(err).NotTo(HaveOccurred())
			count, err := s.UsageCount(ctx, "user-1", "2024-04")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("caps increments at the limit when asked", func() {
			for i := 0; i < 2; i++ {
				_, incremented, err := s.IncrementUsageIfBelow(ctx, "user-1", "2024-03", 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(incremented).To(BeTrue())
			}
			count, incremented, err := s.IncrementUsageIfBelow(ctx, "user-1", "2024-03", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(incremented).To(BeFalse())
			Expect(count).To(Equal(2))
		})
	})

	Describe("usage log", func() {
		It("appends entries without clobbering", func() {
			at := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 2; i++ {
				Expect(s.AppendUsageLog(ctx, UsageEntry{
					UserID:        "user-1",
					Timestamp:     at,
					TextLength:    100,
					EstimatedCost: decimal.RequireFromString("0.0002"),
				})).To(Succeed())
			}
			var n int
			err := s.db.View(func(tx *bbolt.Tx) error {
				return tx.Bucket([]byte(usageLogBucket)).ForEach(func(k, v []byte) error {
					n++
					return nil
				})
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})
	})

	It("refuses work on a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		Expect(s.SaveReceipt(cancelled, "user-1", receipt("r1"))).To(MatchError(context.Canceled))
		_, err := s.ListReceipts(cancelled, "user-1")
		Expect(err).To(MatchError(context.Canceled))
	})
})

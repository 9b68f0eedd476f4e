package model

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("ParseReceiptDate", func() {
	It("parses ISO date-only strings to midnight local time", func() {
		t, ok := ParseReceiptDate("2024-03-15")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)))
	})

	It("parses US-style slash dates to midnight local time", func() {
		t, ok := ParseReceiptDate("03/15/2024")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)))
	})

	It("keeps the time component when the string carries one", func() {
		t, ok := ParseReceiptDate("2024-03-15 14:30:00")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)))
	})

	It("parses written-out month names", func() {
		t, ok := ParseReceiptDate("Mar 5, 2024")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)))
	})

	It("reports false for empty input", func() {
		_, ok := ParseReceiptDate("")
		Expect(ok).To(BeFalse())
	})

	It("reports false for unparseable text", func() {
		_, ok := ParseReceiptDate("sometime last tuesday")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("EffectiveTransactionTime", func() {
	var (
		txTime  time.Time
		scanned time.Time
	)

	BeforeEach(func() {
		txTime = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
		scanned = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	})

	It("prefers transactionDateTime over everything else", func() {
		r := Receipt{
			TransactionDateTime: &txTime,
			Date:                "2020-01-01",
			ScannedTime:         scanned,
		}
		t, ok := r.EffectiveTransactionTime()
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(txTime))
	})

	It("falls back to the parsed date string", func() {
		r := Receipt{Date: "2024-03-15", ScannedTime: scanned}
		t, ok := r.EffectiveTransactionTime()
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)))
	})

	It("falls back to scannedTime when the date string is garbage", func() {
		r := Receipt{Date: "n/a", ScannedTime: scanned}
		t, ok := r.EffectiveTransactionTime()
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(scanned))
	})

	It("reports no resolvable instant when every link is empty", func() {
		r := Receipt{}
		_, ok := r.EffectiveTransactionTime()
		Expect(ok).To(BeFalse())
	})

	It("ignores a zero transactionDateTime", func() {
		zero := time.Time{}
		r := Receipt{TransactionDateTime: &zero, ScannedTime: scanned}
		t, ok := r.EffectiveTransactionTime()
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(scanned))
	})
})

var _ = Describe("SortByEffectiveTime", func() {
	It("orders receipts most recent first with unknowns last", func() {
		older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		receipts := []Receipt{
			{ID: "unknown"},
			{ID: "old", TransactionDateTime: &older},
			{ID: "new", TransactionDateTime: &newer},
		}
		SortByEffectiveTime(receipts)
		Expect(receipts[0].ID).To(Equal("new"))
		Expect(receipts[1].ID).To(Equal("old"))
		Expect(receipts[2].ID).To(Equal("unknown"))
	})

	It("keeps the existing order of equally-unknown receipts", func() {
		receipts := []Receipt{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		SortByEffectiveTime(receipts)
		Expect(receipts[0].ID).To(Equal("a"))
		Expect(receipts[1].ID).To(Equal("b"))
		Expect(receipts[2].ID).To(Equal("c"))
	})
})

var _ = Describe("EnsureIDs", func() {
	It("assigns fresh ids to receipt and items that lack one", func() {
		price := decimal.RequireFromString("3.50")
		r := Receipt{Items: []ReceiptItem{{Name: "Milk", Price: &price}, {ID: "kept", Name: "Bread"}}}
		r.EnsureIDs()
		Expect(r.ID).NotTo(BeEmpty())
		Expect(r.Items[0].ID).NotTo(BeEmpty())
		Expect(r.Items[1].ID).To(Equal("kept"))
	})

	It("never overwrites an existing id", func() {
		r := Receipt{ID: "original"}
		r.EnsureIDs()
		Expect(r.ID).To(Equal("original"))
	})
})

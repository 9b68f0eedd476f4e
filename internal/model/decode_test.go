package model

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/budgyapp/budgy-backend/constants"
)

var _ = Describe("ParseReceiptDocument", func() {
	It("decodes a well-formed document", func() {
		raw := map[string]any{
			"storeName":   "Whole Foods",
			"date":        "2024-03-15",
			"totalAmount": "42.17",
			"category":    "Groceries",
			"items": []any{
				map[string]any{"name": "Milk", "price": "3.50", "quantity": "1"},
			},
		}
		r, err := ParseReceiptDocument("doc-1", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ID).To(Equal("doc-1"))
		Expect(r.StoreName).To(Equal("Whole Foods"))
		Expect(r.TotalAmount.String()).To(Equal("42.17"))
		Expect(r.Category).To(Equal(constants.FoodAndDining))
		Expect(r.Items).To(HaveLen(1))
		Expect(r.Items[0].ID).NotTo(BeEmpty())
	})

	It("tolerates mistyped fields by zeroing them", func() {
		raw := map[string]any{
			"storeName":   12345,
			"totalAmount": "not-a-number",
			"items":       "corrupted",
		}
		r, err := ParseReceiptDocument("doc-2", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ID).To(Equal("doc-2"))
		Expect(r.StoreName).To(BeEmpty())
		Expect(r.TotalAmount).To(BeNil())
		Expect(r.Items).To(BeEmpty())
	})

	It("accepts amounts stored as JSON numbers", func() {
		raw := map[string]any{"totalAmount": 5.5}
		r, err := ParseReceiptDocument("doc-3", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.TotalAmount.StringFixed(2)).To(Equal("5.50"))
	})

	It("accepts epoch-millisecond scan timestamps", func() {
		at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		raw := map[string]any{"scannedTime": float64(at.UnixMilli())}
		r, err := ParseReceiptDocument("doc-4", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ScannedTime.UTC()).To(Equal(at))
	})

	It("accepts provider-native seconds objects", func() {
		raw := map[string]any{
			"transactionDateTime": map[string]any{"seconds": float64(1710504000)},
		}
		r, err := ParseReceiptDocument("doc-5", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.TransactionDateTime).NotTo(BeNil())
		Expect(r.TransactionDateTime.Unix()).To(Equal(int64(1710504000)))
	})

	It("snaps an unrecognized category to Other", func() {
		raw := map[string]any{"category": "Cryptocurrency"}
		r, err := ParseReceiptDocument("doc-6", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Category).To(Equal(constants.Other))
	})

	It("generates a fresh id when the document key is empty but fields exist", func() {
		raw := map[string]any{"storeName": "Target"}
		first, err := ParseReceiptDocument("", raw)
		Expect(err).NotTo(HaveOccurred())
		second, err := ParseReceiptDocument("", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.ID).NotTo(BeEmpty())
		Expect(second.ID).NotTo(BeEmpty())
		Expect(first.ID).NotTo(Equal(second.ID))
	})

	It("rejects a document with no key and no fields", func() {
		_, err := ParseReceiptDocument("", map[string]any{})
		Expect(err).To(HaveOccurred())
	})
})

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/budgyapp/budgy-backend/internal/model"
)

const (
	usersBucket    = "users"
	receiptsBucket = "receipts"
	settingsBucket = "settings"
	countersBucket = "usage_counters"
	usageLogBucket = "usage_log"

	budgetKey = "budget"
)

// BoltStore implements Store on a bbolt file. Layout:
//
//	users/{userID}/receipts/{receiptID} -> Receipt JSON
//	users/{userID}/settings/budget      -> BudgetSettings JSON
//	usage_counters/{userID}|{YYYY-MM}   -> ascii count
//	usage_log/{nanots}|{uuid}           -> UsageEntry JSON
//
// bbolt serializes writers, so counter increments are atomic.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database file.
func NewBoltStore(path string, openTimeout time.Duration) (*BoltStore, error) {
	if openTimeout <= 0 {
		openTimeout = 1 * time.Second
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{usersBucket, countersBucket, usageLogBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveReceipt(ctx context.Context, userID string, r model.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, receiptsBucket, true)
		if err != nil {
			return err
		}
		return b.Put([]byte(r.ID), data)
	})
}

func (s *BoltStore) GetReceipt(ctx context.Context, userID, receiptID string) (model.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return model.Receipt{}, err
	}
	var out model.Receipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, receiptsBucket, false)
		if err != nil || b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(receiptID))
		if data == nil {
			return ErrNotFound
		}
		r, err := decodeReceipt(receiptID, data)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (s *BoltStore) ListReceipts(ctx context.Context, userID string) ([]model.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	receipts := []model.Receipt{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, receiptsBucket, false)
		if err != nil || b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			r, err := decodeReceipt(string(k), v)
			if err != nil {
				// tolerant decode already tried; skip the one document
				return nil
			}
			receipts = append(receipts, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	model.SortByEffectiveTime(receipts)
	return receipts, nil
}

func (s *BoltStore) DeleteReceipt(ctx context.Context, userID, receiptID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, receiptsBucket, false)
		if err != nil || b == nil {
			return ErrNotFound
		}
		if b.Get([]byte(receiptID)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(receiptID))
	})
}

func (s *BoltStore) GetBudget(ctx context.Context, userID string) (BudgetSettings, error) {
	if err := ctx.Err(); err != nil {
		return BudgetSettings{}, err
	}
	var out BudgetSettings
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, settingsBucket, false)
		if err != nil || b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(budgetKey))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &out)
	})
	return out, err
}

func (s *BoltStore) SetBudget(ctx context.Context, userID string, budget BudgetSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("marshaling budget: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := userSubBucket(tx, userID, settingsBucket, true)
		if err != nil {
			return err
		}
		return b.Put([]byte(budgetKey), data)
	})
}

func (s *BoltStore) UsageCount(ctx context.Context, userID, monthKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = readCount(tx.Bucket([]byte(countersBucket)), counterKey(userID, monthKey))
		return nil
	})
	return count, err
}

func (s *BoltStore) IncrementUsage(ctx context.Context, userID, monthKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(countersBucket))
		key := counterKey(userID, monthKey)
		count = readCount(b, key) + 1
		return b.Put(key, []byte(strconv.Itoa(count)))
	})
	return count, err
}

func (s *BoltStore) IncrementUsageIfBelow(ctx context.Context, userID, monthKey string, limit int) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var count int
	var incremented bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(countersBucket))
		key := counterKey(userID, monthKey)
		count = readCount(b, key)
		if count >= limit {
			return nil
		}
		count++
		incremented = true
		return b.Put(key, []byte(strconv.Itoa(count)))
	})
	return count, incremented, err
}

func (s *BoltStore) AppendUsageLog(ctx context.Context, e UsageEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling usage entry: %w", err)
	}
	key := fmt.Sprintf("%d|%s", e.Timestamp.UnixNano(), uuid.New().String())
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(usageLogBucket)).Put([]byte(key), data)
	})
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// decodeReceipt runs the tolerant two-stage document parse keyed by the
// document id, so one drifted field never drops the record.
func decodeReceipt(id string, data []byte) (model.Receipt, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Receipt{}, fmt.Errorf("unmarshaling receipt %s: %w", id, err)
	}
	return model.ParseReceiptDocument(id, raw)
}

func userSubBucket(tx *bbolt.Tx, userID, name string, create bool) (*bbolt.Bucket, error) {
	users := tx.Bucket([]byte(usersBucket))
	user := users.Bucket([]byte(userID))
	if user == nil {
		if !create {
			return nil, nil
		}
		var err error
		user, err = users.CreateBucket([]byte(userID))
		if err != nil {
			return nil, err
		}
	}
	sub := user.Bucket([]byte(name))
	if sub == nil {
		if !create {
			return nil, nil
		}
		var err error
		sub, err = user.CreateBucket([]byte(name))
		if err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func counterKey(userID, monthKey string) []byte {
	return []byte(userID + "|" + monthKey)
}

func readCount(b *bbolt.Bucket, key []byte) int {
	data := b.Get(key)
	if data == nil {
		return 0
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return n
}

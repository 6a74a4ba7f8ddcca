package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketDeliveries = []byte("deliveries")

// Record is one delivered notification.
type Record struct {
	// Seq orders records by insertion; assigned by Append.
	Seq uint64 `json:"seq"`
	// ID identifies the delivery; assigned by Append when empty.
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	Repository     string    `json:"repository"`
	SubjectType    string    `json:"subject_type"`
	SubjectTitle   string    `json:"subject_title"`
	Reason         string    `json:"reason,omitempty"`
	CommentURL     string    `json:"comment_url,omitempty"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

// Store is a BoltDB-backed delivery log.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the log at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDeliveries)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Append stores rec, filling in Seq, ID and DeliveredAt.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.DeliveredAt.IsZero() {
		rec.DeliveredAt = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeliveries)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bkt.Put(seqKey(seq), payload)
	})
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var records []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDeliveries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				return nil
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	return records, err
}

// Prune deletes the oldest records so that at most retain remain and reports
// how many were deleted. retain <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, retain int) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	if retain <= 0 {
		return 0, nil
	}
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeliveries)
		var keys [][]byte
		if err := bkt.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		}); err != nil {
			return err
		}
		for len(keys)-deleted > retain {
			if err := bkt.Delete(keys[deleted]); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

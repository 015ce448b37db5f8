package runhist

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	dbFile        = "cherud.launch-history"
	bucketName    = "launch_history"
	dbPermissions = 0600
)

// History records validated launches in a bbolt database under the user
// cache directory. It is diagnostic only: surfaced through the stats
// command, never consulted for ranking.
type History struct {
	db *bbolt.DB
}

// Open creates or opens the history database in the user cache directory.
func Open() (*History, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return OpenAt(cacheDir)
}

// OpenAt creates or opens the history database under the given cache
// directory. Tests point this at a temp dir.
func OpenAt(cacheDir string) (*History, error) {
	dir := filepath.Join(cacheDir, "cheru")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, dbFile), dbPermissions, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db}, nil
}

// record is count (8 bytes, big endian) + last launch unix seconds (8 bytes).
func encodeRecord(count uint64, last int64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], count)
	binary.BigEndian.PutUint64(buf[8:], uint64(last))
	return buf
}

func decodeRecord(val []byte) (count uint64, last int64) {
	if len(val) >= 8 {
		count = binary.BigEndian.Uint64(val[:8])
	}
	if len(val) >= 16 {
		last = int64(binary.BigEndian.Uint64(val[8:16]))
	}
	return count, last
}

// Record bumps the launch count for a target and stamps the launch time.
func (h *History) Record(target string) error {
	now := time.Now().Unix()
	return h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}
		count, _ := decodeRecord(b.Get([]byte(target)))
		return b.Put([]byte(target), encodeRecord(count+1, now))
	})
}

// Count returns the recorded launch count for a target.
func (h *History) Count(target string) uint64 {
	var count uint64
	h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		count, _ = decodeRecord(b.Get([]byte(target)))
		return nil
	})
	return count
}

// LastLaunch returns when a target was last launched, zero if never.
func (h *History) LastLaunch(target string) time.Time {
	var last int64
	h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		_, last = decodeRecord(b.Get([]byte(target)))
		return nil
	})
	if last == 0 {
		return time.Time{}
	}
	return time.Unix(last, 0)
}

// Totals returns the number of distinct launched targets and the sum of
// all launch counts.
func (h *History) Totals() (targets int, launches uint64) {
	h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			count, _ := decodeRecord(v)
			targets++
			launches += count
			return nil
		})
	})
	return targets, launches
}

// Close closes the database.
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

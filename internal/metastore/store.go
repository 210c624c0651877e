// Package metastore tracks per-bundle scan metadata in a small bbolt
// database alongside the cache. The refresher uses it to diff scan results
// against the previous run and log what appeared or disappeared.
package metastore

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("bundles")

type Store struct {
	db *bolt.DB
}

// BundleMeta is what we remember about a scanned app bundle between runs.
type BundleMeta struct {
	ModTime time.Time
	Size    int64
}

// New opens (creating if needed) the metadata database next to the cache
// database at cachePath.
func New(cachePath string) (*Store, error) {
	dir := filepath.Dir(cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "meta.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(path string) (BundleMeta, bool, error) {
	var meta BundleMeta
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(path))
		if v != nil {
			meta = decodeMeta(v)
			found = true
		}
		return nil
	})

	return meta, found, err
}

// Replace overwrites the stored metadata with the given set in one
// transaction and returns the bundle paths that were added and removed
// relative to the previous contents.
func (s *Store) Replace(bundles map[string]BundleMeta) (added, removed []string, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)

		err := b.ForEach(func(k, _ []byte) error {
			if _, ok := bundles[string(k)]; !ok {
				removed = append(removed, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, path := range removed {
			if err := b.Delete([]byte(path)); err != nil {
				return err
			}
		}

		for path, meta := range bundles {
			if b.Get([]byte(path)) == nil {
				added = append(added, path)
			}
			if err := b.Put([]byte(path), encodeMeta(meta)); err != nil {
				return err
			}
		}
		return nil
	})
	return added, removed, err
}

func (s *Store) ForEach(fn func(path string, meta BundleMeta) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), decodeMeta(v))
		})
	})
}

func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeMeta(m BundleMeta) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(m.ModTime.UnixNano()))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(m.Size))
	return buf
}

func decodeMeta(b []byte) BundleMeta {
	if len(b) < 16 {
		return BundleMeta{}
	}
	return BundleMeta{
		ModTime: time.Unix(0, int64(binary.LittleEndian.Uint64(b[0:8]))),
		Size:    int64(binary.LittleEndian.Uint64(b[8:16])),
	}
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	worksBucket  = []byte("works_cache")
	prefsBucket  = []byte("preferences")
	fandomBucket = []byte("fandoms")
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{worksBucket, prefsBucket, fandomBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetCachedWorks replaces the cached results for key and stamps them with the current time.
func (s *Store) SetCachedWorks(key string, works []Work) error {
	entry := CacheEntry{Results: works, Timestamp: s.now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(worksBucket).Put([]byte(key), data)
	})
}

// GetCachedWorks returns the entry for key marked stale once it is older than ttl.
// A missing or unreadable entry yields ErrNotFound.
func (s *Store) GetCachedWorks(key string, ttl time.Duration) (*CachedWorks, error) {
	var entry CacheEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(worksBucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	age := s.now().Sub(entry.Timestamp)
	return &CachedWorks{
		Results: entry.Results,
		Stale:   age > ttl,
		Age:     age,
	}, nil
}

// ClearCache drops every cached search result.
func (s *Store) ClearCache() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(worksBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(worksBucket)
		return err
	})
}

func (s *Store) GetPreference(name string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(prefsBucket).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		value = string(data)
		return nil
	})
	return value, err
}

func (s *Store) SetPreference(name, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Put([]byte(name), []byte(value))
	})
}

// SaveFandoms upserts suggestions keyed by id.
func (s *Store) SaveFandoms(fandoms []Fandom) error {
	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(fandomBucket)
		for _, f := range fandoms {
			if f.ID == "" {
				continue
			}
			f.LastSeen = now
			data, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(f.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// AllFandoms returns remembered fandoms sorted by name.
func (s *Store) AllFandoms() ([]Fandom, error) {
	var fandoms []Fandom
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(fandomBucket).ForEach(func(_ []byte, v []byte) error {
			var f Fandom
			if err := json.Unmarshal(v, &f); err != nil {
				return nil
			}
			fandoms = append(fandoms, f)
			return nil
		})
	})
	sort.Slice(fandoms, func(i, j int) bool {
		return strings.ToLower(fandoms[i].Name) < strings.ToLower(fandoms[j].Name)
	})
	return fandoms, err
}

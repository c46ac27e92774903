package bench

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Run is one recorded perft/search benchmark invocation.
type Run struct {
	Suite     string        `json:"suite"`
	Revision  string        `json:"revision"`
	Nodes     uint64        `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	NPS       float64       `json:"nps"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store wraps BadgerDB for persisting benchmark runs, keyed so that every
// run for a suite sorts in timestamp order and the latest is cheap to find.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the benchmark-history store in the
// platform data directory.
func Open() (*Store, error) {
	dir, err := databaseDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func runKey(suite string, ts time.Time) []byte {
	return []byte(fmt.Sprintf("run:%s:%020d", suite, ts.UnixNano()))
}

// Latest returns the most recently recorded run for suite, or nil if none
// exists yet.
func (s *Store) Latest(suite string) (*Run, error) {
	prefix := []byte(fmt.Sprintf("run:%s:", suite))

	var latest *Run
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return err
			}
			latest = &r
		}
		return nil
	})
	return latest, err
}

// Record persists run and returns the immediately preceding run for the same
// suite, if one exists, so the caller can print a comparison.
func (s *Store) Record(run Run) (*Run, error) {
	previous, err := s.Latest(run.Suite)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.Suite, run.Timestamp), data)
	})
	if err != nil {
		return nil, err
	}

	return previous, nil
}

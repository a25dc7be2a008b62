// Package storage provides persistent storage for ingested clinical
// trial records. It uses BoltDB as the underlying storage engine so
// that a registry snapshot can be fetched once and reused by the pair
// builder and trainer without re-downloading.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"phasecast/internal/registry"
)

const studiesBucket = "studies" // Bucket for raw study records, keyed by NCT ID

// Store provides persistent storage for trial records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New creates a new storage instance rooted at the given data path.
// It initializes the BoltDB database and creates the studies bucket.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "phasecast-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(studiesBucket)); err != nil {
			return fmt.Errorf("create studies bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutStudy stores one study record, keyed by its NCT ID. Re-ingesting
// the same record overwrites the previous copy.
func (s *Store) PutStudy(study registry.Study) error {
	if study.NCTID == "" {
		return fmt.Errorf("study has no NCT ID")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(studiesBucket))

		data, err := json.Marshal(study)
		if err != nil {
			return fmt.Errorf("marshal study: %w", err)
		}
		return b.Put([]byte(study.NCTID), data)
	})
}

// PutStudies stores a batch of study records in a single transaction.
func (s *Store) PutStudies(studies []registry.Study) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(studiesBucket))

		for _, study := range studies {
			if study.NCTID == "" {
				continue
			}
			data, err := json.Marshal(study)
			if err != nil {
				return fmt.Errorf("marshal study %s: %w", study.NCTID, err)
			}
			if err := b.Put([]byte(study.NCTID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetStudy retrieves one study record by NCT ID. Returns an error if
// the record does not exist.
func (s *Store) GetStudy(nctID string) (registry.Study, error) {
	var study registry.Study

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(studiesBucket))

		data := b.Get([]byte(nctID))
		if data == nil {
			return fmt.Errorf("study %s not found", nctID)
		}
		return json.Unmarshal(data, &study)
	})

	return study, err
}

// AllStudies returns every stored study record in key order.
// Malformed records are skipped.
func (s *Store) AllStudies() ([]registry.Study, error) {
	var studies []registry.Study

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(studiesBucket))

		return b.ForEach(func(k, v []byte) error {
			var study registry.Study
			if err := json.Unmarshal(v, &study); err != nil {
				return nil // Skip malformed records
			}
			studies = append(studies, study)
			return nil
		})
	})

	return studies, err
}

// Count returns the number of stored study records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(studiesBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

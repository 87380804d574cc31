package retrieval

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
)

// storeVersion is written first in every encoded vocabulary or database.
const storeVersion = 1

// GobEncode places a gzip-compressed binary representation of the vocabulary
// in a byte slice. Float values are stored exactly.
func (v Vocabulary) GobEncode() ([]byte, error) {
	return encodeVersioned(v.Words)
}

// GobDecode reconstructs the vocabulary from GobEncode output.
func (v *Vocabulary) GobDecode(from []byte) error {
	return decodeVersioned(from, &v.Words)
}

type databaseRecord struct {
	Names      []string
	Histograms [][]float64
}

// GobEncode places a gzip-compressed binary representation of the database
// in a byte slice.
func (db *Database) GobEncode() ([]byte, error) {
	rec := databaseRecord{Names: db.Names, Histograms: make([][]float64, len(db.Histograms))}
	for i, h := range db.Histograms {
		rec.Histograms[i] = h
	}
	return encodeVersioned(rec)
}

// GobDecode reconstructs the database from GobEncode output.
func (db *Database) GobDecode(from []byte) error {
	var rec databaseRecord
	if err := decodeVersioned(from, &rec); err != nil {
		return err
	}
	if len(rec.Names) != len(rec.Histograms) {
		return fmt.Errorf("database has %d names for %d histograms", len(rec.Names), len(rec.Histograms))
	}
	db.Names = rec.Names
	db.Histograms = make([]Histogram, len(rec.Histograms))
	for i, h := range rec.Histograms {
		db.Histograms[i] = h
	}
	return nil
}

func encodeVersioned(payload interface{}) ([]byte, error) {
	buffer := new(bytes.Buffer)
	compressor := gzip.NewWriter(buffer)
	encoder := gob.NewEncoder(compressor)

	if err := encoder.Encode(storeVersion); err != nil {
		return nil, fmt.Errorf("unable to encode store version: %w", err)
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("unable to encode payload: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return nil, fmt.Errorf("unable to flush compressor: %w", err)
	}
	return buffer.Bytes(), nil
}

func decodeVersioned(from []byte, payload interface{}) error {
	decompressor, err := gzip.NewReader(bytes.NewReader(from))
	if err != nil {
		return fmt.Errorf("unable to open decompressor: %w", err)
	}
	defer decompressor.Close()
	decoder := gob.NewDecoder(decompressor)

	var version int
	if err := decoder.Decode(&version); err != nil {
		return fmt.Errorf("unable to decode store version: %w", err)
	}
	if version != storeVersion {
		return fmt.Errorf("unsupported store version %d", version)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	return nil
}

// SaveVocabulary writes the vocabulary to path.
func SaveVocabulary(path string, v Vocabulary) error {
	data, err := v.GobEncode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// LoadVocabulary reads a vocabulary written by SaveVocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := v.GobDecode(data); err != nil {
		return Vocabulary{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// SaveDatabase writes the database to path.
func SaveDatabase(path string, db *Database) error {
	data, err := db.GobEncode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	return nil
}

// LoadDatabase reads a database written by SaveDatabase.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	db := new(Database)
	if err := db.GobDecode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

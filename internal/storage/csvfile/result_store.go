// Package csvfile persists ranked result sets as a tabular CSV file,
// one row per pair in rank order. Writes are atomic: the file is staged
// next to its destination and renamed into place, so a failed run never
// corrupts the previous result.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"pairscan/internal/domain"
	"pairscan/internal/storage"
)

// Column order of the persisted file.
var header = []string{"symbol_a", "symbol_b", "statistic", "p_value"}

// ResultStore is a CSV file implementation of storage.ResultStore.
type ResultStore struct {
	path string
	perm fs.FileMode
}

// NewResultStore creates a result store writing to path.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path, perm: 0644}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Save writes the set to the configured path, replacing any prior file.
func (s *ResultStore) Save(_ context.Context, rs *domain.RankedSet) error {
	if rs == nil {
		return storage.ErrInvalidInput
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range rs.Entries {
		row := []string{
			e.Pair.A,
			e.Pair.B,
			strconv.FormatFloat(e.Statistic, 'f', -1, 64),
			strconv.FormatFloat(e.PValue, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", e.Pair, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return writeFileAtomic(s.path, buf.Bytes(), s.perm)
}

// Load reparses the persisted file into a RankedSet in file order.
// Returns storage.ErrNotFound if no file exists.
func (s *ResultStore) Load(_ context.Context) (*domain.RankedSet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("open result file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse result file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: result file has no header", storage.ErrInvalidInput)
	}

	rs := &domain.RankedSet{}
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns", storage.ErrInvalidInput, i+1, len(rec))
		}
		stat, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d statistic: %w", i+1, err)
		}
		pval, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d p_value: %w", i+1, err)
		}
		rs.Entries = append(rs.Entries, domain.CointResult{
			Pair:      domain.Pair{A: rec[0], B: rec[1]},
			Statistic: stat,
			PValue:    pval,
		})
	}
	return rs, nil
}

// writeFileAtomic writes data to filename using the temp-then-rename
// pattern so readers never observe a partial file.
func writeFileAtomic(filename string, data []byte, perm fs.FileMode) error {
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

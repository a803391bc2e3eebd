// File path: internal/verified/store.go
package verified

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
)

// Record is one manually confirmed (question, SQL) pair together with the
// embeddings used for retrieval. Records are immutable once written.
type Record struct {
	UserQuery          string    `json:"user_query"`
	SQLQuery           string    `json:"sql_query"`
	UserQueryEmbedding []float64 `json:"user_query_embedding"`
	SQLQueryEmbedding  []float64 `json:"sql_query_embedding"`
}

// Store keeps the verified-query index in memory backed by an append-only
// JSONL log, one record per line. Appends update the index and the log under
// the same lock, so retrieval sees new records without a restart; the
// read-time duplicate check heals a crash that landed between the two writes.
type Store struct {
	path    string
	mu      sync.RWMutex
	records []Record
}

func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("verified store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	common.Logger().Info("verified: store loaded", "path", path, "records", len(s.records))
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open verified log: %w", err)
	}
	defer file.Close()
	logger := common.Logger()
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("verified: skipping malformed log line", "line", line, "error", err)
			continue
		}
		key := dedupeKey(rec.UserQuery, rec.SQLQuery)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		s.records = append(s.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read verified log: %w", err)
	}
	return nil
}

// Records returns a snapshot of the index in insertion order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Outcome reports the result of a verification submission. A duplicate is a
// normal outcome, not an error.
type Outcome string

const (
	OutcomeStored    Outcome = "stored"
	OutcomeDuplicate Outcome = "duplicate"
)

// Append stores a new record unless an existing one matches on the exact raw
// (user query, SQL query) pair.
func (s *Store) Append(ctx context.Context, rec Record) (Outcome, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dedupeKey(rec.UserQuery, rec.SQLQuery)
	for _, existing := range s.records {
		if dedupeKey(existing.UserQuery, existing.SQLQuery) == key {
			return OutcomeDuplicate, nil
		}
	}
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return "", fmt.Errorf("open verified log: %w", err)
	}
	defer file.Close()
	if err := json.NewEncoder(file).Encode(rec); err != nil {
		return "", fmt.Errorf("encode verified record: %w", err)
	}
	s.records = append(s.records, rec)
	return OutcomeStored, nil
}

func dedupeKey(userQuery, sqlQuery string) string {
	return userQuery + "\x00" + sqlQuery
}

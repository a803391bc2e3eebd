// File path: internal/export/export.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTTL        = 15 * time.Minute
	defaultMaxResults = 32
)

type entry struct {
	rows    []map[string]interface{}
	created time.Time
}

// ResultCache holds recent query result sets keyed by a per-request id so an
// export can reference exactly the rows the caller saw. Results from
// different requests never share state. Expired entries are evicted lazily;
// no background work runs.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string
	ttl     time.Duration
	max     int
}

func NewResultCache(ttl time.Duration, max int) *ResultCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if max <= 0 {
		max = defaultMaxResults
	}
	return &ResultCache{entries: make(map[string]entry), ttl: ttl, max: max}
}

// Put stores a result set and returns its id.
func (c *ResultCache) Put(rows []map[string]interface{}) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	id := uuid.NewString()
	c.entries[id] = entry{rows: rows, created: time.Now()}
	c.order = append(c.order, id)
	return id
}

// Get returns the rows for an id if it is still live.
func (c *ResultCache) Get(id string) ([]map[string]interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.rows, true
}

func (c *ResultCache) evictLocked() {
	cutoff := time.Now().Add(-c.ttl)
	kept := c.order[:0]
	for _, id := range c.order {
		e, ok := c.entries[id]
		if !ok {
			continue
		}
		if e.created.Before(cutoff) {
			delete(c.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// WriteCSV renders rows with a sorted union header so every row's values land
// under a stable column.
func WriteCSV(w io.Writer, rows []map[string]interface{}) error {
	columns := make(map[string]struct{})
	for _, row := range rows {
		for name := range row {
			columns[name] = struct{}{}
		}
	}
	header := make([]string, 0, len(columns))
	for name := range columns {
		header = append(header, name)
	}
	sort.Strings(header)
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, name := range header {
			value, ok := row[name]
			if !ok || value == nil {
				record[i] = ""
				continue
			}
			record[i] = fmt.Sprint(value)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// File path: internal/schema/index.go
package schema

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/embedding"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
)

// ColumnEmbedding describes one real database column together with the
// embedding of its cleaned name. Entries are immutable after load.
type ColumnEmbedding struct {
	TableName  string
	ColumnName string
	Datatype   string
	Embedding  []float64
}

// TableEmbedding holds the embedding of one distinct table name.
type TableEmbedding struct {
	TableName string
	Embedding []float64
}

// Index is the embedding-addressable snapshot of the database schema. It is
// built once and read-only for its lifetime; a rebuild produces a fresh Index
// that the server swaps in atomically.
type Index struct {
	columns []ColumnEmbedding
	tables  []TableEmbedding
	byTable map[string][]ColumnEmbedding
}

// Snapshot CSV headers. The loader fails fast when a required one is absent.
// Cleaned_Table_Name is derivable from Table_Name, so loading tolerates its
// absence, but WriteSnapshot always emits it to keep the on-disk schema
// stable across rebuilds.
const (
	headerTableName        = "Table_Name"
	headerCleanedTableName = "Cleaned_Table_Name"
	headerColumnName       = "Column_Name"
	headerDatatype         = "Datatype"
	headerEmbeddingJSON    = "column_name_cleaned_embedding_json"
)

var (
	requiredHeaders = []string{headerTableName, headerColumnName, headerDatatype, headerEmbeddingJSON}
	snapshotHeaders = []string{headerTableName, headerCleanedTableName, headerColumnName, headerDatatype, headerEmbeddingJSON}
)

// LoadIndex reads the schema snapshot CSV and embeds every distinct table
// name through the provider.
func LoadIndex(ctx context.Context, path string, provider llm.Provider) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema snapshot: %w", err)
	}
	defer file.Close()
	idx, err := readSnapshot(ctx, file, provider)
	if err != nil {
		return nil, fmt.Errorf("load schema snapshot %s: %w", path, err)
	}
	common.Logger().Info("schema: snapshot loaded", "path", path, "columns", len(idx.columns), "tables", len(idx.tables))
	return idx, nil
}

func readSnapshot(ctx context.Context, r io.Reader, provider llm.Provider) (*Index, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredHeaders {
		if _, ok := positions[required]; !ok {
			return nil, fmt.Errorf("snapshot missing required column %q", required)
		}
	}
	var columns []ColumnEmbedding
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot row: %w", err)
		}
		var vector []float64
		if err := json.Unmarshal([]byte(record[positions[headerEmbeddingJSON]]), &vector); err != nil {
			return nil, fmt.Errorf("decode embedding for column %q: %w", record[positions[headerColumnName]], err)
		}
		columns = append(columns, ColumnEmbedding{
			TableName:  strings.TrimSpace(record[positions[headerTableName]]),
			ColumnName: record[positions[headerColumnName]],
			Datatype:   strings.TrimSpace(record[positions[headerDatatype]]),
			Embedding:  vector,
		})
	}
	return buildIndex(ctx, columns, provider)
}

func buildIndex(ctx context.Context, columns []ColumnEmbedding, provider llm.Provider) (*Index, error) {
	byTable := make(map[string][]ColumnEmbedding)
	var tableNames []string
	for _, col := range columns {
		if col.TableName == "" {
			continue
		}
		if _, seen := byTable[col.TableName]; !seen {
			tableNames = append(tableNames, col.TableName)
		}
		byTable[col.TableName] = append(byTable[col.TableName], col)
	}
	tables, err := embedTables(ctx, tableNames, provider)
	if err != nil {
		return nil, err
	}
	return &Index{columns: columns, tables: tables, byTable: byTable}, nil
}

func embedTables(ctx context.Context, tableNames []string, provider llm.Provider) ([]TableEmbedding, error) {
	if len(tableNames) == 0 {
		return nil, nil
	}
	cleaned := make([]string, len(tableNames))
	for i, name := range tableNames {
		cleaned[i] = embedding.Normalize(name)
	}
	vectors, err := provider.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed table names: %w", err)
	}
	if len(vectors) != len(tableNames) {
		return nil, fmt.Errorf("embed table names: expected %d vectors, got %d", len(tableNames), len(vectors))
	}
	tables := make([]TableEmbedding, len(tableNames))
	for i, name := range tableNames {
		tables[i] = TableEmbedding{TableName: name, Embedding: vectors[i]}
	}
	return tables, nil
}

// Columns returns every column entry in snapshot order.
func (ix *Index) Columns() []ColumnEmbedding {
	return ix.columns
}

// Tables returns one entry per distinct table in first-seen order.
func (ix *Index) Tables() []TableEmbedding {
	return ix.tables
}

// TableColumns returns the columns belonging to the given tables, in snapshot
// order per table. Unknown table names contribute nothing.
func (ix *Index) TableColumns(tables []string) []ColumnEmbedding {
	var out []ColumnEmbedding
	for _, table := range tables {
		out = append(out, ix.byTable[table]...)
	}
	return out
}

// SourceColumn is one (table, column, datatype) row read from the live
// database during a rebuild.
type SourceColumn struct {
	TableName  string
	ColumnName string
	Datatype   string
}

// Build embeds every column name from a live schema read and assembles a
// fresh Index. Used by the rebuild operation; startup uses LoadIndex instead.
func Build(ctx context.Context, source []SourceColumn, provider llm.Provider) (*Index, error) {
	if len(source) == 0 {
		return nil, errors.New("no schema columns to build from")
	}
	cleaned := make([]string, len(source))
	for i, col := range source {
		cleaned[i] = embedding.Normalize(col.ColumnName)
	}
	vectors, err := provider.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed column names: %w", err)
	}
	if len(vectors) != len(source) {
		return nil, fmt.Errorf("embed column names: expected %d vectors, got %d", len(source), len(vectors))
	}
	columns := make([]ColumnEmbedding, len(source))
	for i, col := range source {
		columns[i] = ColumnEmbedding{
			TableName:  col.TableName,
			ColumnName: col.ColumnName,
			Datatype:   col.Datatype,
			Embedding:  vectors[i],
		}
	}
	return buildIndex(ctx, columns, provider)
}

// WriteSnapshot persists the index to the snapshot CSV so the next process
// start can skip re-embedding.
func WriteSnapshot(path string, ix *Index) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create schema snapshot: %w", err)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(snapshotHeaders); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, col := range ix.columns {
		encoded, err := json.Marshal(col.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for column %q: %w", col.ColumnName, err)
		}
		row := []string{col.TableName, embedding.Normalize(col.TableName), col.ColumnName, col.Datatype, string(encoded)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

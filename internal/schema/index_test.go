// File path: internal/schema/index_test.go
package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattlimsiaco/trackwise-search/internal/llm"
)

type mockProvider struct {
	vectors map[string][]float64
	err     error
}

func (m *mockProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", errors.New("not used")
}

func (m *mockProvider) Embed(ctx context.Context, input []string) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(input))
	for i, text := range input {
		if vec, ok := m.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = []float64{1, 0, 0}
	}
	return out, nil
}

func (m *mockProvider) Name() string { return "mock" }

const snapshotCSV = `Table_Name,Cleaned_Table_Name,Column_Name,Datatype,column_name_cleaned_embedding_json
V_ARC_PRODUCT_INQUIRY_SV,v_arc_product_inquiry_sv,Date Opened,DATE,"[1,0,0]"
V_ARC_PRODUCT_INQUIRY_SV,v_arc_product_inquiry_sv,CIC,VARCHAR2,"[0,1,0]"
V_ARC_EMIR_SV,v_arc_emir_sv,Timeliness Determined Late,VARCHAR2,"[0,0,1]"
`

func writeSnapshotFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "embedding_csv.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadIndex(t *testing.T) {
	path := writeSnapshotFile(t, snapshotCSV)
	index, err := LoadIndex(context.Background(), path, &mockProvider{})
	require.NoError(t, err)

	require.Len(t, index.Columns(), 3)
	require.Len(t, index.Tables(), 2)
	assert.Equal(t, "V_ARC_PRODUCT_INQUIRY_SV", index.Tables()[0].TableName)
	assert.Equal(t, "V_ARC_EMIR_SV", index.Tables()[1].TableName)

	cols := index.TableColumns([]string{"V_ARC_PRODUCT_INQUIRY_SV"})
	require.Len(t, cols, 2)
	assert.Equal(t, "Date Opened", cols[0].ColumnName)
	assert.Equal(t, "DATE", cols[0].Datatype)

	assert.Empty(t, index.TableColumns([]string{"NO_SUCH_TABLE"}))
}

// Cleaned_Table_Name is derivable from Table_Name, so older snapshots
// without it still load.
func TestLoadIndexWithoutCleanedTableName(t *testing.T) {
	path := writeSnapshotFile(t, "Table_Name,Column_Name,Datatype,column_name_cleaned_embedding_json\nV_ARC_EMIR_SV,CIC,VARCHAR2,\"[1,0,0]\"\n")
	index, err := LoadIndex(context.Background(), path, &mockProvider{})
	require.NoError(t, err)
	require.Len(t, index.Columns(), 1)
}

func TestLoadIndexMissingHeaderFailsFast(t *testing.T) {
	path := writeSnapshotFile(t, "Table_Name,Column_Name,Datatype\nT,C,VARCHAR2\n")
	_, err := LoadIndex(context.Background(), path, &mockProvider{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column_name_cleaned_embedding_json")
}

func TestLoadIndexBadEmbedding(t *testing.T) {
	path := writeSnapshotFile(t, "Table_Name,Column_Name,Datatype,column_name_cleaned_embedding_json\nT,C,VARCHAR2,not-json\n")
	_, err := LoadIndex(context.Background(), path, &mockProvider{})
	require.Error(t, err)
}

func TestBuildAndWriteSnapshotRoundTrip(t *testing.T) {
	source := []SourceColumn{
		{TableName: "V_ARC_PRODUCT_INQUIRY_SV", ColumnName: "Date Opened", Datatype: "DATE"},
		{TableName: "V_ARC_EMIR_SV", ColumnName: "CIC", Datatype: "VARCHAR2"},
	}
	provider := &mockProvider{vectors: map[string][]float64{
		"dateopened": {0.5, 0.5, 0},
		"cic":        {0, 0.5, 0.5},
	}}
	index, err := Build(context.Background(), source, provider)
	require.NoError(t, err)
	require.Len(t, index.Columns(), 2)
	assert.Equal(t, []float64{0.5, 0.5, 0}, index.Columns()[0].Embedding)

	path := filepath.Join(t.TempDir(), "rebuilt.csv")
	require.NoError(t, WriteSnapshot(path, index))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Cleaned_Table_Name")
	assert.Contains(t, string(contents), "v_arc_product_inquiry_sv")

	reloaded, err := LoadIndex(context.Background(), path, provider)
	require.NoError(t, err)
	assert.Equal(t, index.Columns(), reloaded.Columns())
}

func TestBuildEmptySource(t *testing.T) {
	_, err := Build(context.Background(), nil, &mockProvider{})
	require.Error(t, err)
}

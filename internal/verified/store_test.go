// File path: internal/verified/store_test.go
package verified

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendAndDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.jsonl")
	store, err := OpenStore(path)
	require.NoError(t, err)

	rec := Record{
		UserQuery:          "show open inquiries",
		SQLQuery:           `SELECT * FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV`,
		UserQueryEmbedding: []float64{0.1, 0.2},
		SQLQueryEmbedding:  []float64{0.3, 0.4},
	}
	outcome, err := store.Append(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStored, outcome)

	outcome, err = store.Append(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, store.Len())

	// Same question with different SQL is a new record.
	rec.SQLQuery = `SELECT * FROM SYSADM.V_ARC_EMIR_SV`
	outcome, err = store.Append(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStored, outcome)
	assert.Equal(t, 2, store.Len())
}

func TestStoreAppendVisibleWithoutRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.jsonl")
	store, err := OpenStore(path)
	require.NoError(t, err)

	_, err = store.Append(context.Background(), Record{UserQuery: "q", SQLQuery: "s"})
	require.NoError(t, err)
	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "q", records[0].UserQuery)
}

func TestStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.jsonl")
	store, err := OpenStore(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.Append(context.Background(), Record{
			UserQuery: fmt.Sprintf("question %d", i),
			SQLQuery:  fmt.Sprintf("SELECT %d FROM DUAL", i),
		})
		require.NoError(t, err)
	}

	reloaded, err := OpenStore(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
	assert.Equal(t, store.Records(), reloaded.Records())
}

func TestStoreLoadHealsDuplicatesAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.jsonl")
	lines := `{"user_query":"q","sql_query":"s"}
{"user_query":"q","sql_query":"s"}
not json at all
{"user_query":"other","sql_query":"s"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	store, err := OpenStore(path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

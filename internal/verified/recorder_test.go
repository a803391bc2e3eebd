// File path: internal/verified/recorder_test.go
package verified

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattlimsiaco/trackwise-search/internal/llm"
)

type mockProvider struct {
	embedErr   error
	embedCalls [][]string
}

func (m *mockProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", errors.New("not used")
}

func (m *mockProvider) Embed(ctx context.Context, input []string) ([][]float64, error) {
	m.embedCalls = append(m.embedCalls, append([]string(nil), input...))
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vectors := make([][]float64, len(input))
	for i := range input {
		vectors[i] = []float64{float64(len(input[i])), 1}
	}
	return vectors, nil
}

func (m *mockProvider) Name() string { return "mock" }

func TestRecorderVerifyStoredThenDuplicate(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "verified.jsonl"))
	require.NoError(t, err)
	provider := &mockProvider{}
	recorder, err := NewRecorder(store, provider)
	require.NoError(t, err)

	outcome, err := recorder.Verify(context.Background(), "Show me all open PIs!", "SELECT * FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV")
	require.NoError(t, err)
	assert.Equal(t, OutcomeStored, outcome)

	outcome, err = recorder.Verify(context.Background(), "Show me all open PIs!", "SELECT * FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	// The user query is normalized before embedding; the SQL is embedded raw.
	require.NotEmpty(t, provider.embedCalls)
	assert.Equal(t, "showmeallopenpis", provider.embedCalls[0][0])
	assert.Equal(t, "SELECT * FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV", provider.embedCalls[0][1])
}

func TestRecorderVerifyProviderFailure(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "verified.jsonl"))
	require.NoError(t, err)
	recorder, err := NewRecorder(store, &mockProvider{embedErr: errors.New("rate limited")})
	require.NoError(t, err)

	_, err = recorder.Verify(context.Background(), "q", "s")
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

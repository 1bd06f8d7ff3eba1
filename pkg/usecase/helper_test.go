package usecase_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

const testDimension = 3

// mockLLMClient returns fixed vectors per input text. Unknown texts fail.
type mockLLMClient struct {
	mu      sync.Mutex
	vectors map[string][]float64
	calls   []string
}

func newMockLLMClient(vectors map[string][]float64) *mockLLMClient {
	return &mockLLMClient{vectors: vectors}
}

func (m *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, input...)
	vec, ok := m.vectors[input[0]]
	if !ok {
		return nil, errors.New("no vector for input")
	}
	return [][]float64{vec}, nil
}

func (m *mockLLMClient) callCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == text {
			n++
		}
	}
	return n
}

func newEmbedder(t *testing.T, client gollem.LLMClient) *embedding.Embedder {
	t.Helper()
	e, err := embedding.New(client, embedding.WithDimension(testDimension))
	gt.NoError(t, err).Required()
	return e
}

func newUseCases(t *testing.T, repo interfaces.Repository, vectors map[string][]float64) (*usecase.UseCases, *mockLLMClient) {
	t.Helper()
	client := newMockLLMClient(vectors)
	return usecase.New(repo, usecase.WithEmbedder(newEmbedder(t, client))), client
}

// unitVec returns a unit vector at cosine similarity sim to (1, 0, 0)
func unitVec(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim), 0}
}

func unitVec32(sim float64) []float32 {
	v := unitVec(sim)
	return []float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func putRecord(t *testing.T, repo interfaces.Repository, table types.Table, fields map[string]string) string {
	t.Helper()
	rec := model.NewRecord(table, fields)
	gt.NoError(t, repo.Record().Put(context.Background(), rec)).Required()
	return rec.ID
}

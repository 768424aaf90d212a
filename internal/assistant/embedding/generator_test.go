package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns deterministic vectors derived from the call count so
// tests can tell a cached vector from a freshly generated one.
type stubProvider struct {
	dimension int
	calls     int
	err       error
}

func (s *stubProvider) Generate(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls++
	vec := make([]float32, s.dimension)
	for i := range vec {
		vec[i] = float32(s.calls)
	}
	return vec, nil
}

func (s *stubProvider) Dimension() int { return s.dimension }

func TestGenerateRejectsEmptyText(t *testing.T) {
	g := NewGenerator(&stubProvider{dimension: 4}, 10)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := g.Generate(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyText, "input %q", text)
	}
}

func TestGenerateCachesIdenticalText(t *testing.T) {
	stub := &stubProvider{dimension: 4}
	g := NewGenerator(stub, 10)

	first, err := g.Generate(context.Background(), "What tickets are open?")
	require.NoError(t, err)

	second, err := g.Generate(context.Background(), "What tickets are open?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls, "second call must be served from cache")

	stats := g.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestGenerateEvictsOldestAtCapacity(t *testing.T) {
	stub := &stubProvider{dimension: 2}
	g := NewGenerator(stub, 2)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := g.Generate(ctx, fmt.Sprintf("query %d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, g.Stats().Size)

	// query 0 was the oldest entry, so it must re-embed.
	callsBefore := stub.calls
	_, err := g.Generate(ctx, "query 0")
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, stub.calls)

	// query 2 is still cached.
	callsBefore = stub.calls
	_, err = g.Generate(ctx, "query 2")
	require.NoError(t, err)
	assert.Equal(t, callsBefore, stub.calls)
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	wantErr := errors.New("upstream down")
	g := NewGenerator(&stubProvider{dimension: 4, err: wantErr}, 10)

	_, err := g.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, g.Stats().Size, "failed embeddings must not be cached")
}

func TestGenerateReturnsCopies(t *testing.T) {
	g := NewGenerator(&stubProvider{dimension: 3}, 10)

	first, err := g.Generate(context.Background(), "shared text")
	require.NoError(t, err)
	first[0] = 99

	second, err := g.Generate(context.Background(), "shared text")
	require.NoError(t, err)
	assert.NotEqual(t, float32(99), second[0])
}

package semcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

type fakeIndex struct {
	match     *model.CacheMatch
	searchErr error
	stored    []model.CachedQueryRecord
	storedTTL time.Duration
	storeErr  error
}

func (f *fakeIndex) SearchCache(_ context.Context, _ []float32) (*model.CacheMatch, error) {
	return f.match, f.searchErr
}

func (f *fakeIndex) StoreCacheEntry(_ context.Context, rec model.CachedQueryRecord, ttl time.Duration) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, rec)
	f.storedTTL = ttl
	return nil
}

func newGate(t *testing.T, emb *fakeEmbedder, idx *fakeIndex, cfg model.CacheConfig) *Gate {
	t.Helper()
	g, err := NewGate(emb, idx, cfg)
	require.NoError(t, err)
	return g
}

func defaultCfg() model.CacheConfig {
	return model.CacheConfig{Enabled: true, SimilarityThreshold: 0.65, TTL: "1h"}
}

func TestNewGateRejectsBadTTL(t *testing.T) {
	_, err := NewGate(&fakeEmbedder{}, &fakeIndex{}, model.CacheConfig{Enabled: true, TTL: "soon"})
	assert.Error(t, err)
}

func TestCheckDisabledGate(t *testing.T) {
	cfg := defaultCfg()
	cfg.Enabled = false
	emb := &fakeEmbedder{vec: []float32{1}}
	g := newGate(t, emb, &fakeIndex{}, cfg)

	match, err := g.Check(context.Background(), "What tickets are open?")
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Zero(t, emb.calls, "disabled gate must not embed")
}

func TestCheckSkipsNonInformationRequests(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	g := newGate(t, emb, &fakeIndex{}, defaultCfg())

	match, err := g.Check(context.Background(), "restart the payment service")
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Zero(t, emb.calls, "non-information requests must not embed")
}

func TestCheckHitAboveThreshold(t *testing.T) {
	idx := &fakeIndex{match: &model.CacheMatch{
		Query:      "What tickets are open?",
		Response:   "3 open tickets",
		Similarity: 0.91,
	}}
	g := newGate(t, &fakeEmbedder{vec: []float32{1}}, idx, defaultCfg())

	match, err := g.Check(context.Background(), "Which tickets are open?")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "3 open tickets", match.Response)
}

func TestCheckMissBelowThreshold(t *testing.T) {
	idx := &fakeIndex{match: &model.CacheMatch{Query: "unrelated", Similarity: 0.40}}
	g := newGate(t, &fakeEmbedder{vec: []float32{1}}, idx, defaultCfg())

	match, err := g.Check(context.Background(), "What tickets are open?")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestCheckEmbeddingFailureIsRaised(t *testing.T) {
	wantErr := errors.New("embedder down")
	g := newGate(t, &fakeEmbedder{err: wantErr}, &fakeIndex{}, defaultCfg())

	_, err := g.Check(context.Background(), "What tickets are open?")
	assert.ErrorIs(t, err, wantErr)
}

func TestCheckSearchFailureDegradesToMiss(t *testing.T) {
	for _, searchErr := range []error{model.ErrStoreUnavailable, errors.New("timeout")} {
		idx := &fakeIndex{searchErr: searchErr}
		g := newGate(t, &fakeEmbedder{vec: []float32{1}}, idx, defaultCfg())

		match, err := g.Check(context.Background(), "What tickets are open?")
		require.NoError(t, err, "search error %v must degrade to a miss", searchErr)
		assert.Nil(t, match)
	}
}

func TestStoreInformationRequest(t *testing.T) {
	idx := &fakeIndex{}
	g := newGate(t, &fakeEmbedder{vec: []float32{0.5, 0.5}}, idx, defaultCfg())

	err := g.Store(context.Background(), "What tickets are open?", "3 open tickets", []string{"jira.search_issues"})
	require.NoError(t, err)
	require.Len(t, idx.stored, 1)

	rec := idx.stored[0]
	assert.Equal(t, "What tickets are open?", rec.Query)
	assert.Equal(t, "3 open tickets", rec.Response)
	assert.Equal(t, []string{"jira.search_issues"}, rec.ToolsUsed)
	assert.Equal(t, []float32{0.5, 0.5}, rec.Vector)
	assert.WithinDuration(t, time.Now(), rec.CachedAt, time.Minute)
	assert.Equal(t, time.Hour, idx.storedTTL)
}

func TestStoreSkipsActionRequests(t *testing.T) {
	idx := &fakeIndex{}
	g := newGate(t, &fakeEmbedder{vec: []float32{1}}, idx, defaultCfg())

	err := g.Store(context.Background(), "restart the payment service", "done", nil)
	require.NoError(t, err)
	assert.Empty(t, idx.stored)
}

package embed

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEmbedder counts concurrent calls and records batch sizes.
type recordingEmbedder struct {
	mu         sync.Mutex
	inFlight   int
	maxFlight  int
	batchSizes []int
	dim        int
}

func (r *recordingEmbedder) Embed(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxFlight {
		r.maxFlight = r.inFlight
	}
	r.batchSizes = append(r.batchSizes, len(texts))
	r.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, r.dim)
		v[0] = float32(len(t))
		if role == RoleQuery {
			v[1] = 1
		}
		out[i] = v
	}

	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
	return out, nil
}

func (r *recordingEmbedder) Dimension() int  { return r.dim }
func (r *recordingEmbedder) ModelID() string { return "recording" }

func TestActorPreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emb := &recordingEmbedder{dim: 4}
	actor := StartActor(ctx, emb, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := actor.Embed(ctx, texts, RoleDocument)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
}

func TestActorBatchesBySize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emb := &recordingEmbedder{dim: 2}
	actor := StartActor(ctx, emb, 2)

	_, err := actor.Embed(ctx, []string{"a", "b", "c", "d", "e"}, RoleDocument)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, emb.batchSizes)
}

func TestActorSerializesModelAccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emb := &recordingEmbedder{dim: 2}
	actor := StartActor(ctx, emb, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := actor.Embed(ctx, []string{"x", "y"}, RoleDocument)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, emb.maxFlight)
}

func TestActorCancelledSubmit(t *testing.T) {
	actorCtx, cancelActor := context.WithCancel(context.Background())
	defer cancelActor()
	actor := StartActor(actorCtx, &recordingEmbedder{dim: 2}, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := actor.Embed(ctx, []string{"x"}, RoleQuery)
	assert.ErrorIs(t, err, context.Canceled)
}

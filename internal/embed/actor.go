package embed

import "context"

// Actor owns the embedder behind a bounded request channel. Requests are
// drained in FIFO order and sliced into sub-batches, so callers never need
// to lock and the model sees one call at a time.
type Actor struct {
	requests chan request
}

type request struct {
	texts []string
	role  Role
	reply chan result
}

type result struct {
	vectors [][]float32
	err     error
}

// StartActor spawns the goroutine that owns the embedder. It stops when
// ctx is cancelled. batchSize bounds each upstream call.
func StartActor(ctx context.Context, e Embedder, batchSize int) *Actor {
	if batchSize <= 0 {
		batchSize = 32
	}
	a := &Actor{requests: make(chan request, 32)}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-a.requests:
				vectors, err := embedBatched(ctx, e, req.texts, req.role, batchSize)
				req.reply <- result{vectors: vectors, err: err}
			}
		}
	}()

	return a
}

// Embed submits texts to the actor and waits for the vectors. Submission
// blocks when the queue is full, which gives the pipeline backpressure.
func (a *Actor) Embed(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := request{texts: texts, role: role, reply: make(chan result, 1)}

	select {
	case a.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.vectors, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// embedBatched slices texts into windows of batchSize, preserving order.
func embedBatched(ctx context.Context, e Embedder, texts []string, role Role, batchSize int) ([][]float32, error) {
	if len(texts) <= batchSize {
		return e.Embed(ctx, texts, role)
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.Embed(ctx, texts[i:end], role)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize render requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer renders the map for one request.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.MapProduct, error)
}

// BatchLoader publishes notices for rendered maps.
type BatchLoader interface {
	LoadBatch(ctx context.Context, products []domain.MapProduct) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRenderWorkers bounds how many requests of a batch render at once.
// Values below one are ignored.
func WithRenderWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline runs the extract, render, publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	workers     int
}

// New creates a Pipeline. Without options each batch renders sequentially.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		workers:     1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckReadiness reports an error until the first map has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not rendered any maps yet")
	}
	return nil
}

// backoff tracks the delay between retries of a failing extract or load.
type backoff struct {
	current time.Duration
}

func (b *backoff) reset() { b.current = initialBackoff }

// wait sleeps for the current delay and doubles it up to maxBackoff.
// It returns false when ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	if ctx.Err() != nil || !retry.SleepWithContext(ctx, b.current) {
		return false
	}
	b.current = retry.NextBackoff(b.current, maxBackoff)
	return true
}

// Run processes batches until ctx is cancelled. Cancellation is a clean
// shutdown and returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "render_workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := &backoff{current: initialBackoff}
	for ctx.Err() == nil {
		if !p.step(ctx, b) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// step runs one batch. It returns false once the pipeline should stop.
func (p *Pipeline) step(ctx context.Context, b *backoff) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return b.wait(ctx)
	}
	if len(batch) == 0 {
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	b.reset()

	rendered := p.render(ctx, batch)
	if ctx.Err() != nil {
		return false
	}

	products := make([]domain.MapProduct, 0, len(batch))
	published := make([]domain.RawEvent, 0, len(batch))
	for i, r := range rendered {
		if r.err != nil {
			// Poison message: commit it so the group moves past it.
			p.logger.Warn("render failed, skipping message",
				"error", r.err,
				"key", string(batch[i].Key),
				"topic", batch[i].Topic,
				"partition", batch[i].Partition,
				"offset", batch[i].Offset,
			)
			p.commit(ctx, batch[i])
			continue
		}
		products = append(products, r.product)
		published = append(published, batch[i])
	}
	if len(products) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, products); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(products))
		return b.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(products)))
	for _, raw := range published {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

type renderResult struct {
	product domain.MapProduct
	err     error
}

// render transforms every request in the batch using up to p.workers
// goroutines. Results keep the order of the batch.
func (p *Pipeline) render(ctx context.Context, batch []domain.RawEvent) []renderResult {
	results := make([]renderResult, len(batch))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range batch {
		g.Go(func() error {
			product, err := p.transformer.Transform(ctx, batch[i])
			results[i] = renderResult{product: product, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/l0p7/routesweep/internal/metrics"
	"github.com/l0p7/routesweep/internal/targets"
	"golang.org/x/sync/errgroup"
)

// maxDrainBytes bounds how much of a response body is read before closing it
// so keep-alive connections can be reused.
const maxDrainBytes = 1 << 20

// httpDoer represents the minimal client contract the runner needs.
type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ProgressFunc observes sweep progress after each descriptor completes.
type ProgressFunc func(done, total int)

// Options configures a Runner. Zero values are usable.
type Options struct {
	Client   httpDoer
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	Progress ProgressFunc
	// Concurrency above 1 dispatches descriptors in parallel; results still
	// come back in input order.
	Concurrency int
}

// Runner dispatches one request per descriptor and collects the outcomes.
type Runner struct {
	client      httpDoer
	logger      *slog.Logger
	metrics     *metrics.Recorder
	progress    ProgressFunc
	concurrency int
}

// NewRunner wires a Runner, defaulting to a plain http.Client with no timeout.
func NewRunner(opts Options) *Runner {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		client:      client,
		logger:      logger.With(slog.String("agent", "sweep")),
		metrics:     opts.Metrics,
		progress:    opts.Progress,
		concurrency: concurrency,
	}
}

// Run probes every descriptor against baseURL and returns one Result per
// descriptor in input order. Per-descriptor failures are recorded on the
// Result; the only error returned is the context's, in which case no results
// are returned.
func (r *Runner) Run(ctx context.Context, baseURL string, descriptors []targets.Descriptor) ([]Result, error) {
	started := time.Now()
	results := make([]Result, len(descriptors))
	tracker := &progressTracker{total: len(descriptors), notify: r.progress}

	r.logger.Info("sweep starting",
		slog.String("base_url", baseURL),
		slog.Int("descriptors", len(descriptors)),
		slog.Int("concurrency", r.concurrency))

	var err error
	if r.concurrency == 1 {
		err = r.runSequential(ctx, baseURL, descriptors, results, tracker)
	} else {
		err = r.runParallel(ctx, baseURL, descriptors, results, tracker)
	}
	if err != nil {
		r.logger.Warn("sweep aborted", slog.Int("completed", tracker.completed()), slog.Any("error", err))
		return nil, err
	}

	elapsed := time.Since(started)
	r.metrics.ObserveSweep(len(descriptors), elapsed)
	r.logger.Info("sweep complete", slog.Int("descriptors", len(descriptors)), slog.Duration("elapsed", elapsed))
	return results, nil
}

func (r *Runner) runSequential(ctx context.Context, baseURL string, descriptors []targets.Descriptor, results []Result, tracker *progressTracker) error {
	for i, descriptor := range descriptors {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := r.dispatch(ctx, baseURL, descriptor)
		if err != nil {
			return err
		}
		results[i] = result
		tracker.advance()
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, baseURL string, descriptors []targets.Descriptor, results []Result, tracker *progressTracker) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, descriptor := range descriptors {
		if gctx.Err() != nil {
			break
		}
		i, descriptor := i, descriptor
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := r.dispatch(gctx, baseURL, descriptor)
			if err != nil {
				return err
			}
			// Each goroutine owns exactly one slot.
			results[i] = result
			tracker.advance()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// dispatch issues exactly one request for descriptor. It returns an error only
// when ctx was cancelled; every other failure is folded into the Result.
func (r *Runner) dispatch(ctx context.Context, baseURL string, descriptor targets.Descriptor) (Result, error) {
	result := Result{Route: descriptor.Route, Method: descriptor.Method}
	logger := r.logger.With(slog.String("method", descriptor.Method), slog.String("route", descriptor.Route))
	started := time.Now()

	build, ok := dispatchTable[descriptor.Method]
	if !ok {
		err := UnsupportedMethodError{Method: descriptor.Method}
		result.Error = err.Error()
		r.metrics.ObserveRequest(descriptor.Method, metrics.OutcomeError, 0, time.Since(started))
		logger.Debug("descriptor skipped", slog.String("error", result.Error))
		return result, nil
	}

	// Literal concatenation: slashes between base and route are not normalized.
	target := baseURL + descriptor.Route
	req, err := build(ctx, target)
	if err != nil {
		result.Error = err.Error()
		r.metrics.ObserveRequest(descriptor.Method, metrics.OutcomeError, 0, time.Since(started))
		logger.Debug("request build failed", slog.String("url", target), slog.Any("error", err))
		return result, nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return Result{}, ctxErr
		}
		result.Error = err.Error()
		r.metrics.ObserveRequest(descriptor.Method, metrics.OutcomeError, 0, time.Since(started))
		logger.Debug("request failed", slog.String("url", target), slog.Any("error", err))
		return result, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	status := resp.StatusCode
	result.StatusCode = &status
	r.metrics.ObserveRequest(descriptor.Method, metrics.OutcomeStatus, status, time.Since(started))
	logger.Debug("request completed", slog.String("url", target), slog.Int("status_code", status))
	return result, nil
}

// progressTracker serializes progress notifications across workers.
type progressTracker struct {
	mu     sync.Mutex
	done   int
	total  int
	notify ProgressFunc
}

func (p *progressTracker) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.notify != nil {
		p.notify(p.done, p.total)
	}
}

func (p *progressTracker) completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

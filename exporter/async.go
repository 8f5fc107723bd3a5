package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/markdown"
)

// DefaultThreshold is the payload size above which Async uses its worker.
const DefaultThreshold = 10000

// Async runs large conversions on a background worker goroutine.
//
// Payloads at or below the threshold run inline on the caller's goroutine.
// Larger ones are deep-copied and queued for the worker, which runs them one
// at a time. A caller whose context ends stops waiting, but work already
// handed to the worker still runs to completion. If an operation panics the
// worker stops and every pending operation fails with ErrWorkerFailed;
// after Close they fail with ErrWorkerClosed.
type Async struct {
	next      Service
	threshold int
	logger    *log.Logger

	requests chan *request
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	pending map[string]chan result
	closed  bool
}

// AsyncOption configures an Async.
type AsyncOption func(*Async)

// WithThreshold sets the element count (encoding) or byte length
// (decoding) above which work goes to the worker.
func WithThreshold(n int) AsyncOption {
	return func(a *Async) { a.threshold = n }
}

// WithLogger sets the logger for worker lifecycle messages.
func WithLogger(l *log.Logger) AsyncOption {
	return func(a *Async) { a.logger = l }
}

type request struct {
	id   string
	ctx  context.Context
	exec func(context.Context, Service) result
}

type result struct {
	text  string
	data  []byte
	value calico.Value
	err   error
}

// NewAsync starts a worker that runs operations with next.
func NewAsync(next Service, opts ...AsyncOption) *Async {
	a := &Async{
		next:      next,
		threshold: DefaultThreshold,
		logger:    log.New(io.Discard),
		requests:  make(chan *request),
		done:      make(chan struct{}),
		pending:   make(map[string]chan result),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Close stops the worker. Operations still pending fail with
// ErrWorkerClosed. Close is idempotent.
func (a *Async) Close() error {
	a.stop(context.Background(), calico.ErrWorkerClosed)
	return nil
}

func (a *Async) run() {
	for {
		select {
		case req := <-a.requests:
			r, err := a.execute(req)
			if err != nil {
				a.logger.Error("worker failed", "request", req.id, "err", err)
				a.stop(req.ctx, err)
				return
			}
			a.resolve(req.id, r)
		case <-a.done:
			return
		}
	}
}

// execute runs one request, turning a panic into ErrWorkerFailed. Results
// are copied so the caller shares nothing with the worker.
func (a *Async) execute(req *request) (r result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", calico.ErrWorkerFailed, p)
		}
	}()
	r = req.exec(req.ctx, a.next)
	r.value = r.value.Clone()
	r.data = bytes.Clone(r.data)
	return r, nil
}

func (a *Async) resolve(id string, r result) {
	a.mu.Lock()
	ch, ok := a.pending[id]
	delete(a.pending, id)
	a.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (a *Async) forget(id string) {
	a.mu.Lock()
	delete(a.pending, id)
	a.mu.Unlock()
}

// stop shuts the worker down and rejects everything pending with cause.
func (a *Async) stop(ctx context.Context, cause error) {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		pending := a.pending
		a.pending = make(map[string]chan result)
		a.mu.Unlock()

		close(a.done)
		for _, ch := range pending {
			ch <- result{err: cause}
		}
		emitWorkerStopped(ctx, len(pending), cause)
		a.logger.Debug("worker stopped", "pending", len(pending))
	})
}

// dispatch queues exec for the worker and waits for its result.
func (a *Async) dispatch(ctx context.Context, f calico.Format, exec func(context.Context, Service) result) (result, error) {
	id := uuid.NewString()
	ch := make(chan result, 1)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return result{}, calico.ErrWorkerClosed
	}
	a.pending[id] = ch
	a.mu.Unlock()

	emitWorkerDispatch(ctx, f, id)
	req := &request{id: id, ctx: context.WithoutCancel(ctx), exec: exec}
	select {
	case a.requests <- req:
	case <-a.done:
		// stop has already rejected id through ch.
	case <-ctx.Done():
		a.forget(id)
		return result{}, ctx.Err()
	}

	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		a.forget(id)
		return result{}, ctx.Err()
	}
}

// offload reports whether v is big enough for the worker.
func (a *Async) offload(v calico.Value) bool {
	return v.Len() > a.threshold
}

// copyIn checks v for cycles and deep-copies it for the worker.
func copyIn(v calico.Value) (calico.Value, error) {
	if err := calico.CheckCycles(v); err != nil {
		return calico.Value{}, err
	}
	return v.Clone(), nil
}

func (a *Async) encodeText(ctx context.Context, f calico.Format, v calico.Value, fn func(context.Context, Service, calico.Value) (string, error)) (string, error) {
	if !a.offload(v) {
		return fn(ctx, a.next, v)
	}
	in, err := copyIn(v)
	if err != nil {
		return "", err
	}
	r, err := a.dispatch(ctx, f, func(ctx context.Context, s Service) result {
		out, err := fn(ctx, s, in)
		return result{text: out, err: err}
	})
	if err != nil {
		return "", err
	}
	return r.text, r.err
}

func (a *Async) decodeText(ctx context.Context, f calico.Format, text string, fn func(context.Context, Service, string) (calico.Value, error)) (calico.Value, error) {
	if len(text) <= a.threshold {
		return fn(ctx, a.next, text)
	}
	r, err := a.dispatch(ctx, f, func(ctx context.Context, s Service) result {
		v, err := fn(ctx, s, text)
		return result{value: v, err: err}
	})
	if err != nil {
		return calico.Value{}, err
	}
	return r.value, r.err
}

// ToJSON encodes v as JSON.
func (a *Async) ToJSON(ctx context.Context, v calico.Value, pretty bool) (string, error) {
	return a.encodeText(ctx, calico.FormatJSON, v, func(ctx context.Context, s Service, v calico.Value) (string, error) {
		return s.ToJSON(ctx, v, pretty)
	})
}

// FromJSON decodes JSON text.
func (a *Async) FromJSON(ctx context.Context, text string) (calico.Value, error) {
	return a.decodeText(ctx, calico.FormatJSON, text, func(ctx context.Context, s Service, text string) (calico.Value, error) {
		return s.FromJSON(ctx, text)
	})
}

// ToCSV encodes rows as CSV.
func (a *Async) ToCSV(ctx context.Context, rows calico.Value, opts ...csv.Option) (string, error) {
	return a.encodeText(ctx, calico.FormatCSV, rows, func(ctx context.Context, s Service, v calico.Value) (string, error) {
		return s.ToCSV(ctx, v, opts...)
	})
}

// FromCSV decodes CSV text.
func (a *Async) FromCSV(ctx context.Context, text string, opts ...csv.Option) (calico.Value, error) {
	return a.decodeText(ctx, calico.FormatCSV, text, func(ctx context.Context, s Service, text string) (calico.Value, error) {
		return s.FromCSV(ctx, text, opts...)
	})
}

// ToYAML encodes v as YAML.
func (a *Async) ToYAML(ctx context.Context, v calico.Value, indent int) (string, error) {
	return a.encodeText(ctx, calico.FormatYAML, v, func(ctx context.Context, s Service, v calico.Value) (string, error) {
		return s.ToYAML(ctx, v, indent)
	})
}

// FromYAML decodes YAML text.
func (a *Async) FromYAML(ctx context.Context, text string) (calico.Value, error) {
	return a.decodeText(ctx, calico.FormatYAML, text, func(ctx context.Context, s Service, text string) (calico.Value, error) {
		return s.FromYAML(ctx, text)
	})
}

// ToMarkdown renders v as Markdown.
func (a *Async) ToMarkdown(ctx context.Context, v calico.Value, opts markdown.Options) (string, error) {
	return a.encodeText(ctx, calico.FormatMarkdown, v, func(ctx context.Context, s Service, v calico.Value) (string, error) {
		return s.ToMarkdown(ctx, v, opts)
	})
}

// Encode marshals v with the codec registered for f.
func (a *Async) Encode(ctx context.Context, f calico.Format, v calico.Value) ([]byte, error) {
	if !a.offload(v) {
		return a.next.Encode(ctx, f, v)
	}
	in, err := copyIn(v)
	if err != nil {
		return nil, err
	}
	r, err := a.dispatch(ctx, f, func(ctx context.Context, s Service) result {
		data, err := s.Encode(ctx, f, in)
		return result{data: data, err: err}
	})
	if err != nil {
		return nil, err
	}
	return r.data, r.err
}

// Decode unmarshals data with the codec registered for f.
func (a *Async) Decode(ctx context.Context, f calico.Format, data []byte) (calico.Value, error) {
	if len(data) <= a.threshold {
		return a.next.Decode(ctx, f, data)
	}
	in := bytes.Clone(data)
	r, err := a.dispatch(ctx, f, func(ctx context.Context, s Service) result {
		v, err := s.Decode(ctx, f, in)
		return result{value: v, err: err}
	})
	if err != nil {
		return calico.Value{}, err
	}
	return r.value, r.err
}

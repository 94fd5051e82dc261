package paginate

import (
	"context"
	"iter"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter blocks until one more request is permitted. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

var _ Limiter = (*rate.Limiter)(nil)

// NewLimiter returns a token bucket permitting rps requests per second with a
// burst of rps.
func NewLimiter(rps float64) *rate.Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Strategy is the registry specific part of pagination.
type Strategy[Req, Resp any] interface {
	// Advance returns the request for the page after req. It must not depend on
	// the response so that read-ahead can compute cursors before pages arrive.
	Advance(req Req) Req
	// HasMore reports whether pages exist after resp.
	HasMore(resp Resp) bool
}

// FetchFunc retrieves one page.
type FetchFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Paginator produces lazy page sequences for one registry listing.
type Paginator[Req, Resp any] struct {
	limiter  Limiter
	strategy Strategy[Req, Resp]
	fetch    FetchFunc[Req, Resp]
}

// New creates a Paginator. The limiter is shared with every other caller that
// holds it, so one limiter per registry bounds the registry's total request rate.
func New[Req, Resp any](limiter Limiter, strategy Strategy[Req, Resp], fetch FetchFunc[Req, Resp]) *Paginator[Req, Resp] {
	return &Paginator[Req, Resp]{
		limiter:  limiter,
		strategy: strategy,
		fetch:    fetch,
	}
}

func (p *Paginator[Req, Resp]) fetchPage(ctx context.Context, req Req) (Resp, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		var zero Resp
		return zero, err
	}
	return p.fetch(ctx, req)
}

// Sequential yields pages one at a time starting at req.
func (p *Paginator[Req, Resp]) Sequential(ctx context.Context, req Req) iter.Seq2[Resp, error] {
	return func(yield func(Resp, error) bool) {
		for {
			resp, err := p.fetchPage(ctx, req)
			if err != nil {
				var zero Resp
				yield(zero, err)
				return
			}
			if !yield(resp, nil) {
				return
			}
			if !p.strategy.HasMore(resp) {
				return
			}
			req = p.strategy.Advance(req)
		}
	}
}

type result[Resp any] struct {
	resp Resp
	err  error
}

// ReadAhead yields pages starting at req while keeping up to window fetches in
// flight. Pages are requested and yielded in cursor order. Fetches issued past
// the last page are cancelled and their errors are discarded.
func (p *Paginator[Req, Resp]) ReadAhead(ctx context.Context, req Req, window int) iter.Seq2[Resp, error] {
	if window < 1 {
		window = 1
	}
	return func(yield func(Resp, error) bool) {
		var wg sync.WaitGroup
		defer wg.Wait()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		pending := make([]chan result[Resp], 0, window)
		next := req

		issue := func() error {
			// Waiting here keeps request order equal to cursor order.
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
			ch := make(chan result[Resp], 1)
			pending = append(pending, ch)
			r := next
			next = p.strategy.Advance(next)

			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := p.fetch(ctx, r)
				ch <- result[Resp]{resp: resp, err: err}
			}()
			return nil
		}

		// issueErr stops further fetches; it surfaces once the pages already in
		// flight are drained and more were expected.
		var issueErr error
		tryIssue := func() {
			if issueErr == nil {
				issueErr = issue()
			}
		}
		for range window {
			tryIssue()
		}

		var zero Resp
		for len(pending) > 0 {
			res := <-pending[0]
			pending = pending[1:]

			if res.err != nil {
				yield(zero, res.err)
				return
			}
			if !yield(res.resp, nil) {
				return
			}
			if !p.strategy.HasMore(res.resp) {
				return
			}
			tryIssue()
		}
		if issueErr != nil {
			yield(zero, issueErr)
		}
	}
}

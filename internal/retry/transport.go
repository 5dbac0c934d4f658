package retry

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that retries transient failures of the
// wrapped RoundTripper. Callers see the same contract as Base: a response or
// an error.
//
// Every attempt after the first sends a clone of the original request with a
// fresh body from GetBody. Requests whose body cannot be replayed are sent
// exactly once.
type Transport struct {
	Base    http.RoundTripper
	Retrier *Retrier
}

// NewTransport wraps base with r. A nil base means http.DefaultTransport.
func NewTransport(base http.RoundTripper, r *Retrier) *Transport {
	return &Transport{Base: base, Retrier: r}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Retrier == nil || !replayable(req) {
		return t.base().RoundTrip(req)
	}

	ctx := req.Context()
	return t.Retrier.Do(ctx, func(s State) (*http.Response, error) {
		if s.Attempt() == 0 {
			return t.base().RoundTrip(req)
		}
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			attempt.Body = body
		}
		return t.base().RoundTrip(attempt)
	})
}

func replayable(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	return req.GetBody != nil
}

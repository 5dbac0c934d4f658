package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ShpetimA/atlassian-cli/internal/debug"
	"github.com/ShpetimA/atlassian-cli/internal/retry"
	"github.com/ShpetimA/atlassian-cli/internal/telemetry"
)

// ResponseHeaderTimeout bounds each attempt, not the logical request.
const ResponseHeaderTimeout = 30 * time.Second

// NewHTTPClient returns an http.Client whose transport retries transient
// failures under policy (retry.DefaultPolicy when nil). Each attempt is
// traced and logged.
func NewHTTPClient(service string, policy *retry.Policy) *http.Client {
	p := retry.DefaultPolicy()
	if policy != nil {
		p = *policy
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ResponseHeaderTimeout = ResponseHeaderTimeout

	var rt http.RoundTripper = debug.WrapTransport(base)
	rt = telemetry.WrapTransport(rt, service)

	r := retry.New(p, retry.WithNotify(func(ev retry.Event) {
		logRetry(service, p, ev)
		telemetry.RecordRetry(context.Background(), service, ev.Status, ev.Reason)
	}))
	return &http.Client{Transport: retry.NewTransport(rt, r)}
}

func logRetry(service string, p retry.Policy, ev retry.Event) {
	l := debug.Logger()
	e := l.Debug().
		Str("service", service).
		Int("attempt", ev.State.Attempt()+1).
		Int("max_retries", p.MaxRetries()).
		Dur("delay", ev.Delay)
	if ev.Status != 0 {
		e = e.Int("status", ev.Status)
	} else {
		e = e.Str("reason", ev.Reason).Err(ev.Err)
	}
	e.Msg("retrying request")
}

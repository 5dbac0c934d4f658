package debug

import (
	"net/http"
	"time"
)

// WrapTransport logs every round trip through base at debug level. It sits
// below the retry layer, so each attempt is logged separately.
func WrapTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base}
}

type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	l := Logger()
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	ev := l.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Str("request_id", req.Header.Get("X-Request-Id")).
		Dur("elapsed", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("http request failed")
		return nil, err
	}
	ev.Int("status", resp.StatusCode).Msg("http request")
	return resp, nil
}

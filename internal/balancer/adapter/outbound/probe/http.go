package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPProber issues a GET against the backend's probe path and treats
// anything but 200 as a failure.
type HTTPProber struct {
	client         *fasthttp.Client
	path           string
	expectedStatus int
}

func NewHTTPProber(path string) *HTTPProber {
	if path == "" {
		path = "/health"
	}
	return &HTTPProber{
		client: &fasthttp.Client{
			MaxIdleConnDuration: 30 * time.Second,
		},
		path:           path,
		expectedStatus: fasthttp.StatusOK,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, addr string) (time.Duration, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://" + addr + p.path)
	req.Header.SetMethod(fasthttp.MethodGet)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = p.client.DoDeadline(req, resp, deadline)
	} else {
		err = p.client.Do(req, resp)
	}
	elapsed := time.Since(start)

	if err != nil {
		return elapsed, fmt.Errorf("http probe %s: %w", addr, err)
	}
	if resp.StatusCode() != p.expectedStatus {
		return elapsed, fmt.Errorf("http probe %s: unexpected status %d", addr, resp.StatusCode())
	}
	return elapsed, nil
}

package server

import (
	"context"
	"fmt"
	"net/http"
)

// pingable is satisfied by dependencies that expose a native reachability
// probe, such as the Qdrant store's HealthCheck RPC.
type pingable interface {
	Ping(ctx context.Context) error
}

// StorePinger probes the vector store using its native health check.
// It satisfies the Pinger interface and is used by GET /api/ready.
type StorePinger struct {
	// store is the probed dependency.
	store pingable
	// name identifies the dependency in readiness responses (e.g. "qdrant").
	name string
}

// NewStorePinger constructs a StorePinger for the given store and label.
func NewStorePinger(store pingable, name string) *StorePinger {
	return &StorePinger{store: store, name: name}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return p.name }

// Ping delegates to the store's native health check.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// HTTPPinger probes an HTTP dependency with a cheap GET request. It is used
// for embedding and model backends that expose a status endpoint (e.g.
// Ollama's /api/tags) so readiness checks never spend model tokens.
type HTTPPinger struct {
	// url is the probed endpoint.
	url string
	// name identifies the dependency in readiness responses.
	name string
	// client is the HTTP client used for probes.
	client *http.Client
}

// NewHTTPPinger constructs an HTTPPinger for the given endpoint and label.
func NewHTTPPinger(url, name string) *HTTPPinger {
	return &HTTPPinger{
		url:    url,
		name:   name,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HTTPPinger) Name() string { return p.name }

// Ping issues a GET request to the endpoint. Any response below 500 counts
// as reachable; auth-protected status endpoints may legitimately return 4xx.
func (p *HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe %s: status %d", p.url, resp.StatusCode)
	}
	return nil
}

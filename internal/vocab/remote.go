package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// maxResponseBytes caps a single vocabulary file download.
const maxResponseBytes = 16 << 20

// RemoteProvider fetches configurations over HTTP.
//
// ListConfigs reads a directory listing in the shape of a code-hosting
// contents API (a JSON array of {"name", "type"}); LoadConfig reads
// <rawBaseURL>/<name>/config.json and then every referenced term file.
// Concurrent loads of the same name share one fetch.
type RemoteProvider struct {
	listURL    string
	rawBaseURL string
	client     *http.Client

	group singleflight.Group
}

// NewRemoteProvider returns a provider with the given per-request timeout.
func NewRemoteProvider(listURL, rawBaseURL string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		listURL:    listURL,
		rawBaseURL: strings.TrimRight(rawBaseURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

type listing struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListConfigs returns the remote configuration names, sorted.
func (p *RemoteProvider) ListConfigs(ctx context.Context) ([]string, error) {
	data, err := p.get(ctx, p.listURL)
	if err != nil {
		return nil, err
	}

	var entries []listing
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode config listing: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.Type == "" || e.Type == "dir" {
			names = append(names, e.Name)
		}
	}

	sort.Strings(names)

	return names, nil
}

// LoadConfig fetches and decodes one configuration. The shared fetch is
// detached from the caller's cancellation; a cancelled caller stops waiting
// while the others still get the result.
func (p *RemoteProvider) LoadConfig(ctx context.Context, name string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := p.group.DoChan(name, func() (any, error) {
		return p.load(context.WithoutCancel(ctx), name)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Config), nil
	}
}

func (p *RemoteProvider) load(ctx context.Context, name string) (*Config, error) {
	data, err := p.get(ctx, p.fileURL(name, configFileName))
	if err != nil {
		return nil, err
	}

	cf, err := parseConfigFile(data)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex

	files := make(map[string][]byte)

	g, gctx := errgroup.WithContext(ctx)

	for _, f := range cf.termFiles() {
		f := f

		g.Go(func() error {
			raw, err := p.get(gctx, p.fileURL(name, f))
			if err != nil {
				return err
			}

			mu.Lock()
			files[f] = raw
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildConfig(name, cf, files)
}

func (p *RemoteProvider) fileURL(name, file string) string {
	return p.rawBaseURL + "/" + url.PathEscape(name) + "/" + file
}

// statusError reports a non-2xx response.
type statusError struct {
	URL    string
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

func (p *RemoteProvider) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, target)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{URL: target, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}

	return data, nil
}

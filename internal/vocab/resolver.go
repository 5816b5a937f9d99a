package vocab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dictionary-annotator/internal/logger"
	"dictionary-annotator/internal/metrics"
)

// ErrSuperseded is returned by Select when a newer selection started before
// this one finished. The stale result is never applied.
var ErrSuperseded = errors.New("vocabulary selection superseded")

// Source identifies where the active configuration came from.
type Source string

const (
	SourceNone    Source = ""
	SourceRemote  Source = "remote"
	SourceBundled Source = "bundled"
)

// Status is the observable loading state of a Resolver.
type Status struct {
	// Requested is the name passed to the latest Select.
	Requested string `json:"requested"`
	// Name is the name of the active configuration (differs from Requested
	// when a substitute was loaded).
	Name string `json:"name"`
	// Loading is true while the latest selection is in flight.
	Loading bool `json:"loading"`
	// FellBack is true when the remote source failed and a bundled copy is active.
	FellBack bool `json:"fellBack"`
	Source   Source `json:"source"`
}

// Fallback is the provider consulted when the remote one fails. DefaultName
// is substituted for names the fallback does not know.
type Fallback interface {
	Provider
	DefaultName() string
}

// Resolver holds the configuration selected by one session.
type Resolver struct {
	remote   Provider
	fallback Fallback
	log      *logger.Logger

	mu         sync.Mutex
	generation uint64
	status     Status
	active     *Config
}

// NewResolver returns a resolver. remote may be nil for bundled-only operation.
func NewResolver(remote Provider, fallback Fallback, log *logger.Logger) *Resolver {
	return &Resolver{
		remote:   remote,
		fallback: fallback,
		log:      logger.OrNop(log),
	}
}

// Select loads the named configuration and makes it active. Remote failures
// are not returned: the bundled copy (or the bundled default) is substituted
// and Status().FellBack is set. An error is returned only when no substitute
// could be loaded or when a newer Select superseded this one.
func (r *Resolver) Select(ctx context.Context, name string) (*Config, error) {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.status.Requested = name
	r.status.Loading = true
	r.mu.Unlock()

	cfg, source, fellBack, err := r.load(ctx, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		r.log.Debug("discarding superseded vocabulary response", "requested", name)
		metrics.ObserveVocabularyLoad(string(source), metrics.ResultSuperseded, 0)

		return nil, ErrSuperseded
	}

	r.status.Loading = false

	if err != nil {
		return nil, err
	}

	r.active = cfg
	r.status = Status{
		Requested: name,
		Name:      cfg.Name(),
		FellBack:  fellBack,
		Source:    source,
	}

	r.log.Info("vocabulary selected", "requested", name, "name", cfg.Name(), "source", source, "fellBack", fellBack)

	return cfg, nil
}

func (r *Resolver) load(ctx context.Context, name string) (*Config, Source, bool, error) {
	fellBack := false

	if r.remote != nil {
		start := time.Now()

		cfg, err := r.remote.LoadConfig(ctx, name)
		if err == nil {
			metrics.ObserveVocabularyLoad(string(SourceRemote), metrics.ResultSuccess, time.Since(start))
			return cfg, SourceRemote, false, nil
		}

		metrics.ObserveVocabularyLoad(string(SourceRemote), metrics.ResultError, time.Since(start))
		r.log.Warn("remote vocabulary unavailable, using bundled copy", "requested", name, "error", err)

		fellBack = true
	}

	start := time.Now()
	result := metrics.ResultSuccess

	if fellBack {
		result = metrics.ResultFallback
	}

	cfg, err := r.fallback.LoadConfig(ctx, name)
	if errors.Is(err, ErrConfigNotFound) && name != r.fallback.DefaultName() {
		r.log.Warn("vocabulary not bundled, substituting default", "requested", name, "default", r.fallback.DefaultName())

		cfg, err = r.fallback.LoadConfig(ctx, r.fallback.DefaultName())
		fellBack = true
		result = metrics.ResultFallback
	}

	if err != nil {
		metrics.ObserveVocabularyLoad(string(SourceBundled), metrics.ResultError, time.Since(start))
		return nil, SourceBundled, fellBack, fmt.Errorf("failed to load vocabulary %q: %w", name, err)
	}

	metrics.ObserveVocabularyLoad(string(SourceBundled), result, time.Since(start))

	return cfg, SourceBundled, fellBack, nil
}

// Active returns the active configuration, or nil before the first Select.
func (r *Resolver) Active() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// Selected returns the most recently requested configuration name.
func (r *Resolver) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status.Requested
}

// Status returns the loading state.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// ListConfigs returns the union of remote and bundled configuration names.
// A remote failure degrades to the bundled list.
func (r *Resolver) ListConfigs(ctx context.Context) ([]string, error) {
	bundled, err := r.fallback.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}

	if r.remote == nil {
		return bundled, nil
	}

	remote, err := r.remote.ListConfigs(ctx)
	if err != nil {
		r.log.Warn("remote vocabulary listing unavailable", "error", err)
		return bundled, nil
	}

	seen := make(map[string]struct{}, len(remote)+len(bundled))
	names := make([]string, 0, len(remote)+len(bundled))

	for _, n := range append(remote, bundled...) {
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		names = append(names, n)
	}

	sort.Strings(names)

	return names, nil
}

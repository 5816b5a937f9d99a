package vocab

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves prebuilt configs; a name present in gates blocks
// until its channel is closed.
type fakeProvider struct {
	mu      sync.Mutex
	configs map[string]*Config
	gates   map[string]chan struct{}
	started chan string
	err     error
	calls   []string
}

func (f *fakeProvider) ListConfigs(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}

	var names []string
	for n := range f.configs {
		names = append(names, n)
	}

	return names, nil
}

func (f *fakeProvider) LoadConfig(ctx context.Context, name string) (*Config, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gates[name]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- name
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	cfg, ok := f.configs[name]
	if !ok {
		return nil, ErrConfigNotFound
	}

	return cfg, nil
}

func namedConfig(t *testing.T, name string, terms ...Term) *Config {
	t.Helper()

	cfg, err := NewConfig(name,
		[]StandardizedVariable{{Identifier: "nb:Diagnosis", Label: "Diagnosis", DataType: DataTypeCategorical}},
		map[string][]Term{"nb:Diagnosis": terms},
		nil,
	)
	require.NoError(t, err)

	return cfg
}

func TestResolverPrefersRemote(t *testing.T) {
	remote := &fakeProvider{configs: map[string]*Config{"A": namedConfig(t, "A")}}
	r := NewResolver(remote, NewBundledProvider(), nil)

	cfg, err := r.Select(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", cfg.Name())

	st := r.Status()
	assert.Equal(t, SourceRemote, st.Source)
	assert.False(t, st.FellBack)
	assert.False(t, st.Loading)
	assert.Same(t, cfg, r.Active())
}

func TestResolverFallsBackOnRemoteFailure(t *testing.T) {
	remote := &fakeProvider{err: errors.New("GET config.json: unexpected status 500")}
	r := NewResolver(remote, NewBundledProvider(), nil)

	cfg, err := r.Select(context.Background(), "Neurobagel")
	require.NoError(t, err, "remote failures are not surfaced")
	assert.Equal(t, "Neurobagel", cfg.Name())

	st := r.Status()
	assert.True(t, st.FellBack)
	assert.Equal(t, SourceBundled, st.Source)
	assert.Equal(t, "Neurobagel", st.Requested)
}

func TestResolverSubstitutesDefault(t *testing.T) {
	r := NewResolver(nil, NewBundledProvider(), nil)

	cfg, err := r.Select(context.Background(), "NoSuchConfig")
	require.NoError(t, err)
	assert.Equal(t, DefaultBundledConfig, cfg.Name())

	st := r.Status()
	assert.Equal(t, "NoSuchConfig", st.Requested)
	assert.Equal(t, DefaultBundledConfig, st.Name)
	assert.True(t, st.FellBack)
	assert.Equal(t, "NoSuchConfig", r.Selected())
}

func TestResolverLastSelectionWins(t *testing.T) {
	slow := namedConfig(t, "Slow", Term{Identifier: "slow:1", Label: "Slow term"})
	fast := namedConfig(t, "Fast", Term{Identifier: "fast:1", Label: "Fast term"})

	remote := &fakeProvider{
		configs: map[string]*Config{"Slow": slow, "Fast": fast},
		gates:   map[string]chan struct{}{"Slow": make(chan struct{})},
		started: make(chan string, 2),
	}
	r := NewResolver(remote, NewBundledProvider(), nil)
	ctx := context.Background()

	slowDone := make(chan error, 1)

	go func() {
		_, err := r.Select(ctx, "Slow")
		slowDone <- err
	}()

	require.Equal(t, "Slow", <-remote.started)

	cfg, err := r.Select(ctx, "Fast")
	require.Equal(t, "Fast", <-remote.started)
	require.NoError(t, err)
	assert.Equal(t, "Fast", cfg.Name())

	close(remote.gates["Slow"])
	assert.ErrorIs(t, <-slowDone, ErrSuperseded)

	active := r.Active()
	assert.Equal(t, "Fast", active.Name())

	_, leaked := active.LookupTerm("slow:1")
	assert.False(t, leaked, "terms of a superseded config must not leak")
	assert.Equal(t, "Fast", r.Status().Name)
	assert.False(t, r.Status().Loading)
}

func TestResolverSwitchReplacesTerms(t *testing.T) {
	r := NewResolver(nil, NewBundledProvider(), nil)
	ctx := context.Background()

	first, err := r.Select(ctx, "Neurobagel")
	require.NoError(t, err)
	require.NotEmpty(t, first.DiagnosisTerms())

	second, err := r.Select(ctx, "Minimal")
	require.NoError(t, err)
	assert.Empty(t, second.DiagnosisTerms())

	_, ok := r.Active().LookupTerm("ncit:C94342")
	assert.False(t, ok)
}

func TestResolverListConfigs(t *testing.T) {
	remote := &fakeProvider{configs: map[string]*Config{"Remote": namedConfig(t, "Remote"), "Neurobagel": namedConfig(t, "Neurobagel")}}
	r := NewResolver(remote, NewBundledProvider(), nil)

	names, err := r.ListConfigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Minimal", "Neurobagel", "Remote"}, names)

	remote.err = errors.New("offline")
	names, err = r.ListConfigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Minimal", "Neurobagel"}, names)
}

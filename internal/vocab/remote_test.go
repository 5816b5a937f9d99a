package vocab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteConfigJSON = `{
  "standardized_variables": [
    {"id": "nb:ParticipantID", "name": "Participant ID", "identifies": "participant"},
    {"id": "nb:Diagnosis", "name": "Diagnosis", "data_type": "Categorical", "terms_file": "diagnosis.json"}
  ]
}`

const remoteTermsJSON = `{"namespace_prefix": "snomed", "terms": [{"id": "49049000", "name": "Parkinson's disease"}]}`

func newVocabServer(t *testing.T, configHits *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name": "Remote", "type": "dir"}, {"name": "README.md", "type": "file"}, {"name": "Alt", "type": "dir"}]`))
	})
	mux.HandleFunc("/raw/Remote/config.json", func(w http.ResponseWriter, _ *http.Request) {
		if configHits != nil {
			atomic.AddInt32(configHits, 1)
		}

		_, _ = w.Write([]byte(remoteConfigJSON))
	})
	mux.HandleFunc("/raw/Remote/diagnosis.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(remoteTermsJSON))
	})
	mux.HandleFunc("/raw/Broken/config.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestRemoteProviderListAndLoad(t *testing.T) {
	srv := newVocabServer(t, nil)
	p := NewRemoteProvider(srv.URL+"/list", srv.URL+"/raw/", time.Second)
	ctx := context.Background()

	names, err := p.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alt", "Remote"}, names)

	cfg, err := p.LoadConfig(ctx, "Remote")
	require.NoError(t, err)
	assert.Equal(t, "Remote", cfg.Name())

	term, ok := cfg.Term("nb:Diagnosis", "snomed:49049000")
	require.True(t, ok)
	assert.Equal(t, "Parkinson's disease", term.Label)
}

func TestRemoteProviderErrors(t *testing.T) {
	srv := newVocabServer(t, nil)
	p := NewRemoteProvider(srv.URL+"/list", srv.URL+"/raw", time.Second)
	ctx := context.Background()

	_, err := p.LoadConfig(ctx, "Broken")
	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)

	_, err = p.LoadConfig(ctx, "Missing")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.False(t, errors.As(err, &se))
}

func TestRemoteProviderContextCancel(t *testing.T) {
	srv := newVocabServer(t, nil)
	p := NewRemoteProvider(srv.URL+"/list", srv.URL+"/raw", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.LoadConfig(ctx, "Remote")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteProviderSharedLoadSurvivesCancelledCaller(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/raw/Remote/config.json", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(remoteConfigJSON))
	})
	mux.HandleFunc("/raw/Remote/diagnosis.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(remoteTermsJSON))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewRemoteProvider(srv.URL+"/list", srv.URL+"/raw", 5*time.Second)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)

	go func() {
		_, err := p.LoadConfig(firstCtx, "Remote")
		firstErr <- err
	}()

	<-started

	type result struct {
		cfg *Config
		err error
	}

	second := make(chan result, 1)

	go func() {
		cfg, err := p.LoadConfig(context.Background(), "Remote")
		second <- result{cfg, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "Remote", res.cfg.Name())
	assert.LessOrEqual(t, atomic.LoadInt32(&hits), int32(2))
}

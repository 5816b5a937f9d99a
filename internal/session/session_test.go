package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/dictionary"
	"dictionary-annotator/internal/table"
	"dictionary-annotator/internal/vocab"
)

const studyTSV = "participant_id\tage\tsex\nsub-01\t31\tM\nsub-02\t42\tF\n"

func newTestSession(t *testing.T) *Session {
	t.Helper()

	s := New("test", nil, vocab.NewBundledProvider(), time.Hour, nil)
	t.Cleanup(s.Close)

	_, err := s.SelectConfig(context.Background(), "Neurobagel")
	require.NoError(t, err)

	return s
}

func loadStudy(t *testing.T, s *Session) {
	t.Helper()

	_, err := s.LoadTable("study.tsv", []byte(studyTSV), nil)
	require.NoError(t, err)
}

func TestLoadTableRequiresConfig(t *testing.T) {
	s := New("test", nil, vocab.NewBundledProvider(), time.Hour, nil)

	_, err := s.LoadTable("study.tsv", []byte(studyTSV), nil)
	assert.ErrorIs(t, err, annotation.ErrNoConfig)
}

func TestExportFlushesQueuedEdits(t *testing.T) {
	s := newTestSession(t)
	loadStudy(t, s)

	require.NoError(t, s.Model.SetStandardizedVariable("1", "nb:ParticipantID"))
	s.Editor.EditDescription("1", "Subject identifier")
	assert.Equal(t, 1, s.Editor.Pending())

	data, err := s.Export(FormatJSON)
	require.NoError(t, err)
	assert.Zero(t, s.Editor.Pending())

	doc, err := dictionary.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"participant_id", "age", "sex"}, doc.Keys())

	e, ok := doc.Get("participant_id")
	require.True(t, ok)
	require.NotNil(t, e.Description)
	assert.Equal(t, "Subject identifier", *e.Description)
	require.NotNil(t, e.Annotations)
	assert.Equal(t, "nb:ParticipantID", e.Annotations.IsAbout.TermURL)
	assert.Equal(t, "participant", e.Annotations.Identifies)
}

func TestExportFormats(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Export(FormatJSON)
	require.ErrorIs(t, err, ErrNoTable)

	loadStudy(t, s)

	for format, prefix := range map[Format]string{
		FormatJSON: "{",
		FormatXLSX: "PK",
		FormatPDF:  "%PDF-",
	} {
		t.Run(string(format), func(t *testing.T) {
			data, err := s.Export(format)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte(prefix)))
		})
	}

	_, err = s.Export(Format("yaml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadTableFailureKeepsState(t *testing.T) {
	s := newTestSession(t)
	loadStudy(t, s)

	_, err := s.LoadTable("broken.tsv", []byte("a\tb\n1\t2\t3\n"), nil)
	require.ErrorIs(t, err, table.ErrMalformedTable)

	assert.Len(t, s.Model.Snapshot().Columns, 3)
	assert.Equal(t, "study.tsv", s.TableName())
}

func TestLoadTableDiscardsQueuedEdits(t *testing.T) {
	s := newTestSession(t)
	loadStudy(t, s)

	s.Editor.EditDescription("1", "old table")
	loadStudy(t, s)

	assert.Zero(t, s.Editor.Pending())
	assert.Nil(t, s.Model.Snapshot().Columns[0].Description)
}

func TestSelectConfigRebindsColumns(t *testing.T) {
	s := newTestSession(t)
	loadStudy(t, s)

	require.NoError(t, s.Model.SetStandardizedVariable("2", "nb:Age"))

	diags, err := s.SelectConfig(context.Background(), "Minimal")
	require.NoError(t, err)

	assert.Equal(t, "Minimal", s.Resolver.Status().Name)
	assert.NotEmpty(t, diags.ByCode(diagnostic.CodeUnknownVariable))

	c, err := s.Model.Column("2")
	require.NoError(t, err)
	assert.Empty(t, c.StandardizedVariable)
}

func TestStaleSelectionDoesNotRebind(t *testing.T) {
	s := newTestSession(t)
	loadStudy(t, s)
	ctx := context.Background()

	stale, err := s.Resolver.Select(ctx, "Neurobagel")
	require.NoError(t, err)

	_, err = s.SelectConfig(ctx, "Minimal")
	require.NoError(t, err)

	_, err = s.bindConfig(stale)
	require.ErrorIs(t, err, vocab.ErrSuperseded)

	assert.Equal(t, "Minimal", s.Model.Config().Name())
	assert.Same(t, s.Resolver.Active(), s.Model.Config())
}

func TestConcurrentLoadAndSelectStayBound(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		i := i

		wg.Add(2)

		go func() {
			defer wg.Done()

			_, _ = s.LoadTable("study.tsv", []byte(studyTSV), nil)
		}()

		go func() {
			defer wg.Done()

			name := "Neurobagel"
			if i%2 == 0 {
				name = "Minimal"
			}

			_, _ = s.SelectConfig(ctx, name)
		}()
	}

	wg.Wait()

	assert.Same(t, s.Resolver.Active(), s.Model.Config())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: " XLSX ", want: FormatXLSX},
		{in: "pdf", want: FormatPDF},
		{in: "tsv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDictionaryName(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "dictionary", s.DictionaryName())

	_, err := s.LoadTable("uploads/participants.tsv", []byte(studyTSV), nil)
	require.NoError(t, err)
	assert.Equal(t, "participants_dictionary", s.DictionaryName())
}

package session

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/export"
	"dictionary-annotator/internal/ingest"
	"dictionary-annotator/internal/logger"
	"dictionary-annotator/internal/metrics"
	"dictionary-annotator/internal/report"
	"dictionary-annotator/internal/vocab"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrNoTable         = errors.New("no table loaded")
)

// Format is an export rendition.
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a user-supplied format name; "" means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Session is one user's annotation workspace.
type Session struct {
	ID       string
	Resolver *vocab.Resolver
	Model    *annotation.Model
	Editor   *annotation.Editor

	log *logger.Logger

	// mu serializes table loads and configuration switches.
	mu        sync.Mutex
	tableName string
}

// New returns a session without a configuration. Call SelectConfig before
// loading a table.
func New(id string, remote vocab.Provider, fallback vocab.Fallback, debounce time.Duration, log *logger.Logger) *Session {
	log = logger.OrNop(log).With("session", id)
	model := annotation.NewModel(nil)

	return &Session{
		ID:       id,
		Resolver: vocab.NewResolver(remote, fallback, log),
		Model:    model,
		Editor:   annotation.NewEditor(model, debounce, log),
		log:      log,
	}
}

// SelectConfig activates the named vocabulary and rebinds the current
// annotations to it. Queued edits are committed first.
func (s *Session) SelectConfig(ctx context.Context, name string) (*diagnostic.Diagnostics, error) {
	cfg, err := s.Resolver.Select(ctx, name)
	if err != nil {
		return nil, err
	}

	return s.bindConfig(cfg)
}

// bindConfig rebinds the model to cfg unless a later selection already
// replaced it in the resolver.
func (s *Session) bindConfig(cfg *vocab.Config) (*diagnostic.Diagnostics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg != s.Resolver.Active() {
		return nil, vocab.ErrSuperseded
	}

	if err := s.Editor.Flush(); err != nil {
		s.log.Warn("dropped queued edits", "error", err)
	}

	diags := s.Model.SwitchConfig(cfg)
	s.log.Info("vocabulary switched", "name", cfg.Name(), "diagnostics", diags.Len())

	return diags, nil
}

// LoadTable replaces the session contents with a freshly ingested table.
// On failure the previous contents are kept. Ingestion runs under the
// session lock so the result is always bound to the current configuration.
func (s *Session) LoadTable(tableName string, tableData, dictionaryData []byte) (*diagnostic.Diagnostics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.Model.Config()
	if cfg == nil {
		return nil, annotation.ErrNoConfig
	}

	res, err := ingest.ParseAndIngest(tableName, tableData, dictionaryData, cfg)
	if err != nil {
		return nil, err
	}

	s.Editor.Discard()
	s.Model.Load(res.State)
	s.tableName = tableName

	s.log.Info("table ingested",
		"table", tableName,
		"columns", len(res.State.Columns),
		"cards", len(res.State.Cards),
		"warnings", len(res.Diagnostics.Warnings),
		"infos", len(res.Diagnostics.Infos))

	return res.Diagnostics, nil
}

// TableName returns the name of the loaded table, or "".
func (s *Session) TableName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tableName
}

// Export renders the current annotations. Queued edits are committed first
// so the last keystrokes are never lost.
func (s *Session) Export(format Format) (data []byte, err error) {
	defer func() { metrics.ObserveExport(string(format), metrics.ResultOf(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tableName == "" {
		return nil, ErrNoTable
	}

	if err := s.Editor.Flush(); err != nil {
		s.log.Warn("dropped queued edits", "error", err)
	}

	doc := export.Serialize(s.Model.Snapshot(), s.Model.Config())

	switch format {
	case FormatJSON:
		return doc.Marshal()
	case FormatXLSX:
		return report.BuildXLSX(doc)
	case FormatPDF:
		return report.BuildPDF(doc, s.dictionaryName())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DictionaryName is the export file name without extension, derived from
// the table name.
func (s *Session) DictionaryName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dictionaryName()
}

func (s *Session) dictionaryName() string {
	if s.tableName == "" {
		return "dictionary"
	}

	base := path.Base(s.tableName)

	return strings.TrimSuffix(base, path.Ext(base)) + "_dictionary"
}

// Close drops queued edits.
func (s *Session) Close() {
	s.Editor.Close()
}

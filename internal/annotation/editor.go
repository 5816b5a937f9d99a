package annotation

import (
	"errors"
	"sync"
	"time"

	"dictionary-annotator/internal/logger"
)

// DefaultDebounce is the idle time before a text edit is committed.
const DefaultDebounce = 400 * time.Millisecond

type pendingEdit struct {
	text    string
	version Version
	timer   *time.Timer
}

// Editor debounces free-text edits into a Model. Drafts are visible
// immediately through Draft; the model only sees the text once the field has
// been idle for the configured delay, and only if nothing else changed the
// field in the meantime.
type Editor struct {
	model *Model
	delay time.Duration
	log   *logger.Logger

	mu      sync.Mutex
	pending map[EditKey]*pendingEdit
}

// NewEditor returns an editor committing into model after delay.
func NewEditor(model *Model, delay time.Duration, log *logger.Logger) *Editor {
	if delay < 0 {
		delay = 0
	}

	return &Editor{
		model:   model,
		delay:   delay,
		log:     logger.OrNop(log),
		pending: make(map[EditKey]*pendingEdit),
	}
}

// EditDescription queues a column description edit.
func (e *Editor) EditDescription(columnID, text string) {
	e.queue(DescriptionKey(columnID), text)
}

// EditLevelDescription queues a level description edit.
func (e *Editor) EditLevelDescription(columnID, value, text string) {
	e.queue(LevelKey(columnID, value), text)
}

// queue records a draft and (re)starts its timer. The version is captured at
// every keystroke, so an edit made after an intervening mutation is the
// newer intent and still applies.
func (e *Editor) queue(key EditKey, text string) {
	version := e.model.Version(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.pending[key]; ok {
		p.timer.Stop()
	}

	p := &pendingEdit{text: text, version: version}
	p.timer = time.AfterFunc(e.delay, func() { e.fire(key, p) })
	e.pending[key] = p
}

// fire commits p unless it was replaced or cancelled before the timer ran.
func (e *Editor) fire(key EditKey, p *pendingEdit) {
	e.mu.Lock()
	if e.pending[key] != p {
		e.mu.Unlock()
		return
	}

	delete(e.pending, key)
	e.mu.Unlock()

	if err := e.commit(key, p); err != nil {
		e.log.Warn("dropping debounced edit", "column", key.ColumnID, "value", key.Value, "error", err)
	}
}

func (e *Editor) commit(key EditKey, p *pendingEdit) error {
	var (
		applied bool
		err     error
	)

	if key.Level {
		applied, err = e.model.CommitLevelDescription(key.ColumnID, key.Value, p.text, p.version)
	} else {
		applied, err = e.model.CommitDescription(key.ColumnID, p.text, p.version)
	}

	if err == nil && !applied {
		e.log.Debug("discarding superseded edit", "column", key.ColumnID, "value", key.Value)
	}

	return err
}

// Draft returns the uncommitted text of a field.
func (e *Editor) Draft(key EditKey) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pending[key]
	if !ok {
		return "", false
	}

	return p.text, true
}

// Pending returns the number of queued edits.
func (e *Editor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.pending)
}

// ToggleMissingValue flags or un-flags the value in the model. Flagging
// cancels any queued description edit for it.
func (e *Editor) ToggleMissingValue(columnID, value string, missing bool) error {
	if missing {
		e.cancel(LevelKey(columnID, value))
	}

	return e.model.ToggleMissingValue(columnID, value, missing)
}

func (e *Editor) cancel(key EditKey) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.pending[key]; ok {
		p.timer.Stop()
		delete(e.pending, key)
	}
}

// Flush commits every queued edit now, as before an export. Edits whose
// field changed since they were queued are still discarded.
func (e *Editor) Flush() error {
	e.mu.Lock()
	queued := e.pending
	e.pending = make(map[EditKey]*pendingEdit)

	for _, p := range queued {
		p.timer.Stop()
	}
	e.mu.Unlock()

	var errs []error

	for key, p := range queued {
		if err := e.commit(key, p); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Discard drops every queued edit without committing.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.pending {
		p.timer.Stop()
	}

	e.pending = make(map[EditKey]*pendingEdit)
}

// Close discards queued edits.
func (e *Editor) Close() {
	e.Discard()
}

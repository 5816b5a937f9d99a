package annotation

import (
	"errors"
	"fmt"
	"sync"

	"dictionary-annotator/internal/common"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/vocab"
)

var (
	ErrColumnNotFound    = errors.New("column not found")
	ErrCardNotFound      = errors.New("measure card not found")
	ErrVariableNotFound  = errors.New("standardized variable not found")
	ErrTermNotFound      = errors.New("term not found")
	ErrFormatNotFound    = errors.New("format not found")
	ErrValueNotFound     = errors.New("value not present in column")
	ErrNotMeasure        = errors.New("variable is not a multi-column measure")
	ErrColumnNotEligible = errors.New("column is not mapped to the card's variable")
	ErrDataTypeMismatch  = errors.New("operation does not apply to the column's data type")
	ErrNoConfig          = errors.New("no vocabulary config selected")
)

// EditKey names one debounced free-text field: a column description
// (Value empty, Level false) or a level description.
type EditKey struct {
	ColumnID string
	Value    string
	Level    bool
}

// DescriptionKey is the edit key of a column description.
func DescriptionKey(columnID string) EditKey {
	return EditKey{ColumnID: columnID}
}

// LevelKey is the edit key of a level description.
func LevelKey(columnID, value string) EditKey {
	return EditKey{ColumnID: columnID, Value: value, Level: true}
}

// Version identifies the state of one editable field. Versions from before a
// Load never match versions after it.
type Version struct {
	epoch uint64
	n     uint64
}

// Model is the annotation state of one table.
type Model struct {
	mu sync.RWMutex

	cfg   *vocab.Config
	state State
	index map[string]int

	epoch    uint64
	versions map[EditKey]uint64
}

// NewModel returns an empty model bound to cfg.
func NewModel(cfg *vocab.Config) *Model {
	return &Model{
		cfg:      cfg,
		index:    make(map[string]int),
		versions: make(map[EditKey]uint64),
	}
}

// Load replaces the whole state, as on a new table upload. Pending edit
// versions are invalidated.
func (m *Model) Load(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = s.Clone()
	m.reindex()
	m.epoch++
	m.versions = make(map[EditKey]uint64)
}

// Snapshot returns a deep copy of the current state.
func (m *Model) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Clone()
}

// Config returns the vocabulary configuration the model is bound to.
func (m *Model) Config() *vocab.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

// Column returns a copy of one column.
func (m *Model) Column(id string) (Column, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.column(id)
	if err != nil {
		return Column{}, err
	}

	return c.Clone(), nil
}

// Version returns the current version of an editable field.
func (m *Model) Version(key EditKey) Version {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Version{epoch: m.epoch, n: m.versions[key]}
}

func (m *Model) bump(key EditKey) {
	m.versions[key]++
}

func (m *Model) current(key EditKey, v Version) bool {
	return v.epoch == m.epoch && v.n == m.versions[key]
}

func (m *Model) reindex() {
	m.index = make(map[string]int, len(m.state.Columns))
	for i, c := range m.state.Columns {
		m.index[c.ID] = i
	}
}

func (m *Model) column(id string) (*Column, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, id)
	}

	return &m.state.Columns[i], nil
}

func (m *Model) requireConfig() error {
	if m.cfg == nil {
		return ErrNoConfig
	}

	return nil
}

// SetDescription sets the column description; an empty text clears it.
func (m *Model) SetDescription(id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	setDescription(c, text)
	m.bump(DescriptionKey(id))

	return nil
}

// CommitDescription applies a debounced description edit if v is still the
// field's current version. It reports whether the edit was applied.
func (m *Model) CommitDescription(id, text string, v Version) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return false, err
	}

	key := DescriptionKey(id)
	if !m.current(key, v) {
		return false, nil
	}

	setDescription(c, text)
	m.bump(key)

	return true, nil
}

func setDescription(c *Column, text string) {
	if text == "" {
		c.Description = nil
		return
	}

	c.Description = &text
}

// SetDataType changes the column data type. Switching between Categorical
// and Continuous discards the other type's fields; the transition cannot be
// undone.
func (m *Model) SetDataType(id string, dt vocab.DataType) error {
	if !dt.IsValid() {
		return fmt.Errorf("%w: %q", ErrDataTypeMismatch, dt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	applyDataType(c, dt)

	return nil
}

func applyDataType(c *Column, dt vocab.DataType) {
	if c.DataType == dt {
		return
	}

	c.DataType = dt

	switch dt {
	case vocab.DataTypeCategorical:
		c.Units = ""
		c.Format = nil
		c.Levels = freshLevels(c.UniqueValues())
	case vocab.DataTypeContinuous:
		c.Levels = nil
	default:
		c.Levels = nil
		c.Units = ""
		c.Format = nil
	}
}

func freshLevels(values []string) map[string]Level {
	levels := make(map[string]Level, len(values))
	for _, v := range values {
		levels[v] = Level{}
	}

	return levels
}

// SetStandardizedVariable maps the column to a variable, or unmaps it when
// variableID is empty. A change clears IsPartOf, level terms and format,
// removes the column from every measure card and applies the variable's
// declared data type. Cards of variables left without columns are dropped.
func (m *Model) SetStandardizedVariable(id, variableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	var variable vocab.StandardizedVariable

	if variableID != "" {
		if err := m.requireConfig(); err != nil {
			return err
		}

		v, ok := m.cfg.Variable(variableID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrVariableNotFound, variableID)
		}

		variable = v
	}

	if c.StandardizedVariable == variableID {
		return nil
	}

	c.StandardizedVariable = variableID
	c.IsPartOf = nil
	c.Format = nil
	clearLevelTerms(c)
	c.Extras.resetMeasure()

	for i := range m.state.Cards {
		m.state.Cards[i].ColumnIDs = common.Remove(m.state.Cards[i].ColumnIDs, id)
	}

	if variable.DataType != vocab.DataTypeNone {
		applyDataType(c, variable.DataType)
	}

	m.pruneCards()

	return nil
}

func clearLevelTerms(c *Column) {
	for k, l := range c.Levels {
		l.Term = nil
		c.Levels[k] = l
	}
}

// pruneCards drops cards whose variable no longer has any mapped column.
func (m *Model) pruneCards() {
	mapped := make(map[string]bool)
	for _, c := range m.state.Columns {
		if c.StandardizedVariable != "" {
			mapped[c.StandardizedVariable] = true
		}
	}

	kept := m.state.Cards[:0]

	for _, card := range m.state.Cards {
		if mapped[card.VariableID] {
			kept = append(kept, card)
		}
	}

	m.state.Cards = kept
}

// SetIsPartOf sets the parent term of the column; an empty termID clears it.
// The term must belong to the column's variable.
func (m *Model) SetIsPartOf(id, termID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	if termID == "" {
		c.IsPartOf = nil
		return nil
	}

	t, err := m.term(c, termID)
	if err != nil {
		return err
	}

	c.IsPartOf = &t

	return nil
}

func (m *Model) term(c *Column, termID string) (vocab.Term, error) {
	if err := m.requireConfig(); err != nil {
		return vocab.Term{}, err
	}

	t, ok := m.cfg.Term(c.StandardizedVariable, termID)
	if !ok {
		return vocab.Term{}, fmt.Errorf("%w: %q for variable %q", ErrTermNotFound, termID, c.StandardizedVariable)
	}

	return t, nil
}

// SetLevelDescription sets the description of one value.
func (m *Model) SetLevelDescription(id, value, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.levelColumn(id, value)
	if err != nil {
		return err
	}

	setLevelDescription(c, value, text)
	m.bump(LevelKey(id, value))

	return nil
}

// CommitLevelDescription applies a debounced level description edit if v is
// still the value's current version. It reports whether the edit was applied.
func (m *Model) CommitLevelDescription(id, value, text string, v Version) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.levelColumn(id, value)
	if err != nil {
		return false, err
	}

	key := LevelKey(id, value)
	if !m.current(key, v) {
		return false, nil
	}

	setLevelDescription(c, value, text)
	m.bump(key)

	return true, nil
}

func setLevelDescription(c *Column, value, text string) {
	if c.Levels == nil {
		c.Levels = make(map[string]Level)
	}

	l := c.Levels[value]
	l.Description = text
	c.Levels[value] = l
}

// levelColumn returns a column that can carry level annotations for value.
func (m *Model) levelColumn(id, value string) (*Column, error) {
	c, err := m.column(id)
	if err != nil {
		return nil, err
	}

	if c.DataType == vocab.DataTypeContinuous {
		return nil, fmt.Errorf("%w: column %q is continuous", ErrDataTypeMismatch, id)
	}

	if !c.HasValue(value) {
		return nil, fmt.Errorf("%w: %q in column %q", ErrValueNotFound, value, id)
	}

	return c, nil
}

// SetLevelTerm sets the standardized term of one value; an empty termID
// clears it. Assigning a term to a value flagged missing un-flags it.
func (m *Model) SetLevelTerm(id, value, termID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.levelColumn(id, value)
	if err != nil {
		return err
	}

	if c.Levels == nil {
		c.Levels = make(map[string]Level)
	}

	l := c.Levels[value]

	if termID == "" {
		l.Term = nil
		c.Levels[value] = l

		return nil
	}

	t, err := m.term(c, termID)
	if err != nil {
		return err
	}

	l.Term = &t
	c.Levels[value] = l

	if c.IsMissing(value) {
		c.MissingValues = common.Remove(c.MissingValues, value)
		m.bump(LevelKey(id, value))
	}

	return nil
}

// SetUnits sets the units of a non-categorical column.
func (m *Model) SetUnits(id, units string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	if c.DataType == vocab.DataTypeCategorical {
		return fmt.Errorf("%w: column %q is categorical", ErrDataTypeMismatch, id)
	}

	c.Units = units

	return nil
}

// SetFormat sets the value format of a non-categorical column; an empty
// termURL clears it. The format must be allowed for the column's variable.
func (m *Model) SetFormat(id, termURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	if termURL == "" {
		c.Format = nil
		return nil
	}

	if c.DataType == vocab.DataTypeCategorical {
		return fmt.Errorf("%w: column %q is categorical", ErrDataTypeMismatch, id)
	}

	if err := m.requireConfig(); err != nil {
		return err
	}

	f, ok := m.cfg.Format(c.StandardizedVariable, termURL)
	if !ok {
		return fmt.Errorf("%w: %q for variable %q", ErrFormatNotFound, termURL, c.StandardizedVariable)
	}

	c.Format = &f

	return nil
}

// ToggleMissingValue flags or un-flags a value as missing. Flagging clears
// the value's term and description and invalidates any queued description
// edit for it; un-flagging leaves queued edits valid.
func (m *Model) ToggleMissingValue(id, value string, missing bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(id)
	if err != nil {
		return err
	}

	if !c.HasValue(value) {
		return fmt.Errorf("%w: %q in column %q", ErrValueNotFound, value, id)
	}

	if !missing {
		c.MissingValues = common.Remove(c.MissingValues, value)
		return nil
	}

	m.bump(LevelKey(id, value))

	if !c.IsMissing(value) {
		c.MissingValues = append(c.MissingValues, value)
	}

	if l, ok := c.Levels[value]; ok {
		l.Term = nil
		l.Description = ""
		c.Levels[value] = l
	}

	return nil
}

// SwitchConfig rebinds the model to another vocabulary configuration.
// Mappings, terms and formats the new configuration does not know are
// cleared and reported as diagnostics; cards of unknown or non-measure
// variables are dropped.
func (m *Model) SwitchConfig(cfg *vocab.Config) *diagnostic.Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()

	diags := &diagnostic.Diagnostics{}
	m.cfg = cfg

	for i := range m.state.Columns {
		c := &m.state.Columns[i]
		if c.StandardizedVariable == "" {
			continue
		}

		if _, ok := cfg.Variable(c.StandardizedVariable); !ok {
			diags.AddInfo(diagnostic.CodeUnknownVariable,
				fmt.Sprintf("variable %s is not part of %s; column unmapped", c.StandardizedVariable, cfg.Name()), c.Header, "")

			c.StandardizedVariable = ""
			c.IsPartOf = nil
			c.Format = nil
			clearLevelTerms(c)
			c.Extras.resetMeasure()

			continue
		}

		if c.IsPartOf != nil {
			c.IsPartOf = rebindTerm(cfg, c.StandardizedVariable, c.IsPartOf, c.Header, diags)
		}

		for k, l := range c.Levels {
			if l.Term != nil {
				l.Term = rebindTerm(cfg, c.StandardizedVariable, l.Term, c.Header, diags)
				c.Levels[k] = l
			}
		}

		if c.Format != nil {
			if f, ok := cfg.Format(c.StandardizedVariable, c.Format.TermURL); ok {
				c.Format = &f
			} else {
				diags.AddInfo(diagnostic.CodeUnknownFormat,
					fmt.Sprintf("format %s is not allowed by %s; cleared", c.Format.TermURL, cfg.Name()), c.Header, "")

				c.Format = nil
			}
		}
	}

	kept := m.state.Cards[:0]

	for _, card := range m.state.Cards {
		v, ok := cfg.Variable(card.VariableID)
		if !ok || !v.IsMultiColumnMeasure {
			continue
		}

		if card.Term != nil {
			card.Term = rebindTerm(cfg, card.VariableID, card.Term, "", diags)
		}

		cols := card.ColumnIDs[:0]

		for _, id := range card.ColumnIDs {
			if c, err := m.column(id); err == nil && c.StandardizedVariable == card.VariableID {
				cols = append(cols, id)
			}
		}

		card.ColumnIDs = cols
		kept = append(kept, card)
	}

	m.state.Cards = kept
	m.pruneCards()

	return diags
}

// rebindTerm resolves a term in cfg, returning nil (with an info diagnostic)
// when the configuration does not define it.
func rebindTerm(cfg *vocab.Config, variableID string, t *vocab.Term, header string, diags *diagnostic.Diagnostics) *vocab.Term {
	nt, ok := cfg.Term(variableID, t.Identifier)
	if !ok {
		diags.AddInfo(diagnostic.CodeUnknownTerm,
			fmt.Sprintf("term %s is not part of %s; cleared", t.Identifier, cfg.Name()), header, "")

		return nil
	}

	return &nt
}

package annotation

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"dictionary-annotator/internal/common"
)

// NewCard returns an empty card for a measure variable with a fresh id.
func NewCard(variableID string) Card {
	return Card{ID: uuid.NewString(), VariableID: variableID, ColumnIDs: []string{}}
}

// AddCard appends an empty card for a multi-column measure variable.
// Cards are displayed in creation order; adding never reorders existing cards.
func (m *Model) AddCard(variableID string) (Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireConfig(); err != nil {
		return Card{}, err
	}

	v, ok := m.cfg.Variable(variableID)
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrVariableNotFound, variableID)
	}

	if !v.IsMultiColumnMeasure {
		return Card{}, fmt.Errorf("%w: %q", ErrNotMeasure, variableID)
	}

	card := NewCard(variableID)
	m.state.Cards = append(m.state.Cards, card)

	return card.Clone(), nil
}

func (m *Model) card(id string) (*Card, error) {
	for i := range m.state.Cards {
		if m.state.Cards[i].ID == id {
			return &m.state.Cards[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrCardNotFound, id)
}

// SetCardTerm binds a card to a term of its variable; an empty termID clears it.
func (m *Model) SetCardTerm(cardID, termID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, err := m.card(cardID)
	if err != nil {
		return err
	}

	if termID == "" {
		card.Term = nil
		return nil
	}

	if err := m.requireConfig(); err != nil {
		return err
	}

	t, ok := m.cfg.Term(card.VariableID, termID)
	if !ok {
		return fmt.Errorf("%w: %q for variable %q", ErrTermNotFound, termID, card.VariableID)
	}

	card.Term = &t

	return nil
}

// MapColumn adds a column to a card. The column must already be mapped to
// the card's variable. It is removed from any other card of that variable
// in the same step, so a column never belongs to two cards at once.
func (m *Model) MapColumn(cardID, columnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, err := m.card(cardID)
	if err != nil {
		return err
	}

	c, err := m.column(columnID)
	if err != nil {
		return err
	}

	if c.StandardizedVariable != card.VariableID {
		return fmt.Errorf("%w: column %q is mapped to %q, card %q belongs to %q",
			ErrColumnNotEligible, columnID, c.StandardizedVariable, cardID, card.VariableID)
	}

	for i := range m.state.Cards {
		other := &m.state.Cards[i]
		if other.ID != cardID && other.VariableID == card.VariableID {
			other.ColumnIDs = common.Remove(other.ColumnIDs, columnID)
		}
	}

	if !slices.Contains(card.ColumnIDs, columnID) {
		card.ColumnIDs = append(card.ColumnIDs, columnID)
	}

	return nil
}

// UnmapColumn removes a column from a card.
func (m *Model) UnmapColumn(cardID, columnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, err := m.card(cardID)
	if err != nil {
		return err
	}

	card.ColumnIDs = common.Remove(card.ColumnIDs, columnID)

	return nil
}

// RemoveCard deletes a card; its columns become available to the other cards.
func (m *Model) RemoveCard(cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.state.Cards, func(c Card) bool { return c.ID == cardID })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrCardNotFound, cardID)
	}

	m.state.Cards = slices.Delete(m.state.Cards, i, i+1)

	return nil
}

// DiscardDrafts removes the cards of a variable that have neither a term nor
// columns, as when the user navigates away from the variable.
func (m *Model) DiscardDrafts(variableID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.state.Cards)
	m.state.Cards = slices.DeleteFunc(m.state.Cards, func(c Card) bool {
		return c.VariableID == variableID && c.IsDraft()
	})

	return before - len(m.state.Cards)
}

// Cards returns copies of a variable's cards in creation order.
func (m *Model) Cards(variableID string) []Card {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Card

	for i := range m.state.Cards {
		if m.state.Cards[i].VariableID == variableID {
			out = append(out, m.state.Cards[i].Clone())
		}
	}

	return out
}

// CardForColumn returns the card a column is mapped to.
func (m *Model) CardForColumn(columnID string) (Card, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.state.Cards {
		if slices.Contains(m.state.Cards[i].ColumnIDs, columnID) {
			return m.state.Cards[i].Clone(), true
		}
	}

	return Card{}, false
}

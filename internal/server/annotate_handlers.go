package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/vocab"
)

// columnPatch fields are applied in declaration order; the first failure
// stops the patch and earlier fields stay applied.
type columnPatch struct {
	StandardizedVariable *string `json:"standardizedVariable"`
	DataType             *string `json:"dataType"`
	IsPartOf             *string `json:"isPartOf"`
	Units                *string `json:"units"`
	Format               *string `json:"format"`
	Description          *string `json:"description"`
}

// PATCH /api/sessions/:id/columns/:col
func (s *Server) patchColumn(c *gin.Context) {
	var req columnPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)
	id := c.Param("col")

	if _, err := sess.Model.Column(id); err != nil {
		respondError(c, err)
		return
	}

	if err := applyPatch(sess.Model, id, req); err != nil {
		respondError(c, err)
		return
	}

	if req.Description != nil {
		sess.Editor.EditDescription(id, *req.Description)
	}

	respondOK(c, viewOf(sess))
}

func applyPatch(m *annotation.Model, id string, req columnPatch) error {
	if req.StandardizedVariable != nil {
		if err := m.SetStandardizedVariable(id, *req.StandardizedVariable); err != nil {
			return err
		}
	}

	if req.DataType != nil {
		dt, err := vocab.ParseDataType(*req.DataType)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}

		if err := m.SetDataType(id, dt); err != nil {
			return err
		}
	}

	if req.IsPartOf != nil {
		if err := m.SetIsPartOf(id, *req.IsPartOf); err != nil {
			return err
		}
	}

	if req.Units != nil {
		if err := m.SetUnits(id, *req.Units); err != nil {
			return err
		}
	}

	if req.Format != nil {
		if err := m.SetFormat(id, *req.Format); err != nil {
			return err
		}
	}

	return nil
}

// PUT /api/sessions/:id/columns/:col/levels
func (s *Server) putLevel(c *gin.Context) {
	var req struct {
		Value       *string `json:"value" binding:"required"`
		Description *string `json:"description"`
		Term        *string `json:"term"`
	}

	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)
	id := c.Param("col")

	col, err := sess.Model.Column(id)
	if err != nil {
		respondError(c, err)
		return
	}

	if !col.HasValue(*req.Value) {
		respondError(c, fmt.Errorf("%w: %q in column %q", annotation.ErrValueNotFound, *req.Value, id))
		return
	}

	if col.DataType == vocab.DataTypeContinuous {
		respondError(c, fmt.Errorf("%w: column %q is continuous", annotation.ErrDataTypeMismatch, id))
		return
	}

	if req.Term != nil {
		if err := sess.Model.SetLevelTerm(id, *req.Value, *req.Term); err != nil {
			respondError(c, err)
			return
		}
	}

	if req.Description != nil {
		sess.Editor.EditLevelDescription(id, *req.Value, *req.Description)
	}

	respondOK(c, viewOf(sess))
}

// PUT /api/sessions/:id/columns/:col/missing
func (s *Server) putMissing(c *gin.Context) {
	var req struct {
		Value   *string `json:"value" binding:"required"`
		Missing bool    `json:"missing"`
	}

	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)

	if err := sess.Editor.ToggleMissingValue(c.Param("col"), *req.Value, req.Missing); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, viewOf(sess))
}

// POST /api/sessions/:id/variables/:var/cards
func (s *Server) addCard(c *gin.Context) {
	card, err := current(c).Model.AddCard(c.Param("var"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// DELETE /api/sessions/:id/variables/:var/drafts
func (s *Server) discardDrafts(c *gin.Context) {
	n := current(c).Model.DiscardDrafts(c.Param("var"))
	respondOK(c, gin.H{"removed": n})
}

// PUT /api/sessions/:id/cards/:card/term
func (s *Server) setCardTerm(c *gin.Context) {
	var req struct {
		Term string `json:"term"`
	}

	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)

	if err := sess.Model.SetCardTerm(c.Param("card"), req.Term); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, viewOf(sess))
}

// PUT /api/sessions/:id/cards/:card/columns/:col
func (s *Server) mapColumn(c *gin.Context) {
	sess := current(c)

	if err := sess.Model.MapColumn(c.Param("card"), c.Param("col")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, viewOf(sess))
}

// DELETE /api/sessions/:id/cards/:card/columns/:col
func (s *Server) unmapColumn(c *gin.Context) {
	sess := current(c)

	if err := sess.Model.UnmapColumn(c.Param("card"), c.Param("col")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, viewOf(sess))
}

// DELETE /api/sessions/:id/cards/:card
func (s *Server) removeCard(c *gin.Context) {
	sess := current(c)

	if err := sess.Model.RemoveCard(c.Param("card")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, viewOf(sess))
}

// GET /api/sessions/:id/options/variables
func (s *Server) variableOptions(c *gin.Context) {
	m := current(c).Model
	respondOK(c, gin.H{"options": m.VariableOptions(), "disabled": m.DisabledStandardizedVariables()})
}

// GET /api/sessions/:id/options/terms/:var
func (s *Server) termOptions(c *gin.Context) {
	respondOK(c, gin.H{"options": current(c).Model.TermOptions(c.Param("var"))})
}

// GET /api/sessions/:id/options/formats/:var
func (s *Server) formatOptions(c *gin.Context) {
	respondOK(c, gin.H{"options": current(c).Model.FormatOptions(c.Param("var"))})
}

// GET /api/sessions/:id/options/columns/:var?card=
func (s *Server) columnOptions(c *gin.Context) {
	respondOK(c, gin.H{"options": current(c).Model.ColumnOptions(c.Param("var"), c.Query("card"))})
}

// GET /api/sessions/:id/options/cards/:card/terms
func (s *Server) cardTermOptions(c *gin.Context) {
	opts, err := current(c).Model.CardTermOptions(c.Param("card"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"options": opts})
}

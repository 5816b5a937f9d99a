package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/session"
	"dictionary-annotator/internal/vocab"
)

const sessionKey = "session"

type sessionView struct {
	ID              string                       `json:"id"`
	Table           string                       `json:"table"`
	Vocabulary      vocab.Status                 `json:"vocabulary"`
	Progress        annotation.Progress          `json:"progress"`
	MissingRequired []vocab.StandardizedVariable `json:"missingRequired"`
	PendingEdits    int                          `json:"pendingEdits"`
	Columns         []annotation.Column          `json:"columns"`
	Cards           []annotation.Card            `json:"cards"`
}

func viewOf(sess *session.Session) sessionView {
	state := sess.Model.Snapshot()

	return sessionView{
		ID:              sess.ID,
		Table:           sess.TableName(),
		Vocabulary:      sess.Resolver.Status(),
		Progress:        annotation.ComputeProgress(state),
		MissingRequired: annotation.MissingRequiredVariables(state, sess.Model.Config()),
		PendingEdits:    sess.Editor.Pending(),
		Columns:         state.Columns,
		Cards:           state.Cards,
	}
}

func (s *Server) loadSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Set(sessionKey, sess)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	return nil
}

// GET /api/configs
func (s *Server) listConfigs(c *gin.Context) {
	names, err := s.sessions.ListConfigs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"configs": names})
}

// POST /api/sessions
func (s *Server) createSession(c *gin.Context) {
	var req struct {
		Config string `json:"config"`
	}

	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), req.Config)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, viewOf(sess))
}

// GET /api/sessions/:id
func (s *Server) getSession(c *gin.Context) {
	respondOK(c, viewOf(current(c)))
}

// DELETE /api/sessions/:id
func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(current(c).ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PUT /api/sessions/:id/config
func (s *Server) selectConfig(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)

	diags, err := sess.SelectConfig(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"diagnostics": diags, "session": viewOf(sess)})
}

// POST /api/sessions/:id/table
func (s *Server) uploadTable(c *gin.Context) {
	tableName, tableData, err := readFormFile(c, "table")
	if err != nil {
		respondError(c, fmt.Errorf("%w: table: %v", errBadRequest, err))
		return
	}

	_, dictData, err := readFormFile(c, "dictionary")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respondError(c, fmt.Errorf("%w: dictionary: %v", errBadRequest, err))
		return
	}

	sess := current(c)

	diags, err := sess.LoadTable(tableName, tableData, dictData)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"diagnostics": diags, "session": viewOf(sess)})
}

func readFormFile(c *gin.Context, field string) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return "", nil, err
	}

	if len(data) > maxUploadBytes {
		return "", nil, fmt.Errorf("file exceeds %d bytes", maxUploadBytes)
	}

	return fh.Filename, data, nil
}

// GET /api/sessions/:id/export
func (s *Server) export(c *gin.Context) {
	format, err := session.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	sess := current(c)

	data, err := sess.Export(format)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.DictionaryName()+"."+string(format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

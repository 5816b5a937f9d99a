package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/dictionary"
	"dictionary-annotator/internal/session"
	"dictionary-annotator/internal/table"
	"dictionary-annotator/internal/vocab"
)

var errBadRequest = errors.New("invalid request")

// APIError is the body of every failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is.
var errorMappings = []errorMapping{
	{session.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{annotation.ErrColumnNotFound, http.StatusNotFound, "column_not_found"},
	{annotation.ErrCardNotFound, http.StatusNotFound, "card_not_found"},
	{annotation.ErrVariableNotFound, http.StatusNotFound, "variable_not_found"},
	{annotation.ErrTermNotFound, http.StatusNotFound, "term_not_found"},
	{annotation.ErrFormatNotFound, http.StatusNotFound, "format_not_found"},
	{annotation.ErrValueNotFound, http.StatusNotFound, "value_not_found"},
	{vocab.ErrConfigNotFound, http.StatusNotFound, "config_not_found"},
	{annotation.ErrNotMeasure, http.StatusConflict, "not_measure"},
	{annotation.ErrColumnNotEligible, http.StatusConflict, "column_not_eligible"},
	{annotation.ErrDataTypeMismatch, http.StatusConflict, "data_type_mismatch"},
	{annotation.ErrNoConfig, http.StatusConflict, "no_config"},
	{session.ErrNoTable, http.StatusConflict, "no_table"},
	{vocab.ErrSuperseded, http.StatusConflict, "superseded"},
	{table.ErrMalformedTable, http.StatusUnprocessableEntity, "malformed_table"},
	{dictionary.ErrMalformedDictionary, http.StatusUnprocessableEntity, "malformed_dictionary"},
	{vocab.ErrInvalidConfig, http.StatusBadGateway, "invalid_config"},
	{session.ErrUnknownFormat, http.StatusBadRequest, "unknown_format"},
	{errBadRequest, http.StatusBadRequest, "invalid_request"},
}

func statusOf(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}

	return http.StatusInternalServerError, "internal_error"
}

func respondError(c *gin.Context, err error) {
	status, code := statusOf(err)

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

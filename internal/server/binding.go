package server

import (
	"encoding/json"
	"errors"
	"strings"

	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const reasonInvalidRequest = "INVALID_REQUEST"

// bindMessages maps a struct field and a failed validation tag to the message
// returned to the client.
type bindMessages map[string]map[string]string

type sessionURI struct {
	ID string `uri:"id" binding:"required"`
}

func invalidRequest(message string) error {
	return &game.Error{Code: game.CodeInvalid, Reason: reasonInvalidRequest, Message: message}
}

// bindSession reads the :id route parameter.
func bindSession(c *gin.Context) (string, bool) {
	var uri sessionURI
	if err := c.ShouldBindUri(&uri); err != nil || strings.TrimSpace(uri.ID) == "" {
		writeError(c, game.ErrSessionNotFound)
		return "", false
	}
	return uri.ID, true
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, invalidRequest(resolveBindError(err, messages, fallback)))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves req at its zero value.
func bindOptionalJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req, messages, fallback)
}

func bindQuery(c *gin.Context, req any, messages bindMessages) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeError(c, invalidRequest(resolveBindError(err, messages, "invalid query")))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " has the wrong type"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "request body is not valid JSON"
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}

package server

import (
	"log"
	"net/http"

	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
)

func statusForError(err error) int {
	switch game.CodeOf(err) {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeConflict:
		return http.StatusConflict
	case game.CodeResourceExhausted:
		return http.StatusUnprocessableEntity
	case game.CodeInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error", "code": string(game.CodeUnknown)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": game.ReasonOf(err)})
}

package handlers

import (
	"net/http"

	"aicruiter/internal/apperr"
	"aicruiter/internal/utils"
)

// writeError converts an application error to {"error": text} with the matching status.
func writeError(w http.ResponseWriter, err error) {
	utils.JSONError(w, apperr.HTTPStatus(err), apperr.UserMessage(err))
}

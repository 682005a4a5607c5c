package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON payload")
		return false
	}
	return true
}

// errForbidden is returned by access checks and rendered as 403.
var errForbidden = errors.New("forbidden")

// storeError renders err, logging anything that is not a known sentinel.
func storeError(w http.ResponseWriter, logger *zap.Logger, what string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, what+" not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, respond.CodeConflict, what+" already exists")
	case errors.Is(err, errForbidden):
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "insufficient permission")
	default:
		logger.Error("storage failure", zap.String("entity", what), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to process "+what)
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

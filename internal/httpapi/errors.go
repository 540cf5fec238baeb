package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"example.com/gamerelay/internal/model"
	"example.com/gamerelay/internal/store"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, ErrorResponse{Code: errCode, Message: msg})
}

var conflictCodes = map[error]string{
	model.ErrRankAlreadyPresent: "rank_already_present",
	model.ErrRankNotPresent:     "rank_not_present",
	model.ErrTagAlreadyPresent:  "tag_already_present",
	model.ErrTagNotPresent:      "tag_not_present",
	model.ErrSessionInactive:    "session_inactive",
	model.ErrNameTaken:          "name_taken",
}

// writeStoreError maps domain and store failures to a response. what names
// the entity in not-found messages ("player", "rank").
func writeStoreError(w http.ResponseWriter, log *slog.Logger, what string, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, what+"_not_found", what+" not found")
		return
	case errors.Is(err, store.ErrUnavailable):
		log.Error("storage unavailable", "err", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "storage temporarily unavailable")
		return
	}
	for target, code := range conflictCodes {
		if errors.Is(err, target) {
			writeError(w, http.StatusConflict, code, target.Error())
			return
		}
	}
	log.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

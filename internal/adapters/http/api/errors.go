package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/guildstats/internal/app"
	"github.com/okian/guildstats/internal/domain/stats"
)

// Error codes carried in errorResponse.Code.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeRateLimited  = "rate_limited"
	codeUpstream     = "upstream_unavailable"
	codeInternal     = "internal_error"
	codeNotSupported = "method_not_allowed"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps service and engine errors to an HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, stats.ErrInvalidSortKey),
		errors.Is(err, stats.ErrInvalidDirection),
		errors.Is(err, stats.ErrNegativeLimit):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrMemberNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrDatasetUnavailable),
		errors.Is(err, service.ErrSourceNotConfigured):
		return http.StatusBadGateway, codeUpstream
	}
	return http.StatusInternalServerError, codeInternal
}

package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	apiVersion        = "2.0"
	errorDomain       = "pickem"
	internalErrorText = "internal server error"
)

// envelope follows the Google JSON style guide: data on success, error on
// failure, and both for a 403 pool preview.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorKind struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

var errorKinds = []errorKind{
	{target: usecase.ErrInvalidInput, httpStatus: http.StatusBadRequest, reason: "invalidInput", status: "INVALID_ARGUMENT"},
	{target: usecase.ErrNotFound, httpStatus: http.StatusNotFound, reason: "notFound", status: "NOT_FOUND"},
	{target: usecase.ErrUnauthorized, httpStatus: http.StatusUnauthorized, reason: "unauthorized", status: "UNAUTHENTICATED"},
	{target: usecase.ErrForbidden, httpStatus: http.StatusForbidden, reason: "forbidden", status: "PERMISSION_DENIED"},
	{target: usecase.ErrConflict, httpStatus: http.StatusConflict, reason: "conflict", status: "FAILED_PRECONDITION"},
	{target: usecase.ErrDependencyUnavailable, httpStatus: http.StatusServiceUnavailable, reason: "dependencyUnavailable", status: "UNAVAILABLE"},
}

var internalKind = errorKind{httpStatus: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

func classifyError(err error) (errorKind, bool) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return kind, true
		}
	}
	return internalKind, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeErrorWithData(ctx, w, err, nil)
}

// writeErrorWithData sends an error envelope that still carries data, e.g. a
// pool preview for callers who may not see the roster. Errors that match no
// usecase sentinel are logged and answered with a generic 500.
func writeErrorWithData(ctx context.Context, w http.ResponseWriter, err error, data any) {
	kind, known := classifyError(err)
	message := internalErrorText
	if known {
		message = err.Error()
	} else {
		logging.Default().ErrorContext(ctx, "unhandled request error", "error", err)
	}

	writeJSON(w, kind.httpStatus, envelope{
		APIVersion: apiVersion,
		Data:       data,
		Error: &errorBody{
			Code:    kind.httpStatus,
			Message: message,
			Status:  kind.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: kind.reason, Message: message}},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeErrorWithData(ctx, w, errors.New(internalErrorText), nil)
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope wraps every JSON body the portal API returns.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	Meta      any    `json:"meta,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// fallbackBody is sent when an envelope cannot be encoded, so clients never
// see a success status over a truncated body.
const fallbackBody = `{"success":false,"error":{"code":"internal_error","message":"response encoding failed"}}`

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response failed", "err", err, "request_id", payload.RequestID)
		status = http.StatusInternalServerError
		body = []byte(fallbackBody)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Debug("write response failed", "err", err, "request_id", payload.RequestID)
	}
}

func ok(data, meta any, requestID string) Envelope {
	return Envelope{Success: true, Data: data, Meta: meta, RequestID: requestID}
}

func failure(code, message string, details any, requestID string) Envelope {
	return Envelope{Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, ok(data, nil, requestID))
}

func SuccessWithMeta(w http.ResponseWriter, data, meta any, requestID string) {
	WriteJSON(w, http.StatusOK, ok(data, meta, requestID))
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, ok(data, nil, requestID))
}

// Accepted reports work that continues after the response, such as a
// debounced search.
func Accepted(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusAccepted, ok(data, nil, requestID))
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, failure(code, message, nil, requestID))
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, failure(code, message, details, requestID))
}

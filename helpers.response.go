package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// CustomResponseWriter records the status code and the body size
// of a response for the access logs and the statistics.
type CustomResponseWriter struct {
	http.ResponseWriter
	status     int
	size       int
	headerSent bool
}

// NewCustomResponseWriter wraps rw. The status defaults to 200
// for handlers writing a body without calling WriteHeader.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{ResponseWriter: rw, status: http.StatusOK}
}

// WriteHeader forwards only the first status code.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if cw.headerSent {
		return
	}
	cw.status, cw.headerSent = code, true
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *CustomResponseWriter) Write(p []byte) (int, error) {
	if !cw.headerSent {
		cw.WriteHeader(cw.status)
	}
	n, err := cw.ResponseWriter.Write(p)
	cw.size += n
	return n, err
}

func (cw *CustomResponseWriter) Status() int { return cw.status }

func (cw *CustomResponseWriter) Bytes() int { return cw.size }

// Unwrap exposes the wrapped writer to http.ResponseController.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string `json:"requestid"`
	Status    int    `json:"-"`
	Message   string `json:"message"`
}

func NewAPIError(requestid string, status int, message string) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
	}
}

// MessageResponse is the data model sent when an operation only needs a confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// DescriptionResponse is the data model sent back with a generated description.
type DescriptionResponse struct {
	Description string `json:"description"`
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// RouteNotFoundResponse is sent for the requests matching no route.
type RouteNotFoundResponse struct {
	RequestID string `json:"requestid"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// UnavailableResponse is sent by the public endpoints during maintenance.
type UnavailableResponse struct {
	RequestID string `json:"requestid"`
	Message   string `json:"message"`
	Reason    string `json:"reason"`
	Since     string `json:"since"`
}

// MaintenanceResponse confirms a maintenance mode switch.
type MaintenanceResponse struct {
	RequestID   string           `json:"requestid"`
	Message     string           `json:"message"`
	Maintenance *MaintenanceInfo `json:"maintenance,omitempty"`
}

// StatsResponse is the data model of the ops statistics endpoint.
type StatsResponse struct {
	RequestID   string          `json:"requestid"`
	Version     string          `json:"app.version"`
	Container   bool            `json:"app.container"`
	Platform    string          `json:"app.platform"`
	GoVersion   string          `json:"go.version"`
	Called      uint64          `json:"called"`
	Started     string          `json:"started"`
	Uptime      string          `json:"uptime"`
	Maintenance MaintenanceInfo `json:"maintenance"`
	Status      map[int]uint64  `json:"status"`
}

// abortedStatus sets the status code to log when the request context is done before
// the response is sent: 504 on processing timeout and the Nginx non standard 499
// (Client Closed Request) when the client went away.
func abortedStatus(ctx context.Context, w http.ResponseWriter) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusGatewayTimeout)
	} else {
		w.WriteHeader(499)
	}
	return err
}

// WriteErrorResponse sends the error with its own status code.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	return WriteResponse(ctx, w, errResp.Status, errResp)
}

// WriteResponse sends data as json. Nothing is written but the status
// when the request context is already done.
func WriteResponse(ctx context.Context, w http.ResponseWriter, status int, data interface{}) error {
	if ctx.Err() != nil {
		return abortedStatus(ctx, w)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

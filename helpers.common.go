package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type ContextKey string

const (
	BookIDPrefix            string     = "b"
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	maxRequestBodySize      int64      = 1 << 20
)

// GetValueFromContext returns the string stored under key, or an empty string.
func GetValueFromContext(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestNumberFromContext returns the sequence number assigned to the
// request by the counter middleware, zero when none was set.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	n, _ := ctx.Value(RequestNumberContextKey).(uint64)
	return n
}

// DecodeRequestBody reads the json content of a request body into v.
func DecodeRequestBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &InputError{Message: "request body is required"}
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(v)
	if errors.Is(err, io.EOF) {
		return &InputError{Message: "request body is required"}
	}
	if err != nil {
		return &InputError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// GetQueryInt returns the integer value of a query parameter.
// It returns 0 when the parameter is absent or not a number.
func GetQueryInt(q url.Values, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(q.Get(key)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetRequestSourceIP returns the caller address. The proxy headers
// X-Real-IP then X-Forwarded-For are trusted before the connection
// remote address. An empty string means no valid IP was found.
func GetRequestSourceIP(r *http.Request) string {
	candidates := []string{r.Header.Get("X-Real-IP")}
	candidates = append(candidates, strings.Split(r.Header.Get("X-Forwarded-For"), ",")...)
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		candidates = append(candidates, host)
	}
	for _, c := range candidates {
		if ip := net.ParseIP(strings.TrimSpace(c)); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// IsAppRunningInDocker reports whether the docker marker file exists.
func IsAppRunningInDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

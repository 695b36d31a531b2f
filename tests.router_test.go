package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubBookService returns a book service which always succeeds with empty data.
func newStubBookService() *MockBookService {
	return &MockBookService{
		ListFunc: func(ctx context.Context, page, limit int64) (BookPage, error) {
			return BookPage{Books: []Book{}}, nil
		},
		SearchFunc: func(ctx context.Context, page, limit int64, term string) (BookPage, error) {
			return BookPage{Books: []Book{}}, nil
		},
		GetFunc: func(ctx context.Context, id string) (Book, error) {
			return Book{}, nil
		},
		CreateFunc: func(ctx context.Context, book Book) (Book, error) {
			return book, nil
		},
		UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
			return book, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
}

func newStubDescriptionService() *MockDescriptionService {
	return &MockDescriptionService{
		GenerateDescriptionFunc: func(ctx context.Context, input string) (string, error) {
			return "stub", nil
		},
	}
}

func emptyMiddlewareMap() *MiddlewareMap {
	return &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
}

// TestSetupBookRoutes ensures all expected book endpoints are implemented.
func TestSetupBookRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{"index endpoint", httptest.NewRequest(http.MethodGet, "/", nil), true},
		{"status endpoint", httptest.NewRequest(http.MethodGet, "/status", nil), true},
		{"list books endpoint", httptest.NewRequest(http.MethodGet, "/api/books", nil), true},
		{"list books endpoint with slash", httptest.NewRequest(http.MethodGet, "/api/books/", nil), true},
		{"search books endpoint", httptest.NewRequest(http.MethodGet, "/api/books/search?search=x", nil), true},
		{"create book endpoint", httptest.NewRequest(http.MethodPost, "/api/books", nil), true},
		{"describe endpoint", httptest.NewRequest(http.MethodPost, "/api/books/chat-ai", nil), true},
		{"update book endpoint", httptest.NewRequest(http.MethodPut, "/api/books/b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", nil), true},
		{"delete book endpoint", httptest.NewRequest(http.MethodDelete, "/api/books/b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", nil), true},
		{"fetch single book endpoint", httptest.NewRequest(http.MethodGet, "/api/books/b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", nil), false},
		{"invalid api endpoint", httptest.NewRequest(http.MethodGet, "/api", nil), false},
		{"invalid books endpoint", httptest.NewRequest(http.MethodGet, "/books", nil), false},
	}

	api := newTestAPIHandler(newStubBookService(), newStubDescriptionService())
	router := httprouter.New()
	api.SetupBookRoutes(router, emptyMiddlewareMap())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, http.StatusNotFound, w.Code)
				assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)
			} else {
				assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		profiler    bool
		request     *http.Request
		implemented bool
	}{
		{"fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"fetch stats endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/stats", nil), true},
		{"maintenance mode endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=disable", nil), true},
		{"memory stats endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops", nil), false},
		{"unknown ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/unknown", nil), false},
		{"disabled profiler endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"enabled profiler index endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), true},
		{"enabled profiler heap endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/heap", nil), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(newStubBookService(), newStubDescriptionService())
			api.config.ProfilerEndpointsEnable = tc.profiler
			router := httprouter.New()
			api.SetupOpsRoutes(router, emptyMiddlewareMap())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, http.StatusNotFound, w.Code)
			} else {
				assert.Equal(t, http.StatusNotFound, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only served when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{"ops disable:fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), false},
		{"ops enable:fetch configs endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"ops enable:disabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"ops disable:list books endpoint", false, httptest.NewRequest(http.MethodGet, "/api/books", nil), true},
		{"ops enable:list books endpoint", true, httptest.NewRequest(http.MethodGet, "/api/books", nil), true},
		{"swagger endpoint", false, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/", nil), false},
		{"invalid book endpoint", false, httptest.NewRequest(http.MethodGet, "/books/", nil), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(newStubBookService(), newStubDescriptionService())
			api.config.OpsEndpointsEnable = tc.OpsEndpointsEnable
			router := api.SetupRoutes(httprouter.New(), emptyMiddlewareMap())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, http.StatusNotFound, w.Code)
			} else {
				assert.Equal(t, http.StatusNotFound, w.Code)
			}
		})
	}
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	router := api.SetupRoutes(httprouter.New(), emptyMiddlewareMap())
	r := httptest.NewRequest(http.MethodGet, "/x/books/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"requestid":"r:abc", "message":"route does not exist", "path":"GET /x/books/"}`
	assert.JSONEq(t, expected, string(data))
}

// TestSetupRoutes_Preflight ensures cors preflight requests are answered.
func TestSetupRoutes_Preflight(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	router := api.SetupRoutes(httprouter.New(), emptyMiddlewareMap())
	r := httptest.NewRequest(http.MethodOptions, "/api/books/b:1", nil)
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

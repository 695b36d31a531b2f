package main

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

var goroutines = expvar.NewInt("goroutines")

// OpsHandlerWrapper adapts a standard handler to the router handle signature.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

// profilerHandlers maps each profiler endpoint suffix to its handler.
func profilerHandlers() map[string]http.Handler {
	handlers := map[string]http.Handler{
		"":        http.HandlerFunc(pprof.Index),
		"profile": http.HandlerFunc(pprof.Profile),
		"trace":   http.HandlerFunc(pprof.Trace),
		"symbol":  http.HandlerFunc(pprof.Symbol),
		"cmdline": http.HandlerFunc(pprof.Cmdline),
	}
	for _, name := range []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"} {
		handlers[name] = pprof.Handler(name)
	}
	return handlers
}

// opsReply sends an ops endpoint response and logs a failed write.
func (api *APIHandler) opsReply(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := WriteResponse(r.Context(), w, status, data); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send ops response", zap.String("request.path", r.URL.Path), zap.Error(err))
	}
}

// Maintenance switches the maintenance mode.
//
//	/ops/maintenance?status=enable&msg=<reason shown to the users>
//	/ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	q := r.URL.Query()

	switch q.Get("status") {
	case "enable":
		api.mode.Enable(q.Get("msg"), api.clock.Now().UTC())
		info := api.mode.Info()
		logger.Info("maintenance mode enabled", zap.String("maintenance.message", info.Message))
		api.opsReply(w, r, http.StatusOK, MaintenanceResponse{
			RequestID:   requestID,
			Message:     "Maintenance mode enabled successfully.",
			Maintenance: &info,
		})
	case "disable":
		api.mode.Disable()
		logger.Info("maintenance mode disabled")
		api.opsReply(w, r, http.StatusOK, MaintenanceResponse{
			RequestID: requestID,
			Message:   "Maintenance mode disabled successfully.",
		})
	default:
		api.opsReply(w, r, http.StatusBadRequest, NewAPIError(requestID, http.StatusBadRequest, "status query parameter must be enable or disable"))
	}
}

// GetMemStats serves the expvar variables, memstats included.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC triggers a garbage collection in the background.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	api.opsReply(w, r, http.StatusOK, map[string]string{"called": "go runtime.GC()"})
}

// FreeOSMemory triggers in the background a garbage collection
// returning as much memory as possible to the operating system.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	api.opsReply(w, r, http.StatusOK, map[string]string{"called": "go debug.FreeOSMemory()"})
}

// GetStatistics reports the App counters. The request serving the
// statistics is left out of the called counter.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	called := api.stats.calls()
	if called > 0 {
		called--
	}
	api.opsReply(w, r, http.StatusOK, StatsResponse{
		RequestID:   GetValueFromContext(r.Context(), RequestIDContextKey),
		Version:     api.stats.version,
		Container:   api.stats.container,
		Platform:    api.stats.platform,
		GoVersion:   api.stats.runtime,
		Called:      called,
		Started:     api.stats.started.Format(time.RFC1123),
		Uptime:      api.stats.uptime(api.clock.Now()),
		Maintenance: api.mode.Info(),
		Status:      api.stats.statusCounts(),
	})
}

// GetConfigs serves the configuration in use. Secrets are never serialized.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.opsReply(w, r, http.StatusOK, map[string]interface{}{"configs": api.config})
}

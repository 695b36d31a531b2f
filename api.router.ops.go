package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupOpsRoutes injects the internal operations endpoints. They run behind
// the ops middlewares so the maintenance mode never blocks them.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	routes := map[string]httprouter.Handle{
		"/ops/configs":     api.GetConfigs,
		"/ops/stats":       api.GetStatistics,
		"/ops/maintenance": api.Maintenance,
		"/ops/debug/vars":  GetMemStats,
		"/ops/debug/gc":    api.RunGC,
		"/ops/debug/fos":   api.FreeOSMemory,
	}
	if api.config.ProfilerEndpointsEnable {
		for name, h := range profilerHandlers() {
			routes["/ops/debug/pprof/"+name] = api.OpsHandlerWrapper(h)
		}
	}
	for path, handle := range routes {
		router.GET(path, m.ops(handle))
	}
	return router
}

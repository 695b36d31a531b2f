package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the catalog endpoints. A book is not fetched
// by id over http, its path would conflict with the search endpoint.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/api/books", m.public(api.GetAllBooks))
	router.GET("/api/books/search", m.public(api.SearchBooks))
	router.POST("/api/books", m.public(api.CreateBook))
	router.POST("/api/books/chat-ai", m.public(api.GenerateDescription))
	router.PUT("/api/books/:id", m.public(api.UpdateBook))
	router.DELETE("/api/books/:id", m.public(api.DeleteOneBook))
	return router
}

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// DescribeRequest is the payload of the description generation endpoint.
type DescribeRequest struct {
	Input string `json:"input"`
}

// sendError maps err to its response status and message then sends it.
// Server side failures are logged at error level with their cause.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	status, message := StatusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Int("response.status", status), zap.Error(err))
	} else {
		logger.Info(msg, zap.Int("response.status", status), zap.String("reason", err.Error()))
	}
	if err = WriteErrorResponse(r.Context(), w, NewAPIError(requestID, status, message)); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}

func (api *APIHandler) send(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := WriteResponse(r.Context(), w, status, data); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Error(err))
	}
}

// GetAllBooks godoc
// @Summary      List books
// @Description  Returns one page of the catalog in insertion order.
// @Tags         books
// @Produce      json
// @Param        page   query     int  false  "page number"  default(1)
// @Param        limit  query     int  false  "page size"    default(10)
// @Success      200    {object}  BookPage
// @Failure      500    {object}  APIError
// @Router       /api/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	page, err := api.bookService.List(r.Context(), GetQueryInt(q, "page"), GetQueryInt(q, "limit"))
	if err != nil {
		api.sendError(w, r, "failed to list books", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Debug("success to list books", zap.Int("books.count", len(page.Books)))
	api.send(w, r, http.StatusOK, page)
}

// SearchBooks godoc
// @Summary      Search books
// @Description  Returns one page of the books whose title or authors contain the search term, ignoring case.
// @Tags         books
// @Produce      json
// @Param        search query     string  true   "search term"
// @Param        page   query     int     false  "page number"  default(1)
// @Param        limit  query     int     false  "page size"    default(10)
// @Success      200    {object}  BookPage
// @Failure      400    {object}  APIError
// @Failure      500    {object}  APIError
// @Router       /api/books/search [get]
func (api *APIHandler) SearchBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	page, err := api.bookService.Search(r.Context(), GetQueryInt(q, "page"), GetQueryInt(q, "limit"), q.Get("search"))
	if err != nil {
		api.sendError(w, r, "failed to search books", err)
		return
	}
	api.send(w, r, http.StatusOK, page)
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Stores a new book. The pair of title and authors must be unique.
// @Description  Book records carry their identifier under the "id" key, not "_id".
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book  body      BookRequest  true  "book to create"
// @Success      201   {object}  Book
// @Failure      400   {object}  APIError
// @Failure      409   {object}  APIError
// @Failure      500   {object}  APIError
// @Router       /api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req BookRequest
	if err := DecodeRequestBody(w, r, &req); err != nil {
		api.sendError(w, r, "failed to decode book", err)
		return
	}
	book, err := api.bookService.Create(r.Context(), req.Normalize())
	if err != nil {
		api.sendError(w, r, "failed to create book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create book", zap.String("book.id", book.ID))
	api.send(w, r, http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Replaces all the fields of an existing book.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "book id"
// @Param        book  body      BookRequest  true  "new book content"
// @Success      200   {object}  Book
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Failure      409   {object}  APIError
// @Failure      500   {object}  APIError
// @Router       /api/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	var req BookRequest
	if err := DecodeRequestBody(w, r, &req); err != nil {
		api.sendError(w, r, "failed to decode book", err)
		return
	}
	book, err := api.bookService.Update(r.Context(), id, req.Normalize())
	if err != nil {
		api.sendError(w, r, "failed to update book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update book", zap.String("book.id", id))
	api.send(w, r, http.StatusOK, book)
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "book id"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /api/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := api.bookService.Delete(r.Context(), id); err != nil {
		api.sendError(w, r, "failed to delete book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete book", zap.String("book.id", id))
	api.send(w, r, http.StatusOK, MessageResponse{Message: "Book deleted"})
}

// GenerateDescription godoc
// @Summary      Generate a book description
// @Description  Asks the text generation provider for a description of the input.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        request  body      DescribeRequest  true  "text to describe"
// @Success      200      {object}  DescriptionResponse
// @Failure      400      {object}  APIError
// @Failure      500      {object}  APIError
// @Router       /api/books/chat-ai [post]
func (api *APIHandler) GenerateDescription(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req DescribeRequest
	if err := DecodeRequestBody(w, r, &req); err != nil {
		api.sendError(w, r, "failed to decode description request", err)
		return
	}
	description, err := api.descService.GenerateDescription(r.Context(), req.Input)
	if err != nil {
		api.sendError(w, r, "failed to generate description", err)
		return
	}
	api.send(w, r, http.StatusOK, DescriptionResponse{Description: description})
}

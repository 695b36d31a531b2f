package main

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultPageLimit int64 = 10
	maxPageLimit     int64 = 100
)

// BookServiceProvider defines the catalog business operations.
type BookServiceProvider interface {
	List(ctx context.Context, page, limit int64) (BookPage, error)
	Search(ctx context.Context, page, limit int64, term string) (BookPage, error)
	Get(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id string, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
}

type BookService struct {
	logger  *zap.Logger
	config  *CatalogConfig
	storage BookStorage
	queue   Queuer
}

// NewBookService provides the catalog service. The queue receives every
// successful write for replication, a nil queue disables it.
func NewBookService(logger *zap.Logger, config *CatalogConfig, storage BookStorage, queue Queuer) BookServiceProvider {
	if config == nil {
		config = &CatalogConfig{DefaultLimit: defaultPageLimit, MaxLimit: maxPageLimit}
	}
	if queue == nil {
		queue = noopQueue{}
	}
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
		queue:   queue,
	}
}

// paging coerces the requested page and limit. Page starts at 1 and
// an out of range limit falls back to the default or is capped.
func (bs *BookService) paging(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = bs.config.DefaultLimit
	}
	if limit > bs.config.MaxLimit {
		limit = bs.config.MaxLimit
	}
	return page, limit
}

func (bs *BookService) page(ctx context.Context, filter BookFilter, page, limit int64) (BookPage, int64, error) {
	page, limit = bs.paging(page, limit)
	books := []Book{}
	// Pages whose offset does not fit in int64 are past the end anyway.
	if page-1 <= math.MaxInt64/limit {
		var err error
		books, err = bs.storage.Find(ctx, filter, (page-1)*limit, limit)
		if err != nil {
			return BookPage{}, 0, storeError("find", err)
		}
	}
	total, err := bs.storage.Count(ctx, filter)
	if err != nil {
		return BookPage{}, 0, storeError("count", err)
	}
	return BookPage{
		Books:       books,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, total, nil
}

// List returns a page of the whole catalog.
func (bs *BookService) List(ctx context.Context, page, limit int64) (BookPage, error) {
	p, _, err := bs.page(ctx, BookFilter{}, page, limit)
	return p, err
}

// Search returns a page of the books whose title or authors contain the term.
func (bs *BookService) Search(ctx context.Context, page, limit int64, term string) (BookPage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return BookPage{}, &InputError{Message: "Please provide a search query"}
	}
	p, total, err := bs.page(ctx, BookFilter{Term: term}, page, limit)
	if err != nil {
		return p, err
	}
	p.TotalBooks = &total
	return p, nil
}

// Get retrieves a single book.
func (bs *BookService) Get(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	if err != nil {
		return book, classify("get", err)
	}
	return book, nil
}

// Create validates and stores a new book. A book with the same
// title and authors must not exist yet.
func (bs *BookService) Create(ctx context.Context, book Book) (Book, error) {
	book.ID = ""
	if err := book.Validate(); err != nil {
		return book, err
	}

	_, err := bs.storage.FindByTitleAndAuthors(ctx, book.Title, book.Authors)
	if err == nil {
		return book, ErrConflict
	}
	if !errors.Is(err, ErrBookNotFound) {
		return book, storeError("find by title and authors", err)
	}

	created, err := bs.storage.Add(ctx, book)
	if err != nil {
		return book, classify("add", err)
	}
	bs.publish(ctx, CreateQueue, created)
	return created, nil
}

// Update replaces all the mutable fields of an existing book.
func (bs *BookService) Update(ctx context.Context, id string, book Book) (Book, error) {
	if _, err := bs.storage.GetOne(ctx, id); err != nil {
		return book, classify("get", err)
	}
	book.ID = id
	if err := book.Validate(); err != nil {
		return book, err
	}

	updated, err := bs.storage.Update(ctx, id, book)
	if err != nil {
		return book, classify("update", err)
	}
	bs.publish(ctx, UpdateQueue, updated)
	return updated, nil
}

// Delete removes an existing book.
func (bs *BookService) Delete(ctx context.Context, id string) error {
	if _, err := bs.storage.GetOne(ctx, id); err != nil {
		return classify("get", err)
	}
	if err := bs.storage.Delete(ctx, id); err != nil {
		return classify("delete", err)
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

// classify keeps the domain errors reported by the stores
// and turns any other failure into a store error.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrBookNotFound):
		return ErrBookNotFound
	case errors.Is(err, ErrBookExists):
		return ErrConflict
	default:
		return storeError(op, err)
	}
}

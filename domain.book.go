package main

import (
	"context"
	"strings"
)

// Book represents a book entity.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	PublicationDate string `json:"publication_date"`
	Publisher       string `json:"publisher"`
	Price           string `json:"price"`
	Description     string `json:"description"`
}

// Validate checks that all required fields are set. It reports
// the first missing field in the order they appear on the record.
func (b *Book) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", b.Title},
		{"authors", b.Authors},
		{"publication_date", b.PublicationDate},
		{"publisher", b.Publisher},
		{"price", b.Price},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	return nil
}

// BookRequest is the payload accepted on book creation and update.
// The `author` and `year` keys are legacy aliases still sent by the
// web client on creation.
type BookRequest struct {
	Title           string `json:"title" yaml:"title"`
	Authors         string `json:"authors" yaml:"authors"`
	Author          string `json:"author" yaml:"author"`
	PublicationDate string `json:"publication_date" yaml:"publication_date"`
	Year            string `json:"year" yaml:"year"`
	Publisher       string `json:"publisher" yaml:"publisher"`
	Price           string `json:"price" yaml:"price"`
	Description     string `json:"description" yaml:"description"`
}

// Normalize builds the canonical book from the request. Canonical
// keys take precedence over their aliases.
func (br *BookRequest) Normalize() Book {
	authors := strings.TrimSpace(br.Authors)
	if authors == "" {
		authors = strings.TrimSpace(br.Author)
	}
	published := strings.TrimSpace(br.PublicationDate)
	if published == "" {
		published = strings.TrimSpace(br.Year)
	}
	return Book{
		Title:           strings.TrimSpace(br.Title),
		Authors:         authors,
		PublicationDate: published,
		Publisher:       strings.TrimSpace(br.Publisher),
		Price:           strings.TrimSpace(br.Price),
		Description:     br.Description,
	}
}

// BookFilter narrows a listing. An empty term matches every book,
// otherwise a book matches when its title or authors contain the
// term, ignoring case.
type BookFilter struct {
	Term string
}

// Match reports whether the book satisfies the filter.
func (f BookFilter) Match(b Book) bool {
	if f.Term == "" {
		return true
	}
	term := strings.ToLower(f.Term)
	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Authors), term)
}

// BookPage is one page of a listing or a search.
type BookPage struct {
	Books       []Book `json:"books"`
	TotalPages  int64  `json:"totalPages"`
	CurrentPage int64  `json:"currentPage"`
	TotalBooks  *int64 `json:"totalBooks,omitempty"`
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Find(ctx context.Context, filter BookFilter, skip, take int64) ([]Book, error)
	Count(ctx context.Context, filter BookFilter) (int64, error)
	FindByTitleAndAuthors(ctx context.Context, title, authors string) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Add(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id string, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
}

// uniqueKey builds the value used by the stores to enforce
// the uniqueness of the (title, authors) pair.
func uniqueKey(title, authors string) string {
	return title + "\x00" + authors
}

// pageWindow returns the [start, end) bounds of a skip/take
// window over n items. A negative skip counts as zero.
func pageWindow(n, skip, take int64) (int64, int64) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 || skip >= n {
		return n, n
	}
	end := skip + take
	if end > n {
		end = n
	}
	return skip, end
}

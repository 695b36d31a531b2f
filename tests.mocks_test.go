package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	FindFunc                  func(ctx context.Context, filter BookFilter, skip, take int64) ([]Book, error)
	CountFunc                 func(ctx context.Context, filter BookFilter) (int64, error)
	FindByTitleAndAuthorsFunc func(ctx context.Context, title, authors string) (Book, error)
	GetOneFunc                func(ctx context.Context, id string) (Book, error)
	AddFunc                   func(ctx context.Context, book Book) (Book, error)
	UpdateFunc                func(ctx context.Context, id string, book Book) (Book, error)
	DeleteFunc                func(ctx context.Context, id string) error
}

// Find mocks the behavior of retrieving a window of books by the repository.
func (m *MockBookStorage) Find(ctx context.Context, filter BookFilter, skip, take int64) ([]Book, error) {
	return m.FindFunc(ctx, filter, skip, take)
}

// Count mocks the behavior of counting books by the repository.
func (m *MockBookStorage) Count(ctx context.Context, filter BookFilter) (int64, error) {
	return m.CountFunc(ctx, filter)
}

// FindByTitleAndAuthors mocks the lookup of a book by its unique pair.
func (m *MockBookStorage) FindByTitleAndAuthors(ctx context.Context, title, authors string) (Book, error) {
	return m.FindByTitleAndAuthorsFunc(ctx, title, authors)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	return m.AddFunc(ctx, book)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return m.UpdateFunc(ctx, id, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return mq.PushFunc(ctx, qid, book)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockBookService implements a fake BookServiceProvider.
type MockBookService struct {
	ListFunc   func(ctx context.Context, page, limit int64) (BookPage, error)
	SearchFunc func(ctx context.Context, page, limit int64, term string) (BookPage, error)
	GetFunc    func(ctx context.Context, id string) (Book, error)
	CreateFunc func(ctx context.Context, book Book) (Book, error)
	UpdateFunc func(ctx context.Context, id string, book Book) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (ms *MockBookService) List(ctx context.Context, page, limit int64) (BookPage, error) {
	return ms.ListFunc(ctx, page, limit)
}

func (ms *MockBookService) Search(ctx context.Context, page, limit int64, term string) (BookPage, error) {
	return ms.SearchFunc(ctx, page, limit, term)
}

func (ms *MockBookService) Get(ctx context.Context, id string) (Book, error) {
	return ms.GetFunc(ctx, id)
}

func (ms *MockBookService) Create(ctx context.Context, book Book) (Book, error) {
	return ms.CreateFunc(ctx, book)
}

func (ms *MockBookService) Update(ctx context.Context, id string, book Book) (Book, error) {
	return ms.UpdateFunc(ctx, id, book)
}

func (ms *MockBookService) Delete(ctx context.Context, id string) error {
	return ms.DeleteFunc(ctx, id)
}

// MockTextGenerator implements a fake TextGenerator.
type MockTextGenerator struct {
	GenerateFunc func(ctx context.Context, prompt Prompt, maxTokens int) (string, error)
}

func (mg *MockTextGenerator) Generate(ctx context.Context, prompt Prompt, maxTokens int) (string, error) {
	return mg.GenerateFunc(ctx, prompt, maxTokens)
}

// MockDescriptionService implements a fake DescriptionServiceProvider.
type MockDescriptionService struct {
	GenerateDescriptionFunc func(ctx context.Context, input string) (string, error)
}

func (md *MockDescriptionService) GenerateDescription(ctx context.Context, input string) (string, error) {
	return md.GenerateDescriptionFunc(ctx, input)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

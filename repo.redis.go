package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keys holding the catalog.
const (
	HBooks      string = "books"       // id -> book json
	HBooksKeys  string = "books:keys"  // title+authors -> id
	ZBooksOrder string = "books:order" // ids scored by insertion sequence
	KBooksSeq   string = "books:seq"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	ids    UIDHandler
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, ids UIDHandler) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		ids:    ids,
	}
}

// GetRedisClient connects to the configured redis server. The connection
// is checked with a PING bounded by the dial timeout.
func GetRedisClient(config *Config) (*redis.Client, error) {
	rc := config.Redis
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(rc.Host, rc.Port),
		Username:     rc.Username,
		Password:     rc.Password,
		DB:           rc.DatabaseIndex,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		PoolSize:     rc.PoolSize,
		PoolTimeout:  rc.PoolTimeout,
	})

	ctx := context.Background()
	if rc.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book record. The (title, authors) pair is reserved
// first with HSETNX so two concurrent inserts cannot both succeed.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	if book.ID == "" {
		book.ID = rs.ids.Generate(BookIDPrefix)
	}
	key := uniqueKey(book.Title, book.Authors)
	reserved, err := rs.client.HSetNX(ctx, HBooksKeys, key, book.ID).Result()
	if err != nil {
		return book, err
	}
	if !reserved {
		return book, ErrBookExists
	}

	bookBytes, err := json.Marshal(book)
	if err != nil {
		rs.release(ctx, key)
		return book, err
	}
	seq, err := rs.client.Incr(ctx, KBooksSeq).Result()
	if err != nil {
		rs.release(ctx, key)
		return book, err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HBooks, book.ID, bookBytes)
		pipe.ZAdd(ctx, ZBooksOrder, redis.Z{Score: float64(seq), Member: book.ID})
		return nil
	})
	if err != nil {
		rs.release(ctx, key)
	}
	return book, err
}

// release frees a reserved (title, authors) pair after a failed write.
func (rs *redisBookStorage) release(ctx context.Context, key string) {
	if err := rs.client.HDel(ctx, HBooksKeys, key).Err(); err != nil {
		rs.logger.Error("redis: failed to release book key", zap.Error(err))
	}
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	if !rs.ids.IsValid(id, BookIDPrefix) {
		return book, ErrBookNotFound
	}
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// FindByTitleAndAuthors retrieves the book owning the exact (title, authors) pair.
func (rs *redisBookStorage) FindByTitleAndAuthors(ctx context.Context, title, authors string) (Book, error) {
	id, err := rs.client.HGet(ctx, HBooksKeys, uniqueKey(title, authors)).Result()
	if err == redis.Nil {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return rs.GetOne(ctx, id)
}

// Update replaces an existing book record data. Moving the record to a
// (title, authors) pair owned by another book fails with ErrBookExists.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	current, err := rs.GetOne(ctx, id)
	if err != nil {
		return book, err
	}
	book.ID = id

	oldKey := uniqueKey(current.Title, current.Authors)
	newKey := uniqueKey(book.Title, book.Authors)
	reserved := false
	if oldKey != newKey {
		reserved, err = rs.client.HSetNX(ctx, HBooksKeys, newKey, id).Result()
		if err != nil {
			return book, err
		}
		if !reserved {
			owner, err := rs.client.HGet(ctx, HBooksKeys, newKey).Result()
			if err != nil && err != redis.Nil {
				return book, err
			}
			if owner != id {
				return book, ErrBookExists
			}
		}
	}

	bookBytes, err := json.Marshal(book)
	if err != nil {
		if reserved {
			rs.release(ctx, newKey)
		}
		return book, err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HBooks, id, bookBytes)
		if oldKey != newKey {
			pipe.HDel(ctx, HBooksKeys, oldKey)
		}
		return nil
	})
	if err != nil && reserved {
		rs.release(ctx, newKey)
	}
	return book, err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	current, err := rs.GetOne(ctx, id)
	if err != nil {
		return err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, HBooks, id)
		pipe.ZRem(ctx, ZBooksOrder, id)
		pipe.HDel(ctx, HBooksKeys, uniqueKey(current.Title, current.Authors))
		return nil
	})
	return err
}

// Find returns a window of books in insertion order. Unfiltered listings
// are paged by redis itself, filtered ones are matched in process.
func (rs *redisBookStorage) Find(ctx context.Context, filter BookFilter, skip, take int64) ([]Book, error) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		return []Book{}, nil
	}
	if filter.Term == "" {
		ids, err := rs.client.ZRange(ctx, ZBooksOrder, skip, skip+take-1).Result()
		if err != nil {
			return nil, err
		}
		return rs.load(ctx, ids, filter)
	}
	books, err := rs.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	start, end := pageWindow(int64(len(books)), skip, take)
	return books[start:end], nil
}

// Count returns the number of books satisfying the filter.
func (rs *redisBookStorage) Count(ctx context.Context, filter BookFilter) (int64, error) {
	if filter.Term == "" {
		return rs.client.ZCard(ctx, ZBooksOrder).Result()
	}
	books, err := rs.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(books)), nil
}

func (rs *redisBookStorage) matching(ctx context.Context, filter BookFilter) ([]Book, error) {
	ids, err := rs.client.ZRange(ctx, ZBooksOrder, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return rs.load(ctx, ids, filter)
}

// load fetches the books of the given ids keeping their order. Ids
// removed in the meantime are skipped.
func (rs *redisBookStorage) load(ctx context.Context, ids []string, filter BookFilter) ([]Book, error) {
	books := []Book{}
	if len(ids) == 0 {
		return books, nil
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		bookJSONString, ok := v.(string)
		if !ok {
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		if filter.Match(book) {
			books = append(books, book)
		}
	}
	return books, nil
}

// DeleteAll wipes every catalog key.
func (rs *redisBookStorage) DeleteAll(ctx context.Context) error {
	err := rs.client.Del(ctx, HBooks, HBooksKeys, ZBooksOrder, KBooksSeq).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

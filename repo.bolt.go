package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// boltRecord is the stored form of a book. The sequence
// locates the book entry into the order bucket.
type boltRecord struct {
	Seq uint64 `json:"seq"`
	Book
}

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	ids    UIDHandler
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range boltBuckets(config.BoltDB.BucketName) {
			if _, errB := tx.CreateBucketIfNotExists(name); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// boltBuckets returns the books, keys and order buckets names.
func boltBuckets(name string) [3][]byte {
	return [3][]byte{[]byte(name), []byte(name + ".keys"), []byte(name + ".order")}
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB, ids UIDHandler) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
		ids:    ids,
	}
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

func (bs *boltBookStorage) buckets(tx *bolt.Tx) (books, keys, order *bolt.Bucket) {
	names := boltBuckets(bs.config.BucketName)
	return tx.Bucket(names[0]), tx.Bucket(names[1]), tx.Bucket(names[2])
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// Add inserts a new book record into boltdb store. The uniqueness check
// and the insertion run into the same write transaction.
func (bs *boltBookStorage) Add(_ context.Context, book Book) (Book, error) {
	if book.ID == "" {
		book.ID = bs.ids.Generate(BookIDPrefix)
	}
	err := bs.client.Update(func(tx *bolt.Tx) error {
		books, keys, order := bs.buckets(tx)
		key := []byte(uniqueKey(book.Title, book.Authors))
		if keys.Get(key) != nil {
			return ErrBookExists
		}
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		recordBytes, err := json.Marshal(boltRecord{Seq: seq, Book: book})
		if err != nil {
			return err
		}
		if err = books.Put([]byte(book.ID), recordBytes); err != nil {
			return err
		}
		if err = keys.Put(key, []byte(book.ID)); err != nil {
			return err
		}
		return order.Put(seqKey(seq), []byte(book.ID))
	})
	return book, err
}

func (bs *boltBookStorage) getRecord(books *bolt.Bucket, id string) (boltRecord, error) {
	var record boltRecord
	result := books.Get([]byte(id))
	if result == nil {
		return record, ErrBookNotFound
	}
	err := json.Unmarshal(result, &record)
	return record, err
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	var book Book
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return book, ErrBookNotFound
	}
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, err
	}
	defer tx.Rollback()

	books, _, _ := bs.buckets(tx)
	record, err := bs.getRecord(books, id)
	return record.Book, err
}

// FindByTitleAndAuthors retrieves the book owning the exact (title, authors) pair.
func (bs *boltBookStorage) FindByTitleAndAuthors(_ context.Context, title, authors string) (Book, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback()

	books, keys, _ := bs.buckets(tx)
	id := keys.Get([]byte(uniqueKey(title, authors)))
	if id == nil {
		return Book{}, ErrBookNotFound
	}
	record, err := bs.getRecord(books, string(id))
	return record.Book, err
}

// Update replaces existing book record data.
func (bs *boltBookStorage) Update(_ context.Context, id string, book Book) (Book, error) {
	book.ID = id
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return book, ErrBookNotFound
	}
	err := bs.client.Update(func(tx *bolt.Tx) error {
		books, keys, _ := bs.buckets(tx)
		current, err := bs.getRecord(books, id)
		if err != nil {
			return err
		}
		oldKey := []byte(uniqueKey(current.Title, current.Authors))
		newKey := []byte(uniqueKey(book.Title, book.Authors))
		if !bytes.Equal(oldKey, newKey) {
			if owner := keys.Get(newKey); owner != nil && string(owner) != id {
				return ErrBookExists
			}
			if err = keys.Delete(oldKey); err != nil {
				return err
			}
			if err = keys.Put(newKey, []byte(id)); err != nil {
				return err
			}
		}
		recordBytes, err := json.Marshal(boltRecord{Seq: current.Seq, Book: book})
		if err != nil {
			return err
		}
		return books.Put([]byte(id), recordBytes)
	})
	return book, err
}

// Delete removes a book record based on its ID from boltdb store.
func (bs *boltBookStorage) Delete(_ context.Context, id string) error {
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return ErrBookNotFound
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		books, keys, order := bs.buckets(tx)
		current, err := bs.getRecord(books, id)
		if err != nil {
			return err
		}
		if err = keys.Delete([]byte(uniqueKey(current.Title, current.Authors))); err != nil {
			return err
		}
		if err = order.Delete(seqKey(current.Seq)); err != nil {
			return err
		}
		return books.Delete([]byte(id))
	})
}

// Find walks the order bucket and returns the matching books window.
func (bs *boltBookStorage) Find(_ context.Context, filter BookFilter, skip, take int64) ([]Book, error) {
	if skip < 0 {
		skip = 0
	}
	result := []Book{}
	if take <= 0 {
		return result, nil
	}
	err := bs.client.View(func(tx *bolt.Tx) error {
		books, _, order := bs.buckets(tx)
		var matched int64
		c := order.Cursor()
		for k, id := c.First(); k != nil && int64(len(result)) < take; k, id = c.Next() {
			record, err := bs.getRecord(books, string(id))
			if err != nil {
				return err
			}
			if !filter.Match(record.Book) {
				continue
			}
			matched++
			if matched > skip {
				result = append(result, record.Book)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of books satisfying the filter.
func (bs *boltBookStorage) Count(_ context.Context, filter BookFilter) (int64, error) {
	var total int64
	err := bs.client.View(func(tx *bolt.Tx) error {
		books, _, _ := bs.buckets(tx)
		if filter.Term == "" {
			total = int64(books.Stats().KeyN)
			return nil
		}
		return books.ForEach(func(_, v []byte) error {
			var record boltRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			if filter.Match(record.Book) {
				total++
			}
			return nil
		})
	})
	return total, err
}

// DeleteAll empties the books buckets.
func (bs *boltBookStorage) DeleteAll(_ context.Context) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		for _, name := range boltBuckets(bs.config.BucketName) {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Replication queues, one per kind of write.
const (
	CreateQueue = "creation"
	UpdateQueue = "updating"
	DeleteQueue = "deletion"
)

var _ Queuer = (*redisQueue)(nil)

// Queuer carries the books written on the primary store to the replica.
type Queuer interface {
	Push(ctx context.Context, qid string, book Book) error
	Pop(ctx context.Context, qids ...string) (string, Book, error)
}

// redisQueue keeps each queue as a redis list of json encoded books.
type redisQueue struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisQueue provides a redis lists based queue. The timeout bounds
// each blocking pop, zero means wait forever.
func NewRedisQueue(client *redis.Client, timeout time.Duration) Queuer {
	return &redisQueue{client: client, timeout: timeout}
}

func (q *redisQueue) Push(ctx context.Context, qid string, book Book) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, payload).Err()
}

// Pop waits for the first book available on any of the queues, checked in
// the given order. It returns redis.Nil when the timeout elapsed.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	var book Book
	kv, err := q.client.BLPop(ctx, q.timeout, qids...).Result()
	if err != nil {
		return "", book, err
	}
	if err = json.Unmarshal([]byte(kv[1]), &book); err != nil {
		return kv[0], book, fmt.Errorf("queue %s: malformed book: %w", kv[0], err)
	}
	return kv[0], book, nil
}

// noopQueue is used when replication is disabled.
type noopQueue struct{}

func (noopQueue) Push(context.Context, string, Book) error { return nil }

func (noopQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	<-ctx.Done()
	return "", Book{}, ctx.Err()
}

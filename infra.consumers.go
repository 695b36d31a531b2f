package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Consumer drains replication queues until its context is done.
type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// popRetryDelay is the pause after a failed pop before the next attempt.
const popRetryDelay = time.Second

// boltDBConsumer replays the primary store writes into the boltdb replica.
type boltDBConsumer struct {
	logger     *zap.Logger
	queue      Queuer
	replica    BookStorage
	retryDelay time.Duration
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, replica BookStorage) Consumer {
	return &boltDBConsumer{logger: logger, queue: q, replica: replica, retryDelay: popRetryDelay}
}

// Consume applies the popped books one by one. Pop failures are logged
// and retried after a pause, only the context ends it.
func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	bc.logger.Info("consumer: replication started", zap.Strings("qids", qids))
	for {
		qid, book, err := bc.queue.Pop(ctx, qids...)
		switch {
		case ctx.Err() != nil:
			bc.logger.Info("consumer: replication stopped", zap.NamedError("reason", ctx.Err()))
			return nil
		case errors.Is(err, redis.Nil):
			// every queue stayed empty until the pop timeout.
		case err != nil:
			bc.logger.Error("consumer: failed to pop from queues", zap.Error(err), zap.Duration("retry.in", bc.retryDelay))
			select {
			case <-ctx.Done():
			case <-time.After(bc.retryDelay):
			}
		default:
			bc.apply(ctx, qid, book)
		}
	}
}

func (bc *boltDBConsumer) apply(ctx context.Context, qid string, book Book) {
	logger := bc.logger.With(zap.String("qid", qid), zap.String("book.id", book.ID))
	var err error
	switch qid {
	case CreateQueue:
		_, err = bc.replica.Add(ctx, book)
		if errors.Is(err, ErrBookExists) {
			logger.Warn("consumer: book already replicated")
			return
		}
	case UpdateQueue:
		_, err = bc.replica.Update(ctx, book.ID, book)
	case DeleteQueue:
		err = bc.replica.Delete(ctx, book.ID)
		if errors.Is(err, ErrBookNotFound) {
			logger.Warn("consumer: book already removed")
			return
		}
	default:
		logger.Warn("consumer: unknown queue")
		return
	}
	if err != nil {
		logger.Error("consumer: failed to replicate", zap.Error(err))
	}
}

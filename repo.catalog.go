package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// replicationPopTimeout bounds each blocking pop of the replication consumer.
const replicationPopTimeout = 5 * time.Second

// BookEraser is implemented by the stores able to remove all books at once.
type BookEraser interface {
	DeleteAll(ctx context.Context) error
}

// CatalogStore gathers the primary book storage of the App and, when
// replication is enabled, the queue feeding the replica and its consumer.
type CatalogStore struct {
	Storage  BookStorage
	Queue    Queuer
	Consumer Consumer
	closers  []func() error
}

// Close releases every connection opened by the catalog store.
func (cs *CatalogStore) Close() error {
	var errs []error
	for i := len(cs.closers) - 1; i >= 0; i-- {
		if err := cs.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCatalogStore opens the storage selected by the configured driver.
func NewCatalogStore(ctx context.Context, config *Config, logger *zap.Logger, ids UIDHandler) (*CatalogStore, error) {
	cs := &CatalogStore{}
	switch config.Storage.Driver {
	case StorageRedis:
		redisClient, err := GetRedisClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		cs.closers = append(cs.closers, redisClient.Close)
		cs.Storage = NewRedisBookStorage(logger, redisClient, ids)
		if config.Storage.Replication {
			boltDBClient, err := GetBoltDBClient(config)
			if err != nil {
				_ = cs.Close()
				return nil, fmt.Errorf("failed to open boltdb replica: %s", err)
			}
			cs.closers = append(cs.closers, boltDBClient.Close)
			cs.Queue = NewRedisQueue(redisClient, replicationPopTimeout)
			cs.Consumer = NewBoltDBConsumer(logger, cs.Queue, NewBoltBookStorage(logger, &config.BoltDB, boltDBClient, ids))
		}

	case StorageBolt:
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb database: %s", err)
		}
		cs.closers = append(cs.closers, boltDBClient.Close)
		cs.Storage = NewBoltBookStorage(logger, &config.BoltDB, boltDBClient, ids)

	case StorageMongo:
		mongoClient, err := GetMongoClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo server: %s", err)
		}
		cs.closers = append(cs.closers, func() error { return mongoClient.Disconnect(context.Background()) })
		storage, err := NewMongoBookStorage(ctx, logger, &config.Mongo, mongoClient)
		if err != nil {
			_ = cs.Close()
			return nil, err
		}
		cs.Storage = storage

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}
	return cs, nil
}

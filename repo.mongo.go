package main

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// mongoBook is the document form of a book.
type mongoBook struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Authors         string             `bson:"authors"`
	PublicationDate string             `bson:"publication_date"`
	Publisher       string             `bson:"publisher"`
	Price           string             `bson:"price"`
	Description     string             `bson:"description"`
}

func toMongoBook(b Book) mongoBook {
	return mongoBook{
		Title:           b.Title,
		Authors:         b.Authors,
		PublicationDate: b.PublicationDate,
		Publisher:       b.Publisher,
		Price:           b.Price,
		Description:     b.Description,
	}
}

func (mb mongoBook) book() Book {
	return Book{
		ID:              mb.ID.Hex(),
		Title:           mb.Title,
		Authors:         mb.Authors,
		PublicationDate: mb.PublicationDate,
		Publisher:       mb.Publisher,
		Price:           mb.Price,
		Description:     mb.Description,
	}
}

type mongoBookStorage struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// GetMongoClient provides a connected and verified mongo client.
func GetMongoClient(config *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Mongo.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// NewMongoBookStorage provides an instance of mongo-based book storage. It
// makes sure the compound unique index on (title, authors) exists.
func NewMongoBookStorage(ctx context.Context, logger *zap.Logger, config *MongoConfig, client *mongo.Client) (BookStorage, error) {
	collection := client.Database(config.Database).Collection(config.Collection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}, {Key: "authors", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("title_authors_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create unique index: %v", err)
	}
	return &mongoBookStorage{logger: logger, collection: collection}, nil
}

// mongoFilter builds the query of a filter. The term is matched
// literally, regex metacharacters are escaped.
func mongoFilter(f BookFilter) bson.M {
	if f.Term == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Term), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"authors": pattern},
	}}
}

// Find returns a window of books sorted by insertion.
func (ms *mongoBookStorage) Find(ctx context.Context, filter BookFilter, skip, take int64) ([]Book, error) {
	if skip < 0 {
		skip = 0
	}
	books := []Book{}
	if take <= 0 {
		return books, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetSkip(skip).SetLimit(take)
	cursor, err := ms.collection.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoBook
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		books = append(books, doc.book())
	}
	return books, nil
}

// Count returns the number of books satisfying the filter.
func (ms *mongoBookStorage) Count(ctx context.Context, filter BookFilter) (int64, error) {
	return ms.collection.CountDocuments(ctx, mongoFilter(filter))
}

// FindByTitleAndAuthors retrieves the book owning the exact (title, authors) pair.
func (ms *mongoBookStorage) FindByTitleAndAuthors(ctx context.Context, title, authors string) (Book, error) {
	var doc mongoBook
	err := ms.collection.FindOne(ctx, bson.M{"title": title, "authors": authors}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.book(), nil
}

// GetOne retrieves a book record based on its ID.
func (ms *mongoBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	var doc mongoBook
	err = ms.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.book(), nil
}

// Add inserts a new book. The unique index rejects duplicated pairs.
func (ms *mongoBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	doc := toMongoBook(book)
	if oid, err := primitive.ObjectIDFromHex(book.ID); err == nil {
		doc.ID = oid
	}
	res, err := ms.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return book, ErrBookExists
	}
	if err != nil {
		return book, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		book.ID = oid.Hex()
	}
	return book, nil
}

// Update replaces the whole document of an existing book.
func (ms *mongoBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	book.ID = id
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return book, ErrBookNotFound
	}
	doc := toMongoBook(book)
	doc.ID = oid
	res, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return book, ErrBookExists
	}
	if err != nil {
		return book, err
	}
	if res.MatchedCount == 0 {
		return book, ErrBookNotFound
	}
	return book, nil
}

// Delete removes a book based on its ID.
func (ms *mongoBookStorage) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrBookNotFound
	}
	res, err := ms.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteAll removes every book document.
func (ms *mongoBookStorage) DeleteAll(ctx context.Context) error {
	_, err := ms.collection.DeleteMany(ctx, bson.M{})
	return err
}

package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBookStorageTests checks the behavior every book storage must share.
// The storage must be empty when provided.
func runBookStorageTests(t *testing.T, bs BookStorage) {
	t.Helper()
	ctx := context.Background()
	dune := Book{
		Title:           "Dune",
		Authors:         "Frank Herbert",
		PublicationDate: "1965",
		Publisher:       "Chilton Books",
		Price:           "9.99",
		Description:     "Spice and sand.",
	}

	var duneID string

	t.Run("Add Book", func(t *testing.T) {
		// ensures we can insert new book record and get its id back.
		book, err := bs.Add(ctx, dune)
		require.NoError(t, err)
		require.NotEmpty(t, book.ID)
		duneID = book.ID
		got, err := bs.GetOne(ctx, duneID)
		require.NoError(t, err)
		want := dune
		want.ID = duneID
		assert.Equal(t, want, got)
	})

	t.Run("Add Duplicated Book", func(t *testing.T) {
		// ensures the (title, authors) pair is unique.
		dup := dune
		dup.Price = "1.00"
		_, err := bs.Add(ctx, dup)
		assert.ErrorIs(t, err, ErrBookExists)
		count, err := bs.Count(ctx, BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Find By Title And Authors", func(t *testing.T) {
		book, err := bs.FindByTitleAndAuthors(ctx, "Dune", "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, duneID, book.ID)
		_, err = bs.FindByTitleAndAuthors(ctx, "dune", "Frank Herbert")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		_, err := bs.GetOne(ctx, NewIDsHandler().Generate(BookIDPrefix))
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = bs.GetOne(ctx, "unknown")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	ids := []string{duneID}
	t.Run("Find Books In Insertion Order", func(t *testing.T) {
		for i := 1; i < 12; i++ {
			b := Book{
				Title:           fmt.Sprintf("Volume %02d", i),
				Authors:         "Various",
				PublicationDate: "2000",
				Publisher:       "House",
				Price:           "1",
			}
			created, err := bs.Add(ctx, b)
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}

		books, err := bs.Find(ctx, BookFilter{}, 0, 5)
		require.NoError(t, err)
		require.Len(t, books, 5)
		for i, b := range books {
			assert.Equal(t, ids[i], b.ID)
		}

		books, err = bs.Find(ctx, BookFilter{}, 10, 5)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, ids[10], books[0].ID)
		assert.Equal(t, ids[11], books[1].ID)

		books, err = bs.Find(ctx, BookFilter{}, -3, 2)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, ids[0], books[0].ID)

		books, err = bs.Find(ctx, BookFilter{}, 50, 5)
		require.NoError(t, err)
		assert.Empty(t, books)

		count, err := bs.Count(ctx, BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(12), count)
	})

	t.Run("Find Books Matching Term", func(t *testing.T) {
		// title and authors are matched ignoring the case.
		books, err := bs.Find(ctx, BookFilter{Term: "HERBERT"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, duneID, books[0].ID)

		books, err = bs.Find(ctx, BookFilter{Term: "volume 1"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "Volume 10", books[0].Title)
		assert.Equal(t, "Volume 11", books[1].Title)

		books, err = bs.Find(ctx, BookFilter{Term: "vari"}, 3, 4)
		require.NoError(t, err)
		require.Len(t, books, 4)
		assert.Equal(t, ids[4], books[0].ID)

		count, err := bs.Count(ctx, BookFilter{Term: "various"})
		require.NoError(t, err)
		assert.Equal(t, int64(11), count)

		count, err = bs.Count(ctx, BookFilter{Term: "(no match)"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Update Existent Book", func(t *testing.T) {
		updated := dune
		updated.Title = "Dune Messiah"
		updated.Price = "12.00"
		book, err := bs.Update(ctx, duneID, updated)
		require.NoError(t, err)
		assert.Equal(t, duneID, book.ID)

		got, err := bs.GetOne(ctx, duneID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", got.Title)
		assert.Equal(t, "12.00", got.Price)

		// the previous pair is released and the new one is owned.
		_, err = bs.FindByTitleAndAuthors(ctx, "Dune", "Frank Herbert")
		assert.ErrorIs(t, err, ErrBookNotFound)
		owner, err := bs.FindByTitleAndAuthors(ctx, "Dune Messiah", "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, duneID, owner.ID)

		// order is kept after the update.
		books, err := bs.Find(ctx, BookFilter{}, 0, 1)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, duneID, books[0].ID)
	})

	t.Run("Update Book To Existing Pair", func(t *testing.T) {
		clash := Book{Title: "Volume 01", Authors: "Various", PublicationDate: "2000", Publisher: "House", Price: "1"}
		_, err := bs.Update(ctx, duneID, clash)
		assert.ErrorIs(t, err, ErrBookExists)
		got, err := bs.GetOne(ctx, duneID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", got.Title)
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		_, err := bs.Update(ctx, NewIDsHandler().Generate(BookIDPrefix), dune)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		require.NoError(t, bs.Delete(ctx, duneID))
		_, err := bs.GetOne(ctx, duneID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		count, err := bs.Count(ctx, BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(11), count)

		// the pair can be used again.
		_, err = bs.Add(ctx, Book{Title: "Dune Messiah", Authors: "Frank Herbert", PublicationDate: "1969", Publisher: "Putnam", Price: "5"})
		assert.NoError(t, err)
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		assert.ErrorIs(t, bs.Delete(ctx, duneID), ErrBookNotFound)
	})

	t.Run("Delete All Books", func(t *testing.T) {
		eraser, ok := bs.(BookEraser)
		require.True(t, ok)
		require.NoError(t, eraser.DeleteAll(ctx))
		count, err := bs.Count(ctx, BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		_, err = bs.Add(ctx, dune)
		assert.NoError(t, err)
	})
}

package localitems

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/storage"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func sampleInput() marketplace.ItemInput {
	return marketplace.ItemInput{
		Title:       "Denim jacket",
		Description: "Classic blue denim jacket in good shape",
		Category:    "outerwear",
		Type:        "jacket",
		Size:        "M",
		Condition:   "good",
		PointValue:  50,
		Tags:        []string{"denim"},
	}
}

func TestSave_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(storage.NewMemory())
	owner := marketplace.UserBasic{ID: 1, Username: "demouser"}

	saved, err := store.Save(ctx, sampleInput(), []marketplace.ImageFile{{Data: pngBytes}, {Data: jpegBytes}}, owner)
	require.NoError(t, err)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.True(t, got.ID.IsLocal())
	assert.True(t, got.IsApproved)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, int64(1), got.UserID)
	require.NotNil(t, got.User)
	assert.Equal(t, "demouser", got.User.Username)

	require.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].IsPrimary)
	assert.False(t, got.Images[1].IsPrimary)
	assert.True(t, strings.HasPrefix(got.Images[0].ImageURL, "data:image/png;base64,"), got.Images[0].ImageURL)
	assert.True(t, strings.HasPrefix(got.Images[1].ImageURL, "data:image/jpeg;base64,"), got.Images[1].ImageURL)
	assert.Equal(t, got.ID, got.Images[0].ItemID)
}

func TestSave_AppendsInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := New(storage.NewMemory())
	ticks := 0
	store.now = func() time.Time {
		ticks++
		return time.Date(2026, 1, 1, 0, 0, ticks, 0, time.UTC)
	}

	first, err := store.Save(ctx, sampleInput(), nil, marketplace.UserBasic{ID: 1})
	require.NoError(t, err)
	second, err := store.Save(ctx, sampleInput(), nil, marketplace.UserBasic{ID: 1})
	require.NoError(t, err)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, items[0].Images)
}

func TestIDSpaceSeparation(t *testing.T) {
	ctx := context.Background()
	store := New(storage.NewMemory())
	store.newID = func() string { return "5" }

	local, err := store.Save(ctx, sampleInput(), nil, marketplace.UserBasic{ID: 1})
	require.NoError(t, err)
	remote := marketplace.Item{ID: marketplace.RemoteID(5)}

	assert.NotEqual(t, remote.ID, local.ID)
	seen := map[marketplace.ID]bool{remote.ID: true}
	assert.False(t, seen[local.ID])
}

func TestList_CorruptCollectionIsEmptyWithWarning(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, storage.LocalItemsKey, "{not json"))
	store := New(mem)

	items, err := store.List(ctx)
	assert.True(t, errors.Is(err, ErrCorrupt), "err = %v", err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	// Saving recovers the key with a fresh collection.
	_, err = store.Save(ctx, sampleInput(), nil, marketplace.UserBasic{ID: 1})
	require.NoError(t, err)
	items, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSave_WriteFailure(t *testing.T) {
	mem := storage.NewMemory()
	mem.FailWrites(true)
	store := New(mem)

	_, err := store.Save(context.Background(), sampleInput(), nil, marketplace.UserBasic{ID: 1})
	assert.True(t, errors.Is(err, storage.ErrWriteFailed), "err = %v", err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := New(storage.NewMemory())
	item, err := store.Save(ctx, sampleInput(), nil, marketplace.UserBasic{ID: 1})
	require.NoError(t, err)

	removed, err := store.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.Delete(ctx, item.ID.Local)
	require.NoError(t, err)
	assert.True(t, removed)

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFilter(t *testing.T) {
	items := []marketplace.Item{
		{ID: marketplace.LocalID("a"), Title: "Red Dress", Description: "Summer dress", Category: "dresses", Size: "S", Condition: "new"},
		{ID: marketplace.LocalID("b"), Title: "Wool coat", Description: "Warm and RED lining", Category: "outerwear", Size: "M", Condition: "good"},
		{ID: marketplace.LocalID("c"), Title: "Jeans", Description: "Straight cut", Category: "bottoms", Size: "M", Condition: "good"},
	}

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"unrestricted", Criteria{Category: "all", Size: "", Condition: "ALL"}, []string{"a", "b", "c"}},
		{"category", Criteria{Category: "outerwear"}, []string{"b"}},
		{"size and condition", Criteria{Size: "M", Condition: "good"}, []string{"b", "c"}},
		{"search title or description", Criteria{Search: "red"}, []string{"a", "b"}},
		{"search and category", Criteria{Search: "red", Category: "dresses"}, []string{"a"}},
		{"no match", Criteria{Search: "hat"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, item := range Filter(items, tt.c) {
				got = append(got, item.ID.Local)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDemoUser(t *testing.T) {
	demo := DefaultDemoIdentity()
	assert.True(t, IsDemoUser(&marketplace.User{ID: 9, Email: "demo@example.com"}, demo))
	assert.True(t, IsDemoUser(&marketplace.User{ID: 9, Email: "Demo@ReWear.com"}, demo))
	assert.True(t, IsDemoUser(&marketplace.User{ID: 1, Email: "someone@example.com"}, demo))
	assert.False(t, IsDemoUser(&marketplace.User{ID: 2, Email: "someone@example.com"}, demo))
	assert.False(t, IsDemoUser(nil, demo))
}

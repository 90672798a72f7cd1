// Package localitems keeps listings that exist only on this machine.
//
// Demo accounts and offline sessions create items here instead of on the
// server. Items get opaque string ids and carry their images inline as data
// URLs, so a stored collection is self-contained.
package localitems

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/storage"
)

var (
	// ErrCorrupt reports that the stored collection could not be decoded. List
	// still returns an empty, usable collection alongside it.
	ErrCorrupt = errors.New("local items corrupt")

	// ErrLocalItem rejects server operations on an item that only exists here.
	ErrLocalItem = marketplace.Reject("this listing only exists on this device")
)

// Store reads and writes the local collection in a storage.Storage.
type Store struct {
	mu    sync.Mutex
	store storage.Storage
	key   string
	now   func() time.Time
	newID func() string
}

// New returns a Store persisting under storage.LocalItemsKey.
func New(store storage.Storage) *Store {
	return &Store{
		store: store,
		key:   storage.LocalItemsKey,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// List returns every stored item in insertion order.
func (s *Store) List(ctx context.Context) ([]marketplace.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]marketplace.Item, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return []marketplace.Item{}, fmt.Errorf("read local items: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []marketplace.Item{}, nil
	}
	var items []marketplace.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []marketplace.Item{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if items == nil {
		items = []marketplace.Item{}
	}
	return items, nil
}

func (s *Store) persist(ctx context.Context, items []marketplace.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode local items: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("write local items: %w", err)
	}
	return nil
}

// Save materialises input as a new local item owned by owner and appends it
// to the collection. Images keep their order; the first is primary.
func (s *Store) Save(ctx context.Context, input marketplace.ItemInput, images []marketplace.ImageFile, owner marketplace.UserBasic) (marketplace.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return marketplace.Item{}, err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	id := marketplace.LocalID(s.newID())
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	item := marketplace.Item{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Type:        input.Type,
		Size:        input.Size,
		Condition:   input.Condition,
		PointValue:  input.PointValue,
		Status:      "pending",
		IsApproved:  true,
		UserID:      owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Images:      make([]marketplace.Image, 0, len(images)),
		Tags:        append([]string(nil), tags...),
		User:        &owner,
	}
	for i, img := range images {
		item.Images = append(item.Images, marketplace.Image{
			ID:        marketplace.LocalID(s.newID()),
			ImageURL:  DataURL(img.Data),
			IsPrimary: i == 0,
			ItemID:    id,
			CreatedAt: now,
		})
	}

	// A corrupt collection is replaced rather than appended to.
	items = append(items, item)
	if err := s.persist(ctx, items); err != nil {
		return marketplace.Item{}, err
	}
	return item.Clone(), nil
}

// Delete removes the item with id and reports whether anything was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID.Local != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := s.persist(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Criteria narrows a local collection the same way the API filters listings.
type Criteria struct {
	Category  string
	Size      string
	Condition string
	Search    string
}

// Filter returns the items matching c. Unrestricted criteria match
// everything; search is a case-insensitive substring of title or description.
func Filter(items []marketplace.Item, c Criteria) []marketplace.Item {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]marketplace.Item, 0, len(items))
	for _, item := range items {
		if !matches(c.Category, item.Category) || !matches(c.Size, item.Size) || !matches(c.Condition, item.Condition) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches(filter, value string) bool {
	if marketplace.IsUnrestricted(filter) {
		return true
	}
	return strings.TrimSpace(filter) == value
}

// DataURL encodes data as a self-contained data: URL with its detected type.
func DataURL(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DemoIdentity names the accounts whose listings are always kept locally.
type DemoIdentity struct {
	Emails []string
	UserID int64
}

// DefaultDemoIdentity matches the shared demo accounts.
func DefaultDemoIdentity() DemoIdentity {
	return DemoIdentity{Emails: []string{"demo@example.com", "demo@rewear.com"}, UserID: 1}
}

// IsDemoUser reports whether user is one of the demo identities.
func IsDemoUser(user *marketplace.User, demo DemoIdentity) bool {
	if user == nil {
		return false
	}
	if demo.UserID != 0 && user.ID == demo.UserID {
		return true
	}
	for _, email := range demo.Emails {
		if email != "" && strings.EqualFold(strings.TrimSpace(email), user.Email) {
			return true
		}
	}
	return false
}

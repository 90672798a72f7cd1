package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// AnyFilter is the wildcard a UI may use for "no restriction". It is never
// sent to the API.
const AnyFilter = "all"

// Swap statuses as reported by the API. The server opens swaps as
// "requested"; older deployments report "pending".
const (
	SwapRequested = "requested"
	SwapPending   = "pending"
	SwapAccepted  = "accepted"
	SwapRejected  = "rejected"
	SwapCompleted = "completed"
)

// RoleAdmin is the privileged user role.
const RoleAdmin = "admin"

// ID identifies an item or image. Server records carry integer ids; records
// created on this machine carry opaque string ids. The two never compare equal.
type ID struct {
	Remote int64
	Local  string
}

// RemoteID wraps a server-assigned id.
func RemoteID(n int64) ID { return ID{Remote: n} }

// LocalID wraps a client-generated id.
func LocalID(s string) ID { return ID{Local: s} }

// IsLocal reports whether the id was generated client-side.
func (id ID) IsLocal() bool { return id.Local != "" }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id.Local == "" && id.Remote == 0 }

func (id ID) String() string {
	if id.IsLocal() {
		return id.Local
	}
	return strconv.FormatInt(id.Remote, 10)
}

// MarshalJSON encodes remote ids as numbers and local ids as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsLocal() {
		return json.Marshal(id.Local)
	}
	return strconv.AppendInt(nil, id.Remote, 10), nil
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ID{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode local id: %w", err)
		}
		*id = ID{Local: s}
		return nil
	}
	var n int64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode remote id: %w", err)
	}
	*id = ID{Remote: n}
	return nil
}

// User mirrors /auth/me.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	PointsBalance  int    `json:"points_balance"`
	Role           string `json:"role"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user holds the privileged role.
func (u User) IsAdmin() bool { return strings.EqualFold(u.Role, RoleAdmin) }

// Basic projects the user onto the embedded form used by items and swaps.
func (u User) Basic() UserBasic {
	return UserBasic{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// UserBasic is the owner summary embedded in items and swaps.
type UserBasic struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Image is a listing photo. Local items carry data URLs in ImageURL.
type Image struct {
	ID        ID     `json:"id"`
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
	ItemID    ID     `json:"item_id"`
	CreatedAt string `json:"created_at"`
}

// Item is a garment listing.
type Item struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Size        string     `json:"size"`
	Condition   string     `json:"condition"`
	PointValue  int        `json:"point_value"`
	Status      string     `json:"status"`
	IsApproved  bool       `json:"is_approved"`
	UserID      int64      `json:"user_id"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
	Images      []Image    `json:"images"`
	Tags        []string   `json:"tags"`
	User        *UserBasic `json:"user"`
}

// IsLocal reports whether the item only exists on this machine.
func (i Item) IsLocal() bool { return i.ID.IsLocal() }

// PrimaryImage returns the image flagged primary, falling back to the first
// stored image.
func (i Item) PrimaryImage() (Image, bool) {
	for _, img := range i.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(i.Images) > 0 {
		return i.Images[0], true
	}
	return Image{}, false
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	dup := i
	if i.Images != nil {
		dup.Images = append([]Image(nil), i.Images...)
	}
	if i.Tags != nil {
		dup.Tags = append([]string(nil), i.Tags...)
	}
	if i.User != nil {
		u := *i.User
		dup.User = &u
	}
	return dup
}

// ItemBasic is the item summary embedded in swaps.
type ItemBasic struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	PrimaryImage string `json:"primary_image,omitempty"`
}

// Swap is an exchange request between two users.
type Swap struct {
	ID              int64      `json:"id"`
	RequesterID     int64      `json:"requester_id"`
	ProviderID      int64      `json:"provider_id"`
	RequesterItemID *int64     `json:"requester_item_id"`
	ProviderItemID  int64      `json:"provider_item_id"`
	Status          string     `json:"status"`
	PointsUsed      int        `json:"points_used"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	RequesterItem   *ItemBasic `json:"requester_item"`
	ProviderItem    ItemBasic  `json:"provider_item"`
	Requester       UserBasic  `json:"requester"`
	Provider        UserBasic  `json:"provider"`
}

// PaidWithPoints reports whether the swap is settled in points rather than an item.
func (s Swap) PaidWithPoints() bool { return s.RequesterItemID == nil }

// SwapPartitions mirrors GET /swaps.
type SwapPartitions struct {
	Requested []Swap `json:"requested"`
	Provided  []Swap `json:"provided"`
}

// ItemQuery selects one page of the public catalog.
type ItemQuery struct {
	Page      int
	Limit     int
	Category  string
	Size      string
	Condition string
	Search    string
}

// IsUnrestricted reports whether a filter value means "any".
func IsUnrestricted(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, AnyFilter)
}

// Values encodes the query, leaving out unrestricted filters.
func (q ItemQuery) Values() url.Values {
	page := q.Page
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	if q.Limit > 0 {
		values.Set("skip", strconv.Itoa((page-1)*q.Limit))
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if !IsUnrestricted(q.Category) {
		values.Set("category", strings.TrimSpace(q.Category))
	}
	if !IsUnrestricted(q.Size) {
		values.Set("size", strings.TrimSpace(q.Size))
	}
	if !IsUnrestricted(q.Condition) {
		values.Set("condition", strings.TrimSpace(q.Condition))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	return values
}

// ItemPage is a normalised list response. Legacy is set when the server sent a
// bare array, in which case Total is just the number of items received.
type ItemPage struct {
	Items  []Item
	Total  int
	Legacy bool
}

type itemEnvelope struct {
	Items []Item `json:"items"`
	Total *int   `json:"total"`
}

// decodeItemPage accepts either a bare array or an {items, total} envelope.
func decodeItemPage(raw []byte) (ItemPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ItemPage{}, fmt.Errorf("empty item list body")
	}
	if trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return ItemPage{}, err
		}
		return ItemPage{Items: items, Total: len(items), Legacy: true}, nil
	}
	var env itemEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return ItemPage{}, err
	}
	page := ItemPage{Items: env.Items, Total: len(env.Items)}
	if env.Total != nil {
		page.Total = *env.Total
	} else {
		page.Legacy = true
	}
	return page, nil
}

// ItemInput is the payload for creating a listing.
type ItemInput struct {
	Title       string   `json:"title" validate:"required,min=5,max=100"`
	Description string   `json:"description" validate:"required,min=20"`
	Category    string   `json:"category" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Size        string   `json:"size" validate:"required"`
	Condition   string   `json:"condition" validate:"required"`
	PointValue  int      `json:"point_value" validate:"gt=0"`
	Tags        []string `json:"tags" validate:"max=10,dive,required"`
}

// ItemUpdate carries the fields to change on a listing.
type ItemUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Size        *string  `json:"size,omitempty"`
	Condition   *string  `json:"condition,omitempty"`
	PointValue  *int     `json:"point_value,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ImageFile is an image selected for upload.
type ImageFile struct {
	Name string
	Data []byte
}

// Registration is the payload for POST /auth/register.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

// SwapRequest is the payload for POST /swaps. Exactly one of RequesterItemID
// and PointsUsed must be set.
type SwapRequest struct {
	ProviderItemID  int64  `json:"provider_item_id"`
	RequesterItemID *int64 `json:"requester_item_id,omitempty"`
	PointsUsed      int    `json:"points_used,omitempty"`
}

// Validate checks the payment exclusivity rule.
func (r SwapRequest) Validate() error {
	if r.ProviderItemID <= 0 {
		return ErrMissingTarget
	}
	byItem := r.RequesterItemID != nil
	byPoints := r.PointsUsed != 0
	if byItem == byPoints {
		return ErrPaymentAmbiguous
	}
	if r.PointsUsed < 0 {
		return ErrNegativePoints
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type myItemsResponse struct {
	Items []Item `json:"items"`
}

package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Client talks to the ReWear HTTP API. It holds no state besides transport
// configuration and is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "http://localhost:8000/api"
	defaultUserAgent = "rewear/0.1"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 64 * 1024
)

// NewClient builds a Client for the API rooted at apiURL. A non-positive
// timeout uses the default.
func NewClient(apiURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping checks that the API host answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	root := *c.baseURL
	root.Path = "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrNetwork, err)
	}
	_ = resp.Body.Close()
	return nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)
	var payload tokenResponse
	req := request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
	if err := c.do(ctx, req, &payload); err != nil {
		return "", err
	}
	return tokenFrom(payload)
}

// DemoLogin obtains a token for the shared demo account.
func (c *Client) DemoLogin(ctx context.Context) (string, error) {
	var payload tokenResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/demo-login"}, &payload); err != nil {
		return "", err
	}
	return tokenFrom(payload)
}

// Me resolves token to the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token, auth: true}, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg Registration) (User, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return User{}, fmt.Errorf("encode registration: %w", err)
	}
	var user User
	req := request{method: http.MethodPost, path: "/auth/register", body: bytes.NewReader(body), contentType: "application/json"}
	if err := c.do(ctx, req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListItems fetches one page of approved listings.
func (c *Client) ListItems(ctx context.Context, query ItemQuery) (ItemPage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/items", query: query.Values()}, &raw); err != nil {
		return ItemPage{}, err
	}
	page, err := decodeItemPage(raw)
	if err != nil {
		return ItemPage{}, fmt.Errorf("%w: decode item list: %w", ErrNetwork, err)
	}
	return page, nil
}

// GetItem fetches a single listing with images and tags.
func (c *Client) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	if err := c.do(ctx, request{method: http.MethodGet, path: itemPath(id)}, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// MyItems fetches the listings owned by the token's user.
func (c *Client) MyItems(ctx context.Context, token string) ([]Item, error) {
	var payload myItemsResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/items/my-items", token: token, auth: true}, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CreateItem uploads a listing as multipart form data: the item as JSON in
// "item_in" and each image as an "images" file part.
func (c *Client) CreateItem(ctx context.Context, token string, input ItemInput, images []ImageFile) (Item, error) {
	if input.Tags == nil {
		input.Tags = []string{}
	}
	body, contentType, err := encodeItemForm(input, images)
	if err != nil {
		return Item{}, err
	}
	var item Item
	req := request{method: http.MethodPost, path: "/items", token: token, auth: true, body: body, contentType: contentType}
	if err := c.do(ctx, req, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateItem changes the given fields of a listing.
func (c *Client) UpdateItem(ctx context.Context, token string, id int64, update ItemUpdate) (Item, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return Item{}, fmt.Errorf("encode item update: %w", err)
	}
	var item Item
	req := request{method: http.MethodPut, path: itemPath(id), token: token, auth: true, body: bytes.NewReader(body), contentType: "application/json"}
	if err := c.do(ctx, req, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// DeleteItem removes a listing.
func (c *Client) DeleteItem(ctx context.Context, token string, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: itemPath(id), token: token, auth: true}, nil)
}

// PendingItems lists listings awaiting moderation. Admin only.
func (c *Client) PendingItems(ctx context.Context, token string) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/items/pending", token: token, auth: true}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ApproveItem publishes a pending listing. Admin only.
func (c *Client) ApproveItem(ctx context.Context, token string, id int64) (Item, error) {
	var item Item
	path := "/admin/items/" + strconv.FormatInt(id, 10) + "/approve"
	if err := c.do(ctx, request{method: http.MethodPut, path: path, token: token, auth: true}, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// RejectItem removes a pending listing from moderation. Admin only.
func (c *Client) RejectItem(ctx context.Context, token string, id int64) error {
	path := "/admin/items/" + strconv.FormatInt(id, 10) + "/reject"
	return c.do(ctx, request{method: http.MethodPut, path: path, token: token, auth: true}, nil)
}

// ListMySwaps fetches the swaps the token's user takes part in.
func (c *Client) ListMySwaps(ctx context.Context, token string) (SwapPartitions, error) {
	var payload SwapPartitions
	if err := c.do(ctx, request{method: http.MethodGet, path: "/swaps", token: token, auth: true}, &payload); err != nil {
		return SwapPartitions{}, err
	}
	return payload, nil
}

// GetSwap fetches one swap.
func (c *Client) GetSwap(ctx context.Context, token string, id int64) (Swap, error) {
	var swap Swap
	if err := c.do(ctx, request{method: http.MethodGet, path: swapPath(id), token: token, auth: true}, &swap); err != nil {
		return Swap{}, err
	}
	return swap, nil
}

// CreateSwap submits a swap request after checking payment exclusivity.
func (c *Client) CreateSwap(ctx context.Context, token string, swapReq SwapRequest) (Swap, error) {
	if err := swapReq.Validate(); err != nil {
		return Swap{}, err
	}
	body, err := json.Marshal(swapReq)
	if err != nil {
		return Swap{}, fmt.Errorf("encode swap request: %w", err)
	}
	var swap Swap
	req := request{method: http.MethodPost, path: "/swaps", token: token, auth: true, body: bytes.NewReader(body), contentType: "application/json"}
	if err := c.do(ctx, req, &swap); err != nil {
		return Swap{}, err
	}
	return swap, nil
}

// UpdateSwapStatus asks the server to move a swap to status.
func (c *Client) UpdateSwapStatus(ctx context.Context, token string, id int64, status string) (Swap, error) {
	body, err := json.Marshal(struct {
		Status string `json:"status"`
	}{Status: status})
	if err != nil {
		return Swap{}, fmt.Errorf("encode swap status: %w", err)
	}
	var swap Swap
	req := request{method: http.MethodPut, path: swapPath(id), token: token, auth: true, body: bytes.NewReader(body), contentType: "application/json"}
	if err := c.do(ctx, req, &swap); err != nil {
		return Swap{}, err
	}
	return swap, nil
}

// AdminListSwaps lists every swap on the platform. Admin only.
func (c *Client) AdminListSwaps(ctx context.Context, token string) ([]Swap, error) {
	var swaps []Swap
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/swaps", token: token, auth: true}, &swaps); err != nil {
		return nil, err
	}
	return swaps, nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	token       string
	auth        bool
	body        io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, r request, dest any) error {
	if r.auth && strings.TrimSpace(r.token) == "" {
		return &APIError{Kind: ErrUnauthorized, Method: r.method, Path: r.path, Detail: "not logged in"}
	}
	reqURL := c.endpoint(r.path, r.query)
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.auth {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: execute request: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Method:     r.method,
			Path:       r.path,
			Detail:     parseDetail(body),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrNetwork, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

func encodeItemForm(input ItemInput, images []ImageFile) (io.Reader, string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, "", fmt.Errorf("encode item: %w", err)
	}
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("item_in", string(payload)); err != nil {
		return nil, "", fmt.Errorf("write item field: %w", err)
	}
	for i, img := range images {
		name := strings.TrimSpace(img.Name)
		if name == "" {
			name = "image-" + strconv.Itoa(i+1) + mimetype.Detect(img.Data).Extension()
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		header.Set("Content-Type", mimetype.Detect(img.Data).String())
		part, err := form.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}

func tokenFrom(payload tokenResponse) (string, error) {
	token := strings.TrimSpace(payload.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: response missing access_token", ErrNetwork)
	}
	return token, nil
}

func itemPath(id int64) string { return "/items/" + strconv.FormatInt(id, 10) }

func swapPath(id int64) string { return "/swaps/" + strconv.FormatInt(id, 10) }

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

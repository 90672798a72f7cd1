// Package marketplacetest runs an in-memory ReWear API for tests.
package marketplacetest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"

	"github.com/five82/rewear/internal/marketplace"
)

// DemoEmail is the account used by POST /auth/demo-login.
const DemoEmail = "demo@rewear.com"

var signingKey = []byte("marketplacetest")

// Request is a recorded inbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

type account struct {
	user     marketplace.User
	password string
}

type failure struct {
	status int
	detail string
}

// Server is a fake API rooted at URL()+"/api".
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	accounts map[int64]*account
	tokens   map[string]int64
	items    map[int64]marketplace.Item
	swaps    map[int64]marketplace.Swap
	nextUser int64
	nextItem int64
	nextSwap int64
	issued   int
	requests []Request
	failures map[string]failure

	// LegacyList makes GET /items answer with a bare array.
	LegacyList bool
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[int64]*account),
		tokens:   make(map[string]int64),
		items:    make(map[int64]marketplace.Item),
		swaps:    make(map[int64]marketplace.Swap),
		failures: make(map[string]failure),
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root to pass to marketplace.NewClient.
func (s *Server) URL() string { return s.srv.URL + "/api" }

// Close stops the server early, e.g. to simulate the backend going away.
func (s *Server) Close() { s.srv.Close() }

// AddUser registers an account and returns it with its assigned id.
func (s *Server) AddUser(u marketplace.User, password string) marketplace.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(u, password)
}

func (s *Server) addUserLocked(u marketplace.User, password string) marketplace.User {
	s.nextUser++
	if u.ID == 0 {
		u.ID = s.nextUser
	}
	if u.Role == "" {
		u.Role = "user"
	}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// SetPoints overwrites a user's balance.
func (s *Server) SetPoints(userID int64, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[userID]; ok {
		acct.user.PointsBalance = points
	}
}

// IssueToken mints a token for userID valid for ttl. A negative ttl yields an
// already-expired token.
func (s *Server) IssueToken(userID int64, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID, ttl)
}

func (s *Server) issueLocked(userID int64, ttl time.Duration) string {
	s.issued++
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        strconv.Itoa(s.issued),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	if ttl > 0 {
		s.tokens[signed] = userID
	}
	return signed
}

// RevokeToken makes the server reject token with 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// AddItem stores an item. Zero ids are assigned; status and approval default
// to a publicly listed item.
func (s *Server) AddItem(item marketplace.Item) marketplace.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addItemLocked(item)
}

func (s *Server) addItemLocked(item marketplace.Item) marketplace.Item {
	s.nextItem++
	if item.ID.IsZero() {
		item.ID = marketplace.RemoteID(s.nextItem)
	}
	if item.Status == "" {
		item.Status = "available"
	}
	if item.CreatedAt == "" {
		item.CreatedAt = time.Now().UTC().Add(time.Duration(s.nextItem) * time.Second).Format(time.RFC3339)
		item.UpdatedAt = item.CreatedAt
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if acct, ok := s.accounts[item.UserID]; ok && item.User == nil {
		basic := acct.user.Basic()
		item.User = &basic
	}
	s.items[item.ID.Remote] = item
	return item
}

// Item returns the stored item.
func (s *Server) Item(id int64) (marketplace.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

// AddSwap stores a swap as-is, assigning an id when zero.
func (s *Server) AddSwap(swap marketplace.Swap) marketplace.Swap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSwap++
	if swap.ID == 0 {
		swap.ID = s.nextSwap
	}
	if swap.Status == "" {
		swap.Status = marketplace.SwapRequested
	}
	s.swaps[swap.ID] = swap
	return swap
}

// Fail makes the next call to method+path answer with status and detail.
func (s *Server) Fail(method, urlPath string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+urlPath] = failure{status: status, detail: detail}
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many calls matched method and path.
func (s *Server) Count(method, urlPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == urlPath {
			n++
		}
	}
	return n
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ReWear API"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/demo-login", s.handleDemoLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Get("/items", s.handleListItems)
		r.Get("/items/{id}", s.handleGetItem)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/auth/me", s.handleMe)
			r.Get("/items/my-items", s.handleMyItems)
			r.Post("/items", s.handleCreateItem)
			r.Put("/items/{id}", s.handleUpdateItem)
			r.Delete("/items/{id}", s.handleDeleteItem)
			r.Get("/swaps", s.handleListSwaps)
			r.Post("/swaps", s.handleCreateSwap)
			r.Get("/swaps/{id}", s.handleGetSwap)
			r.Put("/swaps/{id}", s.handleUpdateSwap)
			r.Get("/admin/swaps", s.admin(s.handleAdminSwaps))
			r.Get("/admin/items/pending", s.admin(s.handlePendingItems))
			r.Put("/admin/items/{id}/approve", s.admin(s.handleApproveItem))
			r.Put("/admin/items/{id}/reject", s.admin(s.handleRejectItem))
		})
	})
	return r
}

type ctxUserKey struct{}

func withUser(r *http.Request, userID int64) context.Context {
	return context.WithValue(r.Context(), ctxUserKey{}, userID)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		key := r.Method + " " + r.URL.Path
		f, failing := s.failures[key]
		if failing {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, userID)))
	})
}

func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if !user.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next(w, r)
	}
}

func (s *Server) currentUser(r *http.Request) marketplace.User {
	userID, _ := r.Context().Value(ctxUserKey{}).(int64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[userID]; ok {
		return acct.user
	}
	return marketplace.User{}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	identifier := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if (acct.user.Email == identifier || acct.user.Username == identifier) && acct.password == password {
			writeJSON(w, http.StatusOK, map[string]string{"access_token": s.issueLocked(acct.user.ID, time.Hour), "token_type": "bearer"})
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
}

func (s *Server) handleDemoLogin(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var demo *account
	for _, acct := range s.accounts {
		if acct.user.Email == DemoEmail {
			demo = acct
			break
		}
	}
	if demo == nil {
		u := s.addUserLocked(marketplace.User{Email: DemoEmail, Username: "demouser", PointsBalance: 500}, "demopassword")
		demo = s.accounts[u.ID]
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": s.issueLocked(demo.user.ID, time.Hour), "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg marketplace.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.Email == reg.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := s.addUserLocked(marketplace.User{Email: reg.Email, Username: reg.Username}, reg.Password)
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentUser(r))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	var matched []marketplace.Item
	for _, item := range s.sortedItemsLocked() {
		if !item.IsApproved || item.Status != "available" {
			continue
		}
		if v := q.Get("category"); v != "" && item.Category != v {
			continue
		}
		if v := q.Get("size"); v != "" && item.Size != v {
			continue
		}
		if v := q.Get("condition"); v != "" && item.Condition != v {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		matched = append(matched, item)
	}
	legacy := s.LegacyList
	s.mu.Unlock()

	total := len(matched)
	start := min(skip, total)
	end := min(start+limit, total)
	pageItems := append([]marketplace.Item{}, matched[start:end]...)
	if legacy {
		writeJSON(w, http.StatusOK, pageItems)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": pageItems, "total": total})
}

// sortedItemsLocked returns items newest first, as the real API orders them.
func (s *Server) sortedItemsLocked() []marketplace.Item {
	items := make([]marketplace.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.Remote > items[j].ID.Remote })
	return items
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	item, found := s.items[id]
	s.mu.Unlock()
	if !found {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleMyItems(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	s.mu.Lock()
	mine := []marketplace.Item{}
	for _, item := range s.sortedItemsLocked() {
		if item.UserID == user.ID {
			mine = append(mine, item)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": mine})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	var input marketplace.ItemInput
	if err := json.Unmarshal([]byte(r.FormValue("item_in")), &input); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid item data: "+err.Error())
		return
	}
	files := r.MultipartForm.File["images"]

	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.addItemLocked(marketplace.Item{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Type:        input.Type,
		Size:        input.Size,
		Condition:   input.Condition,
		PointValue:  input.PointValue,
		Tags:        input.Tags,
		UserID:      user.ID,
		IsApproved:  true,
	})
	for i, fh := range files {
		item.Images = append(item.Images, marketplace.Image{
			ID:        marketplace.RemoteID(item.ID.Remote*100 + int64(i) + 1),
			ImageURL:  "/static/images/" + strconv.FormatInt(item.ID.Remote, 10) + "-" + strconv.Itoa(i) + path.Ext(fh.Filename),
			IsPrimary: i == 0,
			ItemID:    item.ID,
			CreatedAt: item.CreatedAt,
		})
	}
	s.items[item.ID.Remote] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := s.currentUser(r)
	var update marketplace.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.items[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.UserID != user.ID && !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	applyUpdate(&item, update)
	item.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.items[id] = item
	writeJSON(w, http.StatusOK, item)
}

func applyUpdate(item *marketplace.Item, u marketplace.ItemUpdate) {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Type != nil {
		item.Type = *u.Type
	}
	if u.Size != nil {
		item.Size = *u.Size
	}
	if u.Condition != nil {
		item.Condition = *u.Condition
	}
	if u.PointValue != nil {
		item.PointValue = *u.PointValue
	}
	if u.Tags != nil {
		item.Tags = u.Tags
	}
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.items[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.UserID != user.ID && !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	delete(s.items, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSwaps(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	s.mu.Lock()
	parts := marketplace.SwapPartitions{Requested: []marketplace.Swap{}, Provided: []marketplace.Swap{}}
	for _, swap := range s.sortedSwapsLocked() {
		switch user.ID {
		case swap.RequesterID:
			parts.Requested = append(parts.Requested, swap)
		case swap.ProviderID:
			parts.Provided = append(parts.Provided, swap)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, parts)
}

func (s *Server) sortedSwapsLocked() []marketplace.Swap {
	swaps := make([]marketplace.Swap, 0, len(s.swaps))
	for _, swap := range s.swaps {
		swaps = append(swaps, swap)
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i].ID > swaps[j].ID })
	return swaps
}

func (s *Server) handleCreateSwap(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	var req marketplace.SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, found := s.items[req.ProviderItemID]
	if !found || !target.IsApproved || target.Status != "available" {
		writeDetail(w, http.StatusNotFound, "Item not found or not available")
		return
	}
	if target.UserID == user.ID {
		writeDetail(w, http.StatusBadRequest, "Cannot request swap for your own item")
		return
	}
	swap := marketplace.Swap{
		RequesterID:     user.ID,
		ProviderID:      target.UserID,
		ProviderItemID:  target.ID.Remote,
		RequesterItemID: req.RequesterItemID,
		Status:          marketplace.SwapRequested,
		ProviderItem:    basicItem(target),
		Requester:       user.Basic(),
	}
	if acct, ok := s.accounts[target.UserID]; ok {
		swap.Provider = acct.user.Basic()
	}
	if req.RequesterItemID != nil {
		offered, ok := s.items[*req.RequesterItemID]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Your item not found or not available")
			return
		}
		if offered.UserID != user.ID {
			writeDetail(w, http.StatusBadRequest, "You can only offer your own items")
			return
		}
		basic := basicItem(offered)
		swap.RequesterItem = &basic
		offered.Status = "pending"
		s.items[offered.ID.Remote] = offered
	} else {
		if user.PointsBalance < target.PointValue {
			writeDetail(w, http.StatusBadRequest, "Not enough points. You need "+strconv.Itoa(target.PointValue)+" points, but have "+strconv.Itoa(user.PointsBalance)+".")
			return
		}
		swap.PointsUsed = target.PointValue
	}
	target.Status = "pending"
	s.items[target.ID.Remote] = target
	s.nextSwap++
	swap.ID = s.nextSwap
	swap.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	swap.UpdatedAt = swap.CreatedAt
	s.swaps[swap.ID] = swap
	writeJSON(w, http.StatusOK, swap)
}

func basicItem(item marketplace.Item) marketplace.ItemBasic {
	basic := marketplace.ItemBasic{ID: item.ID.Remote, Title: item.Title}
	if img, ok := item.PrimaryImage(); ok {
		basic.PrimaryImage = img.ImageURL
	}
	return basic
}

func (s *Server) handleGetSwap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := s.currentUser(r)
	s.mu.Lock()
	swap, found := s.swaps[id]
	s.mu.Unlock()
	if !found {
		writeDetail(w, http.StatusNotFound, "Swap not found")
		return
	}
	if swap.RequesterID != user.ID && swap.ProviderID != user.ID && !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	writeJSON(w, http.StatusOK, swap)
}

func (s *Server) handleUpdateSwap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := s.currentUser(r)
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, found := s.swaps[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Swap not found")
		return
	}
	switch body.Status {
	case marketplace.SwapAccepted, marketplace.SwapRejected:
		if swap.ProviderID != user.ID && !user.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
	case marketplace.SwapCompleted:
		if swap.Status != marketplace.SwapAccepted {
			writeDetail(w, http.StatusBadRequest, "Can only complete accepted swaps")
			return
		}
	default:
		writeDetail(w, http.StatusBadRequest, "Invalid status")
		return
	}
	swap.Status = body.Status
	swap.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.swaps[id] = swap
	writeJSON(w, http.StatusOK, swap)
}

func (s *Server) handleAdminSwaps(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	swaps := s.sortedSwapsLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, swaps)
}

func (s *Server) handlePendingItems(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	pending := []marketplace.Item{}
	for _, item := range s.sortedItemsLocked() {
		if !item.IsApproved {
			pending = append(pending, item)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleApproveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.items[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	item.IsApproved = true
	s.items[id] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleRejectItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.items[id]; !found {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	delete(s.items, id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

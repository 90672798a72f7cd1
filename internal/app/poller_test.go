package app

import (
	"context"
	"testing"
	"time"

	"github.com/five82/rewear/internal/config"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/marketplace/marketplacetest"
	"github.com/five82/rewear/internal/storage"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func newTestServices(t *testing.T, srv *marketplacetest.Server) Services {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = srv.URL()
	cfg.RequestTimeout = 2 * time.Second
	cfg.DemoEmails = []string{marketplacetest.DemoEmail}
	cfg.DemoUserID = 0
	svc, err := NewServices(cfg, storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}
	return svc
}

func signIn(t *testing.T, srv *marketplacetest.Server, svc Services) marketplace.User {
	t.Helper()
	user := srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana", PointsBalance: 10}, "password1")
	if err := svc.Session.Login(context.Background(), user.Email, "password1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return user
}

func TestPoll_SignedOutOnlineIsQuiet(t *testing.T) {
	srv := marketplacetest.New(t)
	svc := newTestServices(t, srv)

	if err := poll(context.Background(), svc); err != nil {
		t.Fatalf("poll() error = %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("poll() sent %d requests, want 0", n)
	}
}

func TestPoll_RefreshesPointsAndSwaps(t *testing.T) {
	srv := marketplacetest.New(t)
	svc := newTestServices(t, srv)
	user := signIn(t, srv, svc)

	other := srv.AddUser(marketplace.User{Email: "bo@example.com", Username: "bo"}, "password1")
	item := srv.AddItem(marketplace.Item{Title: "Linen shirt", UserID: other.ID, PointValue: 15, IsApproved: true})
	srv.AddSwap(marketplace.Swap{RequesterID: user.ID, ProviderID: other.ID, ProviderItemID: item.ID.Remote, PointsUsed: 15})
	srv.SetPoints(user.ID, 99)

	if err := poll(context.Background(), svc); err != nil {
		t.Fatalf("poll() error = %v", err)
	}
	if got := svc.Session.User(); got == nil || got.PointsBalance != 99 {
		t.Fatalf("User() = %+v, want points 99", got)
	}
	if got := svc.Swaps.Snapshot().Requested; len(got) != 1 {
		t.Fatalf("Requested = %d swaps, want 1", len(got))
	}
	if n := srv.Count("GET", "/api/swaps"); n != 1 {
		t.Fatalf("GET /api/swaps count = %d, want 1", n)
	}
}

func TestPoll_RevokedTokenEndsSession(t *testing.T) {
	srv := marketplacetest.New(t)
	svc := newTestServices(t, srv)
	signIn(t, srv, svc)
	if err := svc.Swaps.FetchMine(context.Background(), svc.Session.Token()); err != nil {
		t.Fatalf("FetchMine() error = %v", err)
	}
	srv.RevokeToken(svc.Session.Token())

	if err := poll(context.Background(), svc); err != nil {
		t.Fatalf("poll() error = %v, want nil after a rejected token", err)
	}
	if svc.Session.Snapshot().Authenticated {
		t.Fatal("session still authenticated after revoked token")
	}
	if n := srv.Count("GET", "/api/swaps"); n != 1 {
		t.Fatalf("GET /api/swaps count = %d, want only the initial fetch", n)
	}
}

func TestPoll_RetriesDeferredRestore(t *testing.T) {
	srv := marketplacetest.New(t)
	cfg := config.Default()
	cfg.APIURL = srv.URL()
	cfg.RequestTimeout = 2 * time.Second
	cfg.DemoUserID = 0
	store := storage.NewMemory()
	svc, err := NewServices(cfg, store, nil)
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}
	user := srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana"}, "password1")
	if err := store.Set(context.Background(), storage.TokenKey, srv.IssueToken(user.ID, time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	srv.Fail("GET", "/api/auth/me", 503, "maintenance")

	if err := svc.Session.Restore(context.Background()); err == nil {
		t.Fatal("Restore() during outage returned nil")
	}
	if !svc.Session.Snapshot().PendingRestore {
		t.Fatal("restore not left pending after outage")
	}

	if err := poll(context.Background(), svc); err != nil {
		t.Fatalf("poll() error = %v", err)
	}
	if !svc.Session.Snapshot().Authenticated {
		t.Fatal("poll() did not finish the deferred restore")
	}
	if n := srv.Count("GET", "/api/swaps"); n != 1 {
		t.Fatalf("GET /api/swaps count = %d, want 1", n)
	}
}

func TestPoll_ProbesWhileOffline(t *testing.T) {
	srv := marketplacetest.New(t)
	svc := newTestServices(t, srv)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Catalog.Probe(cancelled); err == nil {
		t.Fatal("Probe() with cancelled context succeeded")
	}
	if !svc.Catalog.Snapshot().Offline() {
		t.Fatal("catalog not offline after failed probe")
	}

	if err := poll(context.Background(), svc); err != nil {
		t.Fatalf("poll() error = %v", err)
	}
	if svc.Catalog.Snapshot().Offline() {
		t.Fatal("catalog still offline after successful probe")
	}
}

func TestStartPoller_StopsWithContext(t *testing.T) {
	srv := marketplacetest.New(t)
	svc := newTestServices(t, srv)
	signIn(t, srv, svc)

	ctx, cancel := context.WithCancel(context.Background())
	StartPoller(ctx, svc, 10*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for srv.Count("GET", "/api/swaps") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never fetched swaps")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(50 * time.Millisecond)
	settled := srv.Count("GET", "/api/swaps")
	time.Sleep(50 * time.Millisecond)
	if got := srv.Count("GET", "/api/swaps"); got != settled {
		t.Fatalf("poller kept running after cancel: %d -> %d", settled, got)
	}
}

package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/marketplace/marketplacetest"
	"github.com/five82/rewear/internal/storage"
)

var testDemo = localitems.DemoIdentity{Emails: []string{marketplacetest.DemoEmail}}

type fixture struct {
	srv     *marketplacetest.Server
	client  *marketplace.Client
	mem     *storage.Memory
	local   *localitems.Store
	catalog *Catalog
	owner   marketplace.User
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := marketplacetest.New(t)
	client, err := marketplace.NewClient(srv.URL(), 2*time.Second)
	require.NoError(t, err)
	mem := storage.NewMemory()
	local := localitems.New(mem)
	owner := srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana"}, "password1")
	return &fixture{
		srv:     srv,
		client:  client,
		mem:     mem,
		local:   local,
		catalog: New(client, local, Options{Demo: testDemo}),
		owner:   owner,
		token:   srv.IssueToken(owner.ID, time.Hour),
	}
}

func (f *fixture) addItems(n int, item marketplace.Item) []marketplace.Item {
	out := make([]marketplace.Item, 0, n)
	for i := 0; i < n; i++ {
		it := item
		if it.Title == "" {
			it.Title = "Listing"
		}
		it.IsApproved = true
		if it.UserID == 0 {
			it.UserID = f.owner.ID
		}
		out = append(out, f.srv.AddItem(it))
	}
	return out
}

func validInput() marketplace.ItemInput {
	return marketplace.ItemInput{
		Title:       "Linen shirt",
		Description: "Breathable linen shirt, barely worn",
		Category:    "tops",
		Type:        "shirt",
		Size:        "L",
		Condition:   "like_new",
		PointValue:  25,
	}
}

func TestLoadPage_OmitsUnrestrictedFilters(t *testing.T) {
	f := newFixture(t)
	f.catalog.SetFilters(Filters{Category: "all", Size: "M"})

	require.NoError(t, f.catalog.LoadPage(context.Background()))

	q := f.srv.Requests()[0].Query
	assert.False(t, q.Has("category"))
	assert.Equal(t, "M", q.Get("size"))
	assert.Equal(t, "0", q.Get("skip"))
	assert.Equal(t, "12", q.Get("limit"))
}

func TestLoadPage_PaginationAndClamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	items := f.addItems(25, marketplace.Item{})

	require.NoError(t, f.catalog.LoadPage(ctx))
	snap := f.catalog.Snapshot()
	assert.Equal(t, 3, snap.Page.TotalPages)
	assert.Equal(t, 25, snap.Page.TotalItems)
	assert.Len(t, snap.Remote, 12)

	require.NoError(t, f.catalog.GoToPage(ctx, 3))
	assert.Equal(t, 3, f.catalog.Snapshot().Page.Current)
	assert.Len(t, f.catalog.Snapshot().Remote, 1)
	assert.False(t, f.catalog.CanNext())

	for _, it := range items[:15] {
		require.NoError(t, f.client.DeleteItem(ctx, f.token, it.ID.Remote))
	}
	before := f.srv.Count("GET", "/api/items")
	require.NoError(t, f.catalog.LoadPage(ctx))

	snap = f.catalog.Snapshot()
	assert.Equal(t, 1, snap.Page.Current)
	assert.Equal(t, 1, snap.Page.TotalPages)
	assert.Len(t, snap.Remote, 10)
	assert.Equal(t, before+2, f.srv.Count("GET", "/api/items"), "clamp should reload exactly once")
	reqs := f.srv.Requests()
	assert.Equal(t, "0", reqs[len(reqs)-1].Query.Get("skip"))
}

func TestPagination_Recompute(t *testing.T) {
	p := Pagination{Current: 3, Limit: 12, TotalItems: 25}
	assert.False(t, p.recompute())
	assert.Equal(t, 3, p.TotalPages)

	p.TotalItems = 10
	assert.True(t, p.recompute())
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 1, p.TotalPages)

	p = Pagination{Current: 1, Limit: 12, TotalItems: 0}
	p.recompute()
	assert.Equal(t, 1, p.TotalPages)

	assert.Equal(t, 3, TotalPagesFor(25, 12))
	assert.Equal(t, 2, TotalPagesFor(24, 12))
	assert.Equal(t, 1, TotalPagesFor(5, 0))
}

func TestLoadPage_LegacyShapeIsOnePage(t *testing.T) {
	f := newFixture(t)
	f.addItems(30, marketplace.Item{})
	f.srv.LegacyList = true

	require.NoError(t, f.catalog.LoadPage(context.Background()))
	snap := f.catalog.Snapshot()
	assert.Equal(t, 1, snap.Page.TotalPages)
	assert.True(t, snap.Page.Legacy)
	assert.False(t, f.catalog.CanNext())
}

func TestNextPrev_NoOpAtBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(13, marketplace.Item{})
	require.NoError(t, f.catalog.LoadPage(ctx))
	base := len(f.srv.Requests())

	moved, err := f.catalog.PrevPage(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Len(t, f.srv.Requests(), base)

	moved, err = f.catalog.NextPage(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, f.catalog.Snapshot().Page.Current)

	base = len(f.srv.Requests())
	moved, err = f.catalog.NextPage(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Len(t, f.srv.Requests(), base)
}

func TestFilterChangeResetsPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(30, marketplace.Item{Category: "tops"})
	require.NoError(t, f.catalog.LoadPage(ctx))
	require.NoError(t, f.catalog.GoToPage(ctx, 2))

	f.catalog.SetSearch("listing")
	assert.Equal(t, 1, f.catalog.Snapshot().Page.Current)

	require.NoError(t, f.catalog.GoToPage(ctx, 3))
	f.catalog.SetFilters(Filters{Category: "tops", Search: "listing"})
	assert.Equal(t, 1, f.catalog.Snapshot().Page.Current)

	require.NoError(t, f.catalog.GoToPage(ctx, 2))
	f.catalog.ResetFilters()
	snap := f.catalog.Snapshot()
	assert.Equal(t, 1, snap.Page.Current)
	assert.True(t, snap.Filters.IsZero())
}

func TestLoadPage_FailureKeepsItemsAndErrorClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(3, marketplace.Item{})
	require.NoError(t, f.catalog.LoadPage(ctx))

	f.srv.Fail("GET", "/api/items", 500, "")
	err := f.catalog.LoadPage(ctx)
	require.True(t, errors.Is(err, marketplace.ErrServer), "err = %v", err)
	snap := f.catalog.Snapshot()
	assert.Len(t, snap.Remote, 3)
	assert.Error(t, snap.LastError)
	assert.False(t, snap.Loading)

	require.NoError(t, f.catalog.LoadPage(ctx))
	assert.NoError(t, f.catalog.Snapshot().LastError)

	f.srv.Fail("GET", "/api/items", 500, "")
	_ = f.catalog.LoadPage(ctx)
	f.catalog.ClearError()
	assert.NoError(t, f.catalog.Snapshot().LastError)
}

// orderedGateway answers ListItems calls in an order chosen by the test.
type orderedGateway struct {
	*marketplace.Client
	mu      sync.Mutex
	calls   int
	release map[int]chan struct{}
	pages   map[int]marketplace.ItemPage
	started chan int
}

func (g *orderedGateway) ListItems(ctx context.Context, q marketplace.ItemQuery) (marketplace.ItemPage, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	g.started <- n
	<-g.release[n]
	return g.pages[n], nil
}

func TestLoadPage_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	gw := &orderedGateway{
		release: map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})},
		pages: map[int]marketplace.ItemPage{
			1: {Items: []marketplace.Item{{ID: marketplace.RemoteID(1), Title: "old"}}, Total: 40},
			2: {Items: []marketplace.Item{{ID: marketplace.RemoteID(2), Title: "new"}}, Total: 40},
		},
		started: make(chan int, 2),
	}
	c := New(gw, localitems.New(storage.NewMemory()), Options{Demo: testDemo})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); _ = c.LoadPage(ctx) }()
	<-gw.started
	wg.Add(1)
	go func() { defer wg.Done(); _ = c.LoadPage(ctx) }()
	<-gw.started

	// Newer request resolves first, the older one last.
	close(gw.release[2])
	require.Eventually(t, func() bool { return !c.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	close(gw.release[1])
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Remote, 1)
	assert.Equal(t, "new", snap.Remote[0].Title)
	assert.False(t, snap.Loading)
}

func TestCreateItem_DemoUserStaysLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(2, marketplace.Item{})
	require.NoError(t, f.catalog.LoadPage(ctx))
	demo := &marketplace.User{ID: 99, Email: marketplacetest.DemoEmail, Username: "demouser"}

	item, err := f.catalog.CreateItem(ctx, demo, "tok", validInput(), []marketplace.ImageFile{{Data: []byte("\x89PNG\r\n\x1a\n")}})
	require.NoError(t, err)
	assert.True(t, item.ID.IsLocal())
	assert.Zero(t, f.srv.Count("POST", "/api/items"))

	snap := f.catalog.Snapshot()
	require.Len(t, snap.Local, 1)
	assert.Equal(t, item.ID, snap.Local[0].ID)
	assert.Len(t, snap.Remote, 2)
	visible := snap.Visible(0)
	require.Len(t, visible, 3)
	assert.Equal(t, item.ID, visible[0].ID)

	stored, err := f.local.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreateItem_RemotePathPrepends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(2, marketplace.Item{})
	require.NoError(t, f.catalog.LoadPage(ctx))

	item, err := f.catalog.CreateItem(ctx, &f.owner, f.token, validInput(), nil)
	require.NoError(t, err)
	assert.False(t, item.ID.IsLocal())
	assert.Equal(t, 1, f.srv.Count("POST", "/api/items"))

	snap := f.catalog.Snapshot()
	assert.Equal(t, item.ID, snap.Remote[0].ID)
	assert.Equal(t, item.ID, snap.Mine[0].ID)
	assert.Empty(t, snap.Local)
	stored, _ := f.local.List(ctx)
	assert.Empty(t, stored)
}

func TestCreateItem_OfflineFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Close()

	require.Error(t, f.catalog.LoadPage(ctx))
	require.Error(t, f.catalog.LoadPage(ctx))
	require.True(t, f.catalog.Snapshot().Offline())

	item, err := f.catalog.CreateItem(ctx, &f.owner, f.token, validInput(), nil)
	require.NoError(t, err)
	assert.True(t, item.ID.IsLocal())
	assert.Equal(t, f.owner.ID, item.UserID)
}

func TestCreateItem_FailedProbeMeansOffline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Close()
	require.Error(t, f.catalog.Probe(ctx))

	item, err := f.catalog.CreateItem(ctx, &f.owner, f.token, validInput(), nil)
	require.NoError(t, err)
	assert.True(t, item.ID.IsLocal())
}

func TestCreateItem_ValidationRejectsBeforeNetwork(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := validInput()
	bad.Title = "Hat"
	_, err := f.catalog.CreateItem(ctx, &f.owner, f.token, bad, nil)
	require.True(t, errors.Is(err, marketplace.ErrValidation), "err = %v", err)

	images := make([]marketplace.ImageFile, MaxImages+1)
	_, err = f.catalog.CreateItem(ctx, &f.owner, f.token, validInput(), images)
	require.True(t, errors.Is(err, marketplace.ErrValidation), "err = %v", err)

	assert.Empty(t, f.srv.Requests())
	snap := f.catalog.Snapshot()
	assert.Error(t, snap.LastError)
	assert.False(t, snap.Loading)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	items := f.addItems(2, marketplace.Item{Title: "Old title"})
	require.NoError(t, f.catalog.LoadPage(ctx))
	target := items[0].ID
	require.NoError(t, f.catalog.LoadItem(ctx, target))

	title := "New title here"
	updated, err := f.catalog.UpdateItem(ctx, f.token, target, marketplace.ItemUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	snap := f.catalog.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, title, snap.Selected.Title)
	for _, it := range snap.Remote {
		if it.ID == target {
			assert.Equal(t, title, it.Title)
		} else {
			assert.Equal(t, "Old title", it.Title)
		}
	}

	require.NoError(t, f.catalog.DeleteItem(ctx, f.token, target))
	snap = f.catalog.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Len(t, snap.Remote, 1)
	assert.NotEqual(t, target, snap.Remote[0].ID)
}

func TestUpdateAndDelete_RejectLocalItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := marketplace.LocalID("abc")

	_, err := f.catalog.UpdateItem(ctx, f.token, id, marketplace.ItemUpdate{})
	require.True(t, errors.Is(err, localitems.ErrLocalItem))
	require.True(t, errors.Is(err, marketplace.ErrValidation))
	err = f.catalog.DeleteItem(ctx, f.token, id)
	require.True(t, errors.Is(err, localitems.ErrLocalItem))
	assert.Empty(t, f.srv.Requests())
}

func TestLoadItem_NotFoundVersusNetwork(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.catalog.LoadItem(ctx, marketplace.RemoteID(404))
	assert.True(t, errors.Is(err, marketplace.ErrNotFound), "err = %v", err)
	assert.False(t, errors.Is(err, marketplace.ErrNetwork))

	f.srv.Close()
	err = f.catalog.LoadItem(ctx, marketplace.RemoteID(404))
	assert.True(t, errors.Is(err, marketplace.ErrNetwork), "err = %v", err)
	assert.False(t, errors.Is(err, marketplace.ErrNotFound))
}

func TestLoadItem_LocalID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	saved, err := f.local.Save(ctx, validInput(), nil, f.owner.Basic())
	require.NoError(t, err)

	require.NoError(t, f.catalog.LoadItem(ctx, saved.ID))
	assert.Equal(t, saved.ID, f.catalog.Snapshot().Selected.ID)
	assert.Empty(t, f.srv.Requests())

	err = f.catalog.LoadItem(ctx, marketplace.LocalID("missing"))
	assert.True(t, errors.Is(err, marketplace.ErrNotFound))

	f.catalog.ClearSelected()
	assert.Nil(t, f.catalog.Snapshot().Selected)
}

func TestLoadLocal_CorruptIsWarningOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.mem.Set(ctx, storage.LocalItemsKey, "[{broken"))

	f.catalog.LoadLocal(ctx)
	snap := f.catalog.Snapshot()
	assert.Empty(t, snap.Local)
	assert.True(t, errors.Is(snap.Warning, localitems.ErrCorrupt))
	assert.NoError(t, snap.LastError)
}

func TestLoadLocal_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, err := f.local.Save(ctx, validInput(), nil, f.owner.Basic())
	require.NoError(t, err)
	second, err := f.local.Save(ctx, validInput(), nil, f.owner.Basic())
	require.NoError(t, err)

	f.catalog.LoadLocal(ctx)
	snap := f.catalog.Snapshot()
	require.Len(t, snap.Local, 2)
	assert.Equal(t, second.ID, snap.Local[0].ID)
	assert.Equal(t, first.ID, snap.Local[1].ID)
}

func TestVisible_FiltersLocalAndExcludesRemoteOwner(t *testing.T) {
	snap := Snapshot{
		Local: []marketplace.Item{
			{ID: marketplace.LocalID("l1"), Title: "Red scarf", Category: "accessories", UserID: 1},
			{ID: marketplace.LocalID("l2"), Title: "Blue jeans", Category: "bottoms", UserID: 2},
		},
		Remote: []marketplace.Item{
			{ID: marketplace.RemoteID(1), Title: "Cap", Category: "accessories", UserID: 2},
			{ID: marketplace.RemoteID(2), Title: "Belt", Category: "accessories", UserID: 1},
		},
		Filters: Filters{Category: "accessories"},
	}

	var ids []string
	for _, it := range snap.Visible(0) {
		ids = append(ids, it.ID.String())
	}
	assert.Equal(t, []string{"l1", "1", "2"}, ids)

	ids = nil
	for _, it := range snap.Visible(1) {
		ids = append(ids, it.ID.String())
	}
	assert.Equal(t, []string{"l1", "1"}, ids, "local items stay visible to their creator")
}

func TestOwned_LocalBeforeServerListings(t *testing.T) {
	snap := Snapshot{
		Local: []marketplace.Item{
			{ID: marketplace.LocalID("l1"), UserID: 1},
			{ID: marketplace.LocalID("l2"), UserID: 2},
		},
		Mine: []marketplace.Item{{ID: marketplace.RemoteID(7), UserID: 1}},
	}

	var ids []string
	for _, it := range snap.Owned(1) {
		ids = append(ids, it.ID.String())
	}
	assert.Equal(t, []string{"l1", "7"}, ids)
}

func TestSnapshotIsIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(1, marketplace.Item{Tags: []string{"a"}})
	require.NoError(t, f.catalog.LoadPage(ctx))

	snap := f.catalog.Snapshot()
	snap.Remote[0].Title = "mutated"
	snap.Remote[0].Tags[0] = "mutated"
	again := f.catalog.Snapshot()
	assert.Equal(t, "Listing", again.Remote[0].Title)
	assert.Equal(t, "a", again.Remote[0].Tags[0])
}

func TestSetLimit_RecomputesAndClamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addItems(25, marketplace.Item{})
	require.NoError(t, f.catalog.LoadPage(ctx))
	require.NoError(t, f.catalog.GoToPage(ctx, 3))

	f.catalog.SetLimit(30)
	snap := f.catalog.Snapshot()
	assert.Equal(t, 1, snap.Page.TotalPages)
	assert.Equal(t, 1, snap.Page.Current)
	assert.Equal(t, 30, snap.Page.Limit)
}

func TestModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.srv.AddUser(marketplace.User{Email: "root@example.com", Username: "root", Role: marketplace.RoleAdmin}, "password1")
	adminToken := f.srv.IssueToken(admin.ID, time.Hour)
	a := f.srv.AddItem(marketplace.Item{Title: "Pending one", UserID: f.owner.ID})
	b := f.srv.AddItem(marketplace.Item{Title: "Pending two", UserID: f.owner.ID})

	err := f.catalog.LoadPending(ctx, f.token)
	require.True(t, errors.Is(err, marketplace.ErrForbidden), "err = %v", err)

	require.NoError(t, f.catalog.LoadPending(ctx, adminToken))
	require.Len(t, f.catalog.Snapshot().Pending, 2)

	require.NoError(t, f.catalog.Approve(ctx, adminToken, a.ID.Remote))
	require.NoError(t, f.catalog.Reject(ctx, adminToken, b.ID.Remote))
	assert.Empty(t, f.catalog.Snapshot().Pending)

	stored, ok := f.srv.Item(a.ID.Remote)
	require.True(t, ok)
	assert.True(t, stored.IsApproved)
	_, ok = f.srv.Item(b.ID.Remote)
	assert.False(t, ok)
}

func TestLoadMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := f.srv.AddUser(marketplace.User{Email: "bo@example.com", Username: "bo"}, "password1")
	f.addItems(2, marketplace.Item{})
	f.addItems(1, marketplace.Item{UserID: other.ID})

	require.NoError(t, f.catalog.LoadMine(ctx, f.token))
	mine := f.catalog.Snapshot().Mine
	require.Len(t, mine, 2)
	for _, it := range mine {
		assert.Equal(t, f.owner.ID, it.UserID)
	}
}

func TestDeleteLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	demo := &marketplace.User{ID: 99, Email: marketplacetest.DemoEmail, Username: "demouser"}
	item, err := f.catalog.CreateItem(ctx, demo, "", validInput(), nil)
	require.NoError(t, err)
	require.NoError(t, f.catalog.LoadItem(ctx, item.ID))

	require.NoError(t, f.catalog.DeleteLocal(ctx, item.ID))

	snap := f.catalog.Snapshot()
	assert.Empty(t, snap.Local)
	assert.Nil(t, snap.Selected)
	stored, err := f.local.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	err = f.catalog.DeleteLocal(ctx, item.ID)
	assert.True(t, errors.Is(err, marketplace.ErrNotFound), "err = %v", err)
	err = f.catalog.DeleteLocal(ctx, marketplace.RemoteID(1))
	assert.True(t, errors.Is(err, marketplace.ErrValidation), "err = %v", err)
	assert.Zero(t, f.srv.Count("DELETE", "/api/items/1"))
}

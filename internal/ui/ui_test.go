package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/rewear/internal/catalog"
	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/marketplace/marketplacetest"
	"github.com/five82/rewear/internal/prefs"
	"github.com/five82/rewear/internal/session"
	"github.com/five82/rewear/internal/storage"
	"github.com/five82/rewear/internal/swaps"
)

type fixture struct {
	srv     *marketplacetest.Server
	session *session.Session
	catalog *catalog.Catalog
	swaps   *swaps.Negotiator
	model   Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newLoggedFixture(t, nil)
}

func newLoggedFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	srv := marketplacetest.New(t)
	client, err := marketplace.NewClient(srv.URL(), 2*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	store := storage.NewMemory()
	f := &fixture{
		srv:     srv,
		session: session.New(client, store, nil),
		catalog: catalog.New(client, localitems.New(store), catalog.Options{
			Demo: localitems.DemoIdentity{Emails: []string{marketplacetest.DemoEmail}},
		}),
		swaps: swaps.New(client, nil),
	}
	f.model = New(Options{
		Session:   f.session,
		Catalog:   f.catalog,
		Swaps:     f.swaps,
		Logger:    logger,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	f.model = f.update(t, tea.WindowSizeMsg{Width: 130, Height: 40})
	return f
}

// update feeds msg to the model and returns the resulting model.
func (f *fixture) update(t *testing.T, msg tea.Msg) Model {
	t.Helper()
	next, _ := f.model.Update(msg)
	f.model = next.(Model)
	return f.model
}

// press sends a key and runs the returned command to completion, feeding an
// operation result back into the model.
func (f *fixture) press(t *testing.T, msg tea.KeyMsg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *fixture) finish(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	done, ok := msg.(opDoneMsg)
	if !ok {
		t.Fatalf("command returned %T, want opDoneMsg", msg)
	}
	f.update(t, done)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCycleView(t *testing.T) {
	tests := []struct {
		current View
		delta   int
		want    View
	}{
		{ViewBrowse, 1, ViewSwaps},
		{ViewSwaps, 1, ViewLogs},
		{ViewLogs, 1, ViewBrowse},
		{ViewBrowse, -1, ViewLogs},
		{ViewDetail, 1, ViewBrowse},
	}
	for _, tt := range tests {
		if got := cycleView(tt.current, tt.delta); got != tt.want {
			t.Errorf("cycleView(%v, %d) = %v, want %v", tt.current, tt.delta, got, tt.want)
		}
	}
}

func TestNextChoice(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"", "xs"},
		{"all", "xs"},
		{"m", "l"},
		{"xxl", "all"},
		{"huge", "all"},
	}
	for _, tt := range tests {
		if got := nextChoice(sizeChoices, tt.current); got != tt.want {
			t.Errorf("nextChoice(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestHandleKey_SwitchesViews(t *testing.T) {
	f := newFixture(t)

	f.press(t, runes("w"))
	if f.model.currentView != ViewSwaps {
		t.Fatalf("after w view = %v, want swaps", f.model.currentView)
	}
	f.press(t, tea.KeyMsg{Type: tea.KeyTab})
	if f.model.currentView != ViewLogs {
		t.Fatalf("after tab view = %v, want logs", f.model.currentView)
	}
	f.press(t, runes("b"))
	if f.model.currentView != ViewBrowse {
		t.Fatalf("after b view = %v, want browse", f.model.currentView)
	}
	f.press(t, runes("a"))
	if f.model.currentView != ViewLogin {
		t.Fatalf("after a view = %v, want login", f.model.currentView)
	}
	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	if f.model.currentView != ViewBrowse {
		t.Fatalf("after esc view = %v, want browse", f.model.currentView)
	}
}

func TestHandleKey_HelpClosesOnAnyKey(t *testing.T) {
	f := newFixture(t)

	f.press(t, runes("?"))
	if !f.model.showHelp {
		t.Fatal("help not shown")
	}
	if !strings.Contains(f.model.View(), "Swaps") {
		t.Fatal("help does not list the swaps section")
	}
	f.press(t, runes("w"))
	if f.model.showHelp || f.model.currentView != ViewBrowse {
		t.Fatalf("help key was not swallowed: showHelp=%v view=%v", f.model.showHelp, f.model.currentView)
	}
}

func TestHandleKey_CycleThemeSavesPrefs(t *testing.T) {
	f := newFixture(t)

	f.press(t, runes("T"))
	if f.model.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", f.model.theme.Name)
	}
	if got := prefs.Load(f.model.prefsPath).Theme; got != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", got)
	}
}

func TestBrowse_FilterCycleReloads(t *testing.T) {
	f := newFixture(t)
	f.srv.AddItem(marketplace.Item{Title: "Wool coat", Category: "outerwear", IsApproved: true})
	f.srv.AddItem(marketplace.Item{Title: "Silk blouse", Category: "tops", IsApproved: true})

	f.finish(t, f.press(t, runes("c")))

	if got := f.catalog.Snapshot().Filters.Category; got != "tops" {
		t.Fatalf("category = %q, want tops", got)
	}
	view := f.model.View()
	if !strings.Contains(view, "Silk blouse") {
		t.Fatalf("view missing filtered item:\n%s", view)
	}
	if strings.Contains(view, "Wool coat") {
		t.Fatalf("view shows item outside the filter:\n%s", view)
	}
}

func TestBrowse_PagingAtBoundsIsNoop(t *testing.T) {
	f := newFixture(t)

	if cmd := f.press(t, runes("]")); cmd != nil {
		t.Fatal("next page on the only page returned a command")
	}
	if cmd := f.press(t, runes("[")); cmd != nil {
		t.Fatal("previous page on the first page returned a command")
	}
	if f.model.busy != 0 {
		t.Fatalf("busy = %d, want 0", f.model.busy)
	}
}

func TestBrowse_MineRequiresLogin(t *testing.T) {
	f := newFixture(t)

	if cmd := f.press(t, runes("v")); cmd != nil {
		t.Fatal("signed-out mine toggle returned a command")
	}
	if f.model.showMine {
		t.Fatal("mine view shown while signed out")
	}
	if !f.model.flash.isErr || !strings.Contains(f.model.flash.text, "Sign in") {
		t.Fatalf("flash = %+v, want a sign-in hint", f.model.flash)
	}
}

func TestBrowse_SearchAppliesTerm(t *testing.T) {
	f := newFixture(t)

	f.press(t, runes("/"))
	if !f.model.searching {
		t.Fatal("search not started")
	}
	f.press(t, runes("denim "))
	f.finish(t, f.press(t, tea.KeyMsg{Type: tea.KeyEnter}))

	if f.model.searching {
		t.Fatal("still searching after enter")
	}
	if got := f.catalog.Snapshot().Filters.Search; got != "denim" {
		t.Fatalf("search = %q, want denim", got)
	}
}

func TestLogin_SignsInAndReturnsToBrowse(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana", PointsBalance: 40}, "password1")

	f.press(t, runes("a"))
	f.model.loginForm = f.model.loginForm.setValue(loginEmail, "ana@example.com").setValue(loginPassword, "password1")
	f.finish(t, f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS}))

	if !f.model.snap.session.Authenticated {
		t.Fatalf("not signed in; flash = %+v", f.model.flash)
	}
	if f.model.currentView != ViewBrowse {
		t.Fatalf("view = %v, want browse", f.model.currentView)
	}
	if v := f.model.loginForm.value(loginPassword); v != "" {
		t.Fatalf("password field kept %q after sign in", v)
	}
	if !strings.Contains(f.model.View(), "ana") {
		t.Fatal("header does not show the username")
	}
}

func TestLogin_FollowUpFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newLoggedFixture(t, zap.New(core))
	f.srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana"}, "password1")
	f.srv.Fail("GET", "/api/swaps", 500, "swap index down")

	f.press(t, runes("a"))
	f.model.loginForm = f.model.loginForm.setValue(loginEmail, "ana@example.com").setValue(loginPassword, "password1")
	f.finish(t, f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS}))

	if !f.model.snap.session.Authenticated {
		t.Fatalf("not signed in; flash = %+v", f.model.flash)
	}
	if f.model.flash.isErr {
		t.Fatalf("flash = %+v, want success despite the swap fetch failure", f.model.flash)
	}
	if n := logs.FilterMessage("fetch swaps failed").Len(); n != 1 {
		t.Fatalf("logged %d swap fetch failures, want 1", n)
	}
	if n := logs.FilterMessage("load my listings failed").Len(); n != 0 {
		t.Fatalf("logged %d listing load failures, want 0", n)
	}
}

func TestLogin_FailureFlashesServerDetail(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser(marketplace.User{Email: "ana@example.com", Username: "ana"}, "password1")

	f.press(t, runes("a"))
	f.model.loginForm = f.model.loginForm.setValue(loginEmail, "ana@example.com").setValue(loginPassword, "wrong-pass")
	f.finish(t, f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS}))

	if f.model.snap.session.Authenticated {
		t.Fatal("signed in with a wrong password")
	}
	if f.model.currentView != ViewLogin {
		t.Fatalf("view = %v, want login", f.model.currentView)
	}
	if !f.model.flash.isErr {
		t.Fatalf("flash = %+v, want an error", f.model.flash)
	}
}

// createLocal signs in as the demo user and saves one local listing.
func (f *fixture) createLocal(t *testing.T) marketplace.Item {
	t.Helper()
	ctx := context.Background()
	if err := f.session.DemoLogin(ctx); err != nil {
		t.Fatalf("DemoLogin() error = %v", err)
	}
	item, err := f.catalog.CreateItem(ctx, f.session.User(), f.session.Token(), marketplace.ItemInput{
		Title:       "Wool scarf",
		Description: "Hand knitted wool scarf, worn twice",
		Category:    "accessories",
		Type:        "scarf",
		Size:        "M",
		Condition:   "good",
		PointValue:  12,
	}, nil)
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if !item.IsLocal() {
		t.Fatalf("demo listing %v was sent to the server", item.ID)
	}
	f.model.refreshSnapshots()
	return item
}

func containsItem(items []marketplace.Item, id marketplace.ID) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func TestBrowse_LocalListingInMarketAndMine(t *testing.T) {
	f := newFixture(t)
	item := f.createLocal(t)

	if !containsItem(f.model.browseItems(), item.ID) {
		t.Fatal("local listing missing from the market view")
	}
	if !strings.Contains(f.model.View(), "Wool scarf") {
		t.Fatal("market view does not render the local listing")
	}

	f.finish(t, f.press(t, runes("v")))
	if !f.model.showMine {
		t.Fatalf("mine view not shown; flash = %+v", f.model.flash)
	}
	if !containsItem(f.model.browseItems(), item.ID) {
		t.Fatal("local listing missing from the mine view")
	}
}

func TestDetail_DeleteLocalListing(t *testing.T) {
	f := newFixture(t)
	item := f.createLocal(t)

	f.finish(t, f.press(t, tea.KeyMsg{Type: tea.KeyEnter}))
	if f.model.currentView != ViewDetail {
		t.Fatalf("view = %v, want detail", f.model.currentView)
	}
	if !strings.Contains(f.model.View(), "D: delete") {
		t.Fatal("detail view does not offer delete for an owned local listing")
	}
	f.finish(t, f.press(t, runes("D")))

	if f.model.currentView != ViewBrowse {
		t.Fatalf("view = %v, want browse; flash = %+v", f.model.currentView, f.model.flash)
	}
	if containsItem(f.model.browseItems(), item.ID) {
		t.Fatal("deleted local listing still shown")
	}
	if n := f.srv.Count("DELETE", "/api/items/"+item.ID.Local); n != 0 {
		t.Fatalf("local delete sent %d server requests", n)
	}
}

func TestSwaps_SignedOutShowsHint(t *testing.T) {
	f := newFixture(t)

	if cmd := f.press(t, runes("w")); cmd != nil {
		t.Fatal("signed-out swaps view started a fetch")
	}
	if !strings.Contains(f.model.View(), "Sign in (a) to see your swaps") {
		t.Fatal("swaps view missing sign-in hint")
	}
}

func TestModeration_NonAdmin(t *testing.T) {
	f := newFixture(t)

	if cmd := f.press(t, runes("m")); cmd != nil {
		t.Fatal("non-admin moderation view started a load")
	}
	if !strings.Contains(f.model.View(), "only available to administrators") {
		t.Fatal("moderation view missing admin notice")
	}
}

func TestOpDone_ErrorFlashesAndKeepsView(t *testing.T) {
	f := newFixture(t)
	f.model.busy = 1

	f.update(t, opDoneMsg{label: "Swap requested", next: ViewSwaps, err: marketplace.Reject("not enough points")})

	if f.model.busy != 0 {
		t.Fatalf("busy = %d, want 0", f.model.busy)
	}
	if f.model.currentView != ViewBrowse {
		t.Fatalf("view = %v, want browse after a failed operation", f.model.currentView)
	}
	if f.model.flash.text != "not enough points" || !f.model.flash.isErr {
		t.Fatalf("flash = %+v", f.model.flash)
	}
}

func TestListingInput(t *testing.T) {
	f := newListingForm().
		setValue(listingTitle, "Denim jacket").
		setValue(listingCategory, " Outerwear ").
		setValue(listingSize, "M").
		setValue(listingCondition, "Like_New").
		setValue(listingPoints, "25").
		setValue(listingTags, "denim, ,vintage").
		setValue(listingImages, "a.jpg, b.png")

	input, paths, err := listingInput(f)
	if err != nil {
		t.Fatalf("listingInput() error = %v", err)
	}
	if input.Category != "outerwear" || input.Size != "m" || input.Condition != "like_new" {
		t.Fatalf("input not normalised: %+v", input)
	}
	if input.PointValue != 25 {
		t.Fatalf("PointValue = %d, want 25", input.PointValue)
	}
	if len(input.Tags) != 2 || input.Tags[1] != "vintage" {
		t.Fatalf("Tags = %v", input.Tags)
	}
	if len(paths) != 2 || paths[0] != "a.jpg" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestListingInput_RejectsFractionalPoints(t *testing.T) {
	f := newListingForm().setValue(listingTitle, "Scarf").setValue(listingPoints, "2.5")

	_, _, err := listingInput(f)
	if err == nil {
		t.Fatal("listingInput() accepted fractional points")
	}
	if got := marketplace.Message(err); got != "points must be a whole number" {
		t.Fatalf("Message() = %q", got)
	}
}

func TestReadImages_MissingFile(t *testing.T) {
	_, err := readImages([]string{filepath.Join(t.TempDir(), "gone.jpg")})
	if err == nil || !strings.Contains(marketplace.Message(err), "gone.jpg") {
		t.Fatalf("readImages() error = %v", err)
	}
}

func TestListingStatus(t *testing.T) {
	tests := []struct {
		item marketplace.Item
		want string
	}{
		{marketplace.Item{ID: marketplace.ID{Local: "local-1"}}, "local"},
		{marketplace.Item{ID: marketplace.RemoteID(1)}, "pending"},
		{marketplace.Item{ID: marketplace.RemoteID(2), IsApproved: true}, "available"},
		{marketplace.Item{ID: marketplace.RemoteID(3), IsApproved: true, Status: "Swapped"}, "swapped"},
	}
	for _, tt := range tests {
		if got := listingStatus(tt.item); got != tt.want {
			t.Errorf("listingStatus(%+v) = %q, want %q", tt.item.ID, got, tt.want)
		}
	}
}

func TestPendingForMe(t *testing.T) {
	provided := []marketplace.Swap{
		{Status: marketplace.SwapRequested},
		{Status: "Pending"},
		{Status: marketplace.SwapAccepted},
	}
	if got := pendingForMe(provided); got != 2 {
		t.Fatalf("pendingForMe() = %d, want 2", got)
	}
}

func TestView_BeforeResize(t *testing.T) {
	m := New(Options{Context: context.Background()})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View() = %q, want Loading...", got)
	}
}

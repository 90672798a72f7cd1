package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/state"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 12

// MaxImages bounds the photos attached to one listing.
const MaxImages = 5

// Gateway is the subset of the API client the catalog needs.
type Gateway interface {
	Ping(ctx context.Context) error
	ListItems(ctx context.Context, query marketplace.ItemQuery) (marketplace.ItemPage, error)
	GetItem(ctx context.Context, id int64) (marketplace.Item, error)
	MyItems(ctx context.Context, token string) ([]marketplace.Item, error)
	CreateItem(ctx context.Context, token string, input marketplace.ItemInput, images []marketplace.ImageFile) (marketplace.Item, error)
	UpdateItem(ctx context.Context, token string, id int64, update marketplace.ItemUpdate) (marketplace.Item, error)
	DeleteItem(ctx context.Context, token string, id int64) error
	PendingItems(ctx context.Context, token string) ([]marketplace.Item, error)
	ApproveItem(ctx context.Context, token string, id int64) (marketplace.Item, error)
	RejectItem(ctx context.Context, token string, id int64) error
}

// LocalStore is the local fallback collection.
type LocalStore interface {
	List(ctx context.Context) ([]marketplace.Item, error)
	Save(ctx context.Context, input marketplace.ItemInput, images []marketplace.ImageFile, owner marketplace.UserBasic) (marketplace.Item, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Options configure a Catalog.
type Options struct {
	Logger *zap.Logger
	Demo   localitems.DemoIdentity
	Limit  int
}

// Catalog caches listings and their filter and pagination state. It is safe
// for concurrent use.
type Catalog struct {
	gw     Gateway
	local  LocalStore
	demo   localitems.DemoIdentity
	logger *zap.Logger
	state  *state.Store[Snapshot]
	pages  state.Sequence
}

// New returns an empty catalog on page 1.
func New(gw Gateway, local LocalStore, opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	initial := Snapshot{Page: Pagination{Current: 1, TotalPages: 1, Limit: limit}}
	return &Catalog{
		gw:     gw,
		local:  local,
		demo:   opts.Demo,
		logger: logger.Named("catalog"),
		state:  state.NewStore(initial, cloneSnapshot),
	}
}

// Snapshot returns a copy of the current state.
func (c *Catalog) Snapshot() Snapshot { return c.state.Snapshot() }

func (c *Catalog) begin() {
	c.state.Update(func(v *Snapshot) {
		v.Loading = true
		v.LastError = nil
	})
}

// finish clears loading and records the outcome of a remote call.
func (c *Catalog) finish(err error) {
	c.state.Update(func(v *Snapshot) {
		v.Loading = false
		v.Health.Record(reachability(err))
		if err != nil {
			v.LastError = err
		}
	})
}

// reachability keeps only errors that say the backend could not be reached.
func reachability(err error) error {
	if marketplace.IsRetryable(err) {
		return err
	}
	return nil
}

// LoadPage fetches the current page with the current filters. Failures keep
// the previous items. When the reported total shrinks below the current page
// the page is clamped and reloaded once.
func (c *Catalog) LoadPage(ctx context.Context) error {
	return c.loadPage(ctx, true)
}

func (c *Catalog) loadPage(ctx context.Context, allowReload bool) error {
	ticket := c.pages.Next()
	var query marketplace.ItemQuery
	c.state.Update(func(v *Snapshot) {
		v.Loading = true
		v.LastError = nil
		query = v.query()
	})

	page, err := c.gw.ListItems(ctx, query)

	var stale, clamped bool
	c.state.Update(func(v *Snapshot) {
		if !c.pages.IsCurrent(ticket) {
			stale = true
			return
		}
		v.Loading = false
		v.Health.Record(reachability(err))
		if err != nil {
			v.LastError = err
			return
		}
		v.Remote = state.CloneEach(page.Items, marketplace.Item.Clone)
		v.Page.TotalItems = page.Total
		v.Page.Legacy = page.Legacy
		clamped = v.Page.recompute()
	})

	switch {
	case stale:
		c.logger.Debug("discarded stale page response", zap.Int("page", query.Page))
		return nil
	case err != nil:
		c.logger.Warn("load page failed", zap.Int("page", query.Page), zap.Error(err))
		return err
	case clamped && allowReload:
		c.logger.Debug("page clamped, reloading", zap.Int("page", query.Page))
		return c.loadPage(ctx, false)
	}
	return nil
}

// LoadItem resolves one listing into Selected. Local ids are served from the
// local collection. Not-found and network failures stay distinguishable with
// errors.Is.
func (c *Catalog) LoadItem(ctx context.Context, id marketplace.ID) error {
	if id.IsLocal() {
		return c.loadLocalItem(ctx, id)
	}
	c.begin()
	item, err := c.gw.GetItem(ctx, id.Remote)
	if err != nil {
		c.logger.Warn("load item failed", zap.Int64("item_id", id.Remote), zap.Error(err))
		c.finish(err)
		return err
	}
	c.state.Update(func(v *Snapshot) {
		selected := item.Clone()
		v.Selected = &selected
	})
	c.finish(nil)
	return nil
}

func (c *Catalog) loadLocalItem(ctx context.Context, id marketplace.ID) error {
	c.begin()
	defer c.state.Update(func(v *Snapshot) { v.Loading = false })

	items, err := c.local.List(ctx)
	if err != nil {
		c.warn(err)
	}
	for _, item := range items {
		if item.ID == id {
			c.state.Update(func(v *Snapshot) {
				selected := item.Clone()
				v.Selected = &selected
			})
			return nil
		}
	}
	notFound := &marketplace.APIError{Kind: marketplace.ErrNotFound, Detail: "That item no longer exists."}
	c.state.Update(func(v *Snapshot) { v.LastError = notFound })
	return notFound
}

// CreateItem validates and stores a new listing. Demo identities and offline
// sessions store it locally; everyone else goes through the API. Exactly one
// path runs. The result is placed at the front of its collection.
func (c *Catalog) CreateItem(ctx context.Context, actor *marketplace.User, token string, input marketplace.ItemInput, images []marketplace.ImageFile) (marketplace.Item, error) {
	c.begin()

	input = normalise(input)
	err := marketplace.Check(input)
	if err == nil && len(images) > MaxImages {
		err = marketplace.Reject(fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	if err != nil {
		c.state.Update(func(v *Snapshot) {
			v.Loading = false
			v.LastError = err
		})
		return marketplace.Item{}, err
	}

	if localitems.IsDemoUser(actor, c.demo) || c.state.Snapshot().Health.IsOffline() {
		return c.createLocal(ctx, actor, input, images)
	}

	item, err := c.gw.CreateItem(ctx, token, input, images)
	if err != nil {
		c.logger.Warn("create item failed", zap.Error(err))
		c.finish(err)
		return marketplace.Item{}, err
	}
	c.state.Update(func(v *Snapshot) {
		v.Remote = prepend(v.Remote, item)
		v.Mine = prepend(v.Mine, item)
		v.Page.TotalItems++
		v.Page.recompute()
	})
	c.finish(nil)
	c.logger.Info("created item", zap.Int64("item_id", item.ID.Remote))
	return item.Clone(), nil
}

func (c *Catalog) createLocal(ctx context.Context, actor *marketplace.User, input marketplace.ItemInput, images []marketplace.ImageFile) (marketplace.Item, error) {
	defer c.state.Update(func(v *Snapshot) { v.Loading = false })

	if actor == nil {
		err := &marketplace.APIError{Kind: marketplace.ErrUnauthorized, Detail: "log in to create listings"}
		c.state.Update(func(v *Snapshot) { v.LastError = err })
		return marketplace.Item{}, err
	}
	item, err := c.local.Save(ctx, input, images, actor.Basic())
	if err != nil {
		c.logger.Warn("save local item failed", zap.Error(err))
		c.state.Update(func(v *Snapshot) { v.LastError = err })
		return marketplace.Item{}, err
	}
	c.state.Update(func(v *Snapshot) { v.Local = prepend(v.Local, item) })
	c.logger.Info("created local item", zap.String("item_id", item.ID.Local))
	return item.Clone(), nil
}

// UpdateItem changes a remote listing and replaces it wherever it is cached.
func (c *Catalog) UpdateItem(ctx context.Context, token string, id marketplace.ID, update marketplace.ItemUpdate) (marketplace.Item, error) {
	if id.IsLocal() {
		c.state.Update(func(v *Snapshot) { v.LastError = localitems.ErrLocalItem })
		return marketplace.Item{}, localitems.ErrLocalItem
	}
	c.begin()
	item, err := c.gw.UpdateItem(ctx, token, id.Remote, update)
	if err != nil {
		c.logger.Warn("update item failed", zap.Int64("item_id", id.Remote), zap.Error(err))
		c.finish(err)
		return marketplace.Item{}, err
	}
	c.state.Update(func(v *Snapshot) {
		v.Remote = replace(v.Remote, item)
		v.Mine = replace(v.Mine, item)
		v.Pending = replace(v.Pending, item)
		if v.Selected != nil && v.Selected.ID == item.ID {
			selected := item.Clone()
			v.Selected = &selected
		}
	})
	c.finish(nil)
	return item.Clone(), nil
}

// DeleteItem removes a remote listing and drops it from every cache.
func (c *Catalog) DeleteItem(ctx context.Context, token string, id marketplace.ID) error {
	if id.IsLocal() {
		c.state.Update(func(v *Snapshot) { v.LastError = localitems.ErrLocalItem })
		return localitems.ErrLocalItem
	}
	c.begin()
	if err := c.gw.DeleteItem(ctx, token, id.Remote); err != nil {
		c.logger.Warn("delete item failed", zap.Int64("item_id", id.Remote), zap.Error(err))
		c.finish(err)
		return err
	}
	c.dropEverywhere(id)
	c.finish(nil)
	return nil
}

// DeleteLocal removes a listing kept on this machine. Remote ids are
// rejected; use DeleteItem for those.
func (c *Catalog) DeleteLocal(ctx context.Context, id marketplace.ID) error {
	if !id.IsLocal() {
		err := marketplace.Reject("only local listings can be removed here")
		c.state.Update(func(v *Snapshot) { v.LastError = err })
		return err
	}
	removed, err := c.local.Delete(ctx, id.Local)
	if err == nil && !removed {
		err = &marketplace.APIError{Kind: marketplace.ErrNotFound, Detail: "local listing not found"}
	}
	if err != nil {
		c.logger.Warn("delete local item failed", zap.String("item_id", id.Local), zap.Error(err))
		c.state.Update(func(v *Snapshot) { v.LastError = err })
		return err
	}
	c.state.Update(func(v *Snapshot) {
		v.LastError = nil
		v.Local = remove(v.Local, id)
		if v.Selected != nil && v.Selected.ID == id {
			v.Selected = nil
		}
	})
	c.logger.Info("deleted local item", zap.String("item_id", id.Local))
	return nil
}

func (c *Catalog) dropEverywhere(id marketplace.ID) {
	c.state.Update(func(v *Snapshot) {
		before := len(v.Remote)
		v.Remote = remove(v.Remote, id)
		if len(v.Remote) < before && v.Page.TotalItems > 0 {
			v.Page.TotalItems--
			v.Page.recompute()
		}
		v.Mine = remove(v.Mine, id)
		v.Pending = remove(v.Pending, id)
		if v.Selected != nil && v.Selected.ID == id {
			v.Selected = nil
		}
	})
}

// LoadLocal reloads the local collection, newest first. A corrupt or
// unreadable collection yields an empty list and a Warning, never LastError.
func (c *Catalog) LoadLocal(ctx context.Context) {
	items, err := c.local.List(ctx)
	if err != nil {
		c.warn(err)
		items = nil
	}
	newest := make([]marketplace.Item, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		newest = append(newest, items[i])
	}
	c.state.Update(func(v *Snapshot) {
		v.Local = newest
		if err == nil {
			v.Warning = nil
		}
	})
}

func (c *Catalog) warn(err error) {
	c.logger.Warn("local items unavailable", zap.Error(err))
	c.state.Update(func(v *Snapshot) { v.Warning = err })
}

// LoadMine fetches the listings owned by the token's user.
func (c *Catalog) LoadMine(ctx context.Context, token string) error {
	c.begin()
	items, err := c.gw.MyItems(ctx, token)
	if err != nil {
		c.logger.Warn("load my items failed", zap.Error(err))
		c.finish(err)
		return err
	}
	c.state.Update(func(v *Snapshot) { v.Mine = state.CloneEach(items, marketplace.Item.Clone) })
	c.finish(nil)
	return nil
}

// LoadPending fetches listings awaiting moderation. Admin only.
func (c *Catalog) LoadPending(ctx context.Context, token string) error {
	c.begin()
	items, err := c.gw.PendingItems(ctx, token)
	if err != nil {
		c.logger.Warn("load pending items failed", zap.Error(err))
		c.finish(err)
		return err
	}
	c.state.Update(func(v *Snapshot) { v.Pending = state.CloneEach(items, marketplace.Item.Clone) })
	c.finish(nil)
	return nil
}

// Approve publishes a pending listing. Admin only.
func (c *Catalog) Approve(ctx context.Context, token string, id int64) error {
	c.begin()
	item, err := c.gw.ApproveItem(ctx, token, id)
	if err != nil {
		c.logger.Warn("approve item failed", zap.Int64("item_id", id), zap.Error(err))
		c.finish(err)
		return err
	}
	c.state.Update(func(v *Snapshot) {
		v.Pending = remove(v.Pending, item.ID)
		if v.Selected != nil && v.Selected.ID == item.ID {
			selected := item.Clone()
			v.Selected = &selected
		}
	})
	c.finish(nil)
	return nil
}

// Reject removes a pending listing. Admin only.
func (c *Catalog) Reject(ctx context.Context, token string, id int64) error {
	c.begin()
	if err := c.gw.RejectItem(ctx, token, id); err != nil {
		c.logger.Warn("reject item failed", zap.Int64("item_id", id), zap.Error(err))
		c.finish(err)
		return err
	}
	c.dropEverywhere(marketplace.RemoteID(id))
	c.finish(nil)
	return nil
}

// Probe checks whether the API answers and records the outcome. A failed
// probe puts the catalog offline until the next successful call.
func (c *Catalog) Probe(ctx context.Context) error {
	err := c.gw.Ping(ctx)
	c.state.Update(func(v *Snapshot) {
		v.Health.Record(err)
		v.Health.ProbeFailed = err != nil
	})
	return err
}

// SetFilters replaces the filters and returns to page 1. It does not load.
func (c *Catalog) SetFilters(f Filters) {
	c.state.Update(func(v *Snapshot) {
		if v.Filters != f {
			v.Filters = f
			v.Page.Current = 1
		}
	})
}

// SetSearch changes only the search term and returns to page 1.
func (c *Catalog) SetSearch(term string) {
	c.state.Update(func(v *Snapshot) {
		if v.Filters.Search != term {
			v.Filters.Search = term
			v.Page.Current = 1
		}
	})
}

// ResetFilters clears every filter and returns to page 1.
func (c *Catalog) ResetFilters() {
	c.SetFilters(Filters{})
}

// SetLimit changes the page size. The page count is recomputed from the last
// known total and the current page clamped to it.
func (c *Catalog) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	c.state.Update(func(v *Snapshot) {
		v.Page.Limit = limit
		v.Page.recompute()
	})
}

// CanNext reports whether a later page exists.
func (c *Catalog) CanNext() bool { return c.state.Snapshot().Page.CanNext() }

// CanPrev reports whether an earlier page exists.
func (c *Catalog) CanPrev() bool { return c.state.Snapshot().Page.CanPrev() }

// NextPage advances and loads. At the last page it does nothing and reports
// false.
func (c *Catalog) NextPage(ctx context.Context) (bool, error) {
	return c.step(ctx, 1)
}

// PrevPage goes back and loads. On page 1 it does nothing and reports false.
func (c *Catalog) PrevPage(ctx context.Context) (bool, error) {
	return c.step(ctx, -1)
}

func (c *Catalog) step(ctx context.Context, delta int) (bool, error) {
	moved := false
	c.state.Update(func(v *Snapshot) {
		target := v.Page.Current + delta
		if target < 1 || target > v.Page.TotalPages {
			return
		}
		v.Page.Current = target
		moved = true
	})
	if !moved {
		return false, nil
	}
	return true, c.LoadPage(ctx)
}

// GoToPage jumps to page, clamped to the known range, and loads it.
func (c *Catalog) GoToPage(ctx context.Context, page int) error {
	c.state.Update(func(v *Snapshot) {
		v.Page.Current = max(1, min(page, v.Page.TotalPages))
	})
	return c.LoadPage(ctx)
}

// ClearError drops the last recorded error and local-store warning.
func (c *Catalog) ClearError() {
	c.state.Update(func(v *Snapshot) {
		v.LastError = nil
		v.Warning = nil
	})
}

// ClearSelected empties the detail slot.
func (c *Catalog) ClearSelected() {
	c.state.Update(func(v *Snapshot) { v.Selected = nil })
}

func normalise(input marketplace.ItemInput) marketplace.ItemInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	input.Tags = tags
	return input
}

func prepend(items []marketplace.Item, item marketplace.Item) []marketplace.Item {
	out := make([]marketplace.Item, 0, len(items)+1)
	out = append(out, item.Clone())
	return append(out, items...)
}

func replace(items []marketplace.Item, item marketplace.Item) []marketplace.Item {
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item.Clone()
		}
	}
	return items
}

func remove(items []marketplace.Item, id marketplace.ID) []marketplace.Item {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// Package swaps tracks the swap records visible to the current user and the
// flows that create and transition them. Status changes are owned by the
// server; the negotiator only reflects what the API returns.
package swaps

import (
	"context"

	"go.uber.org/zap"

	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/state"
)

// Local rejections raised before a swap request leaves the process.
var (
	ErrSelfSwap           = marketplace.Reject("you cannot request a swap for your own item")
	ErrInsufficientPoints = marketplace.Reject("not enough points for this item")
	ErrNotOwner           = marketplace.Reject("you can only offer your own items")
)

// Gateway is the subset of the API client the negotiator needs.
type Gateway interface {
	ListMySwaps(ctx context.Context, token string) (marketplace.SwapPartitions, error)
	GetSwap(ctx context.Context, token string, id int64) (marketplace.Swap, error)
	CreateSwap(ctx context.Context, token string, req marketplace.SwapRequest) (marketplace.Swap, error)
	UpdateSwapStatus(ctx context.Context, token string, id int64, status string) (marketplace.Swap, error)
	AdminListSwaps(ctx context.Context, token string) ([]marketplace.Swap, error)
}

// Offer describes what the caller wants and how they pay for it. Exactly one
// of Item and Points must be set.
type Offer struct {
	Target marketplace.Item
	Item   *marketplace.Item
	Points int
}

func (o Offer) request() marketplace.SwapRequest {
	req := marketplace.SwapRequest{ProviderItemID: o.Target.ID.Remote, PointsUsed: o.Points}
	if o.Item != nil {
		id := o.Item.ID.Remote
		req.RequesterItemID = &id
	}
	return req
}

// Snapshot is the observable swap state.
type Snapshot struct {
	All       []marketplace.Swap
	Requested []marketplace.Swap
	Provided  []marketplace.Swap
	Selected  *marketplace.Swap
	Loading   bool
	LastError error
}

// Negotiator owns the swap state. It is safe for concurrent use.
type Negotiator struct {
	gw     Gateway
	logger *zap.Logger
	state  *state.Store[Snapshot]
	mine   state.Sequence
}

// New returns an empty negotiator.
func New(gw Gateway, logger *zap.Logger) *Negotiator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Negotiator{
		gw:     gw,
		logger: logger.Named("swaps"),
		state:  state.NewStore(Snapshot{}, cloneSnapshot),
	}
}

// Snapshot returns a copy of the current state.
func (n *Negotiator) Snapshot() Snapshot { return n.state.Snapshot() }

func (n *Negotiator) begin() {
	n.state.Update(func(v *Snapshot) {
		v.Loading = true
		v.LastError = nil
	})
}

func (n *Negotiator) finish(err error) {
	n.state.Update(func(v *Snapshot) {
		v.Loading = false
		if err != nil {
			v.LastError = err
		}
	})
}

// Create checks offer against the caller and submits it. Every rejection is
// raised locally before any request is made. The new swap is placed at the
// front of Requested.
func (n *Negotiator) Create(ctx context.Context, token string, caller *marketplace.User, offer Offer) (marketplace.Swap, error) {
	n.begin()
	if err := check(caller, offer); err != nil {
		n.finish(err)
		return marketplace.Swap{}, err
	}

	swap, err := n.gw.CreateSwap(ctx, token, offer.request())
	if err != nil {
		n.logger.Warn("create swap failed", zap.Int64("item_id", offer.Target.ID.Remote), zap.Error(err))
		n.finish(err)
		return marketplace.Swap{}, err
	}
	n.state.Update(func(v *Snapshot) {
		v.Requested = append([]marketplace.Swap{cloneSwap(swap)}, v.Requested...)
	})
	n.finish(nil)
	n.logger.Info("created swap", zap.Int64("swap_id", swap.ID), zap.Int64("item_id", swap.ProviderItemID))
	return cloneSwap(swap), nil
}

func check(caller *marketplace.User, offer Offer) error {
	if caller == nil {
		return &marketplace.APIError{Kind: marketplace.ErrUnauthorized, Detail: "log in to request swaps"}
	}
	if offer.Target.ID.IsLocal() || (offer.Item != nil && offer.Item.ID.IsLocal()) {
		return localitems.ErrLocalItem
	}
	if err := offer.request().Validate(); err != nil {
		return err
	}
	if offer.Target.UserID == caller.ID {
		return ErrSelfSwap
	}
	if offer.Item == nil {
		if caller.PointsBalance < offer.Target.PointValue {
			return ErrInsufficientPoints
		}
		return nil
	}
	if offer.Item.UserID != caller.ID {
		return ErrNotOwner
	}
	return nil
}

// FetchMine replaces both partitions with the server's view. Responses to
// superseded calls are dropped.
func (n *Negotiator) FetchMine(ctx context.Context, token string) error {
	ticket := n.mine.Next()
	n.begin()
	parts, err := n.gw.ListMySwaps(ctx, token)

	stale := false
	n.state.Update(func(v *Snapshot) {
		if !n.mine.IsCurrent(ticket) {
			stale = true
			return
		}
		v.Loading = false
		if err != nil {
			v.LastError = err
			return
		}
		v.Requested = state.CloneEach(parts.Requested, cloneSwap)
		v.Provided = state.CloneEach(parts.Provided, cloneSwap)
	})
	if stale {
		return nil
	}
	if err != nil {
		n.logger.Warn("fetch swaps failed", zap.Error(err))
	}
	return err
}

// FetchAll loads every swap on the platform into All. Callers known not to
// be admins are refused without a request.
func (n *Negotiator) FetchAll(ctx context.Context, token string, caller *marketplace.User) error {
	n.begin()
	if caller != nil && !caller.IsAdmin() {
		err := &marketplace.APIError{Kind: marketplace.ErrForbidden, Detail: "admin access required"}
		n.finish(err)
		return err
	}
	swaps, err := n.gw.AdminListSwaps(ctx, token)
	if err != nil {
		n.logger.Warn("fetch all swaps failed", zap.Error(err))
		n.finish(err)
		return err
	}
	n.state.Update(func(v *Snapshot) { v.All = state.CloneEach(swaps, cloneSwap) })
	n.finish(nil)
	return nil
}

// FetchOne loads a single swap into Selected.
func (n *Negotiator) FetchOne(ctx context.Context, token string, id int64) error {
	n.begin()
	swap, err := n.gw.GetSwap(ctx, token, id)
	if err != nil {
		n.logger.Warn("fetch swap failed", zap.Int64("swap_id", id), zap.Error(err))
		n.finish(err)
		return err
	}
	n.state.Update(func(v *Snapshot) {
		selected := cloneSwap(swap)
		v.Selected = &selected
	})
	n.finish(nil)
	return nil
}

// Transition asks the server to move swap id to status and writes the
// returned record over every cached copy.
func (n *Negotiator) Transition(ctx context.Context, token string, id int64, status string) (marketplace.Swap, error) {
	n.begin()
	swap, err := n.gw.UpdateSwapStatus(ctx, token, id, status)
	if err != nil {
		n.logger.Warn("update swap failed", zap.Int64("swap_id", id), zap.String("status", status), zap.Error(err))
		n.finish(err)
		return marketplace.Swap{}, err
	}
	n.state.Update(func(v *Snapshot) {
		overwrite(v.All, swap)
		overwrite(v.Requested, swap)
		overwrite(v.Provided, swap)
		if v.Selected != nil && v.Selected.ID == swap.ID {
			selected := cloneSwap(swap)
			v.Selected = &selected
		}
	})
	n.finish(nil)
	n.logger.Info("swap status changed", zap.Int64("swap_id", swap.ID), zap.String("status", swap.Status))
	return cloneSwap(swap), nil
}

// ClearError drops the last recorded error.
func (n *Negotiator) ClearError() {
	n.state.Update(func(v *Snapshot) { v.LastError = nil })
}

// ClearSelected empties the detail slot.
func (n *Negotiator) ClearSelected() {
	n.state.Update(func(v *Snapshot) { v.Selected = nil })
}

// Reset forgets every cached swap, used on logout.
func (n *Negotiator) Reset() {
	n.mine.Next()
	n.state.Update(func(v *Snapshot) { *v = Snapshot{} })
}

func overwrite(swaps []marketplace.Swap, swap marketplace.Swap) {
	for i := range swaps {
		if swaps[i].ID == swap.ID {
			swaps[i] = cloneSwap(swap)
		}
	}
}

func cloneSwap(s marketplace.Swap) marketplace.Swap {
	if s.RequesterItemID != nil {
		id := *s.RequesterItemID
		s.RequesterItemID = &id
	}
	if s.RequesterItem != nil {
		item := *s.RequesterItem
		s.RequesterItem = &item
	}
	return s
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.All = state.CloneEach(s.All, cloneSwap)
	s.Requested = state.CloneEach(s.Requested, cloneSwap)
	s.Provided = state.CloneEach(s.Provided, cloneSwap)
	if s.Selected != nil {
		selected := cloneSwap(*s.Selected)
		s.Selected = &selected
	}
	s.LastError = state.CloneError(s.LastError)
	return s
}

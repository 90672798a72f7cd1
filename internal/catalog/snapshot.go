package catalog

import (
	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/state"
)

// Filters narrow the listing. Empty or "all" values are unrestricted.
type Filters struct {
	Category  string
	Size      string
	Condition string
	Search    string
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return marketplace.IsUnrestricted(f.Category) &&
		marketplace.IsUnrestricted(f.Size) &&
		marketplace.IsUnrestricted(f.Condition) &&
		f.Search == ""
}

func (f Filters) criteria() localitems.Criteria {
	return localitems.Criteria{Category: f.Category, Size: f.Size, Condition: f.Condition, Search: f.Search}
}

// Pagination tracks the current page against the last reported total.
type Pagination struct {
	Current    int
	TotalPages int
	Limit      int
	TotalItems int
	Legacy     bool // total unknown; the server sent a bare list
}

// CanNext reports whether a later page exists.
func (p Pagination) CanNext() bool { return p.Current < p.TotalPages }

// CanPrev reports whether an earlier page exists.
func (p Pagination) CanPrev() bool { return p.Current > 1 }

// TotalPagesFor returns ceil(total/limit), at least 1.
func TotalPagesFor(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// recompute derives TotalPages and clamps Current. It reports whether Current
// had to move down.
func (p *Pagination) recompute() bool {
	if p.Legacy {
		p.TotalPages = 1
	} else {
		p.TotalPages = TotalPagesFor(p.TotalItems, p.Limit)
	}
	if p.Current < 1 {
		p.Current = 1
	}
	if p.Current > p.TotalPages {
		p.Current = p.TotalPages
		return true
	}
	return false
}

// Snapshot is the observable catalog state. Remote and Local are kept apart;
// Visible composes them for display.
type Snapshot struct {
	Remote   []marketplace.Item
	Local    []marketplace.Item
	Selected *marketplace.Item
	Mine     []marketplace.Item
	Pending  []marketplace.Item

	Filters Filters
	Page    Pagination

	Loading   bool
	LastError error
	Warning   error // local-store problem; never fatal
	Health    state.Health
}

// Offline reports whether the backend is considered unreachable.
func (s Snapshot) Offline() bool { return s.Health.IsOffline() }

// Visible returns the local items matching the filters followed by the
// current remote page. Remote items owned by excludeOwner are left out when
// it is non-zero; local items always stay, since only their creator sees them.
func (s Snapshot) Visible(excludeOwner int64) []marketplace.Item {
	local := localitems.Filter(s.Local, s.Filters.criteria())
	out := make([]marketplace.Item, 0, len(local)+len(s.Remote))
	out = append(out, local...)
	for _, item := range s.Remote {
		if excludeOwner != 0 && item.UserID == excludeOwner {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Owned returns owner's local items followed by their server listings.
func (s Snapshot) Owned(owner int64) []marketplace.Item {
	out := make([]marketplace.Item, 0, len(s.Local)+len(s.Mine))
	for _, item := range s.Local {
		if item.UserID == owner {
			out = append(out, item)
		}
	}
	return append(out, s.Mine...)
}

func (s Snapshot) query() marketplace.ItemQuery {
	return marketplace.ItemQuery{
		Page:      s.Page.Current,
		Limit:     s.Page.Limit,
		Category:  s.Filters.Category,
		Size:      s.Filters.Size,
		Condition: s.Filters.Condition,
		Search:    s.Filters.Search,
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Remote = state.CloneEach(s.Remote, marketplace.Item.Clone)
	s.Local = state.CloneEach(s.Local, marketplace.Item.Clone)
	s.Mine = state.CloneEach(s.Mine, marketplace.Item.Clone)
	s.Pending = state.CloneEach(s.Pending, marketplace.Item.Clone)
	if s.Selected != nil {
		selected := s.Selected.Clone()
		s.Selected = &selected
	}
	s.LastError = state.CloneError(s.LastError)
	s.Warning = state.CloneError(s.Warning)
	s.Health = s.Health.Clone()
	return s
}

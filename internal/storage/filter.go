package storage

import "strings"

// Listing filters accepted by the listing views.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterClosed    = "closed"
	FilterMy        = "my"
	FilterWinner    = "winner"
	FilterWatchlist = "watchlist"
)

// ListingQuery selects listings. Zero fields do not restrict the result.
type ListingQuery struct {
	// Filter is one of the Filter constants; unknown values behave like
	// FilterAll.
	Filter string
	// Query matches titles case-insensitively.
	Query string
	// ViewerID is the requesting user, used by my, winner and watchlist.
	ViewerID int
	// CategoryID restricts to one category.
	CategoryID int
	// OwnerID restricts to one seller.
	OwnerID int
	// WatchedBy restricts to a user's watchlist.
	WatchedBy int
}

// matches must be called with the store lock held.
func (s *InMemoryStore) matches(l *Listing, q ListingQuery) bool {
	if q.CategoryID != 0 && l.CategoryID != q.CategoryID {
		return false
	}
	if q.OwnerID != 0 && l.OwnerID != q.OwnerID {
		return false
	}
	if q.WatchedBy != 0 && !s.watches[watchKey{l.ID, q.WatchedBy}] {
		return false
	}

	switch q.Filter {
	case FilterActive:
		if !l.Active {
			return false
		}
	case FilterClosed:
		if l.Active {
			return false
		}
	case FilterMy:
		if l.OwnerID != q.ViewerID {
			return false
		}
	case FilterWinner:
		w := s.winningBidLocked(l.ID)
		if w == nil || w.UserID != q.ViewerID {
			return false
		}
	case FilterWatchlist:
		if !s.watches[watchKey{l.ID, q.ViewerID}] {
			return false
		}
	}

	if q.Query != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(q.Query)) {
		return false
	}
	return true
}

// Package projection derives the view models shown by the screens from the
// latest snapshots of the live collections. Everything here is synchronous and
// free of backend access, so it can be fed synthetic snapshots.
package projection

import "eventboard/internal/domain/entity"

// EventItem is one row of the dashboard.
type EventItem struct {
	Event      entity.Event `json:"event"`
	IsFavorite bool         `json:"is_favorite"`
	IsOwner    bool         `json:"is_owner"`
}

// IDSet is a set of event ids.
type IDSet map[string]struct{}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]

	return ok
}

// FavoritesView is the favorites screen plus the ids used for membership tests.
type FavoritesView struct {
	Items []entity.FavoriteMark `json:"items"`
	IDs   IDSet                 `json:"-"`
}

// Favorites maps a favorites snapshot to its view. Items keep snapshot order.
func Favorites(marks []entity.FavoriteMark) FavoritesView {
	view := FavoritesView{
		Items: make([]entity.FavoriteMark, len(marks)),
		IDs:   make(IDSet, len(marks)),
	}
	copy(view.Items, marks)
	for _, mark := range marks {
		view.IDs[mark.EventID] = struct{}{}
	}

	return view
}

// EventList combines an events snapshot with the favorite ids of currentUID.
// Events keep snapshot order, which the query already sorts by date.
func EventList(events []entity.Event, favoriteIDs IDSet, currentUID string) []EventItem {
	items := make([]EventItem, 0, len(events))
	for _, event := range events {
		items = append(items, EventItem{
			Event:      event,
			IsFavorite: favoriteIDs.Has(event.ID),
			IsOwner:    event.OwnedBy(currentUID),
		})
	}

	return items
}

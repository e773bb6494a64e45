package projection

import (
	"sync"

	"eventboard/internal/domain/entity"
)

// DashboardView is the state of the dashboard and favorites screens for one user.
type DashboardView struct {
	UID       string                `json:"uid"`
	Items     []EventItem           `json:"items"`
	Favorites []entity.FavoriteMark `json:"favorites"`

	// Loading is set until the first events snapshot arrives.
	Loading bool `json:"loading"`

	// Stream errors. The last good snapshot stays in place when they are set.
	EventsError    string `json:"events_error,omitempty"`
	FavoritesError string `json:"favorites_error,omitempty"`

	// Version increases with every recomputation.
	Version int64 `json:"version"`
}

// FavoriteIDs returns the ids of the favorited events in the view.
func (v DashboardView) FavoriteIDs() IDSet {
	ids := make(IDSet, len(v.Favorites))
	for _, mark := range v.Favorites {
		ids[mark.EventID] = struct{}{}
	}

	return ids
}

// Find returns the dashboard row of eventID.
func (v DashboardView) Find(eventID string) (EventItem, bool) {
	for _, item := range v.Items {
		if item.Event.ID == eventID {
			return item, true
		}
	}

	return EventItem{}, false
}

// Dashboard keeps the latest value of the events and favorites streams and
// recomputes the view whenever either one changes. Neither source waits for
// the other; a source that has not delivered yet counts as empty.
type Dashboard struct {
	mu        sync.Mutex
	uid       string
	events    []entity.Event
	favorites FavoritesView
	loaded    bool
	eventsErr error
	favErr    error
	view      DashboardView
}

// NewDashboard creates an empty dashboard for uid.
func NewDashboard(uid string) *Dashboard {
	d := &Dashboard{
		uid:       uid,
		favorites: Favorites(nil),
	}
	d.recompute()

	return d
}

// SetEvents replaces the events source and returns the new view.
func (d *Dashboard) SetEvents(events []entity.Event) DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = events
	d.loaded = true
	d.eventsErr = nil

	return d.recompute()
}

// SetFavorites replaces the favorites source and returns the new view.
func (d *Dashboard) SetFavorites(marks []entity.FavoriteMark) DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.favorites = Favorites(marks)
	d.favErr = nil

	return d.recompute()
}

// SetEventsError records a failure of the events stream.
func (d *Dashboard) SetEventsError(err error) DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.eventsErr = err
	// An events stream that fails before its first snapshot still ends loading.
	d.loaded = true

	return d.recompute()
}

// SetFavoritesError records a failure of the favorites stream.
func (d *Dashboard) SetFavoritesError(err error) DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.favErr = err

	return d.recompute()
}

// View returns the current view.
func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.view
}

// Favorites returns the current favorites view.
func (d *Dashboard) Favorites() FavoritesView {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.favorites
}

func (d *Dashboard) recompute() DashboardView {
	view := DashboardView{
		UID:       d.uid,
		Items:     EventList(d.events, d.favorites.IDs, d.uid),
		Favorites: d.favorites.Items,
		Loading:   !d.loaded,
		Version:   d.view.Version + 1,
	}
	if d.eventsErr != nil {
		view.EventsError = d.eventsErr.Error()
	}
	if d.favErr != nil {
		view.FavoritesError = d.favErr.Error()
	}
	d.view = view

	return view
}

package projection

import (
	"strconv"
	"testing"
	"time"

	"eventboard/internal/domain/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSnapshots turns generated flags into an events snapshot owned by "u0"/"u1"
// and a favorites snapshot holding the flagged events.
func buildSnapshots(ownerFlags, favFlags []bool) ([]entity.Event, []entity.FavoriteMark) {
	events := make([]entity.Event, 0, len(ownerFlags))
	marks := make([]entity.FavoriteMark, 0)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, own := range ownerFlags {
		owner := "u1"
		if own {
			owner = "u0"
		}
		e := entity.Event{
			ID:       "e" + strconv.Itoa(i),
			Title:    "Event " + strconv.Itoa(i),
			Location: "HQ",
			Date:     base.Add(-time.Duration(i) * time.Hour),
			OwnerID:  owner,
		}
		events = append(events, e)
		if i < len(favFlags) && favFlags[i] {
			marks = append(marks, entity.NewFavoriteMark(e))
		}
	}

	return events, marks
}

func checkItems(items []EventItem, events []entity.Event, favs IDSet, uid string) bool {
	if len(items) != len(events) {
		return false
	}
	for i, item := range items {
		if item.Event.ID != events[i].ID {
			return false
		}
		if item.IsFavorite != favs.Has(item.Event.ID) {
			return false
		}
		if item.IsOwner != (item.Event.OwnerID == uid) {
			return false
		}
	}

	return true
}

func TestProperty_EventListFlags(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("flags follow favorites membership and ownership", prop.ForAll(
		func(ownerFlags, favFlags []bool) bool {
			events, marks := buildSnapshots(ownerFlags, favFlags)
			favs := Favorites(marks)

			return checkItems(EventList(events, favs.IDs, "u0"), events, favs.IDs, "u0")
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("dashboard result does not depend on which stream updated last", prop.ForAll(
		func(ownerFlags, favFlags []bool, eventsFirst bool) bool {
			events, marks := buildSnapshots(ownerFlags, favFlags)

			d := NewDashboard("u0")
			var view DashboardView
			if eventsFirst {
				d.SetEvents(events)
				view = d.SetFavorites(marks)
			} else {
				d.SetFavorites(marks)
				view = d.SetEvents(events)
			}

			return checkItems(view.Items, events, Favorites(marks).IDs, "u0") && !view.Loading
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestEventList_SignedOutOwnsNothing(t *testing.T) {
	events := []entity.Event{{ID: "e1"}, {ID: "e2", OwnerID: "u1"}}

	items := EventList(events, nil, "")

	require.Len(t, items, 2)
	for _, item := range items {
		assert.False(t, item.IsOwner)
		assert.False(t, item.IsFavorite)
	}
}

func TestFavorites_IDs(t *testing.T) {
	marks := []entity.FavoriteMark{{EventID: "a", Title: "A"}, {EventID: "b", Title: "B"}}

	view := Favorites(marks)

	assert.Equal(t, marks, view.Items)
	assert.True(t, view.IDs.Has("a"))
	assert.True(t, view.IDs.Has("b"))
	assert.False(t, view.IDs.Has("c"))

	// The view does not alias the snapshot.
	marks[0].Title = "changed"
	assert.Equal(t, "A", view.Items[0].Title)
}

func TestDashboard_LoadingUntilEvents(t *testing.T) {
	d := NewDashboard("u0")
	assert.True(t, d.View().Loading)

	view := d.SetFavorites([]entity.FavoriteMark{{EventID: "e1"}})
	assert.True(t, view.Loading)
	assert.Empty(t, view.Items)
	assert.Len(t, view.Favorites, 1)

	view = d.SetEvents([]entity.Event{{ID: "e1", OwnerID: "u0"}})
	assert.False(t, view.Loading)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].IsFavorite)
	assert.True(t, view.Items[0].IsOwner)
}

func TestDashboard_ErrorKeepsLastSnapshot(t *testing.T) {
	d := NewDashboard("u0")
	d.SetEvents([]entity.Event{{ID: "e1"}, {ID: "e2"}})
	d.SetFavorites([]entity.FavoriteMark{{EventID: "e2"}})

	view := d.SetEventsError(assert.AnError)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, assert.AnError.Error(), view.EventsError)

	view = d.SetFavoritesError(assert.AnError)
	assert.Len(t, view.Favorites, 1)
	assert.NotEmpty(t, view.FavoritesError)
	item, ok := view.Find("e2")
	require.True(t, ok)
	assert.True(t, item.IsFavorite)
}

func TestDashboard_VersionIncreases(t *testing.T) {
	d := NewDashboard("u0")
	v1 := d.View().Version
	v2 := d.SetEvents(nil).Version
	v3 := d.SetFavorites(nil).Version

	assert.Less(t, v1, v2)
	assert.Less(t, v2, v3)
}

func TestDashboardView_FavoriteIDs(t *testing.T) {
	view := DashboardView{Favorites: []entity.FavoriteMark{{EventID: "x"}}}

	ids := view.FavoriteIDs()

	assert.True(t, ids.Has("x"))
	_, ok := view.Find("x")
	assert.False(t, ok)
}

package usecase

import "eventboard/internal/usecase/projection"

// WorkspaceUsecase owns the live subscriptions of the signed-in user. It opens
// the events and favorites streams when a user signs in, releases them when the
// user changes or signs out, and keeps the projections current.
type WorkspaceUsecase interface {
	// Dashboard returns the current dashboard view of the signed-in user.
	Dashboard() (projection.DashboardView, error)

	// Favorites returns the current favorites view of the signed-in user.
	Favorites() (projection.FavoritesView, error)

	// Watch calls fn after every recomputation of the dashboard until cancel is called.
	Watch(fn func(projection.DashboardView)) (cancel func())

	// ActiveSubscriptions returns the number of live subscriptions held.
	ActiveSubscriptions() int
}

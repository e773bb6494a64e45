package impl

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/infra/persistence/model"
	"eventboard/internal/usecase"
	"eventboard/internal/usecase/live"
	"eventboard/internal/usecase/projection"

	"go.uber.org/fx"
)

// WorkspaceServiceParams holds dependencies for the workspace, injected by Fx.
type WorkspaceServiceParams struct {
	fx.In

	Lc      fx.Lifecycle
	Ctx     context.Context
	Session usecase.SessionUsecase
	Store   repository.DocumentStore
	Logger  *slog.Logger
}

// workspaceService implements the WorkspaceUsecase interface.
//
// Lock order: mu, then a subscription's delivery lock, then watchMu.
// Subscription callbacks never take mu, so closing a scope under mu is safe.
type workspaceService struct {
	ctx    context.Context
	cancel context.CancelFunc

	session usecase.SessionUsecase
	store   repository.DocumentStore
	logger  *slog.Logger

	mu      sync.Mutex
	uid     string
	scope   *live.Scope
	unwatch func()

	current atomic.Pointer[projection.Dashboard]

	watchMu  sync.Mutex
	watchers map[int]*watcher
	nextID   int
}

// watcher remembers the last view it was given. The two streams recompute on
// separate goroutines, so views can reach notify out of order; a watcher only
// moves forward within one dashboard.
type watcher struct {
	fn        func(projection.DashboardView)
	dashboard *projection.Dashboard
	version   int64
}

func (w *watcher) send(dashboard *projection.Dashboard, view projection.DashboardView) {
	if dashboard != nil && dashboard == w.dashboard && view.Version <= w.version {
		return
	}
	w.dashboard = dashboard
	w.version = view.Version
	w.fn(view)
}

// NewWorkspaceService is the constructor for workspaceService.
func NewWorkspaceService(params WorkspaceServiceParams) usecase.WorkspaceUsecase {
	ctx, cancel := context.WithCancel(params.Ctx)
	w := &workspaceService{
		ctx:      ctx,
		cancel:   cancel,
		session:  params.Session,
		store:    params.Store,
		logger:   params.Logger,
		watchers: make(map[int]*watcher),
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			unwatch := w.session.Watch(w.onSession)
			w.mu.Lock()
			w.unwatch = unwatch
			w.mu.Unlock()

			return nil
		},
		OnStop: func(context.Context) error {
			w.stop()

			return nil
		},
	})

	return w
}

func (w *workspaceService) stop() {
	w.mu.Lock()
	unwatch := w.unwatch
	w.unwatch = nil
	w.mu.Unlock()

	// Stop session notifications first so that no new scope is opened.
	if unwatch != nil {
		unwatch()
	}

	w.mu.Lock()
	w.closeScopeLocked()
	w.uid = ""
	w.mu.Unlock()

	w.current.Store(nil)
	w.cancel()
}

// onSession reopens the streams whenever the signed-in user changes.
func (w *workspaceService) onSession(session entity.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()

	uid := session.UID()
	if uid == w.uid && (uid == "" || w.scope != nil) {
		return
	}

	w.closeScopeLocked()
	w.uid = uid

	if uid == "" {
		w.current.Store(nil)
		w.notify(nil, projection.DashboardView{})

		return
	}

	dashboard := projection.NewDashboard(uid)
	w.current.Store(dashboard)
	w.scope = live.NewScope()
	w.notify(dashboard, dashboard.View())

	w.logger.Info("Opening live collections", slog.String("uid", uid))
	w.openEvents(dashboard)
	w.openFavorites(dashboard, uid)
}

func (w *workspaceService) openEvents(dashboard *projection.Dashboard) {
	query := repository.Query{
		Collection: entity.EventsCollection,
		OrderBy:    model.FieldDate,
		Direction:  repository.Desc,
	}
	sub, err := live.Subscribe(w.ctx, w.store, query, model.ToEventDomain,
		func(events []entity.Event) {
			w.deliver(dashboard, dashboard.SetEvents(events))
		},
		func(err error) {
			w.logger.Warn("Events stream failed", slog.Any("error", err))
			w.deliver(dashboard, dashboard.SetEventsError(err))
		},
	)
	if err != nil {
		w.logger.Error("Failed to subscribe to events", slog.Any("error", err))
		w.deliver(dashboard, dashboard.SetEventsError(err))

		return
	}
	w.scope.Add(sub)
}

func (w *workspaceService) openFavorites(dashboard *projection.Dashboard, uid string) {
	query := repository.Query{Collection: entity.FavoritesPath(uid)}
	sub, err := live.Subscribe(w.ctx, w.store, query, model.ToFavoriteDomain,
		func(marks []entity.FavoriteMark) {
			w.deliver(dashboard, dashboard.SetFavorites(marks))
		},
		func(err error) {
			w.logger.Warn("Favorites stream failed", slog.String("uid", uid), slog.Any("error", err))
			w.deliver(dashboard, dashboard.SetFavoritesError(err))
		},
	)
	if err != nil {
		w.logger.Error("Failed to subscribe to favorites", slog.String("uid", uid), slog.Any("error", err))
		w.deliver(dashboard, dashboard.SetFavoritesError(err))

		return
	}
	w.scope.Add(sub)
}

func (w *workspaceService) closeScopeLocked() {
	if w.scope == nil {
		return
	}
	w.logger.Info("Closing live collections", slog.String("uid", w.uid))
	w.scope.Close()
	w.scope = nil
}

// deliver forwards a view computed by a subscription callback unless its user
// has signed out or switched in the meantime.
func (w *workspaceService) deliver(dashboard *projection.Dashboard, view projection.DashboardView) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	if w.current.Load() != dashboard {
		return
	}
	for _, wt := range w.watchers {
		wt.send(dashboard, view)
	}
}

// notify fans out a view produced by a session change. dashboard is nil when signed out.
func (w *workspaceService) notify(dashboard *projection.Dashboard, view projection.DashboardView) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	for _, wt := range w.watchers {
		wt.send(dashboard, view)
	}
}

// Dashboard returns the current dashboard view.
func (w *workspaceService) Dashboard() (projection.DashboardView, error) {
	dashboard := w.current.Load()
	if dashboard == nil {
		return projection.DashboardView{}, domainerrors.ErrUnauthenticated
	}

	return dashboard.View(), nil
}

// Favorites returns the current favorites view.
func (w *workspaceService) Favorites() (projection.FavoritesView, error) {
	dashboard := w.current.Load()
	if dashboard == nil {
		return projection.FavoritesView{}, domainerrors.ErrUnauthenticated
	}

	return dashboard.Favorites(), nil
}

// Watch calls fn with the current view, then after every recomputation.
func (w *workspaceService) Watch(fn func(projection.DashboardView)) func() {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	id := w.nextID
	w.nextID++
	wt := &watcher{fn: fn}
	w.watchers[id] = wt

	if dashboard := w.current.Load(); dashboard != nil {
		wt.send(dashboard, dashboard.View())
	} else {
		wt.send(nil, projection.DashboardView{})
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			w.watchMu.Lock()
			delete(w.watchers, id)
			w.watchMu.Unlock()
		})
	}
}

// ActiveSubscriptions returns the number of live subscriptions held.
func (w *workspaceService) ActiveSubscriptions() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scope == nil {
		return 0
	}

	return w.scope.Len()
}

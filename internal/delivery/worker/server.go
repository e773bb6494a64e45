// Package worker runs background jobs as a Delivery.
package worker

import (
	"context"
	"log/slog"
	"strings"

	"eventboard/config"
	"eventboard/internal/delivery"
	"eventboard/internal/domain/lifecycle"
	"eventboard/internal/errors"
	"eventboard/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

type workerServer struct {
	logger  *slog.Logger
	session usecase.SessionUsecase
	cron    *cron.Cron
	done    chan struct{}
}

// ServerParams holds dependencies for the worker
type ServerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	Session usecase.SessionUsecase
}

// NewServer creates the session revalidation worker. An empty schedule
// disables the job and Serve returns once the app stops.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	logger := params.Logger.With(slog.String("component", "worker"))

	srv := &workerServer{
		logger:  logger,
		session: params.Session,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))),
		)),
		done: make(chan struct{}),
	}

	schedule := ""
	if params.Cfg.Session != nil {
		schedule = strings.TrimSpace(params.Cfg.Session.RevalidateSchedule)
	}
	if schedule != "" {
		if _, err := srv.cron.AddFunc(schedule, srv.revalidate); err != nil {
			return nil, errors.Wrapf(err, "invalid session revalidate schedule %q", schedule)
		}
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve starts the scheduler and blocks until the worker is stopped.
func (s *workerServer) Serve(ctx context.Context) error {
	s.logger.Info("Starting worker", slog.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()

	select {
	case <-ctx.Done():
	case <-s.done:
	}

	return nil
}

// revalidate drops the session when the identity backend no longer accepts it.
func (s *workerServer) revalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	if !s.session.Current().Authenticated() {
		return
	}

	if err := s.session.Revalidate(ctx); err != nil {
		s.logger.Warn("Session revalidation failed", slog.Any("error", err))

		return
	}

	if !s.session.Current().Authenticated() {
		s.logger.Info("Session no longer valid, signed out")
	}
}

// stop waits for a running job to finish, bounded by the shutdown timeout.
func (s *workerServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down worker")
	close(s.done)

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-shutdownCtx.Done():
		return errors.WithStack(shutdownCtx.Err())
	}
}

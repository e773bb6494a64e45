// Package backend selects the identity backend and document store implementation.
package backend

import (
	"context"
	"log/slog"

	"eventboard/config"
	"eventboard/internal/domain/constants"
	"eventboard/internal/domain/repository"
	"eventboard/internal/domain/service"
	"eventboard/internal/infra/firebase"
	"eventboard/internal/infra/memory"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the backend, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// Result exposes both halves of the selected backend
type Result struct {
	fx.Out

	Identity service.IdentityBackend
	Store    repository.DocumentStore
}

// New creates the identity backend and document store based on configuration
func New(params Params) (Result, error) {
	provider := constants.BackendProviderMemory
	if params.Config.Backend != nil && params.Config.Backend.Provider != "" {
		provider = params.Config.Backend.Provider
	}

	switch provider {
	case constants.BackendProviderMemory:
		return newMemory(params), nil
	case constants.BackendProviderFirebase:
		return newFirebase(params)
	default:
		return Result{}, errors.Errorf("unknown backend provider: %s", provider)
	}
}

func newMemory(params Params) Result {
	opts := memory.IdentityOptions{Logger: params.Logger}
	if cfg := params.Config.Memory; cfg != nil {
		opts.BcryptCost = cfg.BcryptCost
		opts.TokenSecret = cfg.TokenSecret
		opts.TokenTTL = cfg.TokenTTL
	}

	params.Logger.Warn("Using in-memory backend, data is lost on shutdown")

	store := memory.NewStore()
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing in-memory store")

			return store.Close()
		},
	})

	return Result{
		Identity: memory.NewIdentity(opts),
		Store:    store,
	}
}

func newFirebase(params Params) (Result, error) {
	cfg := params.Config.Firebase
	if cfg == nil {
		return Result{}, errors.New("firebase configuration is required for firebase provider")
	}

	app, err := firebase.NewApp(params.Ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	identity, err := firebase.NewIdentity(params.Ctx, app, cfg.APIKey, params.Logger)
	if err != nil {
		return Result{}, err
	}

	store, err := firebase.NewStore(params.Ctx, app, params.Logger)
	if err != nil {
		return Result{}, err
	}

	params.Logger.Info("Using Firebase backend", slog.String("project_id", cfg.ProjectID))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing Firestore client")

			return store.Close()
		},
	})

	return Result{
		Identity: identity,
		Store:    store,
	}, nil
}

// Module provides the backend FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(New),
)

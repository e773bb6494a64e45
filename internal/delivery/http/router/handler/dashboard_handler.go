package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "eventboard/internal/delivery/context"
	"eventboard/internal/delivery/http/response"
	"eventboard/internal/errors"
	"eventboard/internal/usecase"
	"eventboard/internal/usecase/projection"

	"github.com/labstack/echo/v4"
)

const streamKeepAlive = 30 * time.Second

// DashboardHandler serves the dashboard and favorites screens.
type DashboardHandler struct {
	workspace usecase.WorkspaceUsecase
	logger    *slog.Logger
}

// NewDashboardHandler is the constructor for DashboardHandler, injected by Fx.
func NewDashboardHandler(workspace usecase.WorkspaceUsecase, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// Dashboard returns the current dashboard view.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	view, err := h.workspace.Dashboard()
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, view, "")
}

// Favorites returns the current favorites list.
func (h *DashboardHandler) Favorites(c echo.Context) error {
	view, err := h.workspace.Favorites()
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, view.Items, "")
}

// Stream pushes every dashboard recomputation as a server-sent event until the
// client goes away. Views that arrive while a write is in flight are coalesced
// into the latest one.
func (h *DashboardHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	latest := make(chan projection.DashboardView, 1)
	cancel := h.workspace.Watch(func(view projection.DashboardView) {
		select {
		case <-latest:
		default:
		}
		latest <- view
	})
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Dashboard stream closed")

			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case view := <-latest:
			payload, err := json.Marshal(view)
			if err != nil {
				logger.Error("Failed to encode dashboard view", slog.Any("error", err))

				continue
			}
			if _, err := fmt.Fprintf(res, "id: %d\nevent: dashboard\ndata: %s\n\n", view.Version, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

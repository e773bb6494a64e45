package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	deliverycontext "eventboard/internal/delivery/context"
	"eventboard/internal/delivery/http/response"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"
	"eventboard/internal/usecase"

	"github.com/labstack/echo/v4"
)

// dateLayouts are accepted for the event date: a plain date input or a full timestamp.
var dateLayouts = []string{time.DateOnly, time.RFC3339}

// EventHandler serves event writes and favorite toggles.
type EventHandler struct {
	events    usecase.EventUsecase
	workspace usecase.WorkspaceUsecase
	logger    *slog.Logger
}

// NewEventHandler is the constructor for EventHandler, injected by Fx.
func NewEventHandler(events usecase.EventUsecase, workspace usecase.WorkspaceUsecase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:    events,
		workspace: workspace,
		logger:    logger,
	}
}

// eventIDParam is the :id path segment. Ids become document path segments.
type eventIDParam struct {
	ID string `param:"id" validate:"required,max=128,excludesall=/"`
}

// eventRequest is the create/edit form as posted.
type eventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
}

// toInput parses the date. An unparsable date is reported like a missing one
// so that the form shows a single message for the field.
func (r eventRequest) toInput() (*usecase.EventInput, error) {
	input := &usecase.EventInput{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
	}

	raw := strings.TrimSpace(r.Date)
	if raw == "" {
		return input, nil
	}
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, raw); err == nil {
			input.Date = &date

			return input, nil
		}
	}

	return nil, domainerrors.NewValidationError(domainerrors.FieldError{
		Field:   "date",
		Message: "Date must be YYYY-MM-DD",
	})
}

func bindEventID(c echo.Context) (string, error) {
	var param eventIDParam
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &param); err != nil {
		return "", errors.WithStack(err)
	}
	if err := c.Validate(&param); err != nil {
		return "", err
	}

	return param.ID, nil
}

func bindEventInput(c echo.Context) (*usecase.EventInput, error) {
	var req eventRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid event input")
	}

	return req.toInput()
}

// Create handles the create form.
func (h *EventHandler) Create(c echo.Context) error {
	input, err := bindEventInput(c)
	if err != nil {
		return err
	}

	id, err := h.events.CreateEvent(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{"id": id}, "Event created")
}

// Get returns one event for the edit form.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}

	event, err := h.events.GetEvent(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, event, "")
}

// Update handles the edit form.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}
	input, err := bindEventInput(c)
	if err != nil {
		return err
	}

	if err := h.events.UpdateEvent(c.Request().Context(), id, input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"id": id}, "Event updated")
}

// Delete removes an event.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}

	if err := h.events.DeleteEvent(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Event deleted")
}

// ToggleFavorite flips the favorite state of a dashboard row. The current state
// and the snapshot copied into the mark are both taken from the dashboard view.
func (h *EventHandler) ToggleFavorite(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}

	view, err := h.workspace.Dashboard()
	if err != nil {
		return errors.WithStack(err)
	}
	item, ok := view.Find(id)
	if !ok {
		return errors.WithStack(domainerrors.ErrNotFound.WithDetails("event " + id + " is not on the dashboard"))
	}

	favorited, err := h.events.ToggleFavorite(c.Request().Context(), item.Event, item.IsFavorite)
	if err != nil {
		return errors.WithStack(err)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Debug("Favorite toggled",
		slog.String("event_id", id),
		slog.Bool("favorited", favorited),
	)

	return response.Success(c, http.StatusOK, map[string]bool{"is_favorite": favorited}, "")
}

// RemoveFavorite deletes a mark from the favorites screen.
func (h *EventHandler) RemoveFavorite(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}

	if err := h.events.RemoveFavorite(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Favorite removed")
}

// ShareCode renders the QR code of an event as PNG.
func (h *EventHandler) ShareCode(c echo.Context) error {
	id, err := bindEventID(c)
	if err != nil {
		return err
	}

	png, err := h.events.ShareCode(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

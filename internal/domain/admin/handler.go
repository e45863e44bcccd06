package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/domain/user"
	"github.com/consult/consult/internal/platform/apperr"
	"github.com/consult/consult/internal/platform/auth"
	"github.com/consult/consult/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	g.GET("/doctors/pending", h.PendingDoctors)
	g.PUT("/doctors/:id/approve", h.ApproveDoctor)
	g.PUT("/doctors/:id/reject", h.RejectDoctor)
	g.POST("/doctors/bulk", h.BulkApproveReject)
	g.PUT("/users/:id/suspend", h.SuspendUser)
	g.PUT("/users/:id/activate", h.ActivateUser)
	g.GET("/users", h.UsersByRole)
	g.GET("/analytics", h.Analytics)
	g.POST("/notifications/broadcast", h.BroadcastNotification)
}

func (h *Handler) PendingDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)

	doctors, total, err := h.svc.PendingDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

func (h *Handler) ApproveDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.ApproveDoctor(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RejectDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RejectDoctor(c.Request().Context(), id, body.Reason); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) BulkApproveReject(c echo.Context) error {
	var body struct {
		DoctorIDs []uuid.UUID `json:"doctor_ids"`
		Action    BulkAction  `json:"action"`
		Reason    string      `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.BulkApproveRejectDoctors(c.Request().Context(), body.DoctorIDs, body.Action, body.Reason)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) SuspendUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.SuspendUser(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ActivateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.ActivateUser(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UsersByRole(c echo.Context) error {
	pg := pagination.FromContext(c)
	role := user.Role(c.QueryParam("role"))
	if role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "role query parameter is required")
	}

	users, total, err := h.svc.UsersByRole(c.Request().Context(), role, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg.Limit, pg.Offset))
}

func (h *Handler) Analytics(c echo.Context) error {
	analytics, err := h.svc.Analytics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, analytics)
}

func (h *Handler) BroadcastNotification(c echo.Context) error {
	var body struct {
		Title      string                `json:"title"`
		Message    string                `json:"message"`
		Type       notification.Category `json:"type"`
		TargetRole user.Role             `json:"target_role"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sent, err := h.svc.SendBulkNotification(c.Request().Context(), body.Title, body.Message, body.Type, body.TargetRole)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"sent": sent})
}

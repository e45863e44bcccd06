package application

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	api.GET("/applications", h.List)
	api.GET("/applications/:id", h.Get)

	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/applications", h.Submit)

	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.PUT("/applications/:id/review", h.Review)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.PUT("/applications/:id/payment-status", h.SetPaymentStatus)
}

func (h *Handler) Submit(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var draft Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := auth.Authorize(ident, auth.ActionSubmitApplication, ident.UserID); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	app, err := h.svc.Submit(c.Request().Context(), ident.UserID, draft)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, app)
}

func (h *Handler) Review(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var body struct {
		Notes          string `json:"notes"`
		Recommendation string `json:"recommendation"`
		Outcome        Status `json:"outcome"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	app, err := h.svc.Review(c.Request().Context(), ident.UserID, id, body.Notes, body.Recommendation, body.Outcome)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, app)
}

// List returns the caller's slice of the registry: patients see their own
// applications, doctors the ones bound to them, admins everything.
func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	status := Status(c.QueryParam("status"))
	ctx := c.Request().Context()

	var (
		apps  []*Application
		total int
		err   error
	)
	switch ident.Role {
	case auth.RolePatient:
		apps, total, err = h.svc.ListByPatient(ctx, ident.UserID, status, pg.Limit, pg.Offset)
	case auth.RoleDoctor:
		apps, total, err = h.svc.ListByDoctor(ctx, ident.UserID, status, pg.Limit, pg.Offset)
	case auth.RoleAdmin:
		apps, total, err = h.svc.List(ctx, status, pg.Limit, pg.Offset)
	default:
		return echo.NewHTTPError(http.StatusForbidden, "unknown role")
	}
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(apps, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	app, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	owner := app.PatientID
	if ident.Role == auth.RoleDoctor {
		owner = app.DoctorID
	}
	if err := auth.Authorize(ident, auth.ActionReadApplication, owner); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	return c.JSON(http.StatusOK, app)
}

func (h *Handler) SetPaymentStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var body struct {
		PaymentStatus PaymentStatus `json:"payment_status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.SetPaymentStatus(c.Request().Context(), id, body.PaymentStatus); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

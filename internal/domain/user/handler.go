package user

import (
	"net/http"
	"strconv"

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
	// Doctor directory is readable by any authenticated caller.
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	// Registration endpoints; identity is issued externally, the profile
	// row is created here.
	api.POST("/patients", h.RegisterPatient)
	api.POST("/doctors", h.RegisterDoctor)

	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.GET("/patients/me", h.GetOwnPatientProfile)
	patientGroup.PUT("/patients/me", h.UpdatePatientProfile)

	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.GET("/doctors/me", h.GetOwnDoctorProfile)
	doctorGroup.PUT("/doctors/me", h.UpdateDoctorProfile)
	doctorGroup.PUT("/doctors/me/availability", h.SetAvailability)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterDoctor(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

// ListDoctors serves the doctor directory. Without filters it returns
// verified, available doctors; specialization and q parameters narrow the
// listing.
func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if q := c.QueryParam("q"); q != "" {
		doctors, total, err := h.svc.SearchDoctors(ctx, q, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
	}

	if spec := c.QueryParam("specialization"); spec != "" {
		doctors, total, err := h.svc.DoctorsBySpecialization(ctx, spec, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
	}

	doctors, total, err := h.svc.AvailableDoctors(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetOwnPatientProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	p, err := h.svc.GetPatient(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetOwnDoctorProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	d, err := h.svc.GetDoctor(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = ident.UserID

	if err := h.svc.UpdatePatientProfile(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = ident.UserID

	if err := h.svc.UpdateDoctorProfile(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetAvailability(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var body struct {
		Available *bool `json:"available"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Available == nil {
		raw := c.QueryParam("available")
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available is required")
		}
		body.Available = &parsed
	}

	if err := h.svc.SetDoctorAvailability(c.Request().Context(), ident.UserID, *body.Available); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": *body.Available})
}

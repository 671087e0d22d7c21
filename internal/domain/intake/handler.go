package intake

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/intake/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients/:id/discharge", h.DischargePatient)
	api.POST("/patients/:id/records", h.AddMedicalRecord)

	api.POST("/admissions", h.AdmitNext)
	api.GET("/queues", h.QueueStatus)

	api.POST("/doctors", h.AddDoctor)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.POST("/rooms", h.AddRoom)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)

	api.POST("/appointments", h.ScheduleAppointment)
	api.GET("/appointments", h.ListAppointments)

	api.POST("/undo", h.UndoLast)
	api.GET("/stats", h.Statistics)
}

// httpError maps engine errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCapacityExhausted),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrDuplicateKey):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("id")))
}

// -- Patients --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req RegisterPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return httpError(err)
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), req.Name, req.Age, req.Condition, req.Priority)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.SearchPatient(c.Request().Context(), pathID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.ListPatients(c.Request().Context())
	if status := c.QueryParam("status"); status != "" {
		filtered := items[:0]
		for _, p := range items {
			if strings.EqualFold(string(p.Status), status) {
				filtered = append(filtered, p)
			}
		}
		items = filtered
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg))
}

func (h *Handler) DischargePatient(c echo.Context) error {
	id := pathID(c)
	if err := h.svc.DischargePatient(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	p, err := h.svc.SearchPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AddMedicalRecord(c echo.Context) error {
	var req MedicalRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AddMedicalRecord(c.Request().Context(), pathID(c), req.Record)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

// -- Admission --

func (h *Handler) AdmitNext(c echo.Context) error {
	p, err := h.svc.AdmitNext(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) QueueStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.QueueStatus(c.Request().Context()))
}

// -- Staff and rooms --

func (h *Handler) AddDoctor(c echo.Context) error {
	var req AddDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return httpError(err)
	}
	d, err := h.svc.AddDoctor(c.Request().Context(), req.Name, req.Specialization, req.MaxPatients)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListDoctors(c.Request().Context()))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.svc.GetDoctor(c.Request().Context(), pathID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) AddRoom(c echo.Context) error {
	var req AddRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return httpError(err)
	}
	r, err := h.svc.AddRoom(c.Request().Context(), RoomCategory(req.Category), req.Capacity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewRoom(r))
}

func (h *Handler) ListRooms(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListRooms(c.Request().Context()))
}

func (h *Handler) GetRoom(c echo.Context) error {
	r, err := h.svc.GetRoom(c.Request().Context(), pathID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

// -- Appointments --

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var req ScheduleAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return httpError(err)
	}
	a, err := h.svc.ScheduleAppointment(c.Request().Context(), req.PatientID, req.DoctorID, req.ScheduledAt, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.Paginate(h.svc.ListAppointments(c.Request().Context()), pg))
}

// -- Undo and reports --

func (h *Handler) UndoLast(c echo.Context) error {
	res, err := h.svc.UndoLast(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Statistics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Statistics(c.Request().Context()))
}

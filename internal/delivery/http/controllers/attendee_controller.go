package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/domain"
)

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// RegisterAttendeeRequest is the request body for POST /admin/certificates/{certificateID}/attendees.
type RegisterAttendeeRequest struct {
	Name    string  `json:"name"`
	Surname string  `json:"surname"`
	Email   *string `json:"email"`
	Extra   *string `json:"extra"`
}

// Validate implements helpers.Validator.
func (r RegisterAttendeeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(r.Surname) == "" {
		errs = append(errs, "surname is required")
	}
	return errs
}

// AttendeeSuccessResponse is the success response envelope for a single attendee.
type AttendeeSuccessResponse struct {
	Data  *domain.Attendee  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListAttendeesResponse is the data payload for GET /admin/certificates/{certificateID}/attendees (200).
type ListAttendeesResponse struct {
	Items      []*domain.Attendee     `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAttendeesSuccessResponse is the success response envelope for GET /admin/certificates/{certificateID}/attendees (200).
type ListAttendeesSuccessResponse struct {
	Data  ListAttendeesResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// RegisterAttendee godoc
// @Summary Register an attendee for a certificate
// @Description Adds a person entitled to the certificate. Name and surname are required; email and extra are optional.
// @Tags attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param certificateID path string true "Certificate ID (UUID)"
// @Param body body controllers.RegisterAttendeeRequest true "Attendee"
// @Success 201 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/certificates/{certificateID}/attendees [post]
func (c *AttendeeController) RegisterAttendee(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathUUID(w, r, "certificateID")
	if !ok {
		return
	}
	var req RegisterAttendeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	attendee, err := c.Service.RegisterAttendee(r.Context(), certID, domain.AttendeeRegistration{
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
		Extra:   req.Extra,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// ListAttendees godoc
// @Summary List attendees of a certificate
// @Description Returns a paginated list ordered by name and surname.
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param certificateID path string true "Certificate ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListAttendeesSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/certificates/{certificateID}/attendees [get]
func (c *AttendeeController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathUUID(w, r, "certificateID")
	if !ok {
		return
	}
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	list, total, err := c.Service.ListAttendees(r.Context(), certID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Attendee{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListAttendeesResponse{Items: list, Pagination: meta})
}

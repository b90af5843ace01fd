package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/domain"
)

// maxTemplateUpload bounds the multipart body of a certificate upload.
const maxTemplateUpload = 8 << 20

type CertificateController struct {
	Logger  *slog.Logger
	Service domain.CertificateService
}

func NewCertificateController(logger *slog.Logger, svc domain.CertificateService) *CertificateController {
	return &CertificateController{
		Logger:  logger,
		Service: svc,
	}
}

// CertificateSuccessResponse is the success response envelope for a single certificate definition.
type CertificateSuccessResponse struct {
	Data  *domain.CertificateDefinition `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

// ListCertificatesSuccessResponse is the success response envelope for GET /admin/events/{eventID}/certificates.
type ListCertificatesSuccessResponse struct {
	Data  []*domain.CertificateDefinition `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// CreateCertificate godoc
// @Summary Create a certificate definition
// @Description Uploads an SVG template and creates a certificate definition for the event. The template may interpolate the fields name, surname, full_name, email, extra and uuid.
// @Tags certificates
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param description formData string true "Certificate description"
// @Param template formData file true "SVG template"
// @Success 201 {object} controllers.CertificateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID}/certificates [post]
func (c *CertificateController) CreateCertificate(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxTemplateUpload)
	if err := r.ParseMultipartForm(maxTemplateUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeBadRequest, "template too large")
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	description := strings.TrimSpace(r.FormValue("description"))
	if description == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "description is required")
		return
	}
	file, header, err := r.FormFile("template")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "template file is required")
		return
	}
	defer file.Close()

	cert, err := c.Service.CreateCertificate(r.Context(), eventID, description, header.Filename, file)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, cert)
}

// ListCertificates godoc
// @Summary List certificate definitions of an event
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListCertificatesSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID}/certificates [get]
func (c *CertificateController) ListCertificates(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	certs, err := c.Service.ListCertificates(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, certs)
}

// GetCertificate godoc
// @Summary Get a certificate definition
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param certificateID path string true "Certificate ID (UUID)"
// @Success 200 {object} controllers.CertificateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/certificates/{certificateID} [get]
func (c *CertificateController) GetCertificate(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathUUID(w, r, "certificateID")
	if !ok {
		return
	}
	cert, err := c.Service.GetCertificate(r.Context(), certID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, cert)
}

// DeleteCertificate godoc
// @Summary Delete a certificate definition
// @Description Deletes the definition and its template. Fails with 409 while attendees reference it.
// @Tags certificates
// @Security BearerAuth
// @Param certificateID path string true "Certificate ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/certificates/{certificateID} [delete]
func (c *CertificateController) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathUUID(w, r, "certificateID")
	if !ok {
		return
	}
	if err := c.Service.DeleteCertificate(r.Context(), certID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package controllers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/domain"
)

// PublicCertificateController serves issued certificates to anyone holding their public identifier.
type PublicCertificateController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewPublicCertificateController(logger *slog.Logger, svc domain.AttendeeService) *PublicCertificateController {
	return &PublicCertificateController{
		Logger:  logger,
		Service: svc,
	}
}

// PublicCertificate is the public view of an issued certificate.
// swagger:model PublicCertificate
type PublicCertificate struct {
	PublicID     string    `json:"public_id"`
	FullName     string    `json:"full_name"`
	Description  string    `json:"description"`
	EventHashtag string    `json:"event_hashtag"`
	IssuedAt     time.Time `json:"issued_at"`
	PDFURL       string    `json:"pdf_url"`
}

// PublicCertificateSuccessResponse is the success response envelope for GET /certificates/{publicID}.
type PublicCertificateSuccessResponse struct {
	Data  PublicCertificate `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetCertificate godoc
// @Summary Look up an issued certificate
// @Description Public endpoint. Unknown and not yet issued identifiers both return 404.
// @Tags public
// @Produce json
// @Param publicID path string true "Public certificate identifier (UUID)"
// @Success 200 {object} controllers.PublicCertificateSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /certificates/{publicID} [get]
func (c *PublicCertificateController) GetCertificate(w http.ResponseWriter, r *http.Request) {
	publicID := r.PathValue("publicID")
	issued, err := c.Service.GetIssuedCertificate(r.Context(), publicID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	a := issued.Attendee
	helpers.WriteJSONSuccess(w, http.StatusOK, PublicCertificate{
		PublicID:     a.PublicID,
		FullName:     a.FullName(),
		Description:  issued.Certificate.Description,
		EventHashtag: issued.Certificate.EventHashtag,
		IssuedAt:     *a.IssuedAt,
		PDFURL:       "/certificates/" + a.PublicID + "/pdf",
	})
}

// DownloadPDF godoc
// @Summary Download an issued certificate
// @Tags public
// @Produce application/pdf
// @Param publicID path string true "Public certificate identifier (UUID)"
// @Success 200 {file} file "PDF document"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /certificates/{publicID}/pdf [get]
func (c *PublicCertificateController) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	publicID := r.PathValue("publicID")
	rc, attendee, err := c.Service.OpenCertificatePDF(r.Context(), publicID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", attendee.PublicID+".pdf"))
	// Reissuing retires the public identifier, so caches must revalidate.
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		c.Logger.WarnContext(r.Context(), "certificate download interrupted", "public_id", attendee.PublicID, "err", err)
	}
}

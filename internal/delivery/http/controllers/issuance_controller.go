package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/domain"
)

// maxIssueBatch caps the limit query parameter of a batch issuance.
const maxIssueBatch = 500

type IssuanceController struct {
	Logger  *slog.Logger
	Service domain.IssuanceService
}

func NewIssuanceController(logger *slog.Logger, svc domain.IssuanceService) *IssuanceController {
	return &IssuanceController{
		Logger:  logger,
		Service: svc,
	}
}

// IssueSummarySuccessResponse is the success response envelope for POST /admin/certificates/{certificateID}/issue.
type IssueSummarySuccessResponse struct {
	Data  domain.IssueSummary `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// IssueAttendee godoc
// @Summary Issue or reissue an attendee's certificate
// @Description Renders, converts and stores a new certificate document. Every issuance assigns a new public identifier; a previous document is removed once the new one is saved.
// @Tags issuance
// @Produce json
// @Security BearerAuth
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Success 200 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (template missing or invalid)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (conversion failed)"
// @Router /admin/attendees/{attendeeID}/issue [post]
func (c *IssuanceController) IssueAttendee(w http.ResponseWriter, r *http.Request) {
	attendeeID, ok := pathUUID(w, r, "attendeeID")
	if !ok {
		return
	}
	attendee, err := c.Service.IssueByID(r.Context(), attendeeID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// IssuePending godoc
// @Summary Issue pending certificates of a definition
// @Description Issues certificates for up to limit attendees that have none yet. Individual failures are counted and recorded on the attendee; attendees with a recorded failure are only attempted again with retry_failed=true.
// @Tags issuance
// @Produce json
// @Security BearerAuth
// @Param certificateID path string true "Certificate ID (UUID)"
// @Param limit query int false "Maximum attendees to issue (default 100, max 500)"
// @Param retry_failed query bool false "Also attempt attendees whose last issuance failed"
// @Success 200 {object} controllers.IssueSummarySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/certificates/{certificateID}/issue [post]
func (c *IssuanceController) IssuePending(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathUUID(w, r, "certificateID")
	if !ok {
		return
	}
	filter := domain.PendingFilter{CertificateID: certID}
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(v, maxIssueBatch)
	}
	if s := q.Get("retry_failed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "retry_failed must be a boolean")
			return
		}
		filter.RetryFailed = v
	}
	summary, err := c.Service.IssuePending(r.Context(), filter)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventcertificates/internal/delivery/http/controllers"
	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/delivery/http/middleware"
	"eventcertificates/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Event       *controllers.EventController
	Certificate *controllers.CertificateController
	Attendee    *controllers.AttendeeController
	Issuance    *controllers.IssuanceController
	Public      *controllers.PublicCertificateController
}

// NewRouter initializes the HTTP router with all application routes.
// Routes under /admin require a bearer token carrying the admin role.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(verifier, logger)

	// Events
	mux.HandleFunc("POST /admin/events", admin(c.Event.CreateEvent))
	mux.HandleFunc("GET /admin/events", admin(c.Event.ListEvents))
	mux.HandleFunc("GET /admin/events/{eventID}", admin(c.Event.GetEvent))

	// Certificate definitions
	mux.HandleFunc("POST /admin/events/{eventID}/certificates", admin(c.Certificate.CreateCertificate))
	mux.HandleFunc("GET /admin/events/{eventID}/certificates", admin(c.Certificate.ListCertificates))
	mux.HandleFunc("GET /admin/certificates/{certificateID}", admin(c.Certificate.GetCertificate))
	mux.HandleFunc("DELETE /admin/certificates/{certificateID}", admin(c.Certificate.DeleteCertificate))

	// Attendees and issuance
	mux.HandleFunc("POST /admin/certificates/{certificateID}/attendees", admin(c.Attendee.RegisterAttendee))
	mux.HandleFunc("GET /admin/certificates/{certificateID}/attendees", admin(c.Attendee.ListAttendees))
	mux.HandleFunc("POST /admin/certificates/{certificateID}/issue", admin(c.Issuance.IssuePending))
	mux.HandleFunc("POST /admin/attendees/{attendeeID}/issue", admin(c.Issuance.IssueAttendee))

	// Public
	mux.HandleFunc("GET /certificates/{publicID}", c.Public.GetCertificate)
	mux.HandleFunc("GET /certificates/{publicID}/pdf", c.Public.DownloadPDF)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(logger, middleware.CORS(corsOrigins, mux))
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced; owner is the
// identity stamped onto authenticated requests.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *journal.Service, attachments *attachment.Service, authEnabled bool, token, owner string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(attachments)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token, owner))

	// Entries CRUD.
	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.CreateEntry)
	r.Get("/entries/{entryID}", h.GetEntry)
	r.Put("/entries/{entryID}", h.UpdateEntry)
	r.Delete("/entries/{entryID}", h.DeleteEntry)
	r.Get("/entries/{entryID}/html", h.PreviewEntry)

	// Attachments.
	r.Post("/entries/{entryID}/attachments", ah.Upload)
	r.Get("/entries/{entryID}/attachments/{attachmentID}", ah.Fetch)
	r.Delete("/entries/{entryID}/attachments/{attachmentID}", ah.Delete)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

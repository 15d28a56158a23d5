package handlers

import (
	"net/http"

	"emergency-response/internal/middleware"
	"emergency-response/internal/models"
)

type DashboardHandler struct {
	pages *Renderer
}

func NewDashboardHandler(pages *Renderer) *DashboardHandler {
	return &DashboardHandler{pages: pages}
}

// Home renders the dashboard. The route is wrapped in RequirePage, so a
// session is always present here.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	h.pages.Render(w, r, http.StatusOK, "index.html", map[string]string{
		"Username": session.Username,
	})
}

func (h *DashboardHandler) Data(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Emergency Response System is running",
	})
}

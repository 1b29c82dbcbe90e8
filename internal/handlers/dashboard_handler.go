package handlers

import (
	"context"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"churchadmin/internal/service"
)

type dashboardBuilder interface {
	Get(ctx context.Context) (*service.Dashboard, error)
}

// DashboardHandler renders the record counts overview
type DashboardHandler struct {
	dashboard  dashboardBuilder
	templates  *template.Template
	middleware *Middleware
	logger     *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, templates *template.Template, middleware *Middleware, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard:  dashboard,
		templates:  templates,
		middleware: middleware,
		logger:     logger,
	}
}

// ShowDashboard shows the dashboard
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboard.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		data := ErrorViewData{
			Page:    h.middleware.page(r, "Dashboard", "dashboard"),
			Message: "The dashboard could not be loaded. Please try again.",
			BackURL: "/dashboard",
		}
		render(w, h.templates, h.logger, http.StatusInternalServerError, "error.tmpl", data)
		return
	}

	data := DashboardViewData{
		Page:      h.middleware.page(r, "Dashboard", "dashboard"),
		Dashboard: dashboard,
	}
	render(w, h.templates, h.logger, http.StatusOK, "dashboard.tmpl", data)
}

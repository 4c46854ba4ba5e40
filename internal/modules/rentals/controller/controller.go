package controller

import (
	"context"
	"net/http"

	"bikeshare-dashboard/internal/modules/rentals/service"
)

// ReportService is the part of service.Service the handlers use.
type ReportService interface {
	BuildRange(ctx context.Context, q service.RangeQuery) (*service.Report, bool, error)
	BuildSingle(ctx context.Context, q service.SingleQuery) (*service.Report, bool, error)
	Options(ctx context.Context) (*service.Options, error)
}

type RentalsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type rentalsControllerImpl struct {
	service ReportService
}

func NewRentalsController(svc ReportService) RentalsController {
	return &rentalsControllerImpl{service: svc}
}

func (c *rentalsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /single", c.handleSingle)
	mux.HandleFunc("GET /partials/rows", c.handleRowsPartial)
	mux.HandleFunc("GET /charts/{file}", c.handleChart)
	mux.HandleFunc("GET /api/v1/report", c.handleReport)
	mux.HandleFunc("GET /api/v1/options", c.handleOptions)
	mux.HandleFunc("GET /api/v1/schema", c.handleSchema)
	mux.HandleFunc("GET /api/v1/export.csv", c.handleExportCSV)
	mux.HandleFunc("GET /api/v1/export.xlsx", c.handleExportXLSX)
}

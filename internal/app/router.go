package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/gauge"
	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/observability"
	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/report"
	"github.com/fuelbook/fuelbook/internal/shift"
	"github.com/fuelbook/fuelbook/internal/station"
	"github.com/fuelbook/fuelbook/internal/stock"
	"github.com/fuelbook/fuelbook/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	StationHandler *station.Handler
	MeterHandler   *meter.Handler
	GaugeHandler   *gauge.Handler
	StockHandler   *stock.Handler
	JournalHandler *journal.Handler
	ShiftHandler   *shift.Handler
	ReconHandler   *recon.Handler
	AuditHandler   *audit.Handler
	ReportHandler  *report.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with fuelbook defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity.Middleware([]byte(params.Config.JWTSecret), params.Logger))
		r.Use(identity.RequireActor)

		r.Route("/stations", func(r chi.Router) {
			params.StationHandler.MountRoutes(r)
			r.Route("/{stationID}", func(r chi.Router) {
				params.StationHandler.MountStationRoutes(r)
				params.StockHandler.MountRoutes(r)
				r.Route("/reports", params.ReportHandler.MountRoutes)
				r.Route("/days/{date}", func(r chi.Router) {
					params.StationHandler.MountDayRoutes(r)
					params.MeterHandler.MountRoutes(r)
					params.GaugeHandler.MountRoutes(r)
					params.StockHandler.MountDayRoutes(r)
					params.JournalHandler.MountDayRoutes(r)
					params.ShiftHandler.MountDayRoutes(r)
					params.ReconHandler.MountRoutes(r)
				})
			})
		})
		r.Route("/transactions", params.JournalHandler.MountRoutes)
		r.Route("/shifts", params.ShiftHandler.MountRoutes)
		r.With(identity.RequireAdmin).Route("/audit", params.AuditHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

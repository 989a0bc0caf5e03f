package stats

import (
	"log/slog"
	"net/http"
	"vidgate/entity"
	"vidgate/internal/coordinator"
	"vidgate/lib/api/response"
	"vidgate/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Summary() entity.UsageSummary
	LoadSnapshot() coordinator.Load
}

// Summary reports the aggregated usage analytics.
func Summary(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		summary := core.Summary()
		logger.Debug("usage summary served",
			slog.Int("total_users", summary.TotalUsers),
			slog.Int64("total_downloads", summary.TotalDownloads),
		)

		render.JSON(w, r, response.Ok(summary))
	}
}

// LoadSnapshot reports current admission gate usage.
func LoadSnapshot(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		load := core.LoadSnapshot()
		logger.Debug("load snapshot served", slog.Int("active", load.Active))

		render.JSON(w, r, response.Ok(load))
	}
}

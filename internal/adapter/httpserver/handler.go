package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

const (
	ReportPath = "/speed-ip-battery-finder"

	reportFailedMessage = "An error occurred while fetching speed, IP, battery, and system information."
)

type errorResponse struct {
	Error string `json:"error"`
}

// ReportService builds the per-client report.
type ReportService interface {
	Handle(ctx context.Context, clientID, userAgent string) (domain.ResponseRecord, error)
}

type API struct {
	reports ReportService
	logger  *slog.Logger
}

func NewAPI(reports ReportService, logger *slog.Logger) *API {
	return &API{reports: reports, logger: logger}
}

func (a *API) RegisterRoutes(router gin.IRoutes) {
	router.GET("/ping", a.ping)
	router.GET(ReportPath, a.report)
}

func (a *API) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) report(c *gin.Context) {
	// The connection address identifies the client; forwarding headers are
	// not trusted.
	clientID := c.RemoteIP()

	record, err := a.reports.Handle(c.Request.Context(), clientID, c.GetHeader("User-Agent"))
	if err != nil {
		a.logger.Error("build report failed",
			"client", clientID,
			"request_id", c.GetString(requestIDKey),
			"err", err,
		)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: reportFailedMessage})
		return
	}

	c.JSON(http.StatusOK, record)
}

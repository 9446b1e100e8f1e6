package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bizdash/internal/config"
	"bizdash/internal/dates"
	"bizdash/internal/export"
	"bizdash/internal/models"
	"bizdash/internal/pipeline"
	"bizdash/internal/storage"
)

// Pipelines is the aggregation engine the handlers invoke on every request.
type Pipelines interface {
	Sales(ctx context.Context) pipeline.SalesResult
	CSAT(ctx context.Context) pipeline.CSATResult
	CustomerSnapshots(ctx context.Context) pipeline.SnapshotResult
	SnapshotSummary(ctx context.Context, start, end time.Time) (models.SnapshotDataPoint, bool)
	QualityReports(ctx context.Context) []models.QualityReport
}

type Exporter interface {
	Run(ctx context.Context) (models.ExportResponse, error)
}

type Handler struct {
	config    *config.Config
	pipelines Pipelines
	store     *storage.RunStore
	exporter  Exporter
	logger    logrus.FieldLogger
}

func New(cfg *config.Config, pipelines Pipelines, store *storage.RunStore, exporter Exporter, logger logrus.FieldLogger) *Handler {
	return &Handler{
		config:    cfg,
		pipelines: pipelines,
		store:     store,
		exporter:  exporter,
		logger:    logger,
	}
}

// Register mounts every route on the router.
func (h *Handler) Register(router gin.IRouter) {
	// Health endpoints
	router.GET("/healthz", h.HealthCheck)
	router.GET("/readyz", h.ReadinessCheck)

	// Metrics endpoints
	router.GET("/metrics/sales", h.GetSalesMetrics)
	router.GET("/metrics/csat", h.GetCSATMetrics)
	router.GET("/metrics/customers", h.GetCustomerMetrics)
	router.GET("/metrics/customers/summary", h.GetCustomerSummary)

	// Data quality and run history
	router.GET("/quality/report", h.GetDataQualityReport)
	router.GET("/runs", h.GetRuns)

	// Export endpoint
	router.POST("/export/run", h.ExportData)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "bizdash",
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if !dirExists(h.config.DataDir) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"data_dir": h.config.DataDir,
			"message":  "Data directory not found",
		})
		return
	}

	resp := gin.H{
		"status":   "ready",
		"data_dir": h.config.DataDir,
		"sources": gin.H{
			"customer": dirExists(h.config.CustomerDir),
			"sales":    dirExists(h.config.SalesDir),
			"support":  dirExists(h.config.SupportDir),
		},
	}
	if last := h.store.GetLastRunTime(); !last.IsZero() {
		resp["last_run"] = last.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetSalesMetrics(c *gin.Context) {
	from, to, ok := monthRange(c)
	if !ok {
		return
	}

	result := h.pipelines.Sales(c.Request.Context())
	points := filterMonths(result.Points, func(p models.SalesDataPoint) string { return p.Date }, from, to)

	c.JSON(http.StatusOK, models.MetricsResponse{
		Data:    points,
		Total:   len(points),
		Quality: result.Quality,
	})
}

func (h *Handler) GetCSATMetrics(c *gin.Context) {
	from, to, ok := monthRange(c)
	if !ok {
		return
	}

	result := h.pipelines.CSAT(c.Request.Context())
	points := filterMonths(result.Points, func(p models.CSATDataPoint) string { return p.Date }, from, to)

	c.JSON(http.StatusOK, models.MetricsResponse{
		Data:      points,
		Total:     len(points),
		Synthetic: result.Origin == pipeline.Synthetic,
		Quality:   result.Quality,
	})
}

func (h *Handler) GetCustomerMetrics(c *gin.Context) {
	from, to, ok := monthRange(c)
	if !ok {
		return
	}

	result := h.pipelines.CustomerSnapshots(c.Request.Context())
	points := filterMonths(result.Points, func(p models.SnapshotDataPoint) string { return p.Date }, from, to)

	c.JSON(http.StatusOK, models.MetricsResponse{
		Data:    points,
		Total:   len(points),
		Quality: result.Quality,
	})
}

func (h *Handler) GetCustomerSummary(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date format, use YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date format, use YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	point, found := h.pipelines.SnapshotSummary(c.Request.Context(), start, end)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No customer snapshot found in the requested window"})
		return
	}
	c.JSON(http.StatusOK, point)
}

func (h *Handler) GetDataQualityReport(c *gin.Context) {
	reports := h.pipelines.QualityReports(c.Request.Context())

	for _, report := range reports {
		if len(report.CommonIssues) > 0 {
			h.logger.WithFields(logrus.Fields{
				"pipeline":      report.Pipeline,
				"common_issues": report.CommonIssues,
			}).Warn("Data quality issues detected")
		}
	}

	c.JSON(http.StatusOK, models.QualityResponse{
		Reports:   reports,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) GetRuns(c *gin.Context) {
	runs := h.store.GetRuns(c.Query("pipeline"))
	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

func (h *Handler) ExportData(c *gin.Context) {
	resp, err := h.exporter.Run(c.Request.Context())
	switch {
	case errors.Is(err, export.ErrNoSink):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Export sink is not configured"})
		return
	case errors.Is(err, export.ErrNoRecords):
		c.JSON(http.StatusNotFound, gin.H{"error": "No data available to export"})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to export to sink")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to export data"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// dirExists reports whether path is an existing directory. Missing source
// directories are tolerated by the pipelines, so readiness only lists them.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// monthRange reads the optional from/to YYYY-MM filters, writing a 400 when
// either is malformed.
func monthRange(c *gin.Context) (string, string, bool) {
	from, to := c.Query("from"), c.Query("to")
	for name, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := dates.ParseMonthKey(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " month format, use YYYY-MM"})
			return "", "", false
		}
	}
	return from, to, true
}

func filterMonths[T any](points []T, dateOf func(T) string, from, to string) []T {
	if from == "" && to == "" {
		return points
	}
	filtered := make([]T, 0, len(points))
	for _, p := range points {
		month := dateOf(p)
		if len(month) > 7 {
			month = month[:7]
		}
		if from != "" && month < from {
			continue
		}
		if to != "" && month > to {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/epeers/marketsync/internal/listing"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/repository"
	"github.com/epeers/marketsync/internal/services"
	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SyncRunner is the part of services.SyncService the admin API drives.
type SyncRunner interface {
	Trigger(ctx context.Context, step services.PlanStep) (*models.SyncResult, bool, error)
	GetRun(ctx context.Context, runID string) (*models.SyncResult, error)
}

// SyncHandler handles the admin sync endpoints
type SyncHandler struct {
	runner SyncRunner
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// SyncSymbols handles POST /admin/sync/symbols
// @Summary Register new symbols
// @Description Register symbols from search keywords, the provider's active listing, or an uploaded exchange listing file
// @Tags admin
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param request body models.SyncSymbolsRequest false "Keywords or source"
// @Param file formData file false "Exchange listing file"
// @Param exchange formData string false "NASDAQ, NYSE or DIGITAL"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/symbols [post]
func (h *SyncHandler) SyncSymbols(c *gin.Context) {
	var step services.PlanStep
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		step, err = symbolStepFromUpload(c)
	} else {
		step, err = symbolStepFromJSON(c)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	h.trigger(c, step)
}

func symbolStepFromUpload(c *gin.Context) (services.PlanStep, error) {
	ex := listing.Nasdaq
	if raw := c.PostForm("exchange"); raw != "" {
		parsed, err := listing.ParseExchange(raw)
		if err != nil {
			return services.PlanStep{}, err
		}
		ex = parsed
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return services.PlanStep{}, fmt.Errorf("listing file is required: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return services.PlanStep{}, fmt.Errorf("failed to open listing file: %w", err)
	}
	defer f.Close()

	entries, err := listing.Parse(f, ex)
	if err != nil {
		return services.PlanStep{}, err
	}
	if len(entries) == 0 {
		return services.PlanStep{}, fmt.Errorf("listing file %s has no symbols", fh.Filename)
	}

	kind := models.SyncSymbols
	if ex == listing.Digital {
		kind = models.SyncDigitalSymbols
	}
	return services.PlanStep{Kind: kind, Exchange: string(ex), Entries: entries}, nil
}

func symbolStepFromJSON(c *gin.Context) (services.PlanStep, error) {
	var req models.SyncSymbolsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.PlanStep{}, err
	}
	if len(req.Keywords) == 0 && req.Source == "" {
		return services.PlanStep{}, errors.New("must provide keywords or source")
	}
	if req.Source != "" && req.Source != services.SourceListingStatus {
		return services.PlanStep{}, fmt.Errorf("unknown source: %s", req.Source)
	}
	return services.PlanStep{Kind: models.SyncSymbols, Keywords: req.Keywords, Source: req.Source}, nil
}

// SyncOverviews handles POST /admin/sync/overviews
// @Summary Fetch missing company overviews
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.SyncSelection false "Symbol selection"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/overviews [post]
func (h *SyncHandler) SyncOverviews(c *gin.Context) {
	h.selectionSync(c, models.SyncOverviews)
}

// SyncIntraday handles POST /admin/sync/intraday
// @Summary Load intraday bars newer than the stored watermark
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.SyncSelection false "Symbol selection"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/intraday [post]
func (h *SyncHandler) SyncIntraday(c *gin.Context) {
	h.selectionSync(c, models.SyncIntraday)
}

// SyncDaily handles POST /admin/sync/daily
// @Summary Load daily bars newer than the stored watermark
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.SyncSelection false "Symbol selection"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/daily [post]
func (h *SyncHandler) SyncDaily(c *gin.Context) {
	h.selectionSync(c, models.SyncDaily)
}

// SyncNews handles POST /admin/sync/news
// @Summary Store news sentiment snapshots
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.SyncSelection false "Symbol selection"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/news [post]
func (h *SyncHandler) SyncNews(c *gin.Context) {
	h.selectionSync(c, models.SyncNews)
}

// SyncTopMovers handles POST /admin/sync/top-movers
// @Summary Store the day's top gainers, losers and most active
// @Tags admin
// @Produce json
// @Success 200 {object} models.SyncResult
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/sync/top-movers [post]
func (h *SyncHandler) SyncTopMovers(c *gin.Context) {
	h.trigger(c, services.PlanStep{Kind: models.SyncTopMovers})
}

// GetRun handles GET /admin/runs/:run_id
// @Summary Read a run from the ledger
// @Tags admin
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} models.SyncResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/runs/{run_id} [get]
func (h *SyncHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")
	res, err := h.runner.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "run not found: " + runID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

// selectionSync binds an optional selection from the query string and, when
// present, the JSON body, then runs kind over it.
func (h *SyncHandler) selectionSync(c *gin.Context, kind models.SyncKind) {
	var sel models.SyncSelection
	if err := c.ShouldBindQuery(&sel); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&sel); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}
	if sel.Limit < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "limit must not be negative",
		})
		return
	}

	h.trigger(c, services.PlanStep{Kind: kind, Selection: sel})
}

func (h *SyncHandler) trigger(c *gin.Context, step services.PlanStep) {
	res, shared, err := h.runner.Trigger(c.Request.Context(), step)
	if res != nil {
		c.Header("X-Run-ID", res.RunID)
	}
	if shared {
		c.Header("X-Run-Shared", "true")
	}
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log.WithField("kind", step.Kind).Errorf("Sync trigger failed: %v", err)
		}
		c.JSON(status, models.ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

// errorStatus maps a sync error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case syncerr.Is(err, syncerr.CircuitOpen):
		return http.StatusServiceUnavailable, "circuit_open"
	case syncerr.Is(err, syncerr.StoreFatal):
		return http.StatusInternalServerError, "store_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

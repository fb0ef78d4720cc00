package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/shared/biztime"
	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
	"github.com/plexpatrol/plexpatrol/internal/shared/utils"
)

// maxReportRange bounds bucketed queries.
const maxReportRange = 366 * 24 * time.Hour

type ReportHandler struct {
	store  ReportStore
	logger logger.Interface
	now    func() time.Time
}

func NewReportHandler(store ReportStore, log logger.Interface) *ReportHandler {
	return &ReportHandler{store: store, logger: log, now: biztime.NowUTC}
}

func (h *ReportHandler) Users(c *gin.Context) {
	stats, err := h.store.UserStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, stats, len(stats))
}

func (h *ReportHandler) Platforms(c *gin.Context) {
	stats, err := h.store.PlatformStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, stats, len(stats))
}

func (h *ReportHandler) IPs(c *gin.Context) {
	stats, err := h.store.IPStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, stats, len(stats))
}

// Sessions returns session counts per bucket. from and to accept RFC 3339
// timestamps or plain dates in the reporting timezone. The default window is
// the last 24 hours for hourly buckets and the last 7 days otherwise.
func (h *ReportHandler) Sessions(c *gin.Context) {
	bucket := c.DefaultQuery("bucket", constants.BucketDay)
	if bucket != constants.BucketHour && bucket != constants.BucketDay {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("bucket must be hour or day", bucket))
		return
	}

	to := h.now()
	if raw := c.Query("to"); raw != "" {
		t, err := parseReportTime(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid to", err.Error()))
			return
		}
		to = t
	}
	from := to.Add(-7 * 24 * time.Hour)
	if bucket == constants.BucketHour {
		from = to.Add(-24 * time.Hour)
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseReportTime(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid from", err.Error()))
			return
		}
		from = t
	}
	if !from.Before(to) {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("from must be before to"))
		return
	}
	if to.Sub(from) > maxReportRange {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("range must not exceed one year"))
		return
	}

	counts, err := h.store.SessionCountsByBucket(c.Request.Context(), from, to, bucket)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"bucket":  bucket,
		"from":    from.UTC(),
		"to":      to.UTC(),
		"buckets": counts,
	})
}

func parseReportTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return biztime.ParseDateInBizTimezone(raw)
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plexpatrol/plexpatrol/internal/application/monitor"
	"github.com/plexpatrol/plexpatrol/internal/interfaces/dto"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
	"github.com/plexpatrol/plexpatrol/internal/shared/utils"
)

const (
	sseKeepaliveInterval = 30 * time.Second
	stopWaitTimeout      = 30 * time.Second
)

type MonitorHandler struct {
	engine MonitorController
	events EventStream
	logger logger.Interface
}

func NewMonitorHandler(engine MonitorController, events EventStream, log logger.Interface) *MonitorHandler {
	return &MonitorHandler{engine: engine, events: events, logger: log}
}

type healthResponse struct {
	State     string     `json:"state"`
	Connected bool       `json:"connected"`
	PolledAt  *time.Time `json:"polled_at,omitempty"`
}

// Health answers 503 once the loop has stopped.
func (h *MonitorHandler) Health(c *gin.Context) {
	state := h.engine.State()
	_, polledAt := h.engine.Snapshot()
	resp := healthResponse{State: state.String(), Connected: h.engine.Healthy()}
	if !polledAt.IsZero() {
		t := polledAt.UTC()
		resp.PolledAt = &t
	}

	code := http.StatusOK
	if state == monitor.StateStopped {
		code = http.StatusServiceUnavailable
	}
	utils.SuccessResponse(c, code, "", resp)
}

func (h *MonitorHandler) ListSessions(c *gin.Context) {
	snap, polledAt := h.engine.Snapshot()
	utils.SuccessResponse(c, http.StatusOK, "", dto.ToSessionsResponse(snap, polledAt))
}

// StopSession queues a manual stop. With ?wait=true the response carries
// the outcome instead of an acknowledgement.
func (h *MonitorHandler) StopSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	var req dto.StopSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warnw("invalid request body for stop session", "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	wait := c.Query("wait") == "true"
	var reply chan monitor.StopResult
	if wait {
		reply = make(chan monitor.StopResult, 1)
	}

	requestID, err := h.engine.RequestStop(sessionID, strings.TrimSpace(req.Reason), reply)
	if err != nil {
		utils.ErrorResponseWithError(c, stopError(err))
		return
	}
	h.logger.Infow("manual stop queued", "request_id", requestID, "session_id", sessionID)

	if !wait {
		utils.AcceptedResponse(c, dto.StopAcceptedResponse{RequestID: requestID, SessionID: sessionID}, "stop request queued")
		return
	}

	timer := time.NewTimer(stopWaitTimeout)
	defer timer.Stop()
	select {
	case res := <-reply:
		if res.Terminated {
			utils.SuccessResponse(c, http.StatusOK, "stream stopped", res)
			return
		}
		utils.ErrorResponseWithError(c, apperrors.NewUnavailableError("media server did not stop the stream", res.Error))
	case <-timer.C:
		utils.AcceptedResponse(c, dto.StopAcceptedResponse{RequestID: requestID, SessionID: sessionID}, "stop request still pending")
	case <-c.Request.Context().Done():
	}
}

func stopError(err error) error {
	switch {
	case errors.Is(err, monitor.ErrNotRunning):
		return apperrors.NewUnavailableError("monitor is not running")
	case errors.Is(err, monitor.ErrQueueFull):
		return apperrors.NewUnavailableError("too many pending stop requests")
	default:
		return apperrors.NewValidationError(err.Error())
	}
}

func (h *MonitorHandler) Pause(c *gin.Context) {
	if err := h.engine.Pause(); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("monitor cannot be paused", err.Error()))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "monitoring paused", gin.H{"state": h.engine.State().String()})
}

func (h *MonitorHandler) Resume(c *gin.Context) {
	if err := h.engine.Resume(); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("monitor cannot be resumed", err.Error()))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "monitoring resumed", gin.H{"state": h.engine.State().String()})
}

// Events streams monitor events as server-sent events. ?types=a,b limits
// the stream to the listed event types.
func (h *MonitorHandler) Events(c *gin.Context) {
	var types []string
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	connID := uuid.NewString()
	conn := h.events.RegisterConn(connID, types)
	if conn == nil {
		utils.ErrorResponse(c, http.StatusTooManyRequests, "too many event stream connections")
		return
	}
	defer h.events.UnregisterConn(connID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := c.Writer.WriteString(": connected\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.Send:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(data); err != nil {
				h.logger.Warnw("event stream write error", "conn_id", connID, "error", err)
				return
			}
			c.Writer.Flush()
		case <-keepalive.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

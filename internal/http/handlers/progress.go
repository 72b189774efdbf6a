package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/http/response"
	"github.com/yungbote/learnsync/internal/platform/apierr"
	"github.com/yungbote/learnsync/internal/platform/ctxutil"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/reconcile"
	"github.com/yungbote/learnsync/internal/services"
)

var errMissingActivityID = errors.New("activity id is required")

type ProgressHandler struct {
	log  *logger.Logger
	sync services.ProgressSyncService
}

func NewProgressHandler(log *logger.Logger, sync services.ProgressSyncService) *ProgressHandler {
	return &ProgressHandler{
		log:  log.With("handler", "ProgressHandler"),
		sync: sync,
	}
}

type syncRequest struct {
	Snapshots    map[string]json.RawMessage `json:"snapshots"`
	GameProgress map[string]any             `json:"gameProgress,omitempty"`
}

// POST /api/progress/sync
func (h *ProgressHandler) Sync(c *gin.Context) {
	rd := requestData(c)
	if rd == nil {
		return
	}

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, "invalid_request", apierr.BadRequest("invalid_request", err))
		return
	}

	// Entries that do not decode are reported per entry like any other
	// invalid snapshot.
	snapshots := make(map[string]reconcile.RawSnapshot, len(req.Snapshots))
	undecodable := map[string]services.EntryFailure{}
	for id, raw := range req.Snapshots {
		var snap reconcile.RawSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			undecodable[id] = services.EntryFailure{Code: string(domainagg.CodeValidation), Message: err.Error()}
			continue
		}
		snapshots[id] = snap
	}

	res, err := h.sync.Sync(c.Request.Context(), services.SyncInput{
		AccountID:    rd.AccountID,
		DisplayName:  rd.DisplayName,
		Snapshots:    snapshots,
		GameProgress: req.GameProgress,
	})
	if err != nil {
		h.log.Error("Sync failed", "error", err, "account_id", rd.AccountID)
		response.RespondServiceError(c, "sync_failed", err)
		return
	}
	for id, f := range undecodable {
		res.Failed[id] = f
	}
	response.RespondOK(c, res)
}

// PUT /api/progress/activities/:activityId
func (h *ProgressHandler) UpdateActivity(c *gin.Context) {
	rd := requestData(c)
	if rd == nil {
		return
	}
	activityID := strings.TrimSpace(c.Param("activityId"))
	if activityID == "" {
		response.RespondServiceError(c, "invalid_activity_id", apierr.BadRequest("invalid_activity_id", errMissingActivityID))
		return
	}

	var snap reconcile.RawSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.RespondServiceError(c, "invalid_request", apierr.BadRequest("invalid_request", err))
		return
	}

	view, err := h.sync.UpdateActivity(c.Request.Context(), services.UpdateActivityInput{
		AccountID:   rd.AccountID,
		DisplayName: rd.DisplayName,
		ActivityID:  activityID,
		Snapshot:    snap,
	})
	if err != nil {
		h.log.Warn("UpdateActivity failed", "error", err, "activity_id", activityID)
		response.RespondServiceError(c, "update_activity_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	rd := requestData(c)
	if rd == nil {
		return
	}
	res, err := h.sync.ListProgress(c.Request.Context(), rd.AccountID, rd.DisplayName)
	if err != nil {
		h.log.Error("ListProgress failed", "error", err)
		response.RespondServiceError(c, "list_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"records": res.Records, "gameProgress": res.GameProgress})
}

// DELETE /api/progress
func (h *ProgressHandler) ClearProgress(c *gin.Context) {
	rd := requestData(c)
	if rd == nil {
		return
	}
	cleared, err := h.sync.ClearProgress(c.Request.Context(), rd.AccountID, rd.DisplayName)
	if err != nil {
		h.log.Error("ClearProgress failed", "error", err)
		response.RespondServiceError(c, "clear_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "cleared": cleared})
}

// requestData writes a 401 and returns nil when the request is anonymous.
func requestData(c *gin.Context) *ctxutil.RequestData {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.AccountID == uuid.Nil {
		response.RespondServiceError(c, "unauthorized", apierr.Unauthorized(nil))
		return nil
	}
	return rd
}

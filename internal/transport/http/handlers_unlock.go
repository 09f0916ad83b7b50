package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"heirloom/internal/transport/http/shared"
	"heirloom/internal/unlock"
	id "heirloom/pkg/domain"
	"heirloom/pkg/requestcontext"
)

// UnlockService defines the escalation engine operations the transport needs.
type UnlockService interface {
	RequestUnlock(ctx context.Context, recordID id.RecordID, requesterID id.UserID) (*unlock.UnlockRequest, error)
	ApproveRequest(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*unlock.UnlockRequest, error)
	RejectRequest(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*unlock.UnlockRequest, error)
}

// UnlockHandler handles unlock request endpoints.
type UnlockHandler struct {
	service UnlockService
	logger  *slog.Logger
}

func NewUnlockHandler(service UnlockService, logger *slog.Logger) *UnlockHandler {
	return &UnlockHandler{service: service, logger: logger}
}

// Register mounts the unlock escalation routes.
func (h *UnlockHandler) Register(r chi.Router) {
	r.Post("/records/{recordID}/unlock-requests", h.handleRequestUnlock)
	r.Post("/unlock-requests/{requestID}/approve", h.handleApprove)
	r.Post("/unlock-requests/{requestID}/reject", h.handleReject)
}

type unlockRequestResponse struct {
	RequestID       string    `json:"request_id"`
	RecordID        string    `json:"record_id"`
	Status          string    `json:"status"`
	RequestCount    int       `json:"request_count"`
	LastRequestedAt time.Time `json:"last_requested_at"`
}

func toUnlockRequestResponse(req *unlock.UnlockRequest) unlockRequestResponse {
	return unlockRequestResponse{
		RequestID:       req.ID.String(),
		RecordID:        req.RecordID.String(),
		Status:          string(req.Status),
		RequestCount:    req.RequestCount,
		LastRequestedAt: req.LastRequestedAt,
	}
}

func (h *UnlockHandler) handleRequestUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := h.service.RequestUnlock(ctx, recordID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "unlock request rejected",
			"record_id", recordID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if req.RequestCount > 1 || req.Status != unlock.StatusPending {
		status = http.StatusOK
	}
	shared.WriteJSON(w, status, toUnlockRequestResponse(req))
}

func (h *UnlockHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.ApproveRequest)
}

func (h *UnlockHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.RejectRequest)
}

func (h *UnlockHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.RequestID, id.UserID) (*unlock.UnlockRequest, error)) {
	ctx := r.Context()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := fn(ctx, requestID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "unlock resolution rejected",
			"unlock_request_id", requestID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, toUnlockRequestResponse(req))
}

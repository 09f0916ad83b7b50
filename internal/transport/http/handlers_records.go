package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heirloom/internal/transport/http/shared"
	"heirloom/internal/vault"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/requestcontext"
)

// VaultService defines the record viewing and PIN operations.
type VaultService interface {
	PayloadFor(ctx context.Context, recordID id.RecordID, viewerID id.UserID) (*vault.PayloadView, error)
	SetPIN(ctx context.Context, recordID id.RecordID, callerID id.UserID, rawPIN string) error
	LockPayload(ctx context.Context, recordID id.RecordID, callerID id.UserID) error
}

// ManualUnlocker exchanges a correct PIN for a manual access grant.
type ManualUnlocker interface {
	ManualUnlock(ctx context.Context, recordID id.RecordID, userID id.UserID, pin string) error
}

// RecordsHandler handles secure record endpoints.
type RecordsHandler struct {
	vault  VaultService
	grants ManualUnlocker
	logger *slog.Logger
}

func NewRecordsHandler(vaultSvc VaultService, grants ManualUnlocker, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{vault: vaultSvc, grants: grants, logger: logger}
}

// Register mounts the record routes.
func (h *RecordsHandler) Register(r chi.Router) {
	r.Get("/records/{recordID}", h.handleGetRecord)
	r.Post("/records/{recordID}/unlock", h.handleManualUnlock)
	r.Put("/records/{recordID}/pin", h.handleSetPIN)
	r.Post("/records/{recordID}/lock", h.handleLockPayload)
}

type recordResponse struct {
	RecordID string `json:"record_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	IsHidden bool   `json:"is_hidden"`
	Status   string `json:"payload_status"`
	Payload  string `json:"payload,omitempty"`
}

func (h *RecordsHandler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	view, err := h.vault.PayloadFor(ctx, recordID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "record view rejected",
			"record_id", recordID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, recordResponse{
		RecordID: view.RecordID.String(),
		Title:    view.Title,
		Type:     string(view.Type),
		IsHidden: view.IsHidden,
		Status:   string(view.Status),
		Payload:  view.Payload,
	})
}

type manualUnlockRequest struct {
	PIN string `json:"pin"`
}

func (h *RecordsHandler) handleManualUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req manualUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.PIN == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "pin is required"))
		return
	}

	if err := h.grants.ManualUnlock(ctx, recordID, requestcontext.UserID(ctx), req.PIN); err != nil {
		h.logger.WarnContext(ctx, "manual unlock rejected",
			"record_id", recordID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setPINRequest struct {
	PIN string `json:"pin"`
}

func (h *RecordsHandler) handleSetPIN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req setPINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.vault.SetPIN(ctx, recordID, requestcontext.UserID(ctx), req.PIN); err != nil {
		h.logger.WarnContext(ctx, "pin change rejected",
			"record_id", recordID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) handleLockPayload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.vault.LockPayload(ctx, recordID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heirloom/internal/deceased"
	"heirloom/internal/transport/http/shared"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/requestcontext"
)

// DeceasedService defines the coordinator operations the transport needs.
type DeceasedService interface {
	StartVerification(ctx context.Context, memberID id.MemberID, requestedBy id.UserID) (*deceased.Batch, error)
	CastVote(ctx context.Context, memberID id.MemberID, voterID id.UserID, decision deceased.Decision) (deceased.Outcome, error)
}

// DeceasedHandler handles deceased verification endpoints.
type DeceasedHandler struct {
	service DeceasedService
	logger  *slog.Logger
}

func NewDeceasedHandler(service DeceasedService, logger *slog.Logger) *DeceasedHandler {
	return &DeceasedHandler{service: service, logger: logger}
}

// Register mounts the deceased verification routes.
func (h *DeceasedHandler) Register(r chi.Router) {
	r.Post("/members/{memberID}/deceased-verification", h.handleStartVerification)
	r.Post("/members/{memberID}/deceased-verification/votes", h.handleCastVote)
}

type startVerificationResponse struct {
	BatchID    string `json:"batch_id"`
	MemberID   string `json:"member_id"`
	VoterCount int    `json:"voter_count"`
}

func (h *DeceasedHandler) handleStartVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	userID := requestcontext.UserID(ctx)

	batch, err := h.service.StartVerification(ctx, memberID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "start verification rejected",
			"member_id", memberID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, startVerificationResponse{
		BatchID:    batch.BatchID.String(),
		MemberID:   batch.MemberID.String(),
		VoterCount: len(batch.Voters),
	})
}

type castVoteRequest struct {
	Decision string `json:"decision"`
}

type castVoteResponse struct {
	Outcome string `json:"outcome"`
}

func (h *DeceasedHandler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decision, err := deceased.ParseDecision(req.Decision)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	outcome, err := h.service.CastVote(ctx, memberID, requestcontext.UserID(ctx), decision)
	if err != nil {
		h.logger.WarnContext(ctx, "cast vote rejected",
			"member_id", memberID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, castVoteResponse{Outcome: string(outcome)})
}

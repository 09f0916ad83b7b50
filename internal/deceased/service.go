// Package deceased runs the unanimous-vote protocol that flips a family
// member's deceased flag. One open batch exists per member at most; a single
// denial closes it immediately, unanimous approval marks the member deceased.
package deceased

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"heirloom/internal/family"
	"heirloom/internal/notify"
	"heirloom/internal/platform/metrics"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
)

var tracer = otel.Tracer("heirloom/deceased")

// Service coordinates deceased verification batches.
type Service struct {
	members family.MemberStore
	votes   VoteStore
	authz   *family.Authorizer
	tx      tx.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    notify.Sink
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(sink notify.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

func New(members family.MemberStore, votes VoteStore, authz *family.Authorizer, runner tx.Runner, opts ...Option) (*Service, error) {
	if members == nil {
		return nil, errors.New("member store is required")
	}
	if votes == nil {
		return nil, errors.New("vote store is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	s := &Service{
		members: members,
		votes:   votes,
		authz:   authz,
		tx:      runner,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Batch describes a freshly opened verification batch.
type Batch struct {
	BatchID  uuid.UUID
	MemberID id.MemberID
	Voters   []id.UserID
}

// StartVerification opens a verification batch for a member: one pending
// ballot per family OWNER/ADMIN excluding the requester, and the member
// enters the pending state. Fails without side effects when the member is
// already deceased, a batch is already open, or no eligible voter exists.
func (s *Service) StartVerification(ctx context.Context, memberID id.MemberID, requestedBy id.UserID) (*Batch, error) {
	ctx, span := tracer.Start(ctx, "deceased.StartVerification")
	defer span.End()

	var batch *Batch
	err := s.tx.RunInTx(ctx, memberID.String(), func(txCtx context.Context) error {
		member, err := s.members.FindByIDForUpdate(txCtx, memberID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "family member not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
		}

		if err := s.authz.Authorize(txCtx, requestedBy, family.ActionStartVerification, member.FamilyID); err != nil {
			return err
		}
		if err := member.CanOpenVerification(); err != nil {
			return err
		}
		open, err := s.votes.HasOpenBallots(txCtx, memberID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check open ballots")
		}
		if open {
			return dErrors.New(dErrors.CodeAlreadyPending, "a deceased verification is already in progress")
		}

		voters, err := s.eligibleVoters(txCtx, member.FamilyID, requestedBy)
		if err != nil {
			return err
		}
		if len(voters) == 0 {
			// A lone admin cannot single-handedly declare a member deceased;
			// the unanimity protocol needs at least one other administrator.
			return dErrors.New(dErrors.CodeNotEligible, "no eligible voters in this family")
		}

		now := requestcontext.Now(txCtx)
		batchID := uuid.New()
		ballots := make([]*Vote, 0, len(voters))
		for _, voter := range voters {
			ballots = append(ballots, &Vote{
				ID:          uuid.New(),
				MemberID:    memberID,
				BatchID:     batchID,
				VoterUserID: voter,
				RequestedBy: requestedBy,
				Status:      VoteStatusPending,
				CreatedAt:   now,
			})
		}
		if err := s.votes.CreateBatch(txCtx, ballots); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyPending, "a deceased verification is already in progress")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ballots")
		}

		member.ApplyVerificationOpened(now)
		if err := s.members.Update(txCtx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
		}

		batch = &Batch{BatchID: batchID, MemberID: memberID, Voters: voters}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementVerificationsStarted()
	for _, voter := range batch.Voters {
		notify.Dispatch(ctx, s.logger, s.sink, voter, notify.KindVerificationRequested, map[string]any{
			"member_id":    memberID.String(),
			"requested_by": requestedBy.String(),
			"device":       requestcontext.DeviceLabel(ctx),
		})
	}
	return batch, nil
}

func (s *Service) eligibleVoters(ctx context.Context, familyID id.FamilyID, requestedBy id.UserID) ([]id.UserID, error) {
	admins, err := s.authz.Administrators(ctx, familyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list administrators")
	}
	voters := make([]id.UserID, 0, len(admins))
	for _, admin := range admins {
		if admin != requestedBy {
			voters = append(voters, admin)
		}
	}
	return voters, nil
}

// CastVote records a voter's ballot and evaluates consensus within the same
// transaction. The member row lock serializes concurrent casts so the batch
// never resolves twice.
func (s *Service) CastVote(ctx context.Context, memberID id.MemberID, voterID id.UserID, decision Decision) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "deceased.CastVote")
	defer span.End()

	var (
		outcome     Outcome
		requestedBy id.UserID
	)
	err := s.tx.RunInTx(ctx, memberID.String(), func(txCtx context.Context) error {
		member, err := s.members.FindByIDForUpdate(txCtx, memberID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "family member not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
		}

		ballot, err := s.votes.FindPendingVote(txCtx, memberID, voterID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotEligible, "no pending ballot for this voter")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ballot")
		}
		requestedBy = ballot.RequestedBy

		now := requestcontext.Now(txCtx)
		if decision == DecisionApprove {
			ballot.Status = VoteStatusApproved
		} else {
			ballot.Status = VoteStatusDenied
		}
		ballot.DecidedAt = &now
		if err := s.votes.Update(txCtx, ballot); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ballot")
		}

		batch, err := s.votes.ListBatch(txCtx, ballot.BatchID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batch")
		}

		outcome = EvaluateConsensus(batch)
		switch outcome {
		case OutcomeDeceased:
			member.ApplyDeceased(now)
		case OutcomeNotDeceased:
			member.ApplyNotDeceased(now)
			if err := s.votes.SupersedePending(txCtx, ballot.BatchID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close batch")
			}
		case OutcomeOpen:
			return nil
		}
		if err := s.members.Update(txCtx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.metrics.IncrementVotesCast()
	payload := map[string]any{
		"member_id": memberID.String(),
		"voter_id":  voterID.String(),
	}
	switch outcome {
	case OutcomeDeceased:
		s.metrics.IncrementMembersMarkedDeceased()
		notify.Dispatch(ctx, s.logger, s.sink, requestedBy, notify.KindVerificationApproved, payload)
	case OutcomeNotDeceased:
		s.metrics.IncrementVerificationsDenied()
		notify.Dispatch(ctx, s.logger, s.sink, requestedBy, notify.KindVerificationDenied, payload)
	case OutcomeOpen:
		notify.Dispatch(ctx, s.logger, s.sink, requestedBy, notify.KindVoteRecorded, payload)
	}
	return outcome, nil
}

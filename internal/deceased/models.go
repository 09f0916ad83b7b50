package deceased

import (
	"time"

	"github.com/google/uuid"

	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// VoteStatus is the state of one voter's ballot.
type VoteStatus string

const (
	VoteStatusPending  VoteStatus = "pending"
	VoteStatusApproved VoteStatus = "approved"
	VoteStatusDenied   VoteStatus = "denied"
	// VoteStatusSuperseded marks ballots voided when a batch resolves before
	// their voter acted (a single denial closes the batch immediately).
	VoteStatusSuperseded VoteStatus = "superseded"
)

// Decision is what a voter casts.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// ParseDecision validates a decision string from the transport layer.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if d != DecisionApprove && d != DecisionDeny {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "decision must be %q or %q", DecisionApprove, DecisionDeny)
	}
	return d, nil
}

// Vote is one voter's ballot within a verification batch. Rows are created
// together when verification starts and, apart from the single status update
// by their voter (or batch supersession), never change.
type Vote struct {
	ID          uuid.UUID
	MemberID    id.MemberID
	BatchID     uuid.UUID
	VoterUserID id.UserID
	RequestedBy id.UserID
	Status      VoteStatus
	CreatedAt   time.Time
	DecidedAt   *time.Time
}

// Outcome is the aggregate state of a batch.
type Outcome string

const (
	// OutcomeOpen: ballots remain pending, no resolution yet.
	OutcomeOpen Outcome = "open"
	// OutcomeDeceased: every ballot approved; the member is deceased.
	OutcomeDeceased Outcome = "deceased"
	// OutcomeNotDeceased: at least one ballot denied; the batch closes.
	OutcomeNotDeceased Outcome = "not_deceased"
)

// EvaluateConsensus aggregates a batch. A single denial resolves
// not-deceased regardless of remaining pending ballots; unanimous approval
// resolves deceased; anything else stays open.
func EvaluateConsensus(votes []*Vote) Outcome {
	if len(votes) == 0 {
		return OutcomeOpen
	}
	allApproved := true
	for _, v := range votes {
		switch v.Status {
		case VoteStatusDenied:
			return OutcomeNotDeceased
		case VoteStatusApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return OutcomeDeceased
	}
	return OutcomeOpen
}

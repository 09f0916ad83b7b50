package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"heirloom/internal/family"
	"heirloom/internal/grant"
	"heirloom/internal/notify"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/records"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
)

var tracer = otel.Tracer("heirloom/unlock")

const (
	// DefaultCooldown is the minimum wait between repeat requests by the
	// same requester.
	DefaultCooldown = 48 * time.Hour
	// DefaultAutoUnlockThreshold is the request count at which a pending
	// request promotes itself to auto_unlocked.
	DefaultAutoUnlockThreshold = 3
)

// Engine runs the unlock request lifecycle: counting, cooldown, admin
// approval and auto-promotion.
type Engine struct {
	requests  RequestStore
	records   records.Store
	members   family.MemberStore
	authz     *family.Authorizer
	grants    *grant.Service
	tx        tx.Runner
	cooldown  time.Duration
	threshold int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	sink      notify.Sink
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithNotifier(sink notify.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithCooldown overrides the repeat-request cooldown.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cooldown = d
		}
	}
}

// WithAutoUnlockThreshold overrides the promotion threshold.
func WithAutoUnlockThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

func New(requests RequestStore, recordStore records.Store, members family.MemberStore, authz *family.Authorizer, grants *grant.Service, runner tx.Runner, opts ...Option) (*Engine, error) {
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	if recordStore == nil {
		return nil, errors.New("record store is required")
	}
	if members == nil {
		return nil, errors.New("member store is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	if grants == nil {
		return nil, errors.New("grant service is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	e := &Engine{
		requests:  requests,
		records:   recordStore,
		members:   members,
		authz:     authz,
		grants:    grants,
		tx:        runner,
		cooldown:  DefaultCooldown,
		threshold: DefaultAutoUnlockThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RequestUnlock records one unlock request by an administrator against a
// locked record of a deceased member. The first call creates the row; repeat
// calls after the cooldown bump the count; reaching the threshold promotes
// the row to auto_unlocked and writes the grant in the same transaction.
func (e *Engine) RequestUnlock(ctx context.Context, recordID id.RecordID, requesterID id.UserID) (*UnlockRequest, error) {
	ctx, span := tracer.Start(ctx, "unlock.RequestUnlock")
	defer span.End()

	var (
		result   *UnlockRequest
		familyID id.FamilyID
		promoted bool
	)
	err := e.tx.RunInTx(ctx, recordID.String(), func(txCtx context.Context) error {
		record, err := e.records.FindByIDForUpdate(txCtx, recordID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "secure record not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}
		familyID = record.FamilyID

		if err := e.authz.Authorize(txCtx, requesterID, family.ActionRequestUnlock, record.FamilyID); err != nil {
			return err
		}
		if err := e.checkRecordEligible(txCtx, record); err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		req, err := e.requests.FindForRequesterForUpdate(txCtx, recordID, requesterID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			req = &UnlockRequest{
				ID:              id.NewRequestID(),
				RecordID:        recordID,
				RequesterUserID: requesterID,
				RequestCount:    1,
				LastRequestedAt: now,
				Status:          StatusPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := e.requests.Create(txCtx, req); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.New(dErrors.CodeConflict, "a concurrent unlock request won the race, retry")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create unlock request")
			}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load unlock request")
		case req.IsResolved():
			return dErrors.Newf(dErrors.CodeAlreadyResolved, "unlock request is already %s", req.Status)
		default:
			if remaining := req.CooldownRemaining(now, e.cooldown); remaining > 0 {
				return dErrors.Newf(dErrors.CodeCooldownActive, "cooldown active, next request allowed in %s", remaining.Round(time.Minute))
			}
			req.ApplyRepeat(now)
			if err := e.requests.Update(txCtx, req); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update unlock request")
			}
		}

		if req.RequestCount >= e.threshold {
			if err := req.Resolve(StatusAutoUnlocked, now); err != nil {
				return err
			}
			if err := e.requests.Update(txCtx, req); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to promote unlock request")
			}
			if err := e.grants.Grant(txCtx, recordID, requesterID, grant.UnlockViaRequestAuto, &req.ID); err != nil {
				return err
			}
			promoted = true
		}
		result = req
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCooldownActive) {
			e.metrics.IncrementCooldownRejections()
		}
		return nil, err
	}

	e.metrics.IncrementUnlockRequests()
	if promoted {
		e.metrics.IncrementAutoUnlocks()
		e.logger.InfoContext(ctx, "unlock request auto-promoted",
			slog.String("record_id", recordID.String()),
			slog.String("requester_id", requesterID.String()),
		)
		notify.Dispatch(ctx, e.logger, e.sink, requesterID, notify.KindAutoUnlocked, map[string]any{
			"record_id":  recordID.String(),
			"request_id": result.ID.String(),
		})
		return result, nil
	}

	e.notifyAdmins(ctx, familyID, requesterID, result)
	return result, nil
}

func (e *Engine) checkRecordEligible(ctx context.Context, record *records.SecureRecord) error {
	if !record.IsHidden && !record.HasCiphertext() {
		return dErrors.New(dErrors.CodeNotEligible, "record is not locked")
	}
	owner, err := records.EffectiveOwner(ctx, e.members, record)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve record owner")
	}
	if owner == nil {
		return dErrors.New(dErrors.CodeNotEligible, "record has no effective owner")
	}
	if !owner.IsDeceased {
		return dErrors.New(dErrors.CodeNotEligible, "record owner is not verified deceased")
	}
	return nil
}

// notifyAdmins tells the family's other administrators how far along the
// escalation is ("2 of 3").
func (e *Engine) notifyAdmins(ctx context.Context, familyID id.FamilyID, requesterID id.UserID, req *UnlockRequest) {
	admins, err := e.authz.Administrators(ctx, familyID)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to list admins for unlock notification", slog.String("error", err.Error()))
		return
	}
	payload := map[string]any{
		"record_id":  req.RecordID.String(),
		"request_id": req.ID.String(),
		"requester":  requesterID.String(),
		"progress":   fmt.Sprintf("%d of %d", req.RequestCount, e.threshold),
	}
	for _, admin := range admins {
		if admin == requesterID {
			continue
		}
		notify.Dispatch(ctx, e.logger, e.sink, admin, notify.KindUnlockRequested, payload)
	}
}

// ApproveRequest resolves a pending request in the requester's favor and
// writes the grant in the same transaction.
func (e *Engine) ApproveRequest(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*UnlockRequest, error) {
	req, err := e.resolveRequest(ctx, requestID, approverID, family.ActionApproveUnlock, StatusApproved)
	if err != nil {
		return nil, err
	}
	notify.Dispatch(ctx, e.logger, e.sink, req.RequesterUserID, notify.KindUnlockApproved, map[string]any{
		"record_id":  req.RecordID.String(),
		"request_id": req.ID.String(),
	})
	return req, nil
}

// RejectRequest resolves a pending request against the requester. No grant
// is created and the request never reopens.
func (e *Engine) RejectRequest(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*UnlockRequest, error) {
	req, err := e.resolveRequest(ctx, requestID, approverID, family.ActionApproveUnlock, StatusRejected)
	if err != nil {
		return nil, err
	}
	notify.Dispatch(ctx, e.logger, e.sink, req.RequesterUserID, notify.KindUnlockRejected, map[string]any{
		"record_id":  req.RecordID.String(),
		"request_id": req.ID.String(),
	})
	return req, nil
}

func (e *Engine) resolveRequest(ctx context.Context, requestID id.RequestID, approverID id.UserID, action family.Action, status RequestStatus) (*UnlockRequest, error) {
	ctx, span := tracer.Start(ctx, "unlock.resolveRequest")
	defer span.End()

	var result *UnlockRequest
	err := e.tx.RunInTx(ctx, requestID.String(), func(txCtx context.Context) error {
		req, err := e.requests.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "unlock request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load unlock request")
		}
		record, err := e.records.FindByID(txCtx, req.RecordID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}
		if err := e.authz.Authorize(txCtx, approverID, action, record.FamilyID); err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		if err := req.Resolve(status, now); err != nil {
			return err
		}
		if err := e.requests.Update(txCtx, req); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update unlock request")
		}
		if status == StatusApproved {
			if err := e.grants.Grant(txCtx, req.RecordID, req.RequesterUserID, grant.UnlockViaRequestApproved, &req.ID); err != nil {
				return err
			}
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByRecord exposes a record's request history for the record view.
func (e *Engine) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockRequest, error) {
	reqs, err := e.requests.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list unlock requests")
	}
	return reqs, nil
}

package grant

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"heirloom/internal/family"
	"heirloom/internal/notify"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/records"
	"heirloom/internal/vault"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
)

var tracer = otel.Tracer("heirloom/grant")

// Service issues and answers access grants. Grants only ever accumulate;
// revocation is out of scope for this subsystem.
type Service struct {
	grants  GrantStore
	records records.Store
	members family.MemberStore
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

func New(grants GrantStore, recordStore records.Store, members family.MemberStore, authz *family.Authorizer, runner tx.Runner, opts ...Option) (*Service, error) {
	if grants == nil {
		return nil, errors.New("grant store is required")
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
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	s := &Service{
		grants:  grants,
		records: recordStore,
		members: members,
		authz:   authz,
		tx:      runner,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Grant appends an access grant for the user. Calling it again for the same
// (record, user) pair is a no-op regardless of the via value of the first
// grant; the ledger keeps the original row.
func (s *Service) Grant(ctx context.Context, recordID id.RecordID, userID id.UserID, via UnlockVia, requestID *id.RequestID) error {
	g := &UnlockAccessGrant{
		ID:         id.NewGrantID(),
		RecordID:   recordID,
		UserID:     userID,
		UnlockedAt: requestcontext.Now(ctx),
		Via:        via,
		RequestID:  requestID,
	}
	created, err := s.grants.Create(ctx, g)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create access grant")
	}
	if created {
		s.metrics.IncrementGrantsCreated()
	}
	return nil
}

// HasAccess reports whether the user holds a grant on the record.
func (s *Service) HasAccess(ctx context.Context, recordID id.RecordID, userID id.UserID) (bool, error) {
	ok, err := s.grants.HasAccess(ctx, recordID, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check access grant")
	}
	return ok, nil
}

// ListByRecord returns the record's grant history in creation order.
func (s *Service) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockAccessGrant, error) {
	grants, err := s.grants.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list access grants")
	}
	return grants, nil
}

// ManualUnlock exchanges a correct PIN for a manual grant. Only the record's
// effective owner or a family administrator may attempt it; everyone else is
// rejected before the PIN is even checked.
func (s *Service) ManualUnlock(ctx context.Context, recordID id.RecordID, userID id.UserID, pin string) error {
	ctx, span := tracer.Start(ctx, "grant.ManualUnlock")
	defer span.End()

	var (
		record  *records.SecureRecord
		created bool
	)
	err := s.tx.RunInTx(ctx, recordID.String(), func(txCtx context.Context) error {
		var err error
		record, err = s.records.FindByID(txCtx, recordID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "secure record not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}

		if !record.HasPIN() {
			return dErrors.New(dErrors.CodeValidation, "record has no PIN configured")
		}
		allowed, err := s.mayAttemptPIN(txCtx, record, userID)
		if err != nil {
			return err
		}
		if !allowed {
			return dErrors.New(dErrors.CodeNotEligible, "only the record owner or a family administrator may unlock with a PIN")
		}
		// Same code as the role rejection above so the response never tells
		// an attacker whether they guessed a valid PIN or lack the role.
		if !vault.VerifyRecordPIN(record, pin) {
			return dErrors.New(dErrors.CodeNotEligible, "incorrect PIN")
		}

		g := &UnlockAccessGrant{
			ID:         id.NewGrantID(),
			RecordID:   recordID,
			UserID:     userID,
			UnlockedAt: requestcontext.Now(txCtx),
			Via:        UnlockViaManual,
		}
		created, err = s.grants.Create(txCtx, g)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create access grant")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		s.metrics.IncrementGrantsCreated()
	}
	s.logger.InfoContext(ctx, "manual unlock granted",
		slog.String("record_id", recordID.String()),
		slog.String("user_id", userID.String()),
	)
	if record.CreatedBy != userID {
		notify.Dispatch(ctx, s.logger, s.sink, record.CreatedBy, notify.KindManualUnlocked, map[string]any{
			"record_id":   recordID.String(),
			"unlocked_by": userID.String(),
		})
	}
	return nil
}

func (s *Service) mayAttemptPIN(ctx context.Context, record *records.SecureRecord, userID id.UserID) (bool, error) {
	if record.CreatedBy == userID {
		return true, nil
	}
	owner, err := records.EffectiveOwner(ctx, s.members, record)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve record owner")
	}
	if owner != nil && owner.LinkedTo(userID) {
		return true, nil
	}
	role, err := s.authz.Role(ctx, userID, record.FamilyID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve family role")
	}
	return role.IsAdministrator(), nil
}

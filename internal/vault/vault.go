// Package vault implements PIN verification and payload encryption for
// secure records. It decides whether a viewer may see a decrypted payload;
// how a viewer earned access (PIN, approval, escalation) is the unlock
// engine's business.
package vault

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"heirloom/internal/family"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/records"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
	"heirloom/pkg/secrets"
)

var tracer trace.Tracer = otel.Tracer("heirloom/vault")

// GrantChecker answers whether a user already holds an access grant for a
// record. Satisfied by the grant service.
type GrantChecker interface {
	HasAccess(ctx context.Context, recordID id.RecordID, userID id.UserID) (bool, error)
}

// Vault orchestrates PIN and payload operations on secure records.
type Vault struct {
	store   records.Store
	members family.MemberStore
	authz   *family.Authorizer
	grants  GrantChecker
	cipher  Cipher
	tx      tx.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Vault)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) { v.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Vault) { v.metrics = m }
}

func New(store records.Store, members family.MemberStore, authz *family.Authorizer, grants GrantChecker, cipher Cipher, runner tx.Runner, opts ...Option) (*Vault, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if cipher == nil {
		return nil, errors.New("cipher is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	v := &Vault{
		store:   store,
		members: members,
		authz:   authz,
		grants:  grants,
		cipher:  cipher,
		tx:      runner,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// SetPIN stores a one-way hash of the PIN, or clears it when rawPIN is
// empty. The payload is untouched. Only the record's effective owner or a
// family administrator may change the PIN.
func (v *Vault) SetPIN(ctx context.Context, recordID id.RecordID, callerID id.UserID, rawPIN string) error {
	ctx, span := tracer.Start(ctx, "vault.SetPIN")
	defer span.End()

	return v.tx.RunInTx(ctx, recordID.String(), func(txCtx context.Context) error {
		record, err := v.store.FindByIDForUpdate(txCtx, recordID)
		if err != nil {
			return translateStoreErr(err, "record")
		}
		if err := v.requireManage(txCtx, record, callerID); err != nil {
			return err
		}

		if rawPIN == "" {
			record.PINHash = nil
		} else {
			hash, err := secrets.Hash(rawPIN)
			if err != nil {
				return err
			}
			record.PINHash = &hash
		}
		record.UpdatedAt = requestcontext.Now(txCtx)
		if err := v.store.Update(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pin")
		}
		return nil
	})
}

// VerifyPIN reports whether the supplied PIN matches the record's hash.
// False when no PIN is set or the candidate is empty; the bcrypt comparison
// does not leak timing correlated with partial matches.
func (v *Vault) VerifyPIN(ctx context.Context, recordID id.RecordID, supplied string) (bool, error) {
	record, err := v.store.FindByID(ctx, recordID)
	if err != nil {
		return false, translateStoreErr(err, "record")
	}
	return VerifyRecordPIN(record, supplied), nil
}

// VerifyRecordPIN is the pure form of VerifyPIN for callers already holding
// the record.
func VerifyRecordPIN(record *records.SecureRecord, supplied string) bool {
	if !record.HasPIN() || supplied == "" {
		return false
	}
	return secrets.Verify(supplied, *record.PINHash)
}

// LockPayload encrypts a plaintext payload under the application key and
// clears the plaintext. Idempotent: a record without plaintext is a no-op.
// Gated like SetPIN: effective owner or family administrator only.
func (v *Vault) LockPayload(ctx context.Context, recordID id.RecordID, callerID id.UserID) error {
	ctx, span := tracer.Start(ctx, "vault.LockPayload")
	defer span.End()

	return v.tx.RunInTx(ctx, recordID.String(), func(txCtx context.Context) error {
		record, err := v.store.FindByIDForUpdate(txCtx, recordID)
		if err != nil {
			return translateStoreErr(err, "record")
		}
		if err := v.requireManage(txCtx, record, callerID); err != nil {
			return err
		}
		if !record.HasPlaintext() {
			return nil
		}

		ciphertext, err := v.cipher.Encrypt([]byte(*record.Plaintext))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt payload")
		}
		record.Ciphertext = ciphertext
		record.Plaintext = nil
		record.UpdatedAt = requestcontext.Now(txCtx)

		if err := record.CheckPayloadInvariant(); err != nil {
			return err
		}
		if err := v.store.Update(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store encrypted payload")
		}
		return nil
	})
}

// UnlockPayload projects a transient plaintext view of an encrypted record.
// Read-only: the stored ciphertext is never touched. A record still carrying
// plaintext returns it as-is. Cryptographic failure is reported as a
// decryption_failed error for the caller to recover.
func (v *Vault) UnlockPayload(ctx context.Context, record *records.SecureRecord) (string, error) {
	_, span := tracer.Start(ctx, "vault.UnlockPayload")
	defer span.End()

	if record.HasPlaintext() {
		return *record.Plaintext, nil
	}
	if !record.HasCiphertext() {
		return "", nil
	}

	plaintext, err := v.cipher.Decrypt(record.Ciphertext)
	if err != nil {
		v.metrics.IncrementDecryptFailures()
		v.logger.WarnContext(ctx, "payload decryption failed",
			"record_id", record.ID,
			"error", err,
		)
		return "", dErrors.Wrap(err, dErrors.CodeDecryptionFailed, "payload cannot be decrypted")
	}
	return string(plaintext), nil
}

// PayloadStatus labels what the viewer received in a PayloadView.
type PayloadStatus string

const (
	// PayloadVisible: the payload was returned in clear.
	PayloadVisible PayloadStatus = "visible"
	// PayloadRedacted: the viewer may see the record exists but not its payload.
	PayloadRedacted PayloadStatus = "redacted"
	// PayloadUnavailable: the viewer has access but the ciphertext is unreadable.
	PayloadUnavailable PayloadStatus = "unavailable"
	// PayloadEmpty: the record carries no payload.
	PayloadEmpty PayloadStatus = "empty"
)

// PayloadView is the projection handed to the record display layer.
type PayloadView struct {
	RecordID id.RecordID
	Title    string
	Type     records.RecordType
	IsHidden bool
	Status   PayloadStatus
	Payload  string
}

// PayloadFor renders a record for a viewer. The payload is disclosed only to
// the record's creator, the effective owner's linked account, or a grant
// holder; other family members get a redacted view. Decryption failure
// downgrades to an "unavailable" view rather than failing the display.
func (v *Vault) PayloadFor(ctx context.Context, recordID id.RecordID, viewerID id.UserID) (*PayloadView, error) {
	ctx, span := tracer.Start(ctx, "vault.PayloadFor")
	defer span.End()

	record, err := v.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, translateStoreErr(err, "record")
	}
	if err := v.authz.Authorize(ctx, viewerID, family.ActionViewRecord, record.FamilyID); err != nil {
		return nil, err
	}

	view := &PayloadView{
		RecordID: record.ID,
		Title:    record.Title,
		Type:     record.Type,
		IsHidden: record.IsHidden,
		Status:   PayloadRedacted,
	}

	allowed, err := v.mayViewPayload(ctx, record, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return view, nil
	}

	if !record.HasPlaintext() && !record.HasCiphertext() {
		view.Status = PayloadEmpty
		return view, nil
	}

	payload, err := v.UnlockPayload(ctx, record)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDecryptionFailed) {
			view.Status = PayloadUnavailable
			return view, nil
		}
		return nil, err
	}
	view.Status = PayloadVisible
	view.Payload = payload
	return view, nil
}

// requireManage gates the mutating record operations. The management set is
// the record's creator, the effective owner's linked account, and the family
// administrators; everyone else, family member or not, is rejected.
func (v *Vault) requireManage(ctx context.Context, record *records.SecureRecord, callerID id.UserID) error {
	if record.CreatedBy == callerID {
		return nil
	}
	owner, err := records.EffectiveOwner(ctx, v.members, record)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve effective owner")
	}
	if owner != nil && owner.LinkedTo(callerID) {
		return nil
	}
	role, err := v.authz.Role(ctx, callerID, record.FamilyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve family role")
	}
	if !role.IsAdministrator() {
		return dErrors.New(dErrors.CodeNotEligible, "only the record owner or a family administrator may manage this record")
	}
	return nil
}

func (v *Vault) mayViewPayload(ctx context.Context, record *records.SecureRecord, viewerID id.UserID) (bool, error) {
	if record.CreatedBy == viewerID {
		return true, nil
	}

	owner, err := records.EffectiveOwner(ctx, v.members, record)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve effective owner")
	}
	if owner != nil && owner.LinkedTo(viewerID) {
		return true, nil
	}

	if v.grants == nil {
		return false, nil
	}
	allowed, err := v.grants.HasAccess(ctx, record.ID, viewerID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check access grant")
	}
	return allowed, nil
}

func translateStoreErr(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}

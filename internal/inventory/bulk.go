package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/audit"
	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// ConfirmationPhrase must be typed to delete a scope without verified units.
const ConfirmationPhrase = "DELETE"

// ScopeKind tells whether a scope is an id list or a filter.
type ScopeKind string

const (
	ScopeIDs    ScopeKind = "ids"
	ScopeFilter ScopeKind = "filter"
)

// Scope is the set of units targeted by a bulk operation, always inside one
// tenant and product.
type Scope struct {
	Kind      ScopeKind   `json:"kind"`
	ProductID uuid.UUID   `json:"product_id"`
	IDs       []uuid.UUID `json:"ids,omitempty"`
	Filter    Filter      `json:"filter"`
}

// Validate checks the scope shape.
func (sc Scope) Validate() error {
	const op = "inventory.scope"
	if sc.ProductID == uuid.Nil {
		return shared.Validation(op, "product is required")
	}
	switch sc.Kind {
	case ScopeIDs:
		if len(dedupeIDs(sc.IDs)) == 0 {
			return shared.Validation(op, "no units selected")
		}
	case ScopeFilter:
		return sc.Filter.Validate()
	default:
		return shared.Validation(op, "unknown scope kind %q", sc.Kind)
	}
	return nil
}

// DeleteMode resolves how a bulk delete treats verified units.
type DeleteMode string

const (
	ModeUnset        DeleteMode = ""
	ModeSkipVerified DeleteMode = "SKIP_VERIFIED"
	ModeDeleteAll    DeleteMode = "DELETE_ALL"
)

// BulkEditInput applies patch to every unit of the scope.
type BulkEditInput struct {
	Scope       Scope
	Patch       Patch
	Credentials *auth.Credentials
}

// BulkDeleteInput deletes the scope. Mode is required when the scope contains
// verified units; Confirmation is required when it does not.
type BulkDeleteInput struct {
	Scope        Scope
	Mode         DeleteMode
	Confirmation string
	Credentials  *auth.Credentials
}

// DeletePreview is the first step of the bulk delete dialog.
type DeletePreview struct {
	Target       int  `json:"target"`
	Verified     int  `json:"verified"`
	RequiresMode bool `json:"requires_mode"`
}

// BulkResult summarises an executed bulk operation.
type BulkResult struct {
	Target          int       `json:"target"`
	Verified        int       `json:"verified"`
	Affected        int64     `json:"affected"`
	SkippedVerified int       `json:"skipped_verified"`
	AdminOverride   bool      `json:"admin_override"`
	ChunksApplied   int       `json:"chunks_applied"`
	ChunksTotal     int       `json:"chunks_total"`
	AuditID         uuid.UUID `json:"audit_id"`
}

// BulkError reports a store failure part way through a chunked operation.
// Chunks before ChunksApplied were committed; later chunks were not attempted.
type BulkError struct {
	Op            string
	ChunksApplied int
	ChunksTotal   int
	Affected      int64
	Err           error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("%s: chunk %d of %d failed after %d rows: %v", e.Op, e.ChunksApplied+1, e.ChunksTotal, e.Affected, e.Err)
}

func (e *BulkError) Unwrap() error { return e.Err }

// Progress exposes how far the operation got for API responses.
func (e *BulkError) Progress() map[string]any {
	return map[string]any{
		"chunks_applied": e.ChunksApplied,
		"chunks_total":   e.ChunksTotal,
		"affected":       e.Affected,
	}
}

func bulkError(op string, err error, applied, total int, affected int64) error {
	return &BulkError{Op: op, ChunksApplied: applied, ChunksTotal: total, Affected: affected, Err: shared.Store(op, err)}
}

// PreviewDelete counts the scope and its verified units.
func (s *Service) PreviewDelete(ctx context.Context, p shared.Principal, scope Scope) (DeletePreview, error) {
	const op = "inventory.bulk_preview"
	if err := s.validateScope(op, p, scope); err != nil {
		return DeletePreview{}, err
	}
	target, verified, err := s.scopeCounts(ctx, p, scope)
	if err != nil {
		return DeletePreview{}, shared.Store(op, err)
	}
	return DeletePreview{Target: target, Verified: verified, RequiresMode: verified > 0}, nil
}

// BulkEdit applies a status and/or date patch to the scope. SOLD is rejected
// because a bulk write cannot carry per-unit attribution, RETURNED requires
// override credentials, and a scope containing any verified unit is rejected
// as a whole. Rows whose status changes lose their attribution.
func (s *Service) BulkEdit(ctx context.Context, p shared.Principal, in BulkEditInput) (BulkResult, error) {
	const op = "inventory.bulk_edit"
	if err := s.validateScope(op, p, in.Scope); err != nil {
		return BulkResult{}, err
	}
	if in.Patch.Empty() {
		return BulkResult{}, shared.Validation(op, "patch sets no fields")
	}
	if in.Patch.ClearExpiry && in.Patch.ExpiresOn != nil {
		return BulkResult{}, shared.Validation(op, "expiry date cannot be set and cleared together")
	}
	if in.Patch.ManufacturedOn != nil && in.Patch.ExpiresOn != nil && Day(*in.Patch.ExpiresOn).Before(Day(*in.Patch.ManufacturedOn)) {
		return BulkResult{}, shared.Validation(op, "expiry date is before manufacture date")
	}
	if st := in.Patch.Status; st != nil {
		if !st.Valid() {
			return BulkResult{}, shared.Validation(op, "unknown status %q", *st)
		}
		if *st == StatusSold {
			return BulkResult{}, shared.Validation(op, "bulk edit cannot set SOLD")
		}
		if *st == StatusReturned {
			if err := s.gate.Check(in.Credentials); err != nil {
				return BulkResult{}, err
			}
		}
	}

	target, verified, err := s.scopeCounts(ctx, p, in.Scope)
	if err != nil {
		return BulkResult{}, shared.Store(op, err)
	}
	if verified > 0 {
		return BulkResult{}, shared.Locked(op, fmt.Sprintf("scope contains %d verified units", verified), nil)
	}

	ch := Change{Patch: in.Patch, ClearAttributionOnStatusChange: in.Patch.Status != nil, At: s.now().UTC()}
	sel := s.scopeSelection(p, in.Scope)
	affected, applied, total, runErr := s.runChunks(ctx, sel, s.scopeIDs(in.Scope), func(ctx context.Context, sel Selection) (int64, error) {
		return s.store.UpdateMany(ctx, sel, ch)
	})
	result := BulkResult{Target: target, Verified: verified, Affected: affected, ChunksApplied: applied, ChunksTotal: total}
	if affected > 0 {
		s.invalidate(ctx, p.TenantID, in.Scope.ProductID)
		s.metrics.ObserveBulk("edit", affected)
	}

	patch, _ := json.Marshal(in.Patch)
	rec, auditErr := s.record(ctx, p, in.Scope, audit.BulkRecord{
		Operation:     audit.OpBulkEdit,
		Patch:         patch,
		TargetCount:   target,
		VerifiedCount: verified,
		AffectedCount: affected,
	})
	result.AuditID = rec.ID
	if runErr != nil {
		return result, bulkError(op, runErr, applied, total, affected)
	}
	if auditErr != nil {
		return result, auditErr
	}
	return result, nil
}

// BulkDelete deletes the scope under the verification rules: no verified
// units needs the confirmation phrase, SKIP_VERIFIED leaves verified units in
// place, DELETE_ALL needs override credentials. One audit record is appended
// for every executed delete, including one that failed part way.
func (s *Service) BulkDelete(ctx context.Context, p shared.Principal, in BulkDeleteInput) (BulkResult, error) {
	const op = "inventory.bulk_delete"
	if err := s.validateScope(op, p, in.Scope); err != nil {
		return BulkResult{}, err
	}
	switch in.Mode {
	case ModeUnset, ModeSkipVerified, ModeDeleteAll:
	default:
		return BulkResult{}, shared.Validation(op, "unknown delete mode %q", in.Mode)
	}

	target, verified, err := s.scopeCounts(ctx, p, in.Scope)
	if err != nil {
		return BulkResult{}, shared.Store(op, err)
	}

	sel := s.scopeSelection(p, in.Scope)
	result := BulkResult{Target: target, Verified: verified}
	mode := in.Mode
	switch {
	case verified == 0:
		if strings.TrimSpace(in.Confirmation) != ConfirmationPhrase {
			return BulkResult{}, shared.Validation(op, "type %s to confirm", ConfirmationPhrase)
		}
		mode = ModeUnset
	case in.Mode == ModeSkipVerified:
		sel.Filter = sel.Filter.WithVerified(false)
		result.SkippedVerified = verified
	case in.Mode == ModeDeleteAll:
		if err := s.gate.Check(in.Credentials); err != nil {
			return BulkResult{}, err
		}
		result.AdminOverride = true
	default:
		return BulkResult{}, shared.Validation(op, "scope contains %d verified units; choose %s or %s", verified, ModeSkipVerified, ModeDeleteAll)
	}

	affected, applied, total, runErr := s.runChunks(ctx, sel, s.scopeIDs(in.Scope), func(ctx context.Context, sel Selection) (int64, error) {
		return s.store.DeleteMany(ctx, sel)
	})
	result.Affected = affected
	result.ChunksApplied = applied
	result.ChunksTotal = total
	if affected > 0 {
		s.invalidate(ctx, p.TenantID, in.Scope.ProductID)
		s.metrics.ObserveBulk("delete", affected)
	}

	rec, auditErr := s.record(ctx, p, in.Scope, audit.BulkRecord{
		Operation:       audit.OpBulkDelete,
		Mode:            string(mode),
		TargetCount:     target,
		VerifiedCount:   verified,
		AffectedCount:   affected,
		SkippedVerified: result.SkippedVerified,
		AdminOverride:   result.AdminOverride,
	})
	result.AuditID = rec.ID
	if runErr != nil {
		return result, bulkError(op, runErr, applied, total, affected)
	}
	if auditErr != nil {
		return result, auditErr
	}
	return result, nil
}

func (s *Service) validateScope(op string, p shared.Principal, scope Scope) error {
	if !p.Valid() {
		return shared.Validation(op, "tenant is required")
	}
	return scope.Validate()
}

func (s *Service) scopeSelection(p shared.Principal, scope Scope) Selection {
	sel := s.selection(p, scope.ProductID)
	if scope.Kind == ScopeFilter {
		sel.Filter = scope.Filter
	}
	return sel
}

func (s *Service) scopeIDs(scope Scope) []uuid.UUID {
	if scope.Kind != ScopeIDs {
		return nil
	}
	return dedupeIDs(scope.IDs)
}

// scopeCounts returns the units in scope and how many of them are verified.
func (s *Service) scopeCounts(ctx context.Context, p shared.Principal, scope Scope) (int, int, error) {
	sel := s.scopeSelection(p, scope)
	ids := s.scopeIDs(scope)
	target, err := s.countChunked(ctx, sel, sel.Filter, ids)
	if err != nil {
		return 0, 0, err
	}
	if v := sel.Filter.Verified; v != nil {
		if *v {
			return target, target, nil
		}
		return target, 0, nil
	}
	verified, err := s.countChunked(ctx, sel, sel.Filter.WithVerified(true), ids)
	if err != nil {
		return 0, 0, err
	}
	return target, verified, nil
}

func (s *Service) countChunked(ctx context.Context, sel Selection, filter Filter, ids []uuid.UUID) (int, error) {
	sel.Filter = filter
	if ids == nil {
		return s.store.Count(ctx, sel)
	}
	total := 0
	for _, chunk := range chunkIDs(ids, s.chunkSize) {
		sel.IDs = chunk
		n, err := s.store.Count(ctx, sel)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// runChunks applies fn to sel once per id chunk, or once when ids is nil. It
// stops at the first failure and reports how many chunks were applied.
func (s *Service) runChunks(ctx context.Context, sel Selection, ids []uuid.UUID, fn func(context.Context, Selection) (int64, error)) (int64, int, int, error) {
	if ids == nil {
		n, err := fn(ctx, sel)
		if err != nil {
			return 0, 0, 1, err
		}
		return n, 1, 1, nil
	}
	chunks := chunkIDs(ids, s.chunkSize)
	var affected int64
	for i, chunk := range chunks {
		sel.IDs = chunk
		n, err := fn(ctx, sel)
		if err != nil {
			return affected, i, len(chunks), err
		}
		affected += n
	}
	return affected, len(chunks), len(chunks), nil
}

func (s *Service) record(ctx context.Context, p shared.Principal, scope Scope, rec audit.BulkRecord) (audit.BulkRecord, error) {
	rec.TenantID = p.TenantID
	rec.ProductID = scope.ProductID
	rec.ScopeKind = string(scope.Kind)
	if scope.Kind == ScopeFilter {
		rec.Scope, _ = json.Marshal(scope.Filter)
	} else {
		rec.Scope, _ = json.Marshal(map[string]int{"ids": len(s.scopeIDs(scope))})
	}
	rec.ActorID = p.ActorID
	rec.ActorName = p.DisplayName()
	saved, err := s.audit.Record(ctx, rec)
	if err != nil {
		s.logger.Error("bulk audit record failed", slog.Any("error", err),
			slog.String("operation", string(rec.Operation)), slog.Int64("affected", rec.AffectedCount))
		return audit.BulkRecord{}, err
	}
	return saved, nil
}

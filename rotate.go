package piicrypt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pdsykes2512/surg-db-sub004/internal/keyledger"
)

// Rotator re-encrypts an entity's records from one key generation to the
// next. Each record is rewritten through the store's atomic Update, so
// readers interleaved with a live rotation always see a record encrypted
// consistently under exactly one key. There is no global transaction: a
// failure on one record is recorded and the run continues.
type Rotator struct {
	oldCodec *DocumentCodec
	newCodec *DocumentCodec
	store    RecordStore
	ledger   *keyledger.Ledger
	logger   *slog.Logger
}

// RotatorOption configures a Rotator.
type RotatorOption func(*Rotator)

// WithLedger records the run and its per-record failures in the key ledger.
func WithLedger(l *keyledger.Ledger) RotatorOption {
	return func(r *Rotator) { r.ledger = l }
}

// WithLogger sets the structured logger used for per-record progress.
// Only entity names and record IDs are logged, never field values.
func WithLogger(logger *slog.Logger) RotatorOption {
	return func(r *Rotator) { r.logger = logger }
}

// NewRotator builds a rotation engine moving records from oldKM to newKM.
func NewRotator(oldKM, newKM *KeyMaterial, store RecordStore, opts ...RotatorOption) (*Rotator, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: record store is nil", ErrInvalidConfiguration)
	}
	oldCodec, err := NewDocumentCodec(oldKM)
	if err != nil {
		return nil, err
	}
	newCodec, err := NewDocumentCodec(newKM)
	if err != nil {
		return nil, err
	}

	r := &Rotator{
		oldCodec: oldCodec,
		newCodec: newCodec,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RotationReport summarizes one rotation run.
type RotationReport struct {
	RunID   string
	Entity  string
	Total   int
	Rotated int
	Failed  int

	// Failures maps record ID to the failure reason.
	Failures map[string]string
}

// Rotate re-encrypts every record of the entity under the new key. Records
// already encrypted under the new key pass through unchanged (re-encryption
// is idempotent at the value level only after decryption, so they are still
// rewritten). Individual failures never abort the run; they are collected in
// the report, logged, and recorded in the ledger when one is attached.
//
// Returns ErrRotationIncomplete alongside the report when any record failed.
func (r *Rotator) Rotate(ctx context.Context, entity string, spec *SensitiveFieldSpec) (*RotationReport, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	report := &RotationReport{
		RunID:    uuid.NewString(),
		Entity:   entity,
		Failures: make(map[string]string),
	}

	ids, err := r.store.IDs(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", entity, err)
	}
	report.Total = len(ids)

	if r.ledger != nil {
		if err := r.ledger.StartRun(ctx, report.RunID, entity,
			r.oldCodec.km.Fingerprint(), r.newCodec.km.Fingerprint()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
		}
	}

	r.logger.Info("rotation run started",
		"run_id", report.RunID,
		"entity", entity,
		"records", report.Total,
		"from_key", r.oldCodec.km.Fingerprint(),
		"to_key", r.newCodec.km.Fingerprint(),
	)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := r.store.Update(ctx, entity, id, func(rec Record) (Record, error) {
			return ReencryptDocument(rec, r.oldCodec, r.newCodec, spec)
		})
		if err != nil {
			report.Failed++
			report.Failures[id] = err.Error()
			r.logger.Warn("record rotation failed", "run_id", report.RunID, "entity", entity, "record_id", id)
			if r.ledger != nil {
				if lerr := r.ledger.RecordFailure(ctx, report.RunID, id, err.Error()); lerr != nil {
					r.logger.Error("recording rotation failure", "run_id", report.RunID, "record_id", id)
				}
			}
			continue
		}
		report.Rotated++
	}

	if r.ledger != nil {
		if err := r.ledger.FinishRun(ctx, report.RunID, report.Total, report.Rotated, report.Failed); err != nil {
			return report, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
		}
	}

	r.logger.Info("rotation run finished",
		"run_id", report.RunID,
		"entity", entity,
		"rotated", report.Rotated,
		"failed", report.Failed,
	)

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d %s records", ErrRotationIncomplete,
			report.Failed, report.Total, entity)
	}
	return report, nil
}

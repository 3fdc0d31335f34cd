package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

// ErrKeyInFlight means another transaction owns the key right now. The caller
// should roll back and retry; the retry observes the committed result.
var ErrKeyInFlight = errors.New("idempotency key claimed by a concurrent request")

// Scope identifies one idempotent command.
type Scope struct {
	TenantID    uuid.UUID
	Operation   string
	Key         string
	RequestHash string
}

// Outcome is what Begin found. Cached outcomes must be returned verbatim.
type Outcome struct {
	Cached     bool
	StatusCode int
	EntityID   *uuid.UUID
	Response   json.RawMessage
}

// Store persists idempotency records inside the caller's transaction.
type Store struct {
	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithClock is used by tests that control time.
func NewStoreWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Begin looks up the scope and, when no completed record exists, claims it by
// inserting an incomplete row. The claim is only visible to others once the
// surrounding transaction commits, at which point Commit has filled it in.
func (s *Store) Begin(ctx context.Context, tx *gorm.DB, scope Scope) (Outcome, error) {
	if tx == nil {
		return Outcome{}, fmt.Errorf("idempotency begin requires a transaction")
	}
	if err := scope.validate(); err != nil {
		return Outcome{}, err
	}

	var existing models.IdempotencyRecord
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND operation = ? AND idempotency_key = ?", scope.TenantID, scope.Operation, scope.Key).
		Take(&existing).Error
	switch {
	case err == nil:
		return outcomeFrom(existing, scope)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup idempotency record")
	}

	claim := models.IdempotencyRecord{
		TenantID:       scope.TenantID,
		Operation:      scope.Operation,
		IdempotencyKey: scope.Key,
		RequestHash:    scope.RequestHash,
		CreatedAt:      s.now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&claim).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return Outcome{}, ErrKeyInFlight
		}
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return Outcome{}, nil
}

// Commit stores the successful result on the claim made by Begin.
func (s *Store) Commit(ctx context.Context, tx *gorm.DB, scope Scope, entityID uuid.UUID, statusCode int, response any) error {
	if tx == nil {
		return fmt.Errorf("idempotency commit requires a transaction")
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal idempotent response")
	}

	completedAt := s.now().UTC()
	res := tx.WithContext(ctx).
		Model(&models.IdempotencyRecord{}).
		Where("tenant_id = ? AND operation = ? AND idempotency_key = ? AND completed_at IS NULL", scope.TenantID, scope.Operation, scope.Key).
		Updates(map[string]any{
			"entity_id":    entityID,
			"status_code":  statusCode,
			"response":     json.RawMessage(payload),
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "complete idempotency record")
	}
	if res.RowsAffected != 1 {
		return pkgerrors.New(pkgerrors.CodeInternal, "idempotency claim missing at commit")
	}
	return nil
}

func outcomeFrom(rec models.IdempotencyRecord, scope Scope) (Outcome, error) {
	if rec.RequestHash != scope.RequestHash {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request").
			WithDetails(map[string]any{"operation": scope.Operation, "idempotency_key": scope.Key})
	}
	if rec.CompletedAt == nil {
		return Outcome{}, ErrKeyInFlight
	}
	return Outcome{
		Cached:     true,
		StatusCode: rec.StatusCode,
		EntityID:   rec.EntityID,
		Response:   rec.Response,
	}, nil
}

func (s Scope) validate() error {
	if s.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if strings.TrimSpace(s.Key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if len(s.Key) > MaxKeyLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("idempotency key exceeds %d characters", MaxKeyLength))
	}
	if s.Operation == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "idempotency operation is required")
	}
	return nil
}

// MaxKeyLength bounds client supplied keys.
const MaxKeyLength = 255

// HashRequest fingerprints a command payload. encoding/json sorts map keys and
// emits struct fields in declaration order, so equal commands hash equally.
func HashRequest(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

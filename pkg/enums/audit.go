package enums

import "fmt"

// AuditAction is the verb recorded on every audit entry.
type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionConfirm    AuditAction = "confirm"
	AuditActionReschedule AuditAction = "reschedule"
	AuditActionCancel     AuditAction = "cancel"
	AuditActionExtend     AuditAction = "extend"
	AuditActionRelease    AuditAction = "release"
)

var validAuditActions = []AuditAction{
	AuditActionCreate,
	AuditActionConfirm,
	AuditActionReschedule,
	AuditActionCancel,
	AuditActionExtend,
	AuditActionRelease,
}

func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

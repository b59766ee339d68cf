package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ActionKind classifies an audit log entry.
type ActionKind string

const (
	ActionCreate         ActionKind = "create"
	ActionUpdate         ActionKind = "update"
	ActionDelete         ActionKind = "delete"
	ActionVerifyCast     ActionKind = "verify_cast"
	ActionVerifyChange   ActionKind = "verify_change"
	ActionVerifyWithdraw ActionKind = "verify_withdraw"
	ActionVerifyLock     ActionKind = "verify_lock"
	ActionVerifyUnlock   ActionKind = "verify_unlock"
	ActionFlag           ActionKind = "flag"
)

// ActionLog is the append-only audit trail. The composite index backs the
// anonymous-flag deduplication lookup on (action, review_id, ip_hash).
type ActionLog struct {
	ID       int        `gorm:"primaryKey" json:"id"`
	ReviewID int        `gorm:"index:idx_action_review,priority:2;not null" json:"review_id"`
	ActorID  *int       `gorm:"index" json:"actor_id,omitempty"`
	IPHash   string     `gorm:"index:idx_action_review,priority:3" json:"-"`
	Action   ActionKind `gorm:"index:idx_action_review,priority:1;not null" json:"action"`
	Reason   string     `json:"reason,omitempty"`
	Payload  []byte     `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LogAction appends one audit entry inside the caller's transaction. The
// payload is marshalled to JSON; a nil payload stays empty.
func LogAction(tx *gorm.DB, reviewID int, actorID *int, ipHash string, action ActionKind, reason string, payload any) error {
	entry := ActionLog{
		ReviewID: reviewID,
		ActorID:  actorID,
		IPHash:   ipHash,
		Action:   action,
		Reason:   reason,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		entry.Payload = raw
	}
	return tx.Create(&entry).Error
}

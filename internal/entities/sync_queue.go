package entities

type SyncEntityType string

const (
	SyncEntityNote      SyncEntityType = "NOTE"
	SyncEntityHighlight SyncEntityType = "HIGHLIGHT"
	SyncEntityBookmark  SyncEntityType = "BOOKMARK"
)

type SyncActionKind string

const (
	SyncActionCreate SyncActionKind = "CREATE"
	SyncActionUpdate SyncActionKind = "UPDATE"
	SyncActionDelete SyncActionKind = "DELETE"
)

type SyncActionStatus string

const (
	SyncActionPending SyncActionStatus = "PENDING"
	SyncActionSyncing SyncActionStatus = "SYNCING"
	SyncActionFailed  SyncActionStatus = "FAILED"
)

// PendingSyncAction is one queued user mutation awaiting replay.
type PendingSyncAction struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type       SyncEntityType   `gorm:"column:type" json:"type"`
	Action     SyncActionKind   `gorm:"column:action" json:"action"`
	Payload    string           `gorm:"column:payload" json:"payload"`
	Status     SyncActionStatus `gorm:"column:status" json:"status"`
	RetryCount int              `gorm:"column:retry_count" json:"retry_count"`
	LastError  string           `gorm:"column:last_error" json:"last_error,omitempty"`
	CreatedAt  string           `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt  string           `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (PendingSyncAction) TableName() string {
	return "offline_sync_queue"
}

package entities

// Setting is one entry of the platform key-value store.
type Setting struct {
	Key       string `gorm:"column:key;primaryKey" json:"key"`
	Value     string `gorm:"column:value" json:"value"`
	UpdatedAt string `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (Setting) TableName() string {
	return "offline_settings"
}

// Known setting keys
const (
	SettingKeyLastFullSyncAt    = "last_full_sync_at"
	SettingKeyLastSyncStatus    = "last_sync_status"
	SettingKeyLastSyncMessage   = "last_sync_message"
	SettingKeyLastOutboxDrainAt = "last_outbox_drain_at"
)

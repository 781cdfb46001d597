package entities

type DownloadStatus string

const (
	DownloadStatusRunning   DownloadStatus = "running"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

// DownloadProgress tracks the most recent download of one resource for the UI.
type DownloadProgress struct {
	ResourceKey string         `gorm:"column:resource_key;primaryKey" json:"resource_key"`
	Status      DownloadStatus `gorm:"column:status" json:"status"`
	Percent     int            `gorm:"column:percent" json:"percent"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	StartedAt   string         `gorm:"column:started_at" json:"started_at"`
	UpdatedAt   string         `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (DownloadProgress) TableName() string {
	return "offline_download_progress"
}

package entities

import (
	"fmt"
	"strings"
)

type ResourceKind string

const (
	ResourceBible      ResourceKind = "bible"
	ResourceCommentary ResourceKind = "commentary"
	ResourceTopics     ResourceKind = "topics"
	ResourceUserData   ResourceKind = "user-data"
)

// ResourceMetadata records what is installed and how fresh it is.
type ResourceMetadata struct {
	ResourceKey   string `gorm:"column:resource_key;primaryKey" json:"resource_key"`
	LastUpdatedAt string `gorm:"column:last_updated_at" json:"last_updated_at"`
	DownloadedAt  string `gorm:"column:downloaded_at" json:"downloaded_at"`
	SizeBytes     int64  `gorm:"column:size_bytes" json:"size_bytes"`
}

func (ResourceMetadata) TableName() string {
	return "offline_metadata"
}

// MetadataKey builds keys like "bible:NASB1995". The user-data key has no scope.
func MetadataKey(kind ResourceKind, key string) string {
	if kind == ResourceUserData {
		return string(ResourceUserData)
	}
	return fmt.Sprintf("%s:%s", kind, key)
}

// SplitMetadataKey is the inverse of MetadataKey.
func SplitMetadataKey(resourceKey string) (ResourceKind, string, bool) {
	if resourceKey == string(ResourceUserData) {
		return ResourceUserData, "", true
	}
	kind, key, ok := strings.Cut(resourceKey, ":")
	if !ok || key == "" {
		return "", "", false
	}
	switch ResourceKind(kind) {
	case ResourceBible, ResourceCommentary, ResourceTopics:
		return ResourceKind(kind), key, true
	}
	return "", "", false
}

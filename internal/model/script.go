package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ScriptStatusProcessing = "PROCESSING" // 等待 n8n 回调素材
	ScriptStatusReady      = "READY"
	ScriptStatusFailed     = "FAILED"
)

var ValidScriptTransitions = map[string][]string{
	ScriptStatusProcessing: {ScriptStatusReady, ScriptStatusFailed},
}

func CanScriptTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidScriptTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// 素材类型，对应 n8n 的回调路径
const (
	MediaKindImages = "images"
	MediaKindVideos = "videos"
	MediaKindAudio  = "audio"
)

// Script 一次脚本生成记录
type Script struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string         `gorm:"type:varchar(128);index;not null" json:"userId"`
	Topic           string         `gorm:"type:varchar(512);not null" json:"topic"`
	Content         string         `gorm:"type:text" json:"content"`
	DurationMinutes float64        `gorm:"not null" json:"durationMinutes"`
	Keywords        datatypes.JSON `json:"keywords"`
	Images          datatypes.JSON `json:"images"`
	Videos          datatypes.JSON `json:"videos"`
	AudioURL        string         `gorm:"type:varchar(1024)" json:"audioUrl"`
	CreditsCharged  int64          `gorm:"not null;default:0" json:"creditsCharged"`
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Script) TableName() string {
	return "scripts"
}

// HasAllMedia 图片和视频素材都已回调
func (s *Script) HasAllMedia() bool {
	return len(s.Images) > 0 && len(s.Videos) > 0
}

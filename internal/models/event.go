package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventLog struct {
	ID         string     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Timestamp  time.Time  `gorm:"not null;index;default:now()"`
	UserID     *uint      `gorm:"index"`
	EventType  EventType  `gorm:"type:varchar(40);not null;index"`
	EntityType EntityType `gorm:"type:varchar(40);not null;index"`
	EntityID   string     `gorm:"size:64;index"`
	IP         string     `gorm:"size:64"`
	UserAgent  string     `gorm:"size:512"`
	Payload    datatypes.JSONMap
}

func (EventLog) TableName() string { return "event_logs" }

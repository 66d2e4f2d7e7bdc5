package journal

import "time"

// LifecycleEvent one supervisor operation outcome
type LifecycleEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	EventID    string    `gorm:"column:event_id;type:varchar(64);not null;uniqueIndex"`
	Operation  string    `gorm:"column:operation;type:varchar(16);not null;index:idx_operation_time,priority:1"`
	Outcome    string    `gorm:"column:outcome;type:varchar(16);not null"`
	State      string    `gorm:"column:state;type:varchar(16)"`
	Liveness   string    `gorm:"column:liveness;type:varchar(16)"`
	ServiceID  string    `gorm:"column:service_id;type:varchar(128)"`
	Message    string    `gorm:"column:message;type:text"`
	DurationMs int64     `gorm:"column:duration_ms"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index:idx_operation_time,priority:2;index:idx_occurred_at"`
}

func (LifecycleEvent) TableName() string { return "lifecycle_events" }

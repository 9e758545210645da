package store

import "time"

// Session is one complete interview attempt for a given job role.
// Rows are write-once: the core never updates or deletes a session.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobRole   string    `gorm:"not null" json:"job_role"`
	CreatedAt time.Time `json:"created_at"`
}

// Round is one question/answer/evaluation triple within a session.
// Ordering within a session is insertion order. The answer may be empty when
// the round was recorded as skipped.
type Round struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  uint   `gorm:"index" json:"session_id"`
	Question   string `gorm:"not null" json:"question"`
	Answer     string `json:"answer"`
	Evaluation string `json:"evaluation"`
}

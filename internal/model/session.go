package model

import (
	"fmt"
	"time"
)

// MentoringSession 辅导场次表，对应 mentoring_sessions
// SessionProof 非空即为已完成，没有单独的状态字段
type MentoringSession struct {
	SessionID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	MentorUserID string    `gorm:"type:uuid;not null"                             json:"mentor_user_id"`
	SemesterID   string    `gorm:"type:uuid;not null"                             json:"semester_id"`
	CourseName   string    `gorm:"type:varchar(150);not null"                     json:"course_name"`
	Platform     string    `gorm:"type:varchar(100);not null"                     json:"platform"`
	SessionDate  time.Time `gorm:"type:date;not null"                             json:"session_date"`
	StartTime    string    `gorm:"type:varchar(5);not null"                       json:"start_time"` // HH:MM
	EndTime      string    `gorm:"type:varchar(5);not null"                       json:"end_time"`   // HH:MM
	SessionProof *string   `gorm:"type:varchar(500)"                              json:"session_proof,omitempty"`
	VersionedModel

	// 关联
	Mentor *User `gorm:"foreignKey:MentorUserID;references:UserID" json:"mentor,omitempty"`
}

// TableName 指定表名
func (MentoringSession) TableName() string { return "mentoring_sessions" }

// IsCompleted 是否已提交凭证
func (s *MentoringSession) IsCompleted() bool {
	return s.SessionProof != nil && *s.SessionProof != ""
}

// StartsAt 开始时刻（日期 + 开始时间，按 loc 解释）
func (s *MentoringSession) StartsAt(loc *time.Location) (time.Time, error) {
	return combine(s.SessionDate, s.StartTime, loc)
}

// EndsAt 结束时刻（日期 + 结束时间，按 loc 解释）
func (s *MentoringSession) EndsAt(loc *time.Location) (time.Time, error) {
	return combine(s.SessionDate, s.EndTime, loc)
}

// DateString 日期的 YYYY-MM-DD 形式
func (s *MentoringSession) DateString() string {
	return s.SessionDate.Format(time.DateOnly)
}

func combine(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的时间 %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}

// SessionRecording 辅导录屏，对应 session_recordings
type SessionRecording struct {
	RecordingID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"recording_id"`
	SessionID    string    `gorm:"type:uuid;not null"                             json:"session_id"`
	MentorUserID string    `gorm:"type:uuid;not null"                             json:"mentor_user_id"`
	FileURL      string    `gorm:"type:varchar(500);not null"                     json:"file_url"`
	SizeBytes    int64     `gorm:"not null"                                       json:"size_bytes"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (SessionRecording) TableName() string { return "session_recordings" }

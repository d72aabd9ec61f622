package model

import "time"

// AttendanceRecord 签到记录，对应 mentoring_session_attendances
// (session_id, mentee_user_id) 唯一，创建后不再修改
type AttendanceRecord struct {
	SessionID    string    `gorm:"type:uuid;primaryKey" json:"session_id"`
	MenteeUserID string    `gorm:"type:uuid;primaryKey" json:"mentee_user_id"`
	CheckInTime  time.Time `gorm:"not null"             json:"check_in_time"`

	// 关联
	Mentee *User `gorm:"foreignKey:MenteeUserID;references:UserID" json:"mentee,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "mentoring_session_attendances" }

// RosterEntry 名单行：配对 mentee LEFT JOIN 签到记录
type RosterEntry struct {
	MenteeUserID string     `gorm:"column:mentee_user_id"`
	Name         string     `gorm:"column:name"`
	NIM          string     `gorm:"column:nim"`
	Email        string     `gorm:"column:email"`
	Faculty      string     `gorm:"column:faculty"`
	CheckInTime  *time.Time `gorm:"column:check_in_time"`
}

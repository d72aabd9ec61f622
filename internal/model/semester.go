package model

import "time"

// Semester 学期表，对应 semesters
type Semester struct {
	SemesterID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	Name       string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate  time.Time `gorm:"not null"                                       json:"start_date"`
	EndDate    time.Time `gorm:"not null"                                       json:"end_date"`
	Timestamps
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// Contains 闭区间 [start, end] 是否包含 t
func (s *Semester) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

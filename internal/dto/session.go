package dto

// ── 辅导场次模块 DTO ──

// CreateSessionRequest 创建场次请求
type CreateSessionRequest struct {
	CourseName  string `json:"course_name"  binding:"required,notblank,max=150"`
	Platform    string `json:"platform"     binding:"required,notblank,max=100"`
	SessionDate string `json:"session_date" binding:"required,isodate"` // "2025-03-10"
	StartTime   string `json:"start_time"   binding:"required,clock"`   // "19:00"
	EndTime     string `json:"end_time"     binding:"required,clock"`   // "20:30"
}

// UpdateSessionRequest 编辑场次请求
// PATCH 只覆盖提交的字段；PUT 要求全部字段
type UpdateSessionRequest struct {
	CourseName  *string `json:"course_name"  binding:"omitempty,notblank,max=150"`
	Platform    *string `json:"platform"     binding:"omitempty,notblank,max=100"`
	SessionDate *string `json:"session_date" binding:"omitempty,isodate"`
	StartTime   *string `json:"start_time"   binding:"omitempty,clock"`
	EndTime     *string `json:"end_time"     binding:"omitempty,clock"`
	Version     *int    `json:"version"      binding:"omitempty,min=1"`
}

// HasAllFields 是否提交了全部可编辑字段
func (r *UpdateSessionRequest) HasAllFields() bool {
	return r.CourseName != nil && r.Platform != nil && r.SessionDate != nil &&
		r.StartTime != nil && r.EndTime != nil
}

// CreateSessionResponse 创建场次响应
type CreateSessionResponse struct {
	ID string `json:"id"`
}

// SessionResponse 场次信息
// Editable 为 true 时才返回 Version 与 Recordings
type SessionResponse struct {
	ID           string              `json:"id"`
	MentorID     string              `json:"mentor_id"`
	MentorName   string              `json:"mentor_name,omitempty"`
	SemesterID   string              `json:"semester_id"`
	CourseName   string              `json:"course_name"`
	Platform     string              `json:"platform"`
	SessionDate  string              `json:"session_date"`
	StartTime    string              `json:"start_time"`
	EndTime      string              `json:"end_time"`
	EndsAt       string              `json:"ends_at"`
	Status       string              `json:"status"` // scheduled | completed
	SessionProof *string             `json:"session_proof"`
	Editable     bool                `json:"editable"`
	Version      *int                `json:"version,omitempty"`
	Recordings   []RecordingResponse `json:"recordings,omitempty"`
}

// RecordingResponse 录屏信息
type RecordingResponse struct {
	ID        string `json:"id"`
	FileURL   string `json:"file_url"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

// SessionAttendanceItem 场次签到明细（mentor 查看 / 导出）
type SessionAttendanceItem struct {
	MenteeID    string `json:"mentee_id"`
	Name        string `json:"name"`
	NIM         string `json:"nim"`
	Email       string `json:"email"`
	CheckInTime string `json:"check_in_time"`
}

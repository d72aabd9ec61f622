package dto

// ── 签到模块 DTO ──

// AttendanceDetailsResponse 场次签到详情
type AttendanceDetailsResponse struct {
	Session SessionResponse `json:"session"`
	Mentor  MentorInfo      `json:"mentor"`
	Window  ConfirmWindow   `json:"confirm_window"`
	Roster  []RosterItem    `json:"roster"`
}

// MentorInfo 场次 mentor 信息
type MentorInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConfirmWindow 签到窗口 [opens_at, closes_at]
type ConfirmWindow struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	Open     bool   `json:"open"`
}

// RosterItem 名单行，未签到时 CheckInTime 为 null
type RosterItem struct {
	MenteeID    string  `json:"mentee_id"`
	Name        string  `json:"name"`
	NIM         string  `json:"nim"`
	Email       string  `json:"email"`
	Faculty     string  `json:"faculty"`
	CheckInTime *string `json:"check_in_time"`
	Attended    bool    `json:"attended"`
}

// ConfirmAttendanceResponse 签到成功响应
type ConfirmAttendanceResponse struct {
	SessionID   string `json:"session_id"`
	MenteeID    string `json:"mentee_id"`
	CheckInTime string `json:"check_in_time"`
}

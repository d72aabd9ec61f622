package dto

// ── 学期模块 DTO ──

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CurrentSemesterResponse 当前学期及调用者在该学期的角色
type CurrentSemesterResponse struct {
	SemesterResponse
	Role *string `json:"role"` // mentor | mentee | null
}

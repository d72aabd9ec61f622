package dto

// ── 用户 / 首页 DTO ──

// MenteeResponse mentee 信息
type MenteeResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	NIM            string  `json:"nim"`
	Email          string  `json:"email"`
	Faculty        string  `json:"faculty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// HomeResponse 首页数据
// mentor 附带 mentee 列表；mentee 只有场次
type HomeResponse struct {
	Role     string            `json:"role"`
	Semester SemesterResponse  `json:"semester"`
	Sessions []SessionResponse `json:"sessions"`
	Mentees  []MenteeResponse  `json:"mentees,omitempty"`
}

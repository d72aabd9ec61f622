package model

// User 用户表，对应 users（由认证服务维护，本服务只读）
type User struct {
	UserID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name           string  `gorm:"type:varchar(100);not null"                     json:"name"`
	NIM            string  `gorm:"column:nim;type:varchar(20);not null"           json:"nim"`
	Email          string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Faculty        string  `gorm:"type:varchar(100);not null;default:''"          json:"faculty"`
	ProfilePicture *string `gorm:"type:varchar(500)"                              json:"profile_picture,omitempty"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// 学期角色
const (
	RoleMentor = "mentor"
	RoleMentee = "mentee"
)

// UserRole 用户-学期角色表，对应 user_roles
// 每个 (user, semester) 只有一个角色
type UserRole struct {
	UserID     string `gorm:"type:uuid;primaryKey"        json:"user_id"`
	SemesterID string `gorm:"type:uuid;primaryKey"        json:"semester_id"`
	Role       string `gorm:"type:varchar(10);not null"   json:"role"` // mentor | mentee
	Timestamps
}

// TableName 指定表名
func (UserRole) TableName() string { return "user_roles" }

// Pairing 配对表，对应 pairings
// 同一学期一名 mentee 只配对一名 mentor
type Pairing struct {
	PairingID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pairing_id"`
	MentorUserID string `gorm:"type:uuid;not null"                             json:"mentor_user_id"`
	MenteeUserID string `gorm:"type:uuid;not null"                             json:"mentee_user_id"`
	SemesterID   string `gorm:"type:uuid;not null"                             json:"semester_id"`
	Timestamps

	// 关联
	Mentee *User `gorm:"foreignKey:MenteeUserID;references:UserID" json:"mentee,omitempty"`
}

// TableName 指定表名
func (Pairing) TableName() string { return "pairings" }

package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/upload"
)

// 场次时间按 WIB（UTC+7）解释
var testLoc = time.FixedZone("WIB", 7*3600)

// sessionEnd 测试场次 2025-03-10 19:00-20:00 WIB 的结束时刻
var sessionEnd = time.Date(2025, 3, 10, 20, 0, 0, 0, testLoc)

const (
	mentorA = "mentor-a"
	mentorB = "mentor-b"
	menteeA = "mentee-a" // 与 mentorA 配对
	menteeB = "mentee-b" // 与 mentorB 配对
	nobody  = "nobody"   // 本学期无角色
	semID   = "sem-2025"
)

var (
	callerMentorA = Caller{UserID: mentorA, Role: model.RoleMentor, Name: "Mentor A"}
	callerMentorB = Caller{UserID: mentorB, Role: model.RoleMentor, Name: "Mentor B"}
	callerMenteeA = Caller{UserID: menteeA, Role: model.RoleMentee, Name: "Mentee A"}
	callerMenteeB = Caller{UserID: menteeB, Role: model.RoleMentee, Name: "Mentee B"}
	callerNobody  = Caller{UserID: nobody, Name: "Nobody"}
)

// testEnv 内存仓库 + 可拨动的时钟
type testEnv struct {
	repo       *repository.Repository
	users      *mockUserRepo
	semesters  *mockSemesterRepo
	roles      *mockUserRoleRepo
	pairings   *mockPairingRepo
	sessions   *mockSessionRepo
	attendance *mockAttendanceRepo
	recordings *mockRecordingRepo
	store      *memStorage
	cfg        *config.Config
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	users := newMockUserRepo()
	pairings := newMockPairingRepo(users)
	e := &testEnv{
		users:      users,
		semesters:  newMockSemesterRepo(),
		roles:      newMockUserRoleRepo(),
		pairings:   pairings,
		sessions:   newMockSessionRepo(users),
		attendance: newMockAttendanceRepo(pairings, users),
		recordings: newMockRecordingRepo(),
		store:      newMemStorage(),
		now:        time.Date(2025, 3, 1, 10, 0, 0, 0, testLoc),
		cfg: &config.Config{
			Storage: config.StorageConfig{ProofMaxBytes: 1 << 20, RecordingMaxBytes: 4 << 20},
			Mentoring: config.MentoringConfig{
				HomeMentorLimit: 4,
				HomeMenteeLimit: 6,
			},
		},
	}
	e.repo = &repository.Repository{
		User:       e.users,
		Semester:   e.semesters,
		UserRole:   e.roles,
		Pairing:    e.pairings,
		Session:    e.sessions,
		Attendance: e.attendance,
		Recording:  e.recordings,
	}

	for _, u := range []*model.User{
		{UserID: mentorA, Name: "Mentor A", NIM: "2501000001", Email: "a@binus.ac.id"},
		{UserID: mentorB, Name: "Mentor B", NIM: "2501000002", Email: "b@binus.ac.id"},
		{UserID: menteeA, Name: "Mentee A", NIM: "2702000001", Email: "ma@binus.ac.id", Faculty: "SoCS"},
		{UserID: menteeB, Name: "Mentee B", NIM: "2702000002", Email: "mb@binus.ac.id"},
		{UserID: nobody, Name: "Nobody", NIM: "2702000003", Email: "n@binus.ac.id"},
	} {
		_ = e.users.Create(ctx, u)
	}

	_ = e.semesters.Create(ctx, &model.Semester{
		SemesterID: semID,
		Name:       "Even 2024/2025",
		StartDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC),
	})

	for user, role := range map[string]string{
		mentorA: model.RoleMentor, mentorB: model.RoleMentor,
		menteeA: model.RoleMentee, menteeB: model.RoleMentee,
	} {
		_ = e.roles.Create(ctx, &model.UserRole{UserID: user, SemesterID: semID, Role: role})
	}

	_ = e.pairings.Create(ctx, &model.Pairing{MentorUserID: mentorA, MenteeUserID: menteeA, SemesterID: semID})
	_ = e.pairings.Create(ctx, &model.Pairing{MentorUserID: mentorB, MenteeUserID: menteeB, SemesterID: semID})

	return e
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) sessionService() *sessionService {
	svc := NewSessionService(e.cfg, e.repo, e.store, testLoc, zap.NewNop()).(*sessionService)
	svc.now = e.clock
	return svc
}

func (e *testEnv) attendanceService() *attendanceService {
	svc := NewAttendanceService(e.repo, testLoc, zap.NewNop()).(*attendanceService)
	svc.now = e.clock
	return svc
}

// createSession 以 mentorA 创建 2025-03-10 19:00-20:00 的场次
func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	resp, err := e.sessionService().Create(context.Background(), callerMentorA, &dto.CreateSessionRequest{
		CourseName:  "Algorithm and Programming",
		Platform:    "Zoom",
		SessionDate: "2025-03-10",
		StartTime:   "19:00",
		EndTime:     "20:00",
	})
	if err != nil {
		t.Fatalf("创建场次失败: %v", err)
	}
	return resp.ID
}

// completeSession 在结束后 1 分钟由 mentorA 上传凭证
func (e *testEnv) completeSession(t *testing.T, id string) {
	t.Helper()
	e.now = sessionEnd.Add(time.Minute)
	if _, err := e.sessionService().Complete(context.Background(), callerMentorA, id, pngProof()); err != nil {
		t.Fatalf("完成场次失败: %v", err)
	}
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1}

func pngProof() *upload.File {
	return &upload.File{Name: "proof.png", Size: int64(len(pngBytes)), Reader: bytes.NewReader(pngBytes)}
}

func strPtr(s string) *string { return &s }

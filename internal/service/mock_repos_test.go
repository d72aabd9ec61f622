package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	pkgerrors "github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.NIM
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters []*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	m.semesters = append(m.semesters, semester)
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.SemesterID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetActiveAt(_ context.Context, t time.Time) (*model.Semester, error) {
	var hits []*model.Semester
	for _, s := range m.semesters {
		if s.Contains(t) {
			hits = append(hits, s)
		}
	}
	if len(hits) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].StartDate.Equal(hits[j].StartDate) {
			return hits[i].StartDate.Before(hits[j].StartDate)
		}
		return hits[i].SemesterID < hits[j].SemesterID
	})
	return hits[0], nil
}

// ── Mock UserRoleRepository ──

type mockUserRoleRepo struct {
	roles map[string]string // userID|semesterID → role
}

func newMockUserRoleRepo() *mockUserRoleRepo {
	return &mockUserRoleRepo{roles: make(map[string]string)}
}

func (m *mockUserRoleRepo) Create(_ context.Context, role *model.UserRole) error {
	m.roles[role.UserID+"|"+role.SemesterID] = role.Role
	return nil
}

func (m *mockUserRoleRepo) GetRole(_ context.Context, userID, semesterID string) (string, error) {
	if role, ok := m.roles[userID+"|"+semesterID]; ok {
		return role, nil
	}
	return "", gorm.ErrRecordNotFound
}

// ── Mock PairingRepository ──

type mockPairingRepo struct {
	pairings []model.Pairing
	users    *mockUserRepo
}

func newMockPairingRepo(users *mockUserRepo) *mockPairingRepo {
	return &mockPairingRepo{users: users}
}

func (m *mockPairingRepo) Create(_ context.Context, p *model.Pairing) error {
	for _, existing := range m.pairings {
		if existing.MenteeUserID == p.MenteeUserID && existing.SemesterID == p.SemesterID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if p.PairingID == "" {
		p.PairingID = fmt.Sprintf("pair-%d", len(m.pairings)+1)
	}
	m.pairings = append(m.pairings, *p)
	return nil
}

func (m *mockPairingRepo) IsPaired(_ context.Context, mentorID, menteeID, semesterID string) (bool, error) {
	for _, p := range m.pairings {
		if p.MentorUserID == mentorID && p.MenteeUserID == menteeID && p.SemesterID == semesterID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPairingRepo) ListMentees(_ context.Context, mentorID, semesterID string) ([]model.User, error) {
	var result []model.User
	for _, p := range m.pairings {
		if p.MentorUserID == mentorID && p.SemesterID == semesterID {
			if u, ok := m.users.users[p.MenteeUserID]; ok {
				result = append(result, *u)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockPairingRepo) ListMentorIDs(_ context.Context, menteeID, semesterID string) ([]string, error) {
	var ids []string
	for _, p := range m.pairings {
		if p.MenteeUserID == menteeID && p.SemesterID == semesterID {
			ids = append(ids, p.MentorUserID)
		}
	}
	return ids, nil
}

// ── Mock SessionRepository ──
// 读取返回副本，模拟每次从数据库取到新对象

type mockSessionRepo struct {
	sessions map[string]*model.MentoringSession
	users    *mockUserRepo
}

func newMockSessionRepo(users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.MentoringSession), users: users}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.MentoringSession) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	s.Version = 1
	s.CreatedAt = time.Now()
	stored := *s
	m.sessions[s.SessionID] = &stored
	return nil
}

func (m *mockSessionRepo) load(id string) (*model.MentoringSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if s.SessionProof != nil {
		proof := *s.SessionProof
		cp.SessionProof = &proof
	}
	if u, ok := m.users.users[s.MentorUserID]; ok {
		cp.Mentor = u
	}
	return &cp, nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.MentoringSession, error) {
	return m.load(id)
}

func (m *mockSessionRepo) GetByIDForShare(_ context.Context, id string) (*model.MentoringSession, error) {
	return m.load(id)
}

func (m *mockSessionRepo) Update(_ context.Context, s *model.MentoringSession) error {
	stored, ok := m.sessions[s.SessionID]
	if !ok || stored.Version != s.Version || stored.SessionProof != nil {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	cp.Mentor = nil
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) SetProof(_ context.Context, s *model.MentoringSession, proof string, updatedBy string) error {
	stored, ok := m.sessions[s.SessionID]
	if !ok || stored.SessionProof != nil {
		return pkgerrors.ErrOptimisticLock
	}
	stored.SessionProof = &proof
	stored.UpdatedBy = &updatedBy
	stored.Version++
	s.SessionProof = &proof
	s.UpdatedBy = &updatedBy
	s.Version = stored.Version
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) ListByMentors(_ context.Context, mentorIDs []string, semesterID string, limit int) ([]model.MentoringSession, error) {
	var result []model.MentoringSession
	for id, s := range m.sessions {
		if s.SemesterID != semesterID {
			continue
		}
		for _, mid := range mentorIDs {
			if s.MentorUserID == mid {
				cp, _ := m.load(id)
				result = append(result, *cp)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SessionDate.Equal(result[j].SessionDate) {
			return result[i].SessionDate.After(result[j].SessionDate)
		}
		return result[i].StartTime > result[j].StartTime
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  map[string]model.AttendanceRecord // sessionID|menteeID
	pairings *mockPairingRepo
	users    *mockUserRepo

	// hideExisting 让 Exists 返回 false，模拟并发签到越过检查
	hideExisting bool
}

func newMockAttendanceRepo(pairings *mockPairingRepo, users *mockUserRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]model.AttendanceRecord), pairings: pairings, users: users}
}

func (m *mockAttendanceRepo) Exists(_ context.Context, sessionID, menteeID string) (bool, error) {
	if m.hideExisting {
		return false, nil
	}
	_, ok := m.records[sessionID+"|"+menteeID]
	return ok, nil
}

func (m *mockAttendanceRepo) Create(_ context.Context, r *model.AttendanceRecord) error {
	key := r.SessionID + "|" + r.MenteeUserID
	if _, ok := m.records[key]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "mentoring_session_attendances_pkey"}
	}
	m.records[key] = *r
	return nil
}

func (m *mockAttendanceRepo) ListRoster(ctx context.Context, s *model.MentoringSession) ([]model.RosterEntry, error) {
	mentees, _ := m.pairings.ListMentees(ctx, s.MentorUserID, s.SemesterID)
	roster := make([]model.RosterEntry, 0, len(mentees))
	for _, u := range mentees {
		entry := model.RosterEntry{MenteeUserID: u.UserID, Name: u.Name, NIM: u.NIM, Email: u.Email, Faculty: u.Faculty}
		if r, ok := m.records[s.SessionID+"|"+u.UserID]; ok {
			t := r.CheckInTime
			entry.CheckInTime = &t
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

func (m *mockAttendanceRepo) ListBySession(_ context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for key, r := range m.records {
		if strings.HasPrefix(key, sessionID+"|") {
			r.Mentee = m.users.users[r.MenteeUserID]
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CheckInTime.Before(result[j].CheckInTime) })
	return result, nil
}

func (m *mockAttendanceRepo) CountBySessions(_ context.Context, sessionIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, id := range sessionIDs {
		for key := range m.records {
			if strings.HasPrefix(key, id+"|") {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *mockAttendanceRepo) DeleteBySession(_ context.Context, sessionID string) error {
	for key := range m.records {
		if strings.HasPrefix(key, sessionID+"|") {
			delete(m.records, key)
		}
	}
	return nil
}

// ── Mock RecordingRepository ──

type mockRecordingRepo struct {
	recordings []model.SessionRecording
}

func newMockRecordingRepo() *mockRecordingRepo {
	return &mockRecordingRepo{}
}

func (m *mockRecordingRepo) Create(_ context.Context, r *model.SessionRecording) error {
	r.RecordingID = fmt.Sprintf("rec-%d", len(m.recordings)+1)
	r.CreatedAt = time.Now()
	m.recordings = append(m.recordings, *r)
	return nil
}

func (m *mockRecordingRepo) ListBySession(_ context.Context, sessionID string) ([]model.SessionRecording, error) {
	var result []model.SessionRecording
	for _, r := range m.recordings {
		if r.SessionID == sessionID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRecordingRepo) DeleteBySession(_ context.Context, sessionID string) error {
	kept := m.recordings[:0]
	for _, r := range m.recordings {
		if r.SessionID != sessionID {
			kept = append(kept, r)
		}
	}
	m.recordings = kept
	return nil
}

// ── Mock Storage ──

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if m.failErr != nil {
		return "", m.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "/uploads/" + key
	m.objects[ref] = data
	return ref, nil
}

func (m *memStorage) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// uuidStrictSessionRepo 模拟 Postgres 对非 UUID 参数报 22P02
type uuidStrictSessionRepo struct {
	*mockSessionRepo
}

func (m *uuidStrictSessionRepo) GetByID(ctx context.Context, id string) (*model.MentoringSession, error) {
	if uuid.Validate(id) != nil {
		return nil, &pgconn.PgError{Code: "22P02"}
	}
	return m.mockSessionRepo.GetByID(ctx, id)
}

func (m *uuidStrictSessionRepo) GetByIDForShare(ctx context.Context, id string) (*model.MentoringSession, error) {
	if uuid.Validate(id) != nil {
		return nil, &pgconn.PgError{Code: "22P02"}
	}
	return m.mockSessionRepo.GetByIDForShare(ctx, id)
}

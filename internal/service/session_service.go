package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
	pkgerrors "github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/errors"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/metrics"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/storage"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/upload"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/validate"
)

// ── 辅导场次模块业务错误 ──

var (
	ErrSessionNotFound         = errors.New("辅导场次不存在")
	ErrNotMentor               = errors.New("你在当前学期不是 mentor")
	ErrSessionFieldsRequired   = errors.New("课程、平台、日期、开始与结束时间均为必填")
	ErrSessionTimeInvalid      = errors.New("日期或时间格式无效，或结束时间不晚于开始时间")
	ErrSessionCompleted        = errors.New("场次已完成，不能再编辑")
	ErrSessionAlreadyCompleted = errors.New("场次已完成，不能重复提交凭证")
	ErrSessionVersionConflict  = errors.New("场次已被修改，请刷新后重试")
	ErrSessionNotEnded         = errors.New("场次尚未结束")
	ErrProofRequired           = errors.New("请上传辅导凭证图片")
	ErrRecordingRequired       = errors.New("请上传录屏文件")
)

var tracer = otel.Tracer("nindyamaya/service")

// SessionService 辅导场次业务接口
//
// 状态只有两个：Scheduled（session_proof 为空）与 Completed（已上传凭证）。
// 删除可以发生在任一状态，并级联删除签到记录与录屏。
type SessionService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	List(ctx context.Context, caller Caller) ([]dto.SessionResponse, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.SessionResponse, error)
	Edit(ctx context.Context, caller Caller, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	Complete(ctx context.Context, caller Caller, id string, proof *upload.File) (*dto.SessionResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	UploadRecording(ctx context.Context, caller Caller, id string, file *upload.File) (*dto.RecordingResponse, error)
	ListAttendance(ctx context.Context, caller Caller, id string) ([]dto.SessionAttendanceItem, error)
}

type sessionService struct {
	repo            *repository.Repository
	store           storage.Storage
	proofPolicy     upload.Policy
	recordingPolicy upload.Policy
	loc             *time.Location
	logger          *zap.Logger
	now             func() time.Time
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(
	cfg *config.Config,
	repo *repository.Repository,
	store storage.Storage,
	loc *time.Location,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		repo:            repo,
		store:           store,
		proofPolicy:     upload.ProofPolicy(cfg.Storage.ProofMaxBytes),
		recordingPolicy: upload.RecordingPolicy(cfg.Storage.RecordingMaxBytes),
		loc:             loc,
		logger:          logger,
		now:             time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *sessionService) Create(ctx context.Context, caller Caller, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	var session *model.MentoringSession

	// 学期查询、角色校验与插入在同一事务内
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		semester, err := resolveActive(ctx, tx, s.now())
		if err != nil {
			return err
		}

		fields, err := parseSessionFields(req.CourseName, req.Platform, req.SessionDate, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}

		role, err := roleIn(ctx, tx, caller.UserID, semester.SemesterID)
		if errors.Is(err, ErrNoSemesterRole) || (err == nil && role != model.RoleMentor) {
			return ErrNotMentor
		}
		if err != nil {
			return err
		}

		session = &model.MentoringSession{
			MentorUserID: caller.UserID,
			SemesterID:   semester.SemesterID,
		}
		fields.apply(session)
		session.CreatedBy = &caller.UserID
		session.UpdatedBy = &caller.UserID

		return tx.Session.Create(ctx, session)
	})
	if err != nil {
		if !isSessionBusinessErr(err) {
			s.logger.Error("创建场次失败", zap.String("user_id", caller.UserID), zap.Error(err))
		}
		return nil, err
	}

	metrics.SessionsCreated.Inc()
	s.logger.Info("场次已创建",
		zap.String("session_id", session.SessionID),
		zap.String("user_id", caller.UserID),
	)
	return &dto.CreateSessionResponse{ID: session.SessionID}, nil
}

// ────────────────────── List ──────────────────────

// List mentor 看到自己的场次；mentee 看到配对 mentor 的场次
func (s *sessionService) List(ctx context.Context, caller Caller) ([]dto.SessionResponse, error) {
	sessions, _, err := listForCaller(ctx, s.repo, caller, s.now(), 0)
	if err != nil {
		if !isSessionBusinessErr(err) {
			s.logger.Error("查询场次列表失败", zap.String("user_id", caller.UserID), zap.Error(err))
		}
		return nil, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i], s.loc, IsOwner(caller, &sessions[i]), nil))
	}
	return result, nil
}

// listForCaller 按调用者在活动学期的角色取场次，同时返回角色
func listForCaller(ctx context.Context, repo *repository.Repository, caller Caller, now time.Time, limit int) ([]model.MentoringSession, string, error) {
	semester, err := resolveActive(ctx, repo, now)
	if err != nil {
		return nil, "", err
	}
	role, err := roleIn(ctx, repo, caller.UserID, semester.SemesterID)
	if err != nil {
		return nil, "", err
	}

	var mentorIDs []string
	switch role {
	case model.RoleMentor:
		mentorIDs = []string{caller.UserID}
	case model.RoleMentee:
		mentorIDs, err = repo.Pairing.ListMentorIDs(ctx, caller.UserID, semester.SemesterID)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", ErrNoSemesterRole
	}

	sessions, err := repo.Session.ListByMentors(ctx, mentorIDs, semester.SemesterID, limit)
	if err != nil {
		return nil, "", err
	}
	return sessions, role, nil
}

// ────────────────────── Get ──────────────────────

// Get 所属 mentor 且未完成时返回可编辑视图，其余有权限者返回只读视图
func (s *sessionService) Get(ctx context.Context, caller Caller, id string) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if IsOwner(caller, session) {
		if session.IsCompleted() {
			resp := toSessionResponse(session, s.loc, false, nil)
			return &resp, nil
		}
		return s.editView(ctx, session)
	}

	if err := RequirePairedMentee(ctx, s.repo.Pairing, caller, session); err != nil {
		if errors.Is(err, ErrNotPairedMentee) {
			return nil, ErrSessionAccessDenied
		}
		s.logger.Error("查询配对关系失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	resp := toSessionResponse(session, s.loc, false, nil)
	return &resp, nil
}

// ────────────────────── Edit ──────────────────────

func (s *sessionService) Edit(ctx context.Context, caller Caller, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(caller, session) {
		return nil, ErrNotSessionOwner
	}
	if session.IsCompleted() {
		return nil, ErrSessionCompleted
	}
	if req.Version != nil && *req.Version != session.Version {
		return nil, ErrSessionVersionConflict
	}

	fields, err := parseSessionFields(
		pick(req.CourseName, session.CourseName),
		pick(req.Platform, session.Platform),
		pick(req.SessionDate, session.DateString()),
		pick(req.StartTime, session.StartTime),
		pick(req.EndTime, session.EndTime),
	)
	if err != nil {
		return nil, err
	}
	fields.apply(session)
	session.UpdatedBy = &caller.UserID

	if err := s.repo.Session.Update(ctx, session); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.explainLostUpdate(ctx, id, ErrSessionVersionConflict)
		}
		s.logger.Error("更新场次失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	return s.editView(ctx, session)
}

// ────────────────────── Complete ──────────────────────

// Complete 场次结束后由 mentor 上传凭证，状态只能从 Scheduled 变为 Completed
func (s *sessionService) Complete(ctx context.Context, caller Caller, id string, proof *upload.File) (*dto.SessionResponse, error) {
	ctx, span := tracer.Start(ctx, "SessionService.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(caller, session) {
		return nil, ErrNotSessionOwner
	}
	if proof == nil || proof.Reader == nil || proof.Size == 0 {
		return nil, ErrProofRequired
	}

	endsAt, err := session.EndsAt(s.loc)
	if err != nil {
		s.logger.Error("场次时间数据无效", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	if s.now().Before(endsAt) {
		return nil, ErrSessionNotEnded
	}
	if session.IsCompleted() {
		return nil, ErrSessionAlreadyCompleted
	}

	accepted, err := s.proofPolicy.Accept(proof)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Save(ctx, storage.NewKey(storage.CategoryProof, accepted.Ext), accepted.MIME, accepted.Reader)
	if err != nil {
		if errors.Is(err, upload.ErrFileTooLarge) {
			return nil, err
		}
		s.logger.Error("保存凭证失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Session.SetProof(ctx, session, ref, caller.UserID); err != nil {
		s.discard(ctx, ref)
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.explainLostUpdate(ctx, id, ErrSessionAlreadyCompleted)
		}
		s.logger.Error("写入凭证失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	metrics.SessionsCompleted.Inc()
	metrics.UploadBytes.WithLabelValues(storage.CategoryProof).Observe(float64(accepted.Size))
	s.logger.Info("场次已完成", zap.String("session_id", id), zap.String("user_id", caller.UserID))

	resp := toSessionResponse(session, s.loc, false, nil)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *sessionService) Delete(ctx context.Context, caller Caller, id string) error {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}
	if !IsOwner(caller, session) {
		return ErrNotSessionOwner
	}

	recordings, err := s.repo.Recording.ListBySession(ctx, id)
	if err != nil {
		s.logger.Error("查询录屏失败", zap.String("session_id", id), zap.Error(err))
		return err
	}

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Attendance.DeleteBySession(ctx, id); err != nil {
			return err
		}
		if err := tx.Recording.DeleteBySession(ctx, id); err != nil {
			return err
		}
		return tx.Session.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("删除场次失败", zap.String("session_id", id), zap.Error(err))
		return err
	}

	// 数据库已提交，文件清理失败只记录日志
	if session.SessionProof != nil {
		s.discard(ctx, *session.SessionProof)
	}
	for _, r := range recordings {
		s.discard(ctx, r.FileURL)
	}

	s.logger.Info("场次已删除", zap.String("session_id", id), zap.String("user_id", caller.UserID))
	return nil
}

// ────────────────────── UploadRecording ──────────────────────

func (s *sessionService) UploadRecording(ctx context.Context, caller Caller, id string, file *upload.File) (*dto.RecordingResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(caller, session) {
		return nil, ErrNotSessionOwner
	}
	if file == nil || file.Reader == nil || file.Size == 0 {
		return nil, ErrRecordingRequired
	}

	accepted, err := s.recordingPolicy.Accept(file)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Save(ctx, storage.NewKey(storage.CategoryRecording, accepted.Ext), accepted.MIME, accepted.Reader)
	if err != nil {
		if errors.Is(err, upload.ErrFileTooLarge) {
			return nil, err
		}
		s.logger.Error("保存录屏失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	recording := &model.SessionRecording{
		SessionID:    session.SessionID,
		MentorUserID: caller.UserID,
		FileURL:      ref,
		SizeBytes:    accepted.Size,
	}
	if err := s.repo.Recording.Create(ctx, recording); err != nil {
		s.discard(ctx, ref)
		s.logger.Error("保存录屏记录失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	metrics.UploadBytes.WithLabelValues(storage.CategoryRecording).Observe(float64(accepted.Size))
	resp := toRecordingResponse(recording, s.loc)
	return &resp, nil
}

// ────────────────────── ListAttendance ──────────────────────

// ListAttendance 场次签到明细，仅所属 mentor 可查看
func (s *sessionService) ListAttendance(ctx context.Context, caller Caller, id string) ([]dto.SessionAttendanceItem, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(caller, session) {
		return nil, ErrNotSessionOwner
	}

	records, err := s.repo.Attendance.ListBySession(ctx, id)
	if err != nil {
		s.logger.Error("查询签到记录失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	items := make([]dto.SessionAttendanceItem, 0, len(records))
	for _, r := range records {
		item := dto.SessionAttendanceItem{
			MenteeID:    r.MenteeUserID,
			CheckInTime: r.CheckInTime.In(s.loc).Format(time.RFC3339),
		}
		if r.Mentee != nil {
			item.Name = r.Mentee.Name
			item.NIM = r.Mentee.NIM
			item.Email = r.Mentee.Email
		}
		items = append(items, item)
	}
	return items, nil
}

// ── 内部方法 ──

func (s *sessionService) getSession(ctx context.Context, id string) (*model.MentoringSession, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// checkSessionID 场次 ID 为 UUID，格式不合法的 ID 视为不存在
func checkSessionID(id string) error {
	if uuid.Validate(id) != nil {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sessionService) editView(ctx context.Context, session *model.MentoringSession) (*dto.SessionResponse, error) {
	recordings, err := s.repo.Recording.ListBySession(ctx, session.SessionID)
	if err != nil {
		s.logger.Error("查询录屏失败", zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, err
	}
	resp := toSessionResponse(session, s.loc, true, recordings)
	return &resp, nil
}

// explainLostUpdate 条件更新未命中时重新读取，区分被删除、被完成与并发修改
func (s *sessionService) explainLostUpdate(ctx context.Context, id string, fallback error) error {
	latest, err := s.repo.Session.GetByID(ctx, id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrSessionNotFound
	case err != nil:
		s.logger.Error("查询场次失败", zap.String("session_id", id), zap.Error(err))
		return err
	case latest.IsCompleted() && fallback == ErrSessionVersionConflict:
		return ErrSessionCompleted
	default:
		return fallback
	}
}

func (s *sessionService) discard(ctx context.Context, ref string) {
	if err := s.store.Delete(ctx, ref); err != nil {
		s.logger.Warn("清理文件失败", zap.String("ref", ref), zap.Error(err))
	}
}

// ── 字段校验 ──

type sessionFields struct {
	courseName string
	platform   string
	date       time.Time
	startTime  string
	endTime    string
}

func parseSessionFields(courseName, platform, date, startTime, endTime string) (*sessionFields, error) {
	f := &sessionFields{
		courseName: strings.TrimSpace(courseName),
		platform:   strings.TrimSpace(platform),
		startTime:  strings.TrimSpace(startTime),
		endTime:    strings.TrimSpace(endTime),
	}
	date = strings.TrimSpace(date)
	if f.courseName == "" || f.platform == "" || date == "" || f.startTime == "" || f.endTime == "" {
		return nil, ErrSessionFieldsRequired
	}

	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, ErrSessionTimeInvalid
	}
	if !validate.IsClock(f.startTime) || !validate.IsClock(f.endTime) {
		return nil, ErrSessionTimeInvalid
	}
	// HH:MM 定长，字符串比较即时间比较
	if f.endTime <= f.startTime {
		return nil, ErrSessionTimeInvalid
	}
	f.date = d
	return f, nil
}

func (f *sessionFields) apply(s *model.MentoringSession) {
	s.CourseName = f.courseName
	s.Platform = f.platform
	s.SessionDate = f.date
	s.StartTime = f.startTime
	s.EndTime = f.endTime
}

func pick(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}

func isSessionBusinessErr(err error) bool {
	for _, target := range []error{
		ErrNoActiveSemester, ErrNoSemesterRole, ErrNotMentor,
		ErrSessionFieldsRequired, ErrSessionTimeInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ── 响应转换 ──

// toSessionResponse editable 为 true 时附带 version 与录屏
func toSessionResponse(s *model.MentoringSession, loc *time.Location, editable bool, recordings []model.SessionRecording) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:           s.SessionID,
		MentorID:     s.MentorUserID,
		SemesterID:   s.SemesterID,
		CourseName:   s.CourseName,
		Platform:     s.Platform,
		SessionDate:  s.DateString(),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Status:       "scheduled",
		SessionProof: s.SessionProof,
	}
	if s.Mentor != nil {
		resp.MentorName = s.Mentor.Name
	}
	if end, err := s.EndsAt(loc); err == nil {
		resp.EndsAt = end.Format(time.RFC3339)
	}
	if s.IsCompleted() {
		resp.Status = "completed"
		editable = false
	}
	if editable {
		resp.Editable = true
		version := s.Version
		resp.Version = &version
		resp.Recordings = make([]dto.RecordingResponse, 0, len(recordings))
		for i := range recordings {
			resp.Recordings = append(resp.Recordings, toRecordingResponse(&recordings[i], loc))
		}
	}
	return resp
}

func toRecordingResponse(r *model.SessionRecording, loc *time.Location) dto.RecordingResponse {
	return dto.RecordingResponse{
		ID:        r.RecordingID,
		FileURL:   r.FileURL,
		SizeBytes: r.SizeBytes,
		CreatedAt: r.CreatedAt.In(loc).Format(time.RFC3339),
	}
}

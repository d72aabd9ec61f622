package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	sessionsSheet   = "Sessions"
	attendanceSheet = "Attendance"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportSessions 导出调用者在活动学期的场次与签到明细
	ExportSessions(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportSessions
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Sessions"：每行一个场次，含状态与签到人数
//   - Sheet "Attendance"：每行一条签到记录
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSessions(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	now := s.now()
	semester, err := resolveActive(ctx, s.repo, now)
	if err != nil {
		return nil, "", s.logInfra(err, caller)
	}
	role, err := roleIn(ctx, s.repo, caller.UserID, semester.SemesterID)
	if errors.Is(err, ErrNoSemesterRole) || (err == nil && role != model.RoleMentor) {
		return nil, "", ErrNotMentor
	}
	if err != nil {
		return nil, "", s.logInfra(err, caller)
	}

	// 1. 场次与签到人数
	sessions, err := s.repo.Session.ListByMentors(ctx, []string{caller.UserID}, semester.SemesterID, 0)
	if err != nil {
		return nil, "", s.logInfra(err, caller)
	}
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.SessionID)
	}
	counts, err := s.repo.Attendance.CountBySessions(ctx, ids)
	if err != nil {
		return nil, "", s.logInfra(err, caller)
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return nil, "", s.generateFail(err)
	}
	if _, err := f.NewSheet(attendanceSheet); err != nil {
		return nil, "", s.generateFail(err)
	}

	sessionHeader := []interface{}{"No", "Course", "Platform", "Date", "Start", "End", "Status", "Attendees", "Proof"}
	if err := f.SetSheetRow(sessionsSheet, "A1", &sessionHeader); err != nil {
		return nil, "", s.generateFail(err)
	}
	attendanceHeader := []interface{}{"Course", "Date", "Mentee", "NIM", "Email", "Check-in"}
	if err := f.SetSheetRow(attendanceSheet, "A1", &attendanceHeader); err != nil {
		return nil, "", s.generateFail(err)
	}

	attendanceRow := 2
	for i, sess := range sessions {
		status, proof := "Scheduled", ""
		if sess.IsCompleted() {
			status, proof = "Completed", *sess.SessionProof
		}
		row := []interface{}{
			i + 1, sess.CourseName, sess.Platform, sess.DateString(),
			sess.StartTime, sess.EndTime, status, counts[sess.SessionID], proof,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sessionsSheet, cell, &row); err != nil {
			return nil, "", s.generateFail(err)
		}

		if counts[sess.SessionID] == 0 {
			continue
		}
		records, err := s.repo.Attendance.ListBySession(ctx, sess.SessionID)
		if err != nil {
			return nil, "", s.logInfra(err, caller)
		}
		for _, r := range records {
			var name, nim, email string
			if r.Mentee != nil {
				name, nim, email = r.Mentee.Name, r.Mentee.NIM, r.Mentee.Email
			}
			line := []interface{}{
				sess.CourseName, sess.DateString(), name, nim, email,
				r.CheckInTime.In(s.loc).Format("2006-01-02 15:04"),
			}
			cell, _ := excelize.CoordinatesToCellName(1, attendanceRow)
			if err := f.SetSheetRow(attendanceSheet, cell, &line); err != nil {
				return nil, "", s.generateFail(err)
			}
			attendanceRow++
		}
	}

	_ = f.SetColWidth(sessionsSheet, "B", "B", 32)
	_ = f.SetColWidth(sessionsSheet, "I", "I", 48)
	_ = f.SetColWidth(attendanceSheet, "A", "A", 32)
	_ = f.SetColWidth(attendanceSheet, "C", "E", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", s.generateFail(err)
	}

	filename := fmt.Sprintf("mentoring_%s_%s.xlsx", fileSafe(semester.Name), now.In(s.loc).Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) generateFail(err error) error {
	s.logger.Error("生成 Excel 失败", zap.Error(err))
	return ErrExportGenerateFail
}

func (s *exportService) logInfra(err error, caller Caller) error {
	if !isSessionBusinessErr(err) {
		s.logger.Error("导出场次失败", zap.String("user_id", caller.UserID), zap.Error(err))
	}
	return err
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func fileSafe(name string) string {
	safe := unsafeFileChars.ReplaceAllString(name, "_")
	if safe == "" {
		return "semester"
	}
	return safe
}

package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/upload"
)

// ── Create 测试 ──

func TestSessionService_Create_Success(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	stored := e.sessions.sessions[id]
	if stored == nil {
		t.Fatal("期望场次已写入")
	}
	if stored.SemesterID != semID || stored.MentorUserID != mentorA {
		t.Errorf("场次归属错误: semester=%s mentor=%s", stored.SemesterID, stored.MentorUserID)
	}
	if stored.IsCompleted() {
		t.Error("新建场次应为 Scheduled")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != mentorA {
		t.Error("期望记录 created_by")
	}
}

func TestSessionService_Create_NoActiveSemester(t *testing.T) {
	e := newTestEnv(t)
	e.now = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := e.sessionService().Create(context.Background(), callerMentorA, &dto.CreateSessionRequest{
		CourseName: "Calculus", Platform: "Zoom", SessionDate: "2030-01-02", StartTime: "10:00", EndTime: "11:00",
	})
	if !errors.Is(err, ErrNoActiveSemester) {
		t.Errorf("期望 ErrNoActiveSemester，实际: %v", err)
	}
	if len(e.sessions.sessions) != 0 {
		t.Errorf("不应写入场次，实际 %d 条", len(e.sessions.sessions))
	}
}

func TestSessionService_Create_NotMentor(t *testing.T) {
	e := newTestEnv(t)

	for _, caller := range []Caller{callerMenteeA, callerNobody} {
		_, err := e.sessionService().Create(context.Background(), caller, &dto.CreateSessionRequest{
			CourseName: "Calculus", Platform: "Zoom", SessionDate: "2025-03-10", StartTime: "10:00", EndTime: "11:00",
		})
		if !errors.Is(err, ErrNotMentor) {
			t.Errorf("%s: 期望 ErrNotMentor，实际: %v", caller.UserID, err)
		}
	}
}

func TestSessionService_Create_Validation(t *testing.T) {
	e := newTestEnv(t)
	svc := e.sessionService()

	cases := []struct {
		name string
		req  dto.CreateSessionRequest
		want error
	}{
		{"空课程", dto.CreateSessionRequest{CourseName: "  ", Platform: "Zoom", SessionDate: "2025-03-10", StartTime: "10:00", EndTime: "11:00"}, ErrSessionFieldsRequired},
		{"缺平台", dto.CreateSessionRequest{CourseName: "Calculus", SessionDate: "2025-03-10", StartTime: "10:00", EndTime: "11:00"}, ErrSessionFieldsRequired},
		{"日期格式", dto.CreateSessionRequest{CourseName: "Calculus", Platform: "Zoom", SessionDate: "10/03/2025", StartTime: "10:00", EndTime: "11:00"}, ErrSessionTimeInvalid},
		{"时间格式", dto.CreateSessionRequest{CourseName: "Calculus", Platform: "Zoom", SessionDate: "2025-03-10", StartTime: "10.00", EndTime: "11:00"}, ErrSessionTimeInvalid},
		{"结束早于开始", dto.CreateSessionRequest{CourseName: "Calculus", Platform: "Zoom", SessionDate: "2025-03-10", StartTime: "11:00", EndTime: "10:00"}, ErrSessionTimeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.Create(context.Background(), callerMentorA, &req)
			if !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际: %v", tc.want, err)
			}
		})
	}
	if len(e.sessions.sessions) != 0 {
		t.Errorf("校验失败时不应写入场次，实际 %d 条", len(e.sessions.sessions))
	}
}

// ── Edit 测试 ──

func TestSessionService_Edit_Success(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	resp, err := e.sessionService().Edit(context.Background(), callerMentorA, id, &dto.UpdateSessionRequest{
		Platform: strPtr("Google Meet"),
		EndTime:  strPtr("20:30"),
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}
	if resp.Platform != "Google Meet" || resp.EndTime != "20:30" {
		t.Errorf("字段未更新: %+v", resp)
	}
	if resp.CourseName != "Algorithm and Programming" {
		t.Errorf("未提交的字段不应改变，实际: %s", resp.CourseName)
	}
	if !resp.Editable || resp.Version == nil || *resp.Version != 2 {
		t.Errorf("期望可编辑视图且 version=2，实际: %+v", resp)
	}
}

func TestSessionService_Edit_OtherMentorForbidden(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	_, err := e.sessionService().Edit(context.Background(), callerMentorB, id, &dto.UpdateSessionRequest{Platform: strPtr("Teams")})
	if !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("期望 ErrNotSessionOwner，实际: %v", err)
	}
	if e.sessions.sessions[id].Platform != "Zoom" {
		t.Error("无权编辑时不应修改场次")
	}
}

func TestSessionService_Edit_PairedMenteeForbidden(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	_, err := e.sessionService().Edit(context.Background(), callerMenteeA, id, &dto.UpdateSessionRequest{Platform: strPtr("Teams")})
	if !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("期望 ErrNotSessionOwner，实际: %v", err)
	}
}

func TestSessionService_Edit_CompletedForbidden(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.completeSession(t, id)

	_, err := e.sessionService().Edit(context.Background(), callerMentorA, id, &dto.UpdateSessionRequest{Platform: strPtr("Teams")})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("期望 ErrSessionCompleted，实际: %v", err)
	}
}

func TestSessionService_Edit_StaleVersion(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	stale := 7
	_, err := e.sessionService().Edit(context.Background(), callerMentorA, id, &dto.UpdateSessionRequest{
		Platform: strPtr("Teams"),
		Version:  &stale,
	})
	if !errors.Is(err, ErrSessionVersionConflict) {
		t.Errorf("期望 ErrSessionVersionConflict，实际: %v", err)
	}
}

func TestSessionService_Edit_InvalidTime(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	_, err := e.sessionService().Edit(context.Background(), callerMentorA, id, &dto.UpdateSessionRequest{EndTime: strPtr("18:00")})
	if !errors.Is(err, ErrSessionTimeInvalid) {
		t.Errorf("期望 ErrSessionTimeInvalid，实际: %v", err)
	}
}

func TestSessionService_Edit_NotFound(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.sessionService().Edit(context.Background(), callerMentorA, "missing", &dto.UpdateSessionRequest{})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

// ── Complete 测试 ──

func TestSessionService_Complete_BeforeAndAfterEnd(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	svc := e.sessionService()

	e.now = sessionEnd.Add(-time.Minute)
	_, err := svc.Complete(context.Background(), callerMentorA, id, pngProof())
	if !errors.Is(err, ErrSessionNotEnded) {
		t.Fatalf("结束前完成应返回 ErrSessionNotEnded，实际: %v", err)
	}
	if e.sessions.sessions[id].IsCompleted() || e.store.count() != 0 {
		t.Fatal("结束前完成不应写入凭证")
	}

	e.now = sessionEnd.Add(time.Minute)
	resp, err := svc.Complete(context.Background(), callerMentorA, id, pngProof())
	if err != nil {
		t.Fatalf("结束后完成应成功: %v", err)
	}
	if resp.Status != "completed" || resp.SessionProof == nil {
		t.Errorf("期望 completed 且有凭证，实际: %+v", resp)
	}
	if !e.sessions.sessions[id].IsCompleted() {
		t.Error("期望场次已完成")
	}
	if e.store.count() != 1 {
		t.Errorf("期望保存 1 个文件，实际 %d", e.store.count())
	}
}

func TestSessionService_Complete_AtEndInstant(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	e.now = sessionEnd
	if _, err := e.sessionService().Complete(context.Background(), callerMentorA, id, pngProof()); err != nil {
		t.Errorf("结束时刻完成应成功: %v", err)
	}
}

func TestSessionService_Complete_NotOwner(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.now = sessionEnd.Add(time.Hour)

	for _, caller := range []Caller{callerMentorB, callerMenteeA} {
		_, err := e.sessionService().Complete(context.Background(), caller, id, pngProof())
		if !errors.Is(err, ErrNotSessionOwner) {
			t.Errorf("%s: 期望 ErrNotSessionOwner，实际: %v", caller.UserID, err)
		}
	}
}

func TestSessionService_Complete_ProofRequired(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.now = sessionEnd.Add(time.Hour)

	_, err := e.sessionService().Complete(context.Background(), callerMentorA, id, nil)
	if !errors.Is(err, ErrProofRequired) {
		t.Errorf("期望 ErrProofRequired，实际: %v", err)
	}
}

func TestSessionService_Complete_RejectsNonImage(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.now = sessionEnd.Add(time.Hour)

	text := []byte("definitely not an image")
	_, err := e.sessionService().Complete(context.Background(), callerMentorA, id,
		&upload.File{Name: "proof.jpg", Size: int64(len(text)), Reader: bytes.NewReader(text)})
	if !errors.Is(err, upload.ErrFileTypeNotAllowed) {
		t.Errorf("期望 ErrFileTypeNotAllowed，实际: %v", err)
	}
	if e.store.count() != 0 || e.sessions.sessions[id].IsCompleted() {
		t.Error("类型不符时不应保存文件或完成场次")
	}
}

func TestSessionService_Complete_TooLarge(t *testing.T) {
	e := newTestEnv(t)
	e.cfg.Storage.ProofMaxBytes = 8
	id := e.createSession(t)
	e.now = sessionEnd.Add(time.Hour)

	_, err := e.sessionService().Complete(context.Background(), callerMentorA, id, pngProof())
	if !errors.Is(err, upload.ErrFileTooLarge) {
		t.Errorf("期望 ErrFileTooLarge，实际: %v", err)
	}
}

func TestSessionService_Complete_Twice(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.completeSession(t, id)

	_, err := e.sessionService().Complete(context.Background(), callerMentorA, id, pngProof())
	if !errors.Is(err, ErrSessionAlreadyCompleted) {
		t.Errorf("期望 ErrSessionAlreadyCompleted，实际: %v", err)
	}
	if e.store.count() != 1 {
		t.Errorf("重复完成不应保存新文件，实际 %d 个", e.store.count())
	}
}

func TestSessionService_Complete_StorageFailure(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.now = sessionEnd.Add(time.Hour)
	e.store.failErr = errors.New("bucket unavailable")

	_, err := e.sessionService().Complete(context.Background(), callerMentorA, id, pngProof())
	if err == nil {
		t.Fatal("期望存储失败时返回错误")
	}
	if e.sessions.sessions[id].IsCompleted() {
		t.Error("存储失败时场次不应完成")
	}
}

// ── Delete 测试 ──

func TestSessionService_Delete_RemovesAttendance(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.completeSession(t, id)

	if _, err := e.attendanceService().Confirm(context.Background(), callerMenteeA, id); err != nil {
		t.Fatalf("签到失败: %v", err)
	}

	if err := e.sessionService().Delete(context.Background(), callerMentorA, id); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, ok := e.sessions.sessions[id]; ok {
		t.Error("期望场次已删除")
	}
	records, _ := e.attendance.ListBySession(context.Background(), id)
	if len(records) != 0 {
		t.Errorf("删除后不应残留签到记录，实际 %d 条", len(records))
	}
	if e.store.count() != 0 {
		t.Errorf("删除后应清理凭证文件，实际剩余 %d 个", e.store.count())
	}
}

func TestSessionService_Delete_NotOwner(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)

	for _, caller := range []Caller{callerMentorB, callerMenteeA} {
		if err := e.sessionService().Delete(context.Background(), caller, id); !errors.Is(err, ErrNotSessionOwner) {
			t.Errorf("%s: 期望 ErrNotSessionOwner，实际: %v", caller.UserID, err)
		}
	}
	if _, ok := e.sessions.sessions[id]; !ok {
		t.Error("无权删除时场次应保留")
	}
}

func TestSessionService_Delete_NotFound(t *testing.T) {
	e := newTestEnv(t)

	if err := e.sessionService().Delete(context.Background(), callerMentorA, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

// ── Get 测试 ──

func TestSessionService_Get_Views(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	svc := e.sessionService()
	ctx := context.Background()

	owner, err := svc.Get(ctx, callerMentorA, id)
	if err != nil {
		t.Fatalf("mentor 查看失败: %v", err)
	}
	if !owner.Editable || owner.Version == nil {
		t.Errorf("未完成场次的 mentor 应得到可编辑视图: %+v", owner)
	}

	mentee, err := svc.Get(ctx, callerMenteeA, id)
	if err != nil {
		t.Fatalf("配对 mentee 查看失败: %v", err)
	}
	if mentee.Editable || mentee.Version != nil {
		t.Errorf("mentee 应得到只读视图: %+v", mentee)
	}

	if _, err := svc.Get(ctx, callerMenteeB, id); !errors.Is(err, ErrSessionAccessDenied) {
		t.Errorf("未配对 mentee 期望 ErrSessionAccessDenied，实际: %v", err)
	}
	if _, err := svc.Get(ctx, callerMentorB, id); !errors.Is(err, ErrSessionAccessDenied) {
		t.Errorf("其他 mentor 期望 ErrSessionAccessDenied，实际: %v", err)
	}

	e.completeSession(t, id)
	done, err := svc.Get(ctx, callerMentorA, id)
	if err != nil {
		t.Fatalf("mentor 查看已完成场次失败: %v", err)
	}
	if done.Editable || done.Version != nil || done.Status != "completed" {
		t.Errorf("已完成场次应为只读视图: %+v", done)
	}
}

func TestSessionService_Get_NotFound(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.sessionService().Get(context.Background(), callerMentorA, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestSessionService_MalformedIDIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	e.repo.Session = &uuidStrictSessionRepo{e.sessions}
	svc := e.sessionService()
	ctx := context.Background()

	for _, id := range []string{"abc", "", "1234", "not-a-uuid-at-all"} {
		if _, err := svc.Get(ctx, callerMentorA, id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get(%q) 期望 ErrSessionNotFound，实际: %v", id, err)
		}
		if err := svc.Delete(ctx, callerMentorA, id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Delete(%q) 期望 ErrSessionNotFound，实际: %v", id, err)
		}
		if _, err := svc.Edit(ctx, callerMentorA, id, &dto.UpdateSessionRequest{}); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Edit(%q) 期望 ErrSessionNotFound，实际: %v", id, err)
		}
		if _, err := svc.Complete(ctx, callerMentorA, id, pngProof()); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Complete(%q) 期望 ErrSessionNotFound，实际: %v", id, err)
		}
		if _, err := svc.ListAttendance(ctx, callerMentorA, id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("ListAttendance(%q) 期望 ErrSessionNotFound，实际: %v", id, err)
		}
	}

	// 合法但不存在的 UUID 同样是 NotFound
	if _, err := svc.Get(ctx, callerMentorA, uuid.NewString()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("不存在的 UUID 期望 ErrSessionNotFound，实际: %v", err)
	}
}

// ── List 测试 ──

func TestSessionService_List_RoleScoped(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	svc := e.sessionService()
	ctx := context.Background()

	own, err := svc.List(ctx, callerMentorA)
	if err != nil || len(own) != 1 || own[0].ID != id {
		t.Fatalf("mentor 应看到自己的场次: %v %+v", err, own)
	}

	paired, err := svc.List(ctx, callerMenteeA)
	if err != nil || len(paired) != 1 || paired[0].Editable {
		t.Fatalf("配对 mentee 应看到只读场次: %v %+v", err, paired)
	}

	other, err := svc.List(ctx, callerMenteeB)
	if err != nil || len(other) != 0 {
		t.Errorf("未配对 mentee 不应看到场次: %v %+v", err, other)
	}

	if _, err := svc.List(ctx, callerNobody); !errors.Is(err, ErrNoSemesterRole) {
		t.Errorf("无角色期望 ErrNoSemesterRole，实际: %v", err)
	}
}

// ── Recording / Attendance 明细测试 ──

func TestSessionService_UploadRecording(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	svc := e.sessionService()
	ctx := context.Background()

	mp4 := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}
	rec, err := svc.UploadRecording(ctx, callerMentorA, id, &upload.File{Name: "rec.mp4", Size: int64(len(mp4)), Reader: bytes.NewReader(mp4)})
	if err != nil {
		t.Fatalf("上传录屏失败: %v", err)
	}
	if rec.SizeBytes != int64(len(mp4)) || rec.FileURL == "" {
		t.Errorf("录屏信息错误: %+v", rec)
	}

	view, _ := svc.Get(ctx, callerMentorA, id)
	if len(view.Recordings) != 1 {
		t.Errorf("可编辑视图应包含录屏，实际 %d 个", len(view.Recordings))
	}

	if _, err := svc.UploadRecording(ctx, callerMentorA, id, pngProof()); !errors.Is(err, upload.ErrFileTypeNotAllowed) {
		t.Errorf("图片作为录屏期望 ErrFileTypeNotAllowed，实际: %v", err)
	}
	if _, err := svc.UploadRecording(ctx, callerMenteeA, id, pngProof()); !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("mentee 上传期望 ErrNotSessionOwner，实际: %v", err)
	}
}

func TestSessionService_ListAttendance(t *testing.T) {
	e := newTestEnv(t)
	id := e.createSession(t)
	e.completeSession(t, id)
	ctx := context.Background()

	if _, err := e.attendanceService().Confirm(ctx, callerMenteeA, id); err != nil {
		t.Fatalf("签到失败: %v", err)
	}

	items, err := e.sessionService().ListAttendance(ctx, callerMentorA, id)
	if err != nil {
		t.Fatalf("查询签到明细失败: %v", err)
	}
	if len(items) != 1 || items[0].MenteeID != menteeA || items[0].NIM != "2702000001" {
		t.Errorf("签到明细错误: %+v", items)
	}

	if _, err := e.sessionService().ListAttendance(ctx, callerMenteeA, id); !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("mentee 查看期望 ErrNotSessionOwner，实际: %v", err)
	}
}

package service

import (
	"context"
	"errors"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
)

// ── 授权错误 ──

var (
	ErrNotSessionOwner     = errors.New("只有该场次的 mentor 可以执行此操作")
	ErrNotPairedMentee     = errors.New("你不是该场次 mentor 在本学期的配对 mentee")
	ErrSessionAccessDenied = errors.New("无权查看该场次")
)

// IsOwner 调用者是否为场次所属 mentor
func IsOwner(caller Caller, session *model.MentoringSession) bool {
	return caller.UserID != "" && caller.UserID == session.MentorUserID
}

// InRoster 调用者是否在场次名单中
func InRoster(caller Caller, roster []model.RosterEntry) bool {
	for i := range roster {
		if roster[i].MenteeUserID == caller.UserID {
			return true
		}
	}
	return false
}

// RequirePairedMentee 调用者须在场次所属学期与该 mentor 配对
// 每次调用都查配对表，不信任 Token 中的角色
func RequirePairedMentee(ctx context.Context, pairings repository.PairingRepository, caller Caller, session *model.MentoringSession) error {
	if caller.UserID == "" || caller.UserID == session.MentorUserID {
		return ErrNotPairedMentee
	}
	ok, err := pairings.IsPaired(ctx, session.MentorUserID, caller.UserID, session.SemesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPairedMentee
	}
	return nil
}

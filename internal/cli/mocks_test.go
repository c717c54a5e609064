package cli_test

import (
	"context"
	"sync"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/viewcache"
)

type fakeAPI struct {
	mu sync.Mutex

	markReadFn      func(ctx context.Context, ids []int64) error
	fetchCommentsFn func(ctx context.Context, taskID int64, partition viewcache.Partition, buster string) ([]model.TaskComment, error)
	postCommentFn   func(ctx context.Context, taskID int64, text string) (*model.TaskComment, error)
	notificationsFn func(ctx context.Context, unreadOnly bool) ([]dto.NotificationResponse, error)
	putRuleFn       func(ctx context.Context, metric string, req dto.PutThresholdRuleRequest) (*dto.ThresholdRuleResponse, error)
	repairFn        func(ctx context.Context, role string) (*dto.RepairResponse, error)
	listMembersFn   func(ctx context.Context, role string) ([]dto.MemberResponse, error)
	addMemberFn     func(ctx context.Context, role string, req dto.AddMemberRequest) error
	removeMemberFn  func(ctx context.Context, role, userID string) error

	markReadCalls [][]int64
}

func (f *fakeAPI) MarkRead(ctx context.Context, ids []int64) error {
	f.mu.Lock()
	f.markReadCalls = append(f.markReadCalls, ids)
	f.mu.Unlock()
	if f.markReadFn != nil {
		return f.markReadFn(ctx, ids)
	}
	return nil
}

func (f *fakeAPI) FetchComments(ctx context.Context, taskID int64, partition viewcache.Partition, buster string) ([]model.TaskComment, error) {
	if f.fetchCommentsFn != nil {
		return f.fetchCommentsFn(ctx, taskID, partition, buster)
	}
	return nil, nil
}

func (f *fakeAPI) PostComment(ctx context.Context, taskID int64, text string) (*model.TaskComment, error) {
	if f.postCommentFn != nil {
		return f.postCommentFn(ctx, taskID, text)
	}
	return &model.TaskComment{ID: 1, TaskID: taskID, Comment: text}, nil
}

func (f *fakeAPI) Notifications(ctx context.Context, unreadOnly bool) ([]dto.NotificationResponse, error) {
	if f.notificationsFn != nil {
		return f.notificationsFn(ctx, unreadOnly)
	}
	return nil, nil
}

func (f *fakeAPI) PutThresholdRule(ctx context.Context, metric string, req dto.PutThresholdRuleRequest) (*dto.ThresholdRuleResponse, error) {
	if f.putRuleFn != nil {
		return f.putRuleFn(ctx, metric, req)
	}
	return &dto.ThresholdRuleResponse{MetricName: metric}, nil
}

func (f *fakeAPI) Repair(ctx context.Context, role string) (*dto.RepairResponse, error) {
	if f.repairFn != nil {
		return f.repairFn(ctx, role)
	}
	return &dto.RepairResponse{Role: role}, nil
}

func (f *fakeAPI) ListMembers(ctx context.Context, role string) ([]dto.MemberResponse, error) {
	if f.listMembersFn != nil {
		return f.listMembersFn(ctx, role)
	}
	return nil, nil
}

func (f *fakeAPI) AddMember(ctx context.Context, role string, req dto.AddMemberRequest) error {
	if f.addMemberFn != nil {
		return f.addMemberFn(ctx, role, req)
	}
	return nil
}

func (f *fakeAPI) RemoveMember(ctx context.Context, role, userID string) error {
	if f.removeMemberFn != nil {
		return f.removeMemberFn(ctx, role, userID)
	}
	return nil
}

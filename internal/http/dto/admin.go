package dto

import (
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

type RepairRequest struct {
	Role string `json:"role" binding:"required"`
}

type RepairResponse struct {
	Role         string              `json:"role"`
	TasksScanned int                 `json:"tasks_scanned"`
	Created      int                 `json:"created"`
	Errors       []ItemErrorResponse `json:"errors"`
}

func ToRepairResponse(r *service.RepairResult) RepairResponse {
	return RepairResponse{
		Role:         r.Role,
		TasksScanned: r.TasksScanned,
		Created:      r.Created,
		Errors:       ToItemErrors(r.Errors),
	}
}

type AddMemberRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty" binding:"omitempty,email"`
}

func (r AddMemberRequest) ToModel() model.User {
	return model.User{
		ID:          r.UserID,
		DisplayName: r.DisplayName,
		Email:       r.Email,
	}
}

type MemberResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

func ToMemberResponses(users []model.User) []MemberResponse {
	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, MemberResponse{UserID: u.ID, DisplayName: u.DisplayName, Email: u.Email})
	}
	return out
}

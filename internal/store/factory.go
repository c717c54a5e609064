package store

import (
	"trialwatch.app/engine/core/db/query"
)

type Stores struct {
	queries *query.Queries
}

func NewStores(queries *query.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) ThresholdRules() ThresholdRuleStore {
	return newThresholdRuleStore(s.queries)
}

func (s *Stores) Records() RecordStore {
	return newRecordStore(s.queries)
}

func (s *Stores) Tasks() TaskStore {
	return newTaskStore(s.queries)
}

func (s *Stores) TaskComments() TaskCommentStore {
	return newTaskCommentStore(s.queries)
}

func (s *Stores) Notifications() NotificationStore {
	return newNotificationStore(s.queries)
}

func (s *Stores) RoleMembers() RoleMemberStore {
	return newRoleMemberStore(s.queries)
}

package service

import (
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/viewcache"
)

type ServicesConfig struct {
	Stores      *store.Stores
	TxRunner    TxRunner
	Cache       viewcache.Cache
	DefaultRole string
}

type Services struct {
	stores      *store.Stores
	txRunner    TxRunner
	cache       viewcache.Cache
	defaultRole string
}

func NewServices(cfg ServicesConfig) *Services {
	cache := cfg.Cache
	if cache == nil {
		cache = viewcache.NewMemory()
	}
	return &Services{
		stores:      cfg.Stores,
		txRunner:    cfg.TxRunner,
		cache:       cache,
		defaultRole: cfg.DefaultRole,
	}
}

func (s *Services) Directory() Directory {
	return NewDirectory(s.stores.RoleMembers())
}

func (s *Services) Validator() ValidatorService {
	return NewValidatorService(s.stores.ThresholdRules(), s.stores.Records())
}

func (s *Services) TaskGenerator() TaskGeneratorService {
	return NewTaskGeneratorService(s.stores.Tasks(), s.defaultRole)
}

func (s *Services) Dispatcher() DispatcherService {
	return NewDispatcherService(s.stores.Notifications(), s.Directory())
}

func (s *Services) Repair() RepairService {
	return NewRepairService(s.stores.Tasks(), s.stores.Notifications(), s.Directory())
}

func (s *Services) ReadTracker() ReadTrackerService {
	return NewReadTrackerService(s.stores.Notifications(), s.txRunner)
}

func (s *Services) Tasks() TaskService {
	return NewTaskService(s.stores.Tasks(), s.stores.TaskComments(), s.txRunner, s.Dispatcher(), s.cache)
}

func (s *Services) ThresholdRules() ThresholdRuleService {
	return NewThresholdRuleService(s.stores.ThresholdRules())
}

func (s *Services) Pipeline() PipelineService {
	return NewPipelineService(s.stores.Records(), s.Validator(), s.TaskGenerator(), s.Dispatcher())
}

func (s *Services) Membership() MembershipService {
	return NewMembershipService(s.stores.RoleMembers(), s.Repair())
}

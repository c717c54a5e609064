package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("ThresholdRuleService", func() {
	var (
		ctx   context.Context
		rules *mockThresholdRuleStore
		svc   service.ThresholdRuleService
	)

	validRule := func(metric string) model.ThresholdRule {
		return model.ThresholdRule{
			TrialID:    "T-01",
			MetricName: metric,
			Low:        40,
			Medium:     80,
			High:       120,
			Critical:   200,
			Enabled:    true,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		rules = &mockThresholdRuleStore{}
		svc = service.NewThresholdRuleService(rules)
	})

	It("saves a valid rule with an id and upper direction", func() {
		rule := validRule("ALT")

		Expect(svc.Put(ctx, &rule)).To(Succeed())

		Expect(rule.ID).NotTo(BeZero())
		Expect(rule.Direction).To(Equal(model.RuleDirectionUpper))
		Expect(rules.rules).To(HaveLen(1))
	})

	It("rejects bands out of order", func() {
		rule := validRule("ALT")
		rule.High = 300

		err := svc.Put(ctx, &rule)

		Expect(err).To(MatchError(service.ErrInvalidRule))
		Expect(rules.rules).To(BeEmpty())
	})

	It("requires a reference for a lower rule", func() {
		rule := validRule("PLT")
		rule.Direction = model.RuleDirectionLower

		Expect(svc.Put(ctx, &rule)).To(MatchError(service.ErrInvalidRule))
	})

	It("imports what it can and reports the rest", func() {
		bad := validRule("")
		result, err := svc.Import(ctx, []model.ThresholdRule{validRule("ALT"), bad, validRule("AST")})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Saved).To(HaveLen(2))
		Expect(result.Errors).To(HaveLen(1))
		Expect(result.Errors[0].Key).To(Equal("T-01/"))
	})

	It("surfaces store failures", func() {
		rules.upsertFn = func(context.Context, *model.ThresholdRule) error { return errors.New("disk full") }
		rule := validRule("ALT")

		Expect(svc.Put(ctx, &rule)).To(MatchError(ContainSubstring("disk full")))
	})

	It("lists the rules of a trial", func() {
		rules.rules = []model.ThresholdRule{validRule("ALT"), {TrialID: "T-02", MetricName: "ALT"}}

		got, err := svc.List(ctx, "T-01")

		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
	})
})

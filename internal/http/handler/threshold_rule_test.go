package handler_test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/http/handler"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("ThresholdRuleHandler", func() {
	var (
		router *gin.Engine
		svc    *mockThresholdRuleService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockThresholdRuleService{}
		h := handler.NewThresholdRuleHandler(svc)
		router.GET("/threshold-rules", h.List)
		router.PUT("/threshold-rules/:metric", h.Put)
	})

	It("saves the rule for the metric in the path", func() {
		var got *model.ThresholdRule
		svc.putFn = func(_ context.Context, rule *model.ThresholdRule) error {
			got = rule
			rule.ID = 77
			return nil
		}

		w := doJSON(router, http.MethodPut, "/threshold-rules/alt", map[string]any{
			"trial_id": "TR-1", "low": 40, "medium": 80, "high": 120, "critical": 200,
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(got.MetricName).To(Equal("alt"))
		Expect(got.Enabled).To(BeTrue())
		Expect(got.Critical).To(Equal(200.0))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["id"]).To(Equal("77"))
	})

	It("treats a missing band as a bad request, not zero", func() {
		w := doJSON(router, http.MethodPut, "/threshold-rules/alt", map[string]any{
			"trial_id": "TR-1", "low": 40, "medium": 80, "high": 120,
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("accepts a zero band when it is sent explicitly", func() {
		svc.putFn = func(context.Context, *model.ThresholdRule) error { return nil }
		w := doJSON(router, http.MethodPut, "/threshold-rules/delta", map[string]any{
			"trial_id": "TR-1", "low": 0, "medium": 1, "high": 2, "critical": 3,
		})
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("maps invalid ordering to 400", func() {
		svc.putFn = func(context.Context, *model.ThresholdRule) error { return service.ErrInvalidRule }
		w := doJSON(router, http.MethodPut, "/threshold-rules/alt", map[string]any{
			"trial_id": "TR-1", "low": 200, "medium": 80, "high": 120, "critical": 40,
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists rules for a trial", func() {
		svc.listFn = func(_ context.Context, trialID string) ([]model.ThresholdRule, error) {
			Expect(trialID).To(Equal("TR-1"))
			return []model.ThresholdRule{{ID: 1, MetricName: "alt", Direction: model.RuleDirectionUpper}}, nil
		}
		w := doJSON(router, http.MethodGet, "/threshold-rules?trial_id=TR-1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp []map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp[0]["direction"]).To(Equal("upper"))
	})
})

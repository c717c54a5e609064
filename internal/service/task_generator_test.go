package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("TaskGeneratorService", func() {
	var (
		ctx      context.Context
		tasks    *fakeTaskStore
		svc      service.TaskGeneratorService
		detected time.Time
	)

	finding := func(recordID, metric string, sev model.Severity, value float64) model.Finding {
		return model.Finding{
			TrialID:       "T-01",
			Domain:        "LB",
			Source:        "EDC",
			RecordID:      recordID,
			MetricName:    metric,
			ObservedValue: value,
			BandInput:     value,
			Severity:      sev,
			RuleID:        11,
			DetectedAt:    detected,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		tasks = newFakeTaskStore()
		svc = service.NewTaskGeneratorService(tasks, "EDC Data Manager")
		detected = time.Date(2024, 4, 10, 8, 30, 0, 0, time.UTC)
	})

	It("maps a critical finding to a critical task due three days later", func() {
		result, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityCritical, 250)})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(HaveLen(1))
		task := result.Created[0]
		Expect(task.Priority).To(Equal(model.TaskPriorityCritical))
		Expect(task.DueDate).To(Equal(detected.AddDate(0, 0, 3)))
		Expect(task.Status).To(Equal(model.TaskStatusAssigned))
		Expect(*task.AssignedRole).To(Equal("EDC Data Manager"))
		Expect(*task.DedupKey).To(Equal(service.DedupKey("LB", "R-1", "ALT")))
		Expect(task.TaskCode).To(HavePrefix("TSK-"))
	})

	DescribeTable("due date follows priority",
		func(sev model.Severity, days int) {
			result, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", sev, 100)})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Created).To(HaveLen(1))
			Expect(string(result.Created[0].Priority)).To(Equal(string(sev)))
			Expect(result.Created[0].DueDate).To(Equal(detected.AddDate(0, 0, days)))
		},
		Entry("critical", model.SeverityCritical, 3),
		Entry("high", model.SeverityHigh, 7),
		Entry("medium", model.SeverityMedium, 14),
		Entry("low", model.SeverityLow, 30),
	)

	It("creates exactly one open task when called twice with the same findings", func() {
		findings := []model.Finding{
			finding("R-1", "ALT", model.SeverityHigh, 150),
			finding("R-2", "ALT", model.SeverityLow, 45),
		}

		first, err := svc.Materialize(ctx, findings)
		Expect(err).NotTo(HaveOccurred())
		second, err := svc.Materialize(ctx, findings)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Created).To(HaveLen(2))
		Expect(second.Created).To(BeEmpty())
		Expect(second.Skipped).To(Equal(2))
		Expect(tasks.openCount()).To(Equal(2))
	})

	It("treats findings differing only in value as the same condition", func() {
		_, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityLow, 45)})
		Expect(err).NotTo(HaveOccurred())

		result, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityCritical, 400)})
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Created).To(BeEmpty())
		Expect(result.Skipped).To(Equal(1))
	})

	It("collapses duplicate findings in one batch to the most severe", func() {
		result, err := svc.Materialize(ctx, []model.Finding{
			finding("R-1", "ALT", model.SeverityLow, 45),
			finding("R-1", "ALT", model.SeverityHigh, 150),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(HaveLen(1))
		Expect(result.Created[0].Priority).To(Equal(model.TaskPriorityHigh))
		Expect(tasks.createIfAbsentN).To(Equal(1))
	})

	It("opens a new task once the previous one is closed", func() {
		first, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityHigh, 150)})
		Expect(err).NotTo(HaveOccurred())
		closed := first.Created[0]
		closed.Status = model.TaskStatusClosed
		tasks.put(closed)

		second, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityHigh, 150)})

		Expect(err).NotTo(HaveOccurred())
		Expect(second.Created).To(HaveLen(1))
		Expect(second.Created[0].ID).NotTo(Equal(closed.ID))
	})

	It("never creates two open tasks under concurrent materialization", func() {
		findings := []model.Finding{finding("R-1", "ALT", model.SeverityCritical, 250)}

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := svc.Materialize(ctx, findings)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		Expect(tasks.openCount()).To(Equal(1))
	})

	It("collects persistence failures and keeps going", func() {
		tasks.createIfAbsentFn = func(_ context.Context, task *model.Task) (bool, error) {
			if *task.RecordID == "R-1" {
				return false, errors.New("connection reset")
			}
			return true, nil
		}

		result, err := svc.Materialize(ctx, []model.Finding{
			finding("R-1", "ALT", model.SeverityHigh, 150),
			finding("R-2", "ALT", model.SeverityHigh, 150),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(HaveLen(1))
		Expect(*result.Created[0].RecordID).To(Equal("R-2"))
		Expect(result.Errors).To(HaveLen(1))
		Expect(result.Errors[0].Key).To(Equal(service.DedupKey("LB", "R-1", "ALT")))
		Expect(result.Errors[0].Error()).To(ContainSubstring("connection reset"))
	})

	It("uses the rule's role when it names one", func() {
		f := finding("R-1", "ALT", model.SeverityHigh, 150)
		f.AssignedRole = ptr("Medical Monitor")

		result, err := svc.Materialize(ctx, []model.Finding{f})

		Expect(err).NotTo(HaveOccurred())
		Expect(*result.Created[0].AssignedRole).To(Equal("Medical Monitor"))
	})

	It("leaves tasks unassigned without any role", func() {
		svc = service.NewTaskGeneratorService(tasks, "")

		result, err := svc.Materialize(ctx, []model.Finding{finding("R-1", "ALT", model.SeverityHigh, 150)})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created[0].Status).To(Equal(model.TaskStatusNotStarted))
		Expect(result.Created[0].AssignedRole).To(BeNil())
	})
})

var _ = Describe("DedupKey", func() {
	It("is stable and separates its components", func() {
		Expect(service.DedupKey("LB", "R-1", "ALT")).To(Equal(service.DedupKey("LB", "R-1", "ALT")))
		Expect(service.DedupKey("LB", "R-1", "ALT")).NotTo(Equal(service.DedupKey("LBR", "-1", "ALT")))
		Expect(service.DedupKey("LB", "R-1", "ALT")).To(HaveLen(64))
	})
})

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/http/handler"
	"trialwatch.app/engine/internal/http/middleware"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("AdminHandler", func() {
	const adminKey = "test-admin-key"

	var (
		router     *gin.Engine
		repair     *mockRepairService
		membership *mockMembershipService
	)

	adminRequest := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.AdminKeyHeader, adminKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		repair = &mockRepairService{}
		membership = &mockMembershipService{}
		h := handler.NewAdminHandler(repair, membership)

		admin := router.Group("/admin")
		admin.Use(middleware.RequireAdminAPIKey(adminKey))
		admin.POST("/notifications/repair", h.Repair)
		admin.GET("/roles/:role/members", h.ListMembers)
		admin.POST("/roles/:role/members", h.AddMember)
		admin.DELETE("/roles/:role/members/:user_id", h.RemoveMember)
	})

	Describe("Repair", func() {
		It("returns the number of notifications created", func() {
			repair.repairFn = func(_ context.Context, role string) (*service.RepairResult, error) {
				return &service.RepairResult{Role: role, TasksScanned: 4, Created: 3}, nil
			}

			w := adminRequest(http.MethodPost, "/admin/notifications/repair", `{"role":"EDC Data Manager"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["role"]).To(Equal("EDC Data Manager"))
			Expect(resp["created"]).To(BeEquivalentTo(3))
			Expect(resp["errors"]).To(BeEmpty())
		})

		It("requires a role", func() {
			w := adminRequest(http.MethodPost, "/admin/notifications/repair", `{}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a wrong key", func() {
			req := httptest.NewRequest(http.MethodPost, "/admin/notifications/repair", bytes.NewBufferString(`{"role":"x"}`))
			req.Header.Set(middleware.AdminKeyHeader, "wrong")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts the key as a bearer token", func() {
			req := httptest.NewRequest(http.MethodPost, "/admin/notifications/repair", bytes.NewBufferString(`{"role":"x"}`))
			req.Header.Set("Authorization", "Bearer "+adminKey)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("members", func() {
		It("adds a member to the role in the path", func() {
			var gotRole string
			var gotUser model.User
			membership.addFn = func(_ context.Context, role string, user model.User) error {
				gotRole, gotUser = role, user
				return nil
			}

			w := adminRequest(http.MethodPost, "/admin/roles/Monitor/members", `{"user_id":"u-9","display_name":"Dana"}`)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(gotRole).To(Equal("Monitor"))
			Expect(gotUser.ID).To(Equal("u-9"))
		})

		It("lists members", func() {
			membership.listFn = func(context.Context, string) ([]model.User, error) {
				return []model.User{{ID: "u-1", DisplayName: "A"}}, nil
			}
			w := adminRequest(http.MethodGet, "/admin/roles/Monitor/members", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"user_id":"u-1"`))
		})

		It("returns 404 when removing an unknown member", func() {
			membership.removeFn = func(context.Context, string, string) error { return service.ErrMemberNotFound }
			w := adminRequest(http.MethodDelete, "/admin/roles/Monitor/members/u-404", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})

var _ = Describe("RequireAdminAPIKey", func() {
	It("reports 503 when no key is configured", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(middleware.RequireAdminAPIKey(""))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})
})

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetDashboard(ctx context.Context, projectID string) (*domain.DashboardDocument, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardDocument), args.Error(1)
}

func (m *mockReader) GetProjects(ctx context.Context) (*domain.ProjectList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectList), args.Error(1)
}

type mockController struct {
	mock.Mock
}

func (m *mockController) RefreshProject(ctx context.Context, projectID string) (*domain.DashboardDocument, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardDocument), args.Error(1)
}

func (m *mockController) RefreshOrganization(ctx context.Context) (domain.BatchOutcome, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.BatchOutcome), args.Error(1)
}

func (m *mockController) ResolveProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectRef, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.ProjectRef), args.Error(1)
}

func (m *mockController) Cancel(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

func setupRouter(reader *mockReader, ctrl *mockController) http.Handler {
	h := NewHandler(reader, ctrl)
	r := chi.NewRouter()
	r.Get("/projects", h.ListProjects)
	r.Get("/dashboard/{project}", h.GetDashboard)
	r.Post("/dashboard/{project}/refresh", h.RefreshProject)
	r.Delete("/dashboard/{project}/refresh", h.CancelRefresh)
	r.Post("/refresh", h.RefreshOrganization)
	return r
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

var generatedAt = time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)

func sampleDocument() *domain.DashboardDocument {
	return &domain.DashboardDocument{
		ProjectID: "p1",
		RunID:     "run-1",
		Sections: map[string]domain.Section{
			"firewall_rules": {
				SourceID: "firewall_rules",
				Status:   domain.SectionStatusOK,
				Records: []domain.ControlRecord{{
					Name:        "deny-all",
					Status:      domain.ControlStatusEnabled,
					ControlType: "Firewall",
					Details:     "Firewall rule denies all internet ingress traffic (0.0.0.0/0).",
				}},
			},
			"vpc_sc_status": {
				SourceID: "vpc_sc_status",
				Status:   domain.SectionStatusError,
				Records:  []domain.ControlRecord{},
				Error:    "source vpc_sc_status (permission_denied): 403",
			},
		},
		GeneratedAt: generatedAt,
	}
}

func TestListProjects(t *testing.T) {
	list := &domain.ProjectList{
		OrganizationID: "1",
		Projects: []domain.ProjectRef{
			{ProjectID: "a", State: domain.LifecycleStateActive, Environment: "prod"},
			{ProjectID: "b", State: domain.LifecycleStateActive, FolderName: "F", Environment: "N/A"},
		},
		GeneratedAt: generatedAt,
	}

	tests := []struct {
		name           string
		path           string
		setupMock      func(*mockReader)
		expectedStatus int
		expectedIDs    []string
	}{
		{
			name:           "all projects",
			path:           "/projects",
			setupMock:      func(m *mockReader) { m.On("GetProjects", mock.Anything).Return(list, nil) },
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"a", "b"},
		},
		{
			name:           "filtered by folder",
			path:           "/projects?folderName=F",
			setupMock:      func(m *mockReader) { m.On("GetProjects", mock.Anything).Return(list, nil) },
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"b"},
		},
		{
			name:           "unknown folder",
			path:           "/projects?folderName=none",
			setupMock:      func(m *mockReader) { m.On("GetProjects", mock.Anything).Return(list, nil) },
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{},
		},
		{
			name: "never cached",
			path: "/projects",
			setupMock: func(m *mockReader) {
				m.On("GetProjects", mock.Anything).Return(nil, fmt.Errorf("all_projects: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(mockReader)
			tt.setupMock(reader)
			router := setupRouter(reader, new(mockController))

			rec := serve(router, http.MethodGet, tt.path)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedIDs != nil {
				body := decode[api.ProjectList](t, rec)
				ids := make([]string, 0, len(body.Projects))
				for _, p := range body.Projects {
					ids = append(ids, p.ProjectID)
				}
				assert.Equal(t, tt.expectedIDs, ids)
			}
			reader.AssertExpectations(t)
		})
	}
}

func TestGetDashboard(t *testing.T) {
	t.Run("cached document", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetDashboard", mock.Anything, "p1").Return(sampleDocument(), nil)

		rec := serve(setupRouter(reader, new(mockController)), http.MethodGet, "/dashboard/p1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		body := decode[api.Dashboard](t, rec)
		assert.Equal(t, "p1", body.ProjectID)
		assert.Equal(t, "ok", body.Sections["firewall_rules"].Status)
		assert.Equal(t, "Enabled", body.Sections["firewall_rules"].Records[0].Status)
		assert.Equal(t, "error", body.Sections["vpc_sc_status"].Status)
		assert.NotEmpty(t, body.Sections["vpc_sc_status"].Error)
	})

	t.Run("absent", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetDashboard", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

		rec := serve(setupRouter(reader, new(mockController)), http.MethodGet, "/dashboard/missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", decode[api.ErrorResponse](t, rec).Error)
	})

	t.Run("read failure", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetDashboard", mock.Anything, "p1").
			Return(nil, &domain.CacheError{Kind: domain.KindReadFailed, Key: "p1", Err: errors.New("corrupt")})

		rec := serve(setupRouter(reader, new(mockController)), http.MethodGet, "/dashboard/p1")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRefreshProject(t *testing.T) {
	t.Run("refreshed", func(t *testing.T) {
		ctrl := new(mockController)
		ctrl.On("RefreshProject", mock.Anything, "p1").Return(sampleDocument(), nil)

		rec := serve(setupRouter(new(mockReader), ctrl), http.MethodPost, "/dashboard/p1/refresh")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-1", decode[api.Dashboard](t, rec).RunID)
		ctrl.AssertExpectations(t)
	})

	t.Run("all sources failed", func(t *testing.T) {
		ctrl := new(mockController)
		ctrl.On("RefreshProject", mock.Anything, "p1").Return(nil, domain.ErrAllSourcesFailed)

		rec := serve(setupRouter(new(mockReader), ctrl), http.MethodPost, "/dashboard/p1/refresh")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestCancelRefresh(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "cancelled", expectedStatus: http.StatusNoContent},
		{name: "nothing running", err: fmt.Errorf("no refresh: %w", domain.ErrNotFound), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := new(mockController)
			ctrl.On("Cancel", mock.Anything, "p1").Return(tt.err)

			rec := serve(setupRouter(new(mockReader), ctrl), http.MethodDelete, "/dashboard/p1/refresh")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			ctrl.AssertExpectations(t)
		})
	}
}

func TestRefreshOrganization(t *testing.T) {
	t.Run("outcome", func(t *testing.T) {
		ctrl := new(mockController)
		ctrl.On("RefreshOrganization", mock.Anything).Return(domain.BatchOutcome{
			Succeeded: []string{"a"},
			Failed:    []domain.ProjectFailure{{ProjectID: "b", Err: domain.ErrAllSourcesFailed}},
		}, nil)

		rec := serve(setupRouter(new(mockReader), ctrl), http.MethodPost, "/refresh")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, api.BatchOutcome{
			Succeeded: []string{"a"},
			Failed:    []api.ProjectFailure{{ProjectID: "b", Error: "all control sources failed"}},
		}, decode[api.BatchOutcome](t, rec))
	})

	t.Run("hierarchy failure", func(t *testing.T) {
		ctrl := new(mockController)
		ctrl.On("RefreshOrganization", mock.Anything).Return(domain.BatchOutcome{},
			&domain.HierarchyError{Kind: domain.KindPermissionDenied, Parent: "organizations/1", Err: errors.New("403")})

		rec := serve(setupRouter(new(mockReader), ctrl), http.MethodPost, "/refresh")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

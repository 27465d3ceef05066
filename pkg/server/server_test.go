package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/refresh"
	"github.com/de-tools/posture-atlas/pkg/store/cache"
	"github.com/de-tools/posture-atlas/pkg/store/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	projects []domain.ProjectRef
}

func (r stubResolver) ResolveProjects(context.Context, domain.ProjectFilter) ([]domain.ProjectRef, error) {
	return r.projects, nil
}

type stubSource struct{}

func (stubSource) ID() string { return controls.SourceFirewallRules }

func (stubSource) Fetch(context.Context, string) ([]controls.RawRecord, error) {
	return []controls.RawRecord{controls.FirewallRaw{Rule: "deny-all-ingress", DeniesInternetIngress: true}}, nil
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := cache.NewStore(memory.NewStore())
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	metrics, err := refresh.NewMetrics(registry)
	require.NoError(t, err)
	resolver := stubResolver{projects: []domain.ProjectRef{
		{ProjectID: "alpha", State: domain.LifecycleStateActive, Environment: "prod"},
		{ProjectID: "beta", State: domain.LifecycleStateActive, FolderName: "Shared", Environment: domain.DefaultEnvironment},
	}}
	ctrl, err := refresh.NewController(refresh.Config{OrganizationID: "1", Workers: 2}, resolver,
		[]controls.Source{stubSource{}}, store, metrics)
	require.NoError(t, err)

	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Store:      store,
			Controller: ctrl,
			Gatherer:   registry,
			Logger:     zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebAPI_Endpoints(t *testing.T) {
	srv := setupServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "Healthz",
			method:         http.MethodGet,
			path:           "/healthz",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ListProjects_NotCached",
			method:         http.MethodGet,
			path:           "/api/v1/projects",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "GetDashboard_NotCached",
			method:         http.MethodGet,
			path:           "/api/v1/dashboard/alpha",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "RefreshOrganization",
			method:         http.MethodPost,
			path:           "/api/v1/refresh",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				outcome := unmarshal[api.BatchOutcome](t, body)
				assert.Equal(t, []string{"alpha", "beta"}, outcome.Succeeded)
				assert.Empty(t, outcome.Failed)
			},
		},
		{
			name:           "ListProjects_ByFolder",
			method:         http.MethodGet,
			path:           "/api/v1/projects?folderName=Shared",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				list := unmarshal[api.ProjectList](t, body)
				require.Len(t, list.Projects, 1)
				assert.Equal(t, "beta", list.Projects[0].ProjectID)
				assert.Equal(t, "N/A", list.Projects[0].Environment)
			},
		},
		{
			name:           "GetDashboard",
			method:         http.MethodGet,
			path:           "/api/v1/dashboard/alpha",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				doc := unmarshal[api.Dashboard](t, body)
				section := doc.Sections[controls.SourceFirewallRules]
				assert.Equal(t, "ok", section.Status)
				require.Len(t, section.Records, 1)
				assert.Equal(t, "deny-all-ingress", section.Records[0].Name)
			},
		},
		{
			name:           "RefreshProject",
			method:         http.MethodPost,
			path:           "/api/v1/dashboard/gamma/refresh",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, "gamma", unmarshal[api.Dashboard](t, body).ProjectID)
			},
		},
		{
			name:           "CancelRefresh_NothingRunning",
			method:         http.MethodDelete,
			path:           "/api/v1/dashboard/gamma/refresh",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Metrics",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), `posture_refresh_total{result="success"} 3`)
				assert.Contains(t, string(body), `posture_batch_projects_total{result="success"} 2`)
			},
		},
	}

	// Cases share one server and run in order.
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

func TestWebAPI_StartStopsOnContext(t *testing.T) {
	webAPI := NewWebAPI(Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		Dependencies:    Dependencies{Logger: zerolog.New(zerolog.NewTestWriter(t))},
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- webAPI.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func unmarshal[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), strings.TrimSpace(string(data)))
	return v
}

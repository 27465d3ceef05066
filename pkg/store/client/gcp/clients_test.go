package gcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeAPI serves canned JSON bodies keyed by URL path suffix.
func fakeAPI(t *testing.T, routes map[string]string) []option.ClientOption {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for suffix, body := range routes {
			if strings.HasSuffix(r.URL.Path, suffix) {
				w.Header().Set("Content-Type", "application/json")
				if strings.Contains(body, `"error"`) {
					w.WriteHeader(http.StatusForbidden)
				}
				_, _ = w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	}
}

func TestResourceManager(t *testing.T) {
	ctx := context.Background()
	opts := fakeAPI(t, map[string]string{
		"projects:search": `{"projects":[
			{"name":"projects/11","projectId":"a","displayName":"A","state":"ACTIVE","labels":{"environment":"prod"}},
			{"name":"projects/12","projectId":"b","displayName":"B","state":"DELETE_REQUESTED"}
		]}`,
		"/folders":       `{"folders":[{"name":"folders/10","displayName":"F"}]}`,
		"/projects/a":    `{"name":"projects/11","projectId":"a"}`,
		"folders:search": `{"folders":[{"name":"folders/10","displayName":"F"}]}`,
	})
	rm, err := NewResourceManager(ctx, opts...)
	require.NoError(t, err)

	projects, err := rm.ListProjects(ctx, "organizations/1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectRef{
		{ProjectID: "a", DisplayName: "A", State: domain.LifecycleStateActive, Environment: "prod"},
		{ProjectID: "b", DisplayName: "B", State: domain.LifecycleStateDeleteRequested, Environment: "N/A"},
	}, projects)

	folders, err := rm.ListFolders(ctx, "organizations/1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Folder{{Name: "folders/10", DisplayName: "F"}}, folders)

	found, err := rm.SearchFolders(ctx, "1", "F")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	number, err := rm.ProjectNumber(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "11", number)
}

func TestCompute_PermissionDenied(t *testing.T) {
	ctx := context.Background()
	opts := fakeAPI(t, map[string]string{
		"/global/firewalls": `{"error":{"code":403,"message":"compute.firewalls.list denied"}}`,
	})
	c, err := NewCompute(ctx, opts...)
	require.NoError(t, err)

	_, err = c.ListFirewalls(ctx, "p1")

	assert.Equal(t, domain.KindPermissionDenied, domain.KindOf(err, ""))
}

func TestCompute_ListFirewalls(t *testing.T) {
	ctx := context.Background()
	opts := fakeAPI(t, map[string]string{
		"/global/firewalls": `{"items":[
			{"name":"deny-all","direction":"INGRESS","denied":[{"IPProtocol":"all"}],"sourceRanges":["0.0.0.0/0"]},
			{"name":"allow-ssh","direction":"INGRESS","allowed":[{"IPProtocol":"tcp","ports":["22"]}],"sourceRanges":["10.0.0.0/8"]}
		]}`,
	})
	c, err := NewCompute(ctx, opts...)
	require.NoError(t, err)

	rules, err := c.ListFirewalls(ctx, "p1")

	require.NoError(t, err)
	assert.Equal(t, []domain.FirewallRule{
		{Name: "deny-all", Direction: "INGRESS", DeniedProtocols: []string{"all"}, SourceRanges: []string{"0.0.0.0/0"}},
		{Name: "allow-ssh", Direction: "INGRESS", SourceRanges: []string{"10.0.0.0/8"}},
	}, rules)
}

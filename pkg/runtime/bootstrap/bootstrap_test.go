package bootstrap

import (
	"context"
	"testing"

	"github.com/de-tools/posture-atlas/pkg/services/config"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/store/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testConfig(sources ...string) *config.Config {
	return &config.Config{
		OrganizationID: "123",
		Workers:        2,
		Sources:        sources,
		OrgPolicy:      config.OrgPolicyConfig{Constraints: []string{"compute.skipDefaultNetworkCreation"}, Concurrency: 2},
		Hierarchy:      config.HierarchyConfig{MaxDepth: 8, Concurrency: 2},
		Cache:          config.CacheConfig{Driver: backend.DriverMemory},
	}
}

func TestOpen(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	t.Run("builds configured sources in order", func(t *testing.T) {
		cfg := testConfig(controls.SourceFirewallRules, controls.SourceOrgPolicies)
		reg := prometheus.NewRegistry()

		session, err := Open(ctx, cfg, reg, option.WithoutAuthentication())

		require.NoError(t, err)
		defer session.Close()
		assert.Equal(t, []string{controls.SourceFirewallRules, controls.SourceOrgPolicies}, session.Sources)
		assert.NotNil(t, session.Controller)
		assert.NotNil(t, session.Store)
	})

	t.Run("metrics registered twice", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		first, err := Open(ctx, testConfig(controls.SourceFirewallRules), reg, option.WithoutAuthentication())
		require.NoError(t, err)
		defer first.Close()

		_, err = Open(ctx, testConfig(controls.SourceFirewallRules), reg, option.WithoutAuthentication())

		assert.ErrorContains(t, err, "failed to register metrics")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := Open(ctx, testConfig("iam"), nil, option.WithoutAuthentication())
		assert.ErrorContains(t, err, "failed to build control sources")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := Open(ctx, nil, nil)
		assert.Error(t, err)
	})
}

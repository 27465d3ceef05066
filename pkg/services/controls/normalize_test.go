package controls

import (
	"errors"
	"testing"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ServiceModulesAreFlattened(t *testing.T) {
	raw := []RawRecord{ServiceRaw{
		ServiceID:      "CONTAINER_THREAT_DETECTION",
		EffectiveState: "ENABLED",
		Modules: []ModuleRaw{
			{Name: "ADDED_BINARY_EXECUTED", EffectiveState: "ENABLED"},
			{Name: "MALICIOUS_SCRIPT_EXECUTED", EffectiveState: "DISABLED"},
			{Name: "REVERSE_SHELL", EffectiveState: "INHERITED"},
		},
	}}

	records, skipped := Normalize(SourceSecurityServices, raw)

	require.Len(t, records, 3)
	assert.Zero(t, skipped)
	for _, r := range records {
		assert.Equal(t, "CONTAINER_THREAT_DETECTION", r.ControlType)
		assert.Equal(t, "Part of Container Threat Detection", r.Details)
	}
	assert.Equal(t, "Added Binary Executed", records[0].Name)
	assert.Equal(t, domain.ControlStatusEnabled, records[0].Status)
	assert.Equal(t, domain.ControlStatusDisabled, records[1].Status)
	assert.Equal(t, domain.ControlStatusUnknown, records[2].Status)
}

func TestNormalize_ServiceWithoutModules(t *testing.T) {
	records, skipped := Normalize(SourceSecurityServices, []RawRecord{
		ServiceRaw{ServiceID: "EVENT_THREAT_DETECTION", EffectiveState: "INGEST_ONLY"},
	})

	assert.Zero(t, skipped)
	assert.Equal(t, []domain.ControlRecord{{
		Name:             "Event Threat Detection",
		Status:           domain.ControlStatusEnabled,
		ControlType:      "Security Service",
		Details:          "Service ID: EVENT_THREAT_DETECTION",
		ControlObjective: ObjectiveMisconfig,
	}}, records)
}

func TestNormalize_Policies(t *testing.T) {
	records, skipped := Normalize(SourceOrgPolicies, []RawRecord{
		PolicyRaw{Constraint: "compute.vmExternalIpAccess", Enforced: true, Rules: 1},
		PolicyRaw{Constraint: "storage.restrictAuthTypes"},
		PolicyRaw{Constraint: "run.allowedIngress", Err: errors.New("quota exceeded")},
	})

	require.Len(t, records, 3)
	assert.Zero(t, skipped)
	assert.Equal(t, domain.ControlStatusEnabled, records[0].Status)
	assert.Equal(t, domain.ControlStatusDisabled, records[1].Status)
	assert.Equal(t, domain.ControlStatusError, records[2].Status)
	assert.Equal(t, "quota exceeded", records[2].Details)
	for _, r := range records {
		assert.Equal(t, "Org Policy", r.ControlType)
		assert.Equal(t, ObjectiveOrgStandards, r.ControlObjective)
	}
}

func TestNormalize_Perimeter(t *testing.T) {
	tests := []struct {
		name    string
		raw     PerimeterRaw
		status  domain.ControlStatus
		details string
	}{
		{
			name:    "no access policy",
			raw:     PerimeterRaw{},
			status:  domain.ControlStatusDisabled,
			details: "No Access Policy found for the organization.",
		},
		{
			name:    "protected",
			raw:     PerimeterRaw{PolicyFound: true, Protected: true, PerimeterTitle: "prod"},
			status:  domain.ControlStatusEnabled,
			details: "Project is protected by perimeter: prod",
		},
		{
			name:    "outside every perimeter",
			raw:     PerimeterRaw{PolicyFound: true},
			status:  domain.ControlStatusDisabled,
			details: "Project is not protected by any VPC Service Controls perimeter.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _ := Normalize(SourceVPCSCStatus, []RawRecord{tt.raw})

			require.Len(t, records, 1)
			assert.Equal(t, "VPC SC", records[0].Name)
			assert.Equal(t, tt.status, records[0].Status)
			assert.Equal(t, tt.details, records[0].Details)
		})
	}
}

func TestNormalize_ScannerModules(t *testing.T) {
	records, skipped := Normalize(SourceSHAModules, []RawRecord{
		ScannerModuleRaw{
			Custom:          true,
			Name:            "projects/p/locations/global/effectiveSecurityHealthAnalyticsCustomModules/123",
			DisplayName:     "public_bucket_check",
			EnablementState: "ENABLED",
		},
		ScannerModuleRaw{Name: "OPEN_FIREWALL", EnablementState: "DISABLED", ServiceID: SecurityHealthAnalytics},
	})

	assert.Zero(t, skipped)
	assert.Equal(t, []domain.ControlRecord{
		{
			Name:             "public_bucket_check",
			Status:           domain.ControlStatusEnabled,
			ControlType:      "SHA Custom Module",
			Details:          "Module ID: 123",
			ControlObjective: ObjectiveMisconfig,
		},
		{
			Name:             "Open Firewall",
			Status:           domain.ControlStatusDisabled,
			ControlType:      "SHA Module",
			Details:          "Service ID: SECURITY_HEALTH_ANALYTICS",
			ControlObjective: ObjectiveMisconfig,
		},
	}, records)
}

func TestNormalize_FirewallEmitsOnlyFindings(t *testing.T) {
	records, skipped := Normalize(SourceFirewallRules, []RawRecord{
		FirewallRaw{Rule: "allow-ssh"},
		FirewallRaw{Rule: "deny-internet", DeniesInternetIngress: true},
	})

	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "deny-internet", records[0].Name)
	assert.Equal(t, domain.ControlStatusEnabled, records[0].Status)
	assert.Equal(t, "Firewall", records[0].ControlType)
	assert.Equal(t, ObjectiveIngress, records[0].ControlObjective)
}

func TestNormalize_SkipsMalformedAndContinues(t *testing.T) {
	records, skipped := Normalize(SourceOrgPolicies, []RawRecord{
		PolicyRaw{Constraint: "a", Enforced: true},
		PolicyRaw{},
		nil,
		ScannerModuleRaw{Custom: true},
		ServiceRaw{ServiceID: "X", Modules: []ModuleRaw{{}}},
		FirewallRaw{DeniesInternetIngress: true},
		PolicyRaw{Constraint: "b"},
	})

	assert.Equal(t, 5, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Name)
	assert.Equal(t, "b", records[1].Name)

	t.Run("nameless module among valid ones", func(t *testing.T) {
		records, skipped := Normalize(SourceSecurityServices, []RawRecord{
			ServiceRaw{ServiceID: "CONTAINER_THREAT_DETECTION", Modules: []ModuleRaw{
				{Name: "A", EffectiveState: "ENABLED"},
				{Name: "", EffectiveState: "ENABLED"},
				{Name: "C", EffectiveState: "DISABLED"},
			}},
		})

		assert.Equal(t, 1, skipped)
		require.Len(t, records, 2)
		assert.Equal(t, "A", records[0].Name)
		assert.Equal(t, "C", records[1].Name)
	})

	t.Run("every nameless module is counted", func(t *testing.T) {
		_, skipped := Normalize(SourceSecurityServices, []RawRecord{
			ServiceRaw{ServiceID: "X", Modules: []ModuleRaw{{}, {}, {Name: "OK"}}},
		})

		assert.Equal(t, 2, skipped)
	})
}

func TestNormalize_StatusesAreAlwaysCanonical(t *testing.T) {
	states := []string{"ENABLED", "DISABLED", "INHERITED", "INGEST_ONLY", "ENABLEMENT_STATE_UNSPECIFIED", "", "garbage", "enabled"}
	var raw []RawRecord
	for _, s := range states {
		raw = append(raw,
			ScannerModuleRaw{Name: "M", EnablementState: s},
			ServiceRaw{ServiceID: "S", EffectiveState: s},
			ServiceRaw{ServiceID: "S", Modules: []ModuleRaw{{Name: "M", EffectiveState: s}}},
		)
	}

	records, skipped := Normalize(SourceSecurityServices, raw)

	assert.Zero(t, skipped)
	require.Len(t, records, len(raw))
	for _, r := range records {
		assert.True(t, r.Status.Valid(), "status %q", r.Status)
	}
}

func TestNormalize_Empty(t *testing.T) {
	records, skipped := Normalize(SourceFirewallRules, nil)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, skipped)
}

func TestTitleize(t *testing.T) {
	assert.Equal(t, "Security Health Analytics", Titleize("SECURITY_HEALTH_ANALYTICS"))
	assert.Equal(t, "Web Security Scanner", Titleize("web-security-scanner"))
	assert.Equal(t, "", Titleize(""))
	assert.Equal(t, "Container Threat Detection", Titleize("container__THREAT detection"))
}

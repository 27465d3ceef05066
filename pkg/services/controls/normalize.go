package controls

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	controlTypeOrgPolicy       = "Org Policy"
	controlTypePerimeter       = "VPC Service Controls"
	controlTypeCustomModule    = "SHA Custom Module"
	controlTypeSHAModule       = "SHA Module"
	controlTypeSecurityService = "Security Service"
	controlTypeFirewall        = "Firewall"
)

// Normalize maps raw records of one source onto control records, keeping input
// order. Records that cannot be mapped are skipped and counted.
func Normalize(sourceID string, raw []RawRecord) ([]domain.ControlRecord, int) {
	records := make([]domain.ControlRecord, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		out, n := normalizeOne(r)
		skipped += n
		records = append(records, out...)
	}
	return records, skipped
}

// normalizeOne returns the records produced by r and how many malformed
// entries it dropped along the way.
func normalizeOne(r RawRecord) ([]domain.ControlRecord, int) {
	switch v := r.(type) {
	case PolicyRaw:
		return single(normalizePolicy(v))
	case PerimeterRaw:
		return normalizePerimeter(v), 0
	case ScannerModuleRaw:
		return single(normalizeScannerModule(v))
	case ServiceRaw:
		return normalizeService(v)
	case FirewallRaw:
		return single(normalizeFirewall(v))
	default:
		return nil, 1
	}
}

func single(records []domain.ControlRecord, ok bool) ([]domain.ControlRecord, int) {
	if !ok {
		return nil, 1
	}
	return records, 0
}

// MapEnablementState folds the provider's enablement vocabulary onto a control status.
func MapEnablementState(state string) domain.ControlStatus {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "ENABLED", "INGEST_ONLY":
		return domain.ControlStatusEnabled
	case "DISABLED":
		return domain.ControlStatusDisabled
	default:
		return domain.ControlStatusUnknown
	}
}

func enforcementStatus(enforced bool) domain.ControlStatus {
	if enforced {
		return domain.ControlStatusEnabled
	}
	return domain.ControlStatusDisabled
}

func normalizePolicy(p PolicyRaw) ([]domain.ControlRecord, bool) {
	if p.Constraint == "" {
		return nil, false
	}
	rec := domain.ControlRecord{
		Name:             p.Constraint,
		Status:           enforcementStatus(p.Enforced),
		ControlType:      controlTypeOrgPolicy,
		Details:          fmt.Sprintf("%d rule(s), enforced: %t", p.Rules, p.Enforced),
		ControlObjective: ObjectiveOrgStandards,
	}
	if p.Err != nil {
		rec.Status = domain.ControlStatusError
		rec.Details = p.Err.Error()
	}
	return []domain.ControlRecord{rec}, true
}

func normalizePerimeter(p PerimeterRaw) []domain.ControlRecord {
	rec := domain.ControlRecord{
		Name:             "VPC SC",
		Status:           domain.ControlStatusDisabled,
		ControlType:      controlTypePerimeter,
		Details:          "Project is not protected by any VPC Service Controls perimeter.",
		ControlObjective: ObjectiveExfiltration,
	}
	switch {
	case !p.PolicyFound:
		rec.Details = "No Access Policy found for the organization."
	case p.Protected:
		rec.Status = domain.ControlStatusEnabled
		rec.Details = "Project is protected by perimeter: " + p.PerimeterTitle
	}
	return []domain.ControlRecord{rec}
}

func normalizeScannerModule(m ScannerModuleRaw) ([]domain.ControlRecord, bool) {
	rec := domain.ControlRecord{
		Status:           MapEnablementState(m.EnablementState),
		ControlObjective: ObjectiveMisconfig,
	}
	if m.Custom {
		if m.Name == "" {
			return nil, false
		}
		rec.Name = m.DisplayName
		if rec.Name == "" {
			rec.Name = lastSegment(m.Name)
		}
		rec.ControlType = controlTypeCustomModule
		rec.Details = "Module ID: " + lastSegment(m.Name)
		return []domain.ControlRecord{rec}, true
	}
	if m.Name == "" {
		return nil, false
	}
	serviceID := m.ServiceID
	if serviceID == "" {
		serviceID = SecurityHealthAnalytics
	}
	rec.Name = Titleize(m.Name)
	rec.ControlType = controlTypeSHAModule
	rec.Details = "Service ID: " + serviceID
	return []domain.ControlRecord{rec}, true
}

// normalizeService flattens a service into one record per module, each typed by
// the parent service id. A service without modules is reported as itself. Every
// nameless module counts as one skip.
func normalizeService(s ServiceRaw) ([]domain.ControlRecord, int) {
	if s.ServiceID == "" {
		return nil, 1
	}
	title := Titleize(s.ServiceID)
	if len(s.Modules) == 0 {
		return []domain.ControlRecord{{
			Name:             title,
			Status:           MapEnablementState(s.EffectiveState),
			ControlType:      controlTypeSecurityService,
			Details:          "Service ID: " + s.ServiceID,
			ControlObjective: ObjectiveMisconfig,
		}}, 0
	}
	records := make([]domain.ControlRecord, 0, len(s.Modules))
	skipped := 0
	for _, m := range s.Modules {
		if m.Name == "" {
			skipped++
			continue
		}
		records = append(records, domain.ControlRecord{
			Name:             Titleize(m.Name),
			Status:           MapEnablementState(m.EffectiveState),
			ControlType:      s.ServiceID,
			Details:          "Part of " + title,
			ControlObjective: ObjectiveMisconfig,
		})
	}
	return records, skipped
}

func normalizeFirewall(f FirewallRaw) ([]domain.ControlRecord, bool) {
	if f.Rule == "" {
		return nil, false
	}
	if !f.DeniesInternetIngress {
		return nil, true
	}
	return []domain.ControlRecord{{
		Name:             f.Rule,
		Status:           domain.ControlStatusEnabled,
		ControlType:      controlTypeFirewall,
		Details:          "Firewall rule denies all internet ingress traffic (0.0.0.0/0).",
		ControlObjective: ObjectiveIngress,
	}}, true
}

// Titleize turns identifiers such as CONTAINER_THREAT_DETECTION into
// "Container Threat Detection".
func Titleize(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' || unicode.IsSpace(r) })
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

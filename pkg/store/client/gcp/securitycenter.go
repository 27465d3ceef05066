package gcp

import (
	"context"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"google.golang.org/api/option"
	scm "google.golang.org/api/securitycentermanagement/v1"
)

type SecurityCenter struct {
	svc *scm.Service
}

func NewSecurityCenter(ctx context.Context, opts ...option.ClientOption) (*SecurityCenter, error) {
	svc, err := scm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create security center management client: %w", err)
	}
	return &SecurityCenter{svc: svc}, nil
}

func globalLocation(projectID string) string {
	return fmt.Sprintf("projects/%s/locations/global", projectID)
}

func (c *SecurityCenter) ListSecurityServices(ctx context.Context, projectID string) ([]domain.SecurityService, error) {
	var services []domain.SecurityService
	call := c.svc.Projects.Locations.SecurityCenterServices.List(globalLocation(projectID))
	err := call.Pages(ctx, func(resp *scm.ListSecurityCenterServicesResponse) error {
		for _, s := range resp.SecurityCenterServices {
			svc := domain.SecurityService{
				Name:           s.Name,
				EffectiveState: s.EffectiveEnablementState,
				Modules:        make(map[string]string, len(s.Modules)),
			}
			for name, settings := range s.Modules {
				svc.Modules[name] = settings.EffectiveEnablementState
			}
			services = append(services, svc)
		}
		return nil
	})
	if err != nil {
		return nil, classify("list security center services", err)
	}
	return services, nil
}

func (c *SecurityCenter) ListEffectiveCustomModules(ctx context.Context, projectID string) ([]domain.CustomModule, error) {
	var modules []domain.CustomModule
	call := c.svc.Projects.Locations.EffectiveSecurityHealthAnalyticsCustomModules.List(globalLocation(projectID))
	err := call.Pages(ctx, func(resp *scm.ListEffectiveSecurityHealthAnalyticsCustomModulesResponse) error {
		for _, m := range resp.EffectiveSecurityHealthAnalyticsCustomModules {
			modules = append(modules, domain.CustomModule{
				Name:            m.Name,
				DisplayName:     m.DisplayName,
				EnablementState: m.EnablementState,
			})
		}
		return nil
	})
	if err != nil {
		return nil, classify("list effective custom modules", err)
	}
	return modules, nil
}

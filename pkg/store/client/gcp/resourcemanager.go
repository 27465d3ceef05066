package gcp

import (
	"context"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	crm "google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/option"
)

// ResourceManager lists the organization hierarchy and resolves project numbers.
type ResourceManager struct {
	svc *crm.Service
}

func NewResourceManager(ctx context.Context, opts ...option.ClientOption) (*ResourceManager, error) {
	svc, err := crm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create resource manager client: %w", err)
	}
	return &ResourceManager{svc: svc}, nil
}

// ListProjects returns the projects whose direct parent is parent.
func (c *ResourceManager) ListProjects(ctx context.Context, parent string) ([]domain.ProjectRef, error) {
	var projects []domain.ProjectRef
	err := c.svc.Projects.Search().Query("parent:"+parent).Pages(ctx, func(resp *crm.SearchProjectsResponse) error {
		for _, p := range resp.Projects {
			projects = append(projects, mapProject(p))
		}
		return nil
	})
	if err != nil {
		return nil, classify("search projects under "+parent, err)
	}
	zerolog.Ctx(ctx).Debug().Str("parent", parent).Int("count", len(projects)).Msg("searched projects")
	return projects, nil
}

func (c *ResourceManager) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	var folders []domain.Folder
	err := c.svc.Folders.List().Parent(parent).Pages(ctx, func(resp *crm.ListFoldersResponse) error {
		for _, f := range resp.Folders {
			folders = append(folders, domain.Folder{Name: f.Name, DisplayName: f.DisplayName})
		}
		return nil
	})
	if err != nil {
		return nil, classify("list folders under "+parent, err)
	}
	return folders, nil
}

// SearchFolders finds folders with the given display name directly under the organization.
func (c *ResourceManager) SearchFolders(ctx context.Context, organizationID, displayName string) ([]domain.Folder, error) {
	query := fmt.Sprintf("displayName=%q AND parent=organizations/%s", displayName, organizationID)
	var folders []domain.Folder
	err := c.svc.Folders.Search().Query(query).Pages(ctx, func(resp *crm.SearchFoldersResponse) error {
		for _, f := range resp.Folders {
			folders = append(folders, domain.Folder{Name: f.Name, DisplayName: f.DisplayName})
		}
		return nil
	})
	if err != nil {
		return nil, classify("search folders", err)
	}
	return folders, nil
}

func (c *ResourceManager) ProjectNumber(ctx context.Context, projectID string) (string, error) {
	p, err := c.svc.Projects.Get("projects/" + projectID).Context(ctx).Do()
	if err != nil {
		return "", classify("get project "+projectID, err)
	}
	return lastSegment(p.Name), nil
}

func mapProject(p *crm.Project) domain.ProjectRef {
	env := p.Labels["environment"]
	if env == "" {
		env = domain.DefaultEnvironment
	}
	return domain.ProjectRef{
		ProjectID:   p.ProjectId,
		DisplayName: p.DisplayName,
		State:       domain.ParseLifecycleState(p.State),
		Environment: env,
	}
}

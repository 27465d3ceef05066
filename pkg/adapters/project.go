package adapters

import (
	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/models/store"
)

func MapProjectDomainToStore(p domain.ProjectRef) store.Project {
	return store.Project{
		ProjectID:   p.ProjectID,
		DisplayName: p.DisplayName,
		State:       string(p.State),
		FolderName:  p.FolderName,
		Environment: p.Environment,
	}
}

func MapProjectStoreToDomain(p store.Project) domain.ProjectRef {
	return domain.ProjectRef{
		ProjectID:   p.ProjectID,
		DisplayName: p.DisplayName,
		State:       domain.ParseLifecycleState(p.State),
		FolderName:  p.FolderName,
		Environment: p.Environment,
	}
}

func MapProjectDomainToApi(p domain.ProjectRef) api.Project {
	return api.Project{
		ProjectID:   p.ProjectID,
		DisplayName: p.DisplayName,
		State:       string(p.State),
		FolderName:  p.FolderName,
		Environment: p.Environment,
	}
}

func MapProjectListDomainToStore(l domain.ProjectList) store.ProjectList {
	res := store.ProjectList{
		OrganizationID: l.OrganizationID,
		Projects:       make([]store.Project, 0, len(l.Projects)),
		GeneratedAt:    l.GeneratedAt.UTC(),
	}
	for _, p := range l.Projects {
		res.Projects = append(res.Projects, MapProjectDomainToStore(p))
	}
	return res
}

func MapProjectListStoreToDomain(l store.ProjectList) domain.ProjectList {
	res := domain.ProjectList{
		OrganizationID: l.OrganizationID,
		Projects:       make([]domain.ProjectRef, 0, len(l.Projects)),
		GeneratedAt:    l.GeneratedAt,
	}
	for _, p := range l.Projects {
		res.Projects = append(res.Projects, MapProjectStoreToDomain(p))
	}
	return res
}

func MapProjectListDomainToApi(l domain.ProjectList) api.ProjectList {
	res := api.ProjectList{
		OrganizationID: l.OrganizationID,
		Projects:       make([]api.Project, 0, len(l.Projects)),
		GeneratedAt:    l.GeneratedAt,
	}
	for _, p := range l.Projects {
		res.Projects = append(res.Projects, MapProjectDomainToApi(p))
	}
	return res
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/adapters"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/models/store"
)

// ProjectListKey holds the organization project inventory. Project ids never
// contain underscores, so it cannot collide with a dashboard key.
const ProjectListKey = "all_projects"

var ErrNotFound = domain.ErrNotFound

// KV is an opaque document store with atomic per-key writes. Get returns
// ErrNotFound for keys that were never written.
type KV interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type Store interface {
	PutDashboard(ctx context.Context, doc domain.DashboardDocument) error
	GetDashboard(ctx context.Context, projectID string) (*domain.DashboardDocument, error)
	PutProjects(ctx context.Context, list domain.ProjectList) error
	GetProjects(ctx context.Context) (*domain.ProjectList, error)
}

type documentStore struct {
	kv KV
}

func NewStore(kv KV) (Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("cache backend is nil")
	}
	return &documentStore{kv: kv}, nil
}

func (s *documentStore) PutDashboard(ctx context.Context, doc domain.DashboardDocument) error {
	if doc.ProjectID == "" {
		return fmt.Errorf("dashboard has no project id")
	}
	return s.put(ctx, doc.ProjectID, adapters.MapDashboardDomainToStore(doc))
}

func (s *documentStore) GetDashboard(ctx context.Context, projectID string) (*domain.DashboardDocument, error) {
	var d store.Dashboard
	if err := s.get(ctx, projectID, &d); err != nil {
		return nil, err
	}
	doc := adapters.MapDashboardStoreToDomain(d)
	return &doc, nil
}

func (s *documentStore) PutProjects(ctx context.Context, list domain.ProjectList) error {
	return s.put(ctx, ProjectListKey, adapters.MapProjectListDomainToStore(list))
}

func (s *documentStore) GetProjects(ctx context.Context) (*domain.ProjectList, error) {
	var l store.ProjectList
	if err := s.get(ctx, ProjectListKey, &l); err != nil {
		return nil, err
	}
	list := adapters.MapProjectListStoreToDomain(l)
	return &list, nil
}

func (s *documentStore) put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return &domain.CacheError{Kind: domain.KindWriteFailed, Key: key, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := s.kv.Put(ctx, key, body); err != nil {
		return &domain.CacheError{Kind: domain.KindWriteFailed, Key: key, Err: err}
	}
	return nil
}

func (s *documentStore) get(ctx context.Context, key string, v any) error {
	body, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("document %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return &domain.CacheError{Kind: domain.KindReadFailed, Key: key, Err: err}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &domain.CacheError{Kind: domain.KindReadFailed, Key: key, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

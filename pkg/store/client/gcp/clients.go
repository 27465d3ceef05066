package gcp

import (
	"context"
	"strings"

	"google.golang.org/api/option"
)

// Clients bundles every provider client used by the hierarchy resolver and the
// control sources. All share the same client options.
type Clients struct {
	ResourceManager *ResourceManager
	OrgPolicy       *OrgPolicy
	AccessContext   *AccessContext
	SecurityCenter  *SecurityCenter
	Compute         *Compute
}

func NewClients(ctx context.Context, opts ...option.ClientOption) (*Clients, error) {
	rm, err := NewResourceManager(ctx, opts...)
	if err != nil {
		return nil, err
	}
	op, err := NewOrgPolicy(ctx, opts...)
	if err != nil {
		return nil, err
	}
	ac, err := NewAccessContext(ctx, rm, opts...)
	if err != nil {
		return nil, err
	}
	sc, err := NewSecurityCenter(ctx, opts...)
	if err != nil {
		return nil, err
	}
	cc, err := NewCompute(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Clients{
		ResourceManager: rm,
		OrgPolicy:       op,
		AccessContext:   ac,
		SecurityCenter:  sc,
		Compute:         cc,
	}, nil
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

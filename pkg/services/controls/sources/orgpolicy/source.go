package orgpolicy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Client interface {
	GetEffectivePolicy(ctx context.Context, projectID, constraint string) (domain.EffectivePolicy, error)
}

type Source struct {
	client      Client
	constraints []string
	concurrency int
}

func New(client Client, constraints []string, concurrency int) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("org policy client is required")
	}
	if len(constraints) == 0 {
		return nil, fmt.Errorf("at least one constraint is required")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Source{
		client:      client,
		constraints: append([]string(nil), constraints...),
		concurrency: concurrency,
	}, nil
}

func (s *Source) ID() string { return controls.SourceOrgPolicies }

// Fetch reads the effective policy of every configured constraint with at most
// s.concurrency calls in flight. A constraint that cannot be read is reported as
// a record carrying its error; the source only fails when none can be read.
func (s *Source) Fetch(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	logger := zerolog.Ctx(ctx)
	raw := make([]controls.RawRecord, len(s.constraints))

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, constraint := range s.constraints {
		g.Go(func() error {
			policy, err := s.client.GetEffectivePolicy(ctx, projectID, constraint)
			if err != nil {
				logger.Debug().Err(err).Str("constraint", constraint).Msg("effective policy unavailable")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				raw[i] = controls.PolicyRaw{Constraint: constraint, Err: err}
				return nil
			}
			raw[i] = controls.PolicyRaw{
				Constraint: constraint,
				Enforced:   policy.Enforced,
				Rules:      policy.Rules,
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == len(s.constraints) {
		joined := errors.Join(errs...)
		return nil, &domain.SourceError{
			Kind:     domain.KindOf(joined, domain.KindUnavailable),
			SourceID: s.ID(),
			Err:      fmt.Errorf("no constraint could be read: %w", joined),
		}
	}
	return raw, nil
}

// DefaultConstraints are the managed and custom constraints checked when none are configured.
func DefaultConstraints() []string {
	return []string{
		"compute.managed.blockPreviewFeatures",
		"iam.managed.disableServiceAccountApiKeyCreation",
		"iam.managed.disableServiceAccountCreation",
		"iam.managed.disableServiceAccountKeyCreation",
		"iam.managed.disableServiceAccountKeyUpload",
		"pubsub.managed.disableSubscriptionMessageTransforms",
		"pubsub.managed.disableTopicMessageTransforms",
		"container.managed.disallowDefaultComputeServiceAccount",
		"iam.managed.preventPrivilegedBasicRolesForDefaultServiceAccounts",
		"container.managed.enableBinaryAuthorization",
		"container.managed.enableGoogleGroupsRBAC",
		"container.managed.enableNetworkPolicy",
		"container.managed.enablePrivateNodes",
		"container.managed.enableSecurityBulletinNotifications",
		"container.managed.enableSecretsEncryption",
		"container.managed.enableWorkloadIdentityFederation",
		"run.managed.requireInvokerIam",
		"container.managed.enableControlPlaneDNSOnlyAccess",
		"container.managed.disableRBACSystemBindings",
		"iam.managed.allowedPolicyMembers",
		"essentialcontacts.managed.allowedContactDomains",
		"compute.managed.restrictProtocolForwardingCreationForTypes",
		"custom.denytestautomation",
		"custom.iamDenySaKeyCreationAutomationSA1",
		"custom.kmsDisableAutoKeyCreation",
		"custom.iamDenySaKeyCreationtoAutomationSA",
		"iam.allowServiceAccountCredentialLifetimeExtension",
		"iam.workloadIdentityPoolAwsAccounts",
		"run.allowedBinaryAuthorizationPolicies",
		"cloudfunctions.restrictAllowedGenerations",
		"resourcemanager.allowedExportDestinations",
		"iam.workloadIdentityPoolProviders",
		"cloudfunctions.allowedIngressSettings",
		"run.allowedIngress",
		"cloudbuild.allowedIntegrations",
		"resourcemanager.allowedImportSources",
		"cloudscheduler.allowedTargetTypes",
		"compute.allowedVlanAttachmentEncryption",
		"cloudfunctions.allowedVpcConnectorEgressSettings",
		"run.allowedVPCEgress",
		"meshconfig.allowedVpcscModes",
		"cloudbuild.allowedWorkerPools",
		"storage.restrictAuthTypes",
		"storage.softDeletePolicySeconds",
		"compute.storageResourceUseRestrictions",
		"datastream.disablePublicConnectivity",
		"ainotebooks.accessMode",
		"vertexai.allowedGenAIModels",
		"vertexai.allowedModels",
		"compute.vmExternalIpAccess",
	}
}

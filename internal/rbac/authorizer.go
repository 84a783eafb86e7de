package rbac

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool
	// IsOwner is set when the administrator holds the Owner role; pages use it
	// to show owner-only navigation.
	IsOwner bool
}

// Outcome labels a decision for metrics.
func (d Decision) Outcome() string {
	switch {
	case d.IsOwner:
		return "owner"
	case d.Allowed:
		return "allow"
	default:
		return "deny"
	}
}

// AuthorizationStore answers the two queries an authorization check needs.
type AuthorizationStore interface {
	// AdministratorRoles lists the role grants of an administrator with role titles.
	AdministratorRoles(ctx context.Context, administratorID int64) ([]Grant, error)
	// RoleGrantsForPermission lists grants of the permission titled permissionTitle
	// held by any of roleIDs.
	RoleGrantsForPermission(ctx context.Context, roleIDs []int64, permissionTitle string) ([]Grant, error)
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordAuthorization(outcome string)
}

// Authorizer decides whether an administrator may perform an action. Every
// call reads the store; nothing is cached between requests.
type Authorizer struct {
	store    AuthorizationStore
	recorder DecisionRecorder
	tracer   trace.Tracer
}

// NewAuthorizer constructs an Authorizer. recorder may be nil.
func NewAuthorizer(store AuthorizationStore, recorder DecisionRecorder) *Authorizer {
	return &Authorizer{
		store:    store,
		recorder: recorder,
		tracer:   otel.Tracer("github.com/infolibrary/infolibrary/internal/rbac"),
	}
}

// Authorize allows an Owner unconditionally. Any other administrator is allowed
// when at least one of their roles whose title is in allowedRoles grants the
// permission titled requiredPermission.
func (a *Authorizer) Authorize(ctx context.Context, administratorID int64, allowedRoles []string, requiredPermission string) (Decision, error) {
	ctx, span := a.tracer.Start(ctx, "rbac.Authorize", trace.WithAttributes(
		attribute.Int64("rbac.administrator_id", administratorID),
		attribute.String("rbac.permission", requiredPermission),
	))
	defer span.End()

	decision, err := a.decide(ctx, administratorID, allowedRoles, requiredPermission)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization failed")
		a.record("error")
		return Decision{}, err
	}
	span.SetAttributes(attribute.String("rbac.outcome", decision.Outcome()))
	a.record(decision.Outcome())
	return decision, nil
}

func (a *Authorizer) decide(ctx context.Context, administratorID int64, allowedRoles []string, requiredPermission string) (Decision, error) {
	roles, err := a.store.AdministratorRoles(ctx, administratorID)
	if err != nil {
		return Decision{}, fmt.Errorf("rbac: roles of administrator %d: %w", administratorID, err)
	}
	for _, role := range roles {
		if IsOwnerRole(role.Title) {
			return Decision{Allowed: true, IsOwner: true}, nil
		}
	}

	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, title := range allowedRoles {
		allowed[title] = struct{}{}
	}
	scoped := make([]int64, 0, len(roles))
	for _, role := range roles {
		if _, ok := allowed[role.Title]; ok {
			scoped = append(scoped, role.GrantedID)
		}
	}
	if len(scoped) == 0 {
		return Decision{}, nil
	}

	grants, err := a.store.RoleGrantsForPermission(ctx, scoped, requiredPermission)
	if err != nil {
		return Decision{}, fmt.Errorf("rbac: grants of %s: %w", requiredPermission, err)
	}
	return Decision{Allowed: len(grants) > 0}, nil
}

func (a *Authorizer) record(outcome string) {
	if a.recorder != nil {
		a.recorder.RecordAuthorization(outcome)
	}
}

type decisionContextKey struct{}

// ContextWithDecision stores the decision that admitted the request.
func ContextWithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the stored decision or a zero Decision.
func DecisionFromContext(ctx context.Context) Decision {
	d, _ := ctx.Value(decisionContextKey{}).(Decision)
	return d
}

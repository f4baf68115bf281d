package role

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/perm"
)

// Registry manages role definitions: keyed lookup, enumeration, and
// create/update of custom roles. System roles are owned by the
// Reconciler and cannot be created or updated through the public
// operations.
type Registry struct {
	store    Store
	log      *observability.Logger
	auditLog audit.Logger
}

// NewRegistry creates a role registry over the given store. auditLog
// may be nil.
func NewRegistry(store Store, log *observability.Logger, auditLog audit.Logger) *Registry {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Registry{store: store, log: log, auditLog: auditLog}
}

// FindByScopeAndName returns the role for (scope, name), or (nil, nil)
// when no such role exists.
func (r *Registry) FindByScopeAndName(ctx context.Context, scope perm.Scope, name string) (*Role, error) {
	return r.store.Get(ctx, scope, name)
}

// FindAll returns every stored role.
func (r *Registry) FindAll(ctx context.Context) ([]Role, error) {
	return r.store.List(ctx)
}

// Create stores a new custom role. The name is normalized to the
// canonical upper-snake form; reserved system names are rejected, as
// is a (scope, name) pair that already exists.
func (r *Registry) Create(ctx context.Context, input NewRole) (*Role, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	permissions, err := validatePermissions(input.Scope, input.Permissions)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.Get(ctx, input.Scope, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ExistsError{Scope: input.Scope, Name: name}
	}

	now := time.Now()
	created := &Role{
		ID:          uuid.NewString(),
		Scope:       input.Scope,
		Name:        name,
		Description: input.Description,
		Default:     input.Default,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.store.Put(ctx, created); err != nil {
		return nil, err
	}

	r.recordAudit(ctx, audit.EventRoleCreate, created)
	r.log.WithField("role", fmt.Sprintf("%s_%s", created.Scope, created.Name)).Info("role created")
	return created, nil
}

// Update replaces the description, default flag and permission table
// of an existing custom role. Absent roles and system roles are
// rejected.
func (r *Registry) Update(ctx context.Context, input UpdateRole) (*Role, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	permissions, err := validatePermissions(input.Scope, input.Permissions)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.Get(ctx, input.Scope, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Scope: input.Scope, Name: name}
	}
	if existing.System {
		return nil, &ReservedNameError{Name: name}
	}

	existing.Description = input.Description
	existing.Default = input.Default
	existing.Permissions = permissions
	existing.UpdatedAt = time.Now()
	if err := r.store.Put(ctx, existing); err != nil {
		return nil, err
	}

	r.recordAudit(ctx, audit.EventRoleUpdate, existing)
	r.log.WithField("role", fmt.Sprintf("%s_%s", existing.Scope, existing.Name)).Info("role updated")
	return existing, nil
}

// recordAudit emits a role change event. Audit failures degrade to a
// warning; the role write has already committed.
func (r *Registry) recordAudit(ctx context.Context, event audit.EventType, changed *Role) {
	err := r.auditLog.Record(ctx, audit.Event{
		Type:   event,
		UserID: observability.GetUserID(ctx),
		Metadata: map[string]string{
			"role_scope": string(changed.Scope),
			"role_name":  changed.Name,
		},
	})
	if err != nil {
		r.log.WithError(err).Warn("audit record failed")
	}
}

var nameSeparators = regexp.MustCompile(`[^\w]+`)

// normalizeName converts a free-form role name to its canonical
// upper-snake identifier and rejects reserved system names.
func normalizeName(name string) (string, error) {
	id := strings.TrimSpace(strings.ToUpper(name))
	id = nameSeparators.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return "", fmt.Errorf("role name must not be empty")
	}
	if IsSystemName(id) {
		return "", &ReservedNameError{Name: id}
	}
	return id, nil
}

func validatePermissions(scope perm.Scope, t perm.Table) (perm.Table, error) {
	if _, err := perm.ParseScope(string(scope)); err != nil {
		return nil, err
	}
	permissions := t.Clone()
	if err := permissions.Normalize(); err != nil {
		return nil, err
	}
	for key := range permissions {
		if _, err := perm.FindByScopeAndName(scope, key); err != nil {
			return nil, err
		}
	}
	return permissions, nil
}

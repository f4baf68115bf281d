package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/warden/pkg/async"
	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/perm"
	"github.com/platinummonkey/warden/pkg/role"
)

// UserDirectory resolves user ids to directory records for member
// view enrichment and notification recipients.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (*User, error)
}

// Notifier delivers membership notifications. Implementations log
// their own failures; nothing propagates back to the mutation.
type Notifier interface {
	MemberAdded(ctx context.Context, m *Membership, recipientEmail string) error
}

const notifyTimeout = 10 * time.Second

// Mutator validates and applies membership writes, guarding the
// primary-owner and group scope rules. directory, notifier and
// auditLog may be nil.
type Mutator struct {
	store     Store
	roles     RoleFinder
	directory UserDirectory
	notifier  Notifier
	auditLog  audit.Logger
	log       *observability.Logger
	metrics   *observability.Metrics
}

// NewMutator creates a membership mutator.
func NewMutator(store Store, roles RoleFinder, directory UserDirectory, notifier Notifier,
	auditLog audit.Logger, log *observability.Logger, metrics *observability.Metrics) *Mutator {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Mutator{
		store:     store,
		roles:     roles,
		directory: directory,
		notifier:  notifier,
		auditLog:  auditLog,
		log:       log,
		metrics:   metrics,
	}
}

// AddOrUpdateMember assigns the (roleScope, roleName) role to userID
// on the reference, creating the membership if none exists. A "member
// added" notification is dispatched only on creation; role changes and
// no-op refreshes persist silently.
func (m *Mutator) AddOrUpdateMember(ctx context.Context, ref Reference, userID string, roleScope perm.Scope, roleName string) (*MemberView, error) {
	ref = ref.Canonical()
	if _, err := ParseReferenceType(string(ref.Type)); err != nil {
		return nil, err
	}

	assigned, err := m.roles.FindByScopeAndName(ctx, roleScope, roleName)
	if err != nil {
		return nil, &TechnicalError{Op: fmt.Sprintf("role %s_%s lookup", roleScope, roleName), Err: err}
	}
	if assigned == nil {
		return nil, &role.NotFoundError{Scope: roleScope, Name: roleName}
	}

	if ref.Type == RefGroup {
		if roleScope == perm.ScopeManagement || roleScope == perm.ScopePortal {
			m.reject("group_scope")
			return nil, &NotAuthorizedError{
				Reference: ref, RoleScope: roleScope, RoleName: roleName,
				Reason: "group memberships may only carry API, APPLICATION or GROUP scoped roles",
			}
		}
		if assigned.Name == role.SystemPrimaryOwner {
			m.reject("primary_owner_via_group")
			return nil, &NotAuthorizedError{
				Reference: ref, RoleScope: roleScope, RoleName: roleName,
				Reason: "primary ownership must be a direct membership",
			}
		}
	}

	existing, err := m.store.Get(ctx, userID, ref)
	if err != nil {
		return nil, &TechnicalError{Op: "membership lookup", Err: err}
	}
	if existing != nil && existing.Roles[roleScope] == role.SystemPrimaryOwner && assigned.Name != role.SystemPrimaryOwner {
		m.reject("primary_owner_downgrade")
		return nil, &AlreadyPrimaryOwnerError{UserID: userID, Reference: ref}
	}

	if existing == nil {
		return m.create(ctx, ref, userID, roleScope, assigned)
	}
	return m.update(ctx, existing, roleScope, assigned)
}

func (m *Mutator) create(ctx context.Context, ref Reference, userID string, roleScope perm.Scope, assigned *role.Role) (*MemberView, error) {
	now := time.Now()
	created := &Membership{
		ID:        uuid.NewString(),
		UserID:    userID,
		Reference: ref,
		Roles:     map[perm.Scope]string{roleScope: assigned.Name},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Put(ctx, created); err != nil {
		return nil, &TechnicalError{Op: "membership create", Err: err}
	}
	m.count(ref, "create")
	m.recordAudit(ctx, audit.EventMembershipCreate, created, roleScope, assigned.Name, "")

	user := m.lookupUser(ctx, userID)
	m.notifyMemberAdded(created, user)

	m.log.WithFields(map[string]interface{}{
		"user":      userID,
		"reference": ref.String(),
		"role":      fmt.Sprintf("%s_%s", roleScope, assigned.Name),
	}).Info("member added")
	return m.view(created, user, assigned), nil
}

func (m *Mutator) update(ctx context.Context, existing *Membership, roleScope perm.Scope, assigned *role.Role) (*MemberView, error) {
	previous := existing.Roles[roleScope]
	changed := previous != assigned.Name

	updated := existing.Clone()
	updated.Roles[roleScope] = assigned.Name
	updated.UpdatedAt = time.Now()
	if err := m.store.Put(ctx, updated); err != nil {
		return nil, &TechnicalError{Op: "membership update", Err: err}
	}

	if changed {
		m.count(updated.Reference, "update")
		m.recordAudit(ctx, audit.EventMembershipUpdate, updated, roleScope, assigned.Name, previous)
		m.log.WithFields(map[string]interface{}{
			"user":      updated.UserID,
			"reference": updated.Reference.String(),
			"role":      fmt.Sprintf("%s_%s", roleScope, assigned.Name),
		}).Info("member role changed")
	} else {
		m.count(updated.Reference, "refresh")
	}

	return m.view(updated, m.lookupUser(ctx, updated.UserID), assigned), nil
}

func (m *Mutator) view(ms *Membership, user *User, assigned *role.Role) *MemberView {
	v := &MemberView{
		UserID:    ms.UserID,
		Reference: ms.Reference,
		Roles:     ms.Clone().Roles,
		Role:      assigned,
		CreatedAt: ms.CreatedAt,
		UpdatedAt: ms.UpdatedAt,
	}
	if user != nil {
		v.DisplayName = user.DisplayName
		v.Email = user.Email
	}
	return v
}

// lookupUser enriches the member view. Directory failures degrade the
// view instead of failing the mutation.
func (m *Mutator) lookupUser(ctx context.Context, userID string) *User {
	if m.directory == nil {
		return nil
	}
	user, err := m.directory.Lookup(ctx, userID)
	if err != nil {
		m.log.WithError(err).WithField("user", userID).Warn("user directory lookup failed")
		return nil
	}
	return user
}

// notifyMemberAdded dispatches the notification after the membership
// is durably committed. Fire-and-forget: a sink failure is counted
// and logged, never returned.
func (m *Mutator) notifyMemberAdded(ms *Membership, user *User) {
	if m.notifier == nil {
		return
	}
	if user == nil || user.Email == "" {
		m.log.WithField("user", ms.UserID).Warn("member added notification skipped: no recipient email")
		return
	}
	member := ms.Clone()
	email := user.Email
	async.SafeGo(context.Background(), notifyTimeout, "member added notification", func(ctx context.Context) error {
		err := m.notifier.MemberAdded(ctx, member, email)
		if m.metrics != nil {
			if err != nil {
				m.metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			} else {
				m.metrics.NotificationsTotal.WithLabelValues("sent").Inc()
			}
		}
		return err
	})
}

func (m *Mutator) recordAudit(ctx context.Context, event audit.EventType, ms *Membership, roleScope perm.Scope, roleName, previous string) {
	metadata := map[string]string{
		"role_scope": string(roleScope),
		"role_name":  roleName,
	}
	if previous != "" {
		metadata["previous_role_name"] = previous
	}
	err := m.auditLog.Record(ctx, audit.Event{
		Type:          event,
		UserID:        ms.UserID,
		ReferenceType: string(ms.Reference.Type),
		ReferenceID:   ms.Reference.ID,
		Metadata:      metadata,
	})
	if err != nil {
		m.log.WithError(err).Warn("audit record failed")
	}
}

func (m *Mutator) count(ref Reference, operation string) {
	if m.metrics == nil {
		return
	}
	m.metrics.MembershipWritesTotal.WithLabelValues(string(ref.Type), operation).Inc()
}

func (m *Mutator) reject(reason string) {
	if m.metrics == nil {
		return
	}
	m.metrics.MembershipRejections.WithLabelValues(reason).Inc()
}

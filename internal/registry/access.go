package registry

import "github.com/iliyamo/ticket-registry/internal/model"

// Access control is a flat two-set membership model: ADMIN holders may run
// lifecycle operations, the SUPER_ADMIN holders may grant and revoke ADMIN.
// At genesis the deploying identity holds both.  This file owns the two
// sets; the lifecycle operations call requireAdmin before touching any
// ticket state so that an unauthorized caller learns nothing from the
// error beyond the rejection itself.

// requireAdmin is a pure predicate with no side effects.  Callers hold the
// lock.
func (r *Registry) requireAdmin(caller model.Identity, op string) error {
	if _, ok := r.admins[caller]; !ok {
		return &AuthError{Identity: caller, Op: op}
	}
	return nil
}

func (r *Registry) requireSuperAdmin(caller model.Identity, op string) error {
	if _, ok := r.superAdmins[caller]; !ok {
		return &AuthError{Identity: caller, Op: op}
	}
	return nil
}

// GrantAdmin adds the identity to the ADMIN set.  Only a SUPER_ADMIN holder
// may call it; a plain admin attempting self-escalation is rejected with
// the same NotAuthorized error as any other caller.  Granting an identity
// that already holds ADMIN is a no-op that still commits and emits.
func (r *Registry) GrantAdmin(caller, identity model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireSuperAdmin(caller, "grantAdmin"); err != nil {
		return err
	}
	if identity == model.NoIdentity {
		return &InputError{Reason: "Identity missing"}
	}
	r.admins[identity] = struct{}{}
	r.emit(Event{Kind: KindAdminGranted, Identity: identity})
	return nil
}

// RevokeAdmin removes the identity from the ADMIN set.  SUPER_ADMIN only.
func (r *Registry) RevokeAdmin(caller, identity model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireSuperAdmin(caller, "revokeAdmin"); err != nil {
		return err
	}
	if identity == model.NoIdentity {
		return &InputError{Reason: "Identity missing"}
	}
	delete(r.admins, identity)
	r.emit(Event{Kind: KindAdminRevoked, Identity: identity})
	return nil
}

// IsAdmin reports whether the identity holds the ADMIN capability.
func (r *Registry) IsAdmin(identity model.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[identity]
	return ok
}

// IsSuperAdmin reports whether the identity holds the SUPER_ADMIN
// capability.
func (r *Registry) IsSuperAdmin(identity model.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.superAdmins[identity]
	return ok
}

package registry

import (
	"sync"
	"time"

	"github.com/iliyamo/ticket-registry/internal/model"
)

// DefaultValidity is the window between creation and the limit date when no
// override is configured: eighteen 30-day months.
const DefaultValidity = 18 * 30 * 24 * time.Hour

// Registry owns every ticket record and enforces all lifecycle invariants.
// One mutex is the single serialization point: each mutating call executes
// to completion, atomically committing or fully failing, before the next is
// considered.  Read queries take the shared lock and observe only fully
// committed state.
//
// There is no background sweeper.  Every entry point that touches a ticket
// first evaluates whether the ticket is past its limit date: a mutating
// call persists the flip to EXPIRED (emitting ticket.expired exactly once)
// before proceeding, while a read computes the effective status without
// persisting, so no caller ever observes a logically expired ticket in a
// non-expired status.
type Registry struct {
	mu       sync.RWMutex
	now      func() time.Time
	validity time.Duration

	tickets map[uint64]*model.Ticket
	nextID  uint64

	admins      map[model.Identity]struct{}
	superAdmins map[model.Identity]struct{}

	productURI map[string]string
	approved   map[uint64]model.Identity
	operators  map[model.Identity]map[model.Identity]struct{}

	events []Event
	notify func(Event)
}

// New builds an empty registry.  The genesis identity holds both ADMIN and
// SUPER_ADMIN.  A non-positive validity falls back to DefaultValidity.
func New(genesis model.Identity, validity time.Duration) *Registry {
	if validity <= 0 {
		validity = DefaultValidity
	}
	r := &Registry{
		now:         func() time.Time { return time.Now().UTC() },
		validity:    validity,
		tickets:     make(map[uint64]*model.Ticket),
		admins:      make(map[model.Identity]struct{}),
		superAdmins: make(map[model.Identity]struct{}),
		productURI:  make(map[string]string),
		approved:    make(map[uint64]model.Identity),
		operators:   make(map[model.Identity]map[model.Identity]struct{}),
	}
	r.admins[genesis] = struct{}{}
	r.superAdmins[genesis] = struct{}{}
	return r
}

// SetNotifier registers a callback invoked synchronously after each
// committed mutation, in commit order.  It runs under the registry lock:
// it must not call back into the registry and should only hand the event
// off (e.g. to a channel).  Set it once, before serving calls.
func (r *Registry) SetNotifier(fn func(Event)) { r.notify = fn }

// ticket looks up a record.  Callers hold the lock.
func (r *Registry) ticket(id uint64) (*model.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, &IDError{ID: id}
	}
	return t, nil
}

// effectiveStatus is the status a caller must observe at instant now,
// regardless of what storage still says.
func effectiveStatus(t *model.Ticket, now time.Time) model.Status {
	if t.Status != model.StatusExpired && !now.Before(t.LimitDate) {
		return model.StatusExpired
	}
	return t.Status
}

// expireIfDue flips a past-due ticket to EXPIRED in storage and emits the
// one-time ticket.expired event.  Idempotent: a ticket already flipped
// emits nothing.  Returns whether the ticket is expired after the check.
// Callers hold the write lock.
func (r *Registry) expireIfDue(t *model.Ticket) bool {
	if t.Status == model.StatusExpired {
		return true
	}
	if r.now().Before(t.LimitDate) {
		return false
	}
	t.Status = model.StatusExpired
	t.CenterCode = model.UnsetCenterCode
	r.emit(Event{Kind: KindTicketExpired, TicketID: ref(t.ID)})
	return true
}

// mayAct reports whether the caller may act on the ticket as its owner:
// the owner itself, the per-ticket approved delegate, or an identity the
// owner approved for all of its tickets.  Callers hold the lock.
func (r *Registry) mayAct(caller model.Identity, t *model.Ticket) bool {
	if caller == model.NoIdentity {
		return false
	}
	if caller == t.Owner || r.approved[t.ID] == caller {
		return true
	}
	ops, ok := r.operators[t.Owner]
	if !ok {
		return false
	}
	_, ok = ops[caller]
	return ok
}

// CreateTicket mints a new ticket owned by owner.  Admin only.  The limit
// date is set to now plus the configured validity window and the id is the
// next value of a monotonically increasing counter starting at 0.
func (r *Registry) CreateTicket(caller, owner model.Identity, productCode string, price uint64) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "create"); err != nil {
		return model.Ticket{}, err
	}
	if owner == model.NoIdentity {
		return model.Ticket{}, &InputError{Reason: "Owner missing"}
	}
	if productCode == "" {
		return model.Ticket{}, &InputError{Reason: "Product missing"}
	}
	now := r.now()
	t := &model.Ticket{
		ID:          r.nextID,
		Owner:       owner,
		ProductCode: productCode,
		Price:       price,
		Status:      model.StatusAvailable,
		CenterCode:  model.UnsetCenterCode,
		LimitDate:   now.Add(r.validity),
		CreatedAt:   now,
	}
	r.nextID++
	r.tickets[t.ID] = t
	r.emit(Event{Kind: KindTicketCreated, TicketID: ref(t.ID), Owner: owner, ProductCode: productCode})
	return *t, nil
}

// Lock associates an AVAILABLE ticket with a servicing center, optionally
// recording the scheduled activity date.  Admin only.  Pass a zero
// reservation to leave it unset.
func (r *Registry) Lock(caller model.Identity, id uint64, centerCode string, reservation time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "lock"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if centerCode == "" || centerCode == model.UnsetCenterCode {
		return &InputError{Reason: "Center missing"}
	}
	if t.Status != model.StatusAvailable {
		return &StateError{ID: id, Status: t.Status}
	}
	if !reservation.IsZero() {
		if !reservation.After(r.now()) {
			return &DateError{Date: reservation, Reason: "In past"}
		}
		if reservation.After(t.LimitDate) {
			return &DateError{Date: reservation, Reason: "After limit"}
		}
	}
	t.Status = model.StatusLocked
	t.CenterCode = centerCode
	t.ReservationDate = reservation
	r.emit(Event{Kind: KindTicketLocked, TicketID: ref(id), CenterCode: centerCode})
	return nil
}

// Unlock releases a LOCKED ticket back to AVAILABLE.  The caller must name
// the center holding the lock; a non-matching code is reported as invalid
// input ("Center not matching"), not as a state conflict.
func (r *Registry) Unlock(caller model.Identity, id uint64, centerCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "unlock"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if centerCode == "" {
		return &InputError{Reason: "Center missing"}
	}
	if t.Status != model.StatusLocked {
		return &StateError{ID: id, Status: t.Status}
	}
	if centerCode != t.CenterCode {
		return &InputError{Reason: "Center not matching"}
	}
	t.Status = model.StatusAvailable
	t.CenterCode = model.UnsetCenterCode
	t.ReservationDate = time.Time{}
	r.emit(Event{Kind: KindTicketUnlocked, TicketID: ref(id)})
	return nil
}

// Use marks a LOCKED ticket as consumed: the activity happened and the
// record becomes a collectible.  The reservation date is kept as history;
// the center lock is released.
func (r *Registry) Use(caller model.Identity, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "use"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if t.Status != model.StatusLocked {
		return &StateError{ID: id, Status: t.Status}
	}
	t.Status = model.StatusCollector
	t.CenterCode = model.UnsetCenterCode
	r.emit(Event{Kind: KindTicketUsed, TicketID: ref(id)})
	return nil
}

// PutForSale lists an AVAILABLE or COLLECTOR ticket.  Owner or an approved
// delegate only.
func (r *Registry) PutForSale(caller model.Identity, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if !r.mayAct(caller, t) {
		return &AuthError{Identity: caller, Op: "putForSale"}
	}
	if t.Status != model.StatusAvailable && t.Status != model.StatusCollector {
		return &StateError{ID: id, Status: t.Status}
	}
	t.Status = model.StatusOnSale
	r.emit(Event{Kind: KindTicketForSale, TicketID: ref(id)})
	return nil
}

// Buy transfers an ON_SALE ticket to the caller.  The current owner can
// never buy its own ticket: on an ON_SALE ticket that is rejected as
// invalid input, on any other status as an invalid state.
func (r *Registry) Buy(caller model.Identity, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller == model.NoIdentity {
		return &InputError{Reason: "Buyer missing"}
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if caller == t.Owner {
		if t.Status == model.StatusOnSale {
			return &InputError{Reason: "Buyer is owner"}
		}
		return &StateError{ID: id, Status: t.Status}
	}
	if t.Status != model.StatusOnSale {
		return &StateError{ID: id, Status: t.Status}
	}
	t.Owner = caller
	t.Status = model.StatusAvailable
	t.CenterCode = model.UnsetCenterCode
	t.ReservationDate = time.Time{}
	delete(r.approved, id)
	r.emit(Event{Kind: KindTicketSold, TicketID: ref(id), Owner: caller})
	return nil
}

// MarkExpired flips any non-EXPIRED ticket to the terminal EXPIRED state.
// Admin only.  A ticket already past its limit date is flipped by the
// implicit check and the call succeeds without a second event; a ticket
// already stored as EXPIRED is rejected.
func (r *Registry) MarkExpired(caller model.Identity, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "markExpired"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if t.Status == model.StatusExpired {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if r.expireIfDue(t) {
		return nil
	}
	t.Status = model.StatusExpired
	t.CenterCode = model.UnsetCenterCode
	r.emit(Event{Kind: KindTicketExpired, TicketID: ref(id)})
	return nil
}

// SetLimitDate moves the validity deadline of a non-expired ticket.  Admin
// only.  The new date must be strictly in the future and must not fall
// before an already scheduled reservation.
func (r *Registry) SetLimitDate(caller model.Identity, id uint64, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "setLimitDate"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if !date.After(r.now()) {
		return &DateError{Date: date, Reason: "In past"}
	}
	if !t.ReservationDate.IsZero() && date.Before(t.ReservationDate) {
		return &DateError{Date: date, Reason: "Before reservation"}
	}
	t.LimitDate = date
	r.emit(Event{Kind: KindLimitDateSet, TicketID: ref(id), Date: &date})
	return nil
}

// SetReservationDate schedules the activity of a LOCKED ticket.  Admin
// only.  The date must be strictly in the future and must not exceed the
// limit date.
func (r *Registry) SetReservationDate(caller model.Identity, id uint64, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "setReservationDate"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	if r.expireIfDue(t) {
		return &StateError{ID: id, Status: model.StatusExpired}
	}
	if t.Status != model.StatusLocked {
		return &StateError{ID: id, Status: t.Status}
	}
	if !date.After(r.now()) {
		return &DateError{Date: date, Reason: "In past"}
	}
	if date.After(t.LimitDate) {
		return &DateError{Date: date, Reason: "After limit"}
	}
	t.ReservationDate = date
	r.emit(Event{Kind: KindReservationDateSet, TicketID: ref(id), Date: &date})
	return nil
}

// Transfer hands the ticket to another identity.  Owner or an approved
// delegate only.  A non-expired ticket comes out AVAILABLE with the center
// lock and reservation cleared, exactly as after a sale; an EXPIRED ticket
// stays EXPIRED and only changes hands, since expired records remain
// transferable collectibles.
func (r *Registry) Transfer(caller model.Identity, id uint64, to model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == model.NoIdentity {
		return &InputError{Reason: "Recipient missing"}
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	r.expireIfDue(t)
	if !r.mayAct(caller, t) {
		return &AuthError{Identity: caller, Op: "transfer"}
	}
	from := t.Owner
	t.Owner = to
	if t.Status != model.StatusExpired {
		t.Status = model.StatusAvailable
		t.CenterCode = model.UnsetCenterCode
		t.ReservationDate = time.Time{}
	}
	delete(r.approved, id)
	r.emit(Event{Kind: KindTicketTransferred, TicketID: ref(id), Owner: to, Identity: from})
	return nil
}

// Approve designates a single delegate allowed to list and transfer the
// ticket on the owner's behalf.  Owner or an all-tickets operator only.
// An empty delegate clears the approval.  Approvals are also cleared
// whenever ownership changes.
func (r *Registry) Approve(caller model.Identity, id uint64, delegate model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	r.expireIfDue(t)
	// Only the owner or an all-tickets operator may manage approvals; the
	// current per-ticket delegate may not hand the approval to someone else.
	isOperator := false
	if ops, ok := r.operators[t.Owner]; ok {
		_, isOperator = ops[caller]
	}
	if caller == model.NoIdentity || (caller != t.Owner && !isOperator) {
		return &AuthError{Identity: caller, Op: "approve"}
	}
	if delegate == model.NoIdentity {
		delete(r.approved, id)
	} else {
		r.approved[id] = delegate
	}
	r.emit(Event{Kind: KindApprovalSet, TicketID: ref(id), Identity: delegate})
	return nil
}

// SetOperator approves or revokes an identity as operator for every ticket
// the caller owns now or later.
func (r *Registry) SetOperator(caller, operator model.Identity, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller == model.NoIdentity {
		return &InputError{Reason: "Identity missing"}
	}
	if operator == model.NoIdentity {
		return &InputError{Reason: "Operator missing"}
	}
	if approved {
		if r.operators[caller] == nil {
			r.operators[caller] = make(map[model.Identity]struct{})
		}
		r.operators[caller][operator] = struct{}{}
	} else {
		delete(r.operators[caller], operator)
	}
	r.emit(Event{Kind: KindOperatorSet, Owner: caller, Identity: operator, Approved: approved})
	return nil
}

// GetTicket returns a copy of the record with its effective status.  A
// past-due ticket is reported EXPIRED (center code reset in the copy) even
// when a mutating call has not yet persisted the flip.
func (r *Registry) GetTicket(id uint64) (model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, err := r.ticket(id)
	if err != nil {
		return model.Ticket{}, err
	}
	out := *t
	out.Status = effectiveStatus(t, r.now())
	if out.Status == model.StatusExpired {
		out.CenterCode = model.UnsetCenterCode
	}
	return out, nil
}

// IsExpired reports whether the ticket is past its limit date or stored as
// EXPIRED.
func (r *Registry) IsExpired(id uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, err := r.ticket(id)
	if err != nil {
		return false, err
	}
	return effectiveStatus(t, r.now()) == model.StatusExpired, nil
}

// OwnerOf returns the current owner of the ticket.
func (r *Registry) OwnerOf(id uint64) (model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, err := r.ticket(id)
	if err != nil {
		return model.NoIdentity, err
	}
	return t.Owner, nil
}

// Count returns the number of tickets ever created.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tickets)
}

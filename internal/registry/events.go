package registry

import (
	"time"

	"github.com/iliyamo/ticket-registry/internal/model"
)

// Event kinds.  One of these is emitted by every mutating call that
// commits; external consumers subscribe to the broker feed rather than
// polling the registry.
const (
	KindTicketCreated      = "ticket.created"
	KindTicketLocked       = "ticket.locked"
	KindTicketUnlocked     = "ticket.unlocked"
	KindTicketUsed         = "ticket.used"
	KindTicketForSale      = "ticket.for_sale"
	KindTicketSold         = "ticket.sold"
	KindTicketExpired      = "ticket.expired"
	KindTicketTransferred  = "ticket.transferred"
	KindLimitDateSet       = "ticket.limit_date_set"
	KindReservationDateSet = "ticket.reservation_date_set"
	KindAdminGranted       = "admin.granted"
	KindAdminRevoked       = "admin.revoked"
	KindProductURISet      = "uri.product_set"
	KindTicketURISet       = "uri.ticket_set"
	KindApprovalSet        = "approval.set"
	KindOperatorSet        = "approval.operator_set"
)

// Event is one record of the append-only notification log.  Fields beyond
// Seq, Kind and At are populated per kind:
//
//	Owner    – the owning identity after the operation (creation owner,
//	           buyer, transfer recipient, operator-set principal).
//	Identity – the counterpart identity (previous owner on transfer, the
//	           granted/revoked admin, the approved delegate or operator).
//	Date     – the date written by the two date setters.
//	Approved – the delegation flag carried by approval.operator_set.
type Event struct {
	Seq         uint64         // 1-based position in the log, totally ordered
	Kind        string         // one of the Kind constants
	At          time.Time      // caller-visible time of the committing call
	TicketID    *uint64        // affected ticket, nil for admin/operator events
	Owner       model.Identity // see above
	Identity    model.Identity // see above
	ProductCode string         // product line on creation and product URI sets
	CenterCode  string         // locking facility on ticket.locked
	URI         string         // new value on the two URI setters
	Date        *time.Time     // new value on the two date setters
	Approved    bool           // delegation flag on approval.operator_set
}

func ref(id uint64) *uint64 { return &id }

// emit appends the event to the log, stamping sequence and time, and hands
// a copy to the notifier.  Callers hold the write lock.
func (r *Registry) emit(ev Event) {
	ev.Seq = uint64(len(r.events)) + 1
	ev.At = r.now()
	r.events = append(r.events, ev)
	if r.notify != nil {
		r.notify(ev)
	}
}

// Events returns a copy of the committed event log starting after the given
// sequence number.  Pass 0 for the full log.
func (r *Registry) Events(sinceSeq uint64) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sinceSeq >= uint64(len(r.events)) {
		return nil
	}
	out := make([]Event, len(r.events)-int(sinceSeq))
	copy(out, r.events[sinceSeq:])
	return out
}

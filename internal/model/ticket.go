package model

import "time"

// Identity is an opaque, globally unique caller or owner reference.
// Identities arrive on requests via the bearer token subject and are never
// interpreted by the registry beyond equality comparison.
type Identity string

// NoIdentity is the null identity.  No existing ticket may be owned by it
// and no capability may be granted to it.
const NoIdentity Identity = ""

// Status enumerates the lifecycle states of a ticket.  No other value is
// ever stored or reported.
type Status string

const (
    StatusAvailable Status = "AVAILABLE" // purchasable/lockable, the resting state
    StatusLocked    Status = "LOCKED"    // held by a center for a scheduled activity
    StatusOnSale    Status = "ON_SALE"   // listed by its owner, open to any buyer
    StatusCollector Status = "COLLECTOR" // used; kept by the owner as a collectible
    StatusExpired   Status = "EXPIRED"   // past its limit date; terminal
)

// UnsetCenterCode is the sentinel stored in CenterCode whenever a ticket is
// not LOCKED.  A real center code never equals it.
const UnsetCenterCode = "000000"

// Ticket is one lifecycle record in the registry.
//
// Fields:
//  ID              – unique, immutable, assigned sequentially from 0.
//  Owner           – identity holding the asset; changes on buy/transfer.
//  ProductCode     – non-empty product line code, immutable after creation.
//  Price           – purchase amount, immutable after creation.
//  Status          – current lifecycle state (see Status).
//  CenterCode      – facility holding the lock; UnsetCenterCode otherwise.
//  LimitDate       – deadline after which the ticket is void.
//  ReservationDate – scheduled activity date; zero until a lock sets it.
//  SpecificURI     – per-ticket metadata override; empty until set.
//  CreatedAt       – creation timestamp.
type Ticket struct {
    ID              uint64    // registry key
    Owner           Identity  // current owner, never NoIdentity
    ProductCode     string    // product line, immutable
    Price           uint64    // amount paid at creation, immutable
    Status          Status    // lifecycle state
    CenterCode      string    // locking facility or sentinel
    LimitDate       time.Time // absolute validity deadline
    ReservationDate time.Time // scheduled activity, zero when unset
    SpecificURI     string    // metadata override, empty when unset
    CreatedAt       time.Time // when the record was created
}

package registry

import "github.com/iliyamo/ticket-registry/internal/model"

// Metadata resolution: a per-product default URI table plus the per-ticket
// override stored on the record itself.  The specific value wins over the
// general one, so an operator can correct a single ticket's descriptor
// without disturbing the shared default for its product line.

// SetProductURI stores the default metadata URI for a product code.  Admin
// only.  The product does not need any existing ticket.  Setting an empty
// URI clears the default.
func (r *Registry) SetProductURI(caller model.Identity, productCode, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "setProductURI"); err != nil {
		return err
	}
	if productCode == "" {
		return &InputError{Reason: "Product missing"}
	}
	if uri == "" {
		delete(r.productURI, productCode)
	} else {
		r.productURI[productCode] = uri
	}
	r.emit(Event{Kind: KindProductURISet, ProductCode: productCode, URI: uri})
	return nil
}

// SetTicketURI stores a per-ticket metadata override.  Admin only; the
// ticket must exist.  Setting an empty URI clears the override so the
// resolution falls back to the product default.
func (r *Registry) SetTicketURI(caller model.Identity, id uint64, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller, "setTicketURI"); err != nil {
		return err
	}
	t, err := r.ticket(id)
	if err != nil {
		return err
	}
	t.SpecificURI = uri
	r.emit(Event{Kind: KindTicketURISet, TicketID: ref(id), URI: uri})
	return nil
}

// ResolveURI answers "what descriptor URI represents ticket id": the
// ticket-level override when set, else the product-level default, else
// empty.
func (r *Registry) ResolveURI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, err := r.ticket(id)
	if err != nil {
		return "", err
	}
	if t.SpecificURI != "" {
		return t.SpecificURI, nil
	}
	return r.productURI[t.ProductCode], nil
}

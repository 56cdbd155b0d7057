package models

// RequestStatus is the status code the backend stores on a supplier request
type RequestStatus string

const (
	StatusPending  RequestStatus = "p"
	StatusSuccess  RequestStatus = "s"
	StatusRejected RequestStatus = "r"
	StatusPartial  RequestStatus = "pt"
)

// ActionKind names an administrative action on a supplier request
type ActionKind string

const (
	ActionSuccess  ActionKind = "success"
	ActionReassign ActionKind = "reassign"
	ActionReject   ActionKind = "reject"
)

// SupplierRequest represents one supplier's obligation to deliver a quantity of
// one product across one or more customer orders
type SupplierRequest struct {
	ID             uint          `json:"id"`
	Supplier       uint          `json:"supplier"`
	Product        uint          `json:"product"`
	Orders         []uint        `json:"orders"`
	TotalQuantity  int           `json:"total_quantity"`
	Status         RequestStatus `json:"status"`
	AmountReceived int           `json:"amount_received"`
	NewSupplier    *uint         `json:"new_supplier"`    // set once part of the request was reassigned
	ReassignedFrom *uint         `json:"reassigned_from"` // original request this one was split from
	CreatedAt      string        `json:"created_at"`
}

// State derives the tagged lifecycle state from the raw status and the
// reassignment fields. Terminal statuses win over a stale new_supplier value.
func (r SupplierRequest) State() RequestState {
	switch r.Status {
	case StatusSuccess:
		return Succeeded{}
	case StatusRejected:
		return Rejected{}
	}

	if r.NewSupplier != nil {
		return Partial{
			OriginalSupplier:    r.Supplier,
			NewSupplier:         *r.NewSupplier,
			TransferredQuantity: r.Outstanding(),
		}
	}
	if r.Status == StatusPartial {
		return Partial{OriginalSupplier: r.Supplier, TransferredQuantity: r.Outstanding()}
	}
	return Pending{}
}

// DisplayStatus returns the badge label shown for the request
func (r SupplierRequest) DisplayStatus() string {
	return r.State().Label()
}

// Actionable reports whether success, reassign or reject may be applied.
// Only the raw pending status qualifies: a pending request that already has a
// new supplier still displays as partial but stays actionable, and unrecognized
// statuses display as pending but are never actionable.
func (r SupplierRequest) Actionable() bool {
	return r.Status == StatusPending
}

// AllowedActions lists the actions the console may offer for the request
func (r SupplierRequest) AllowedActions() []ActionKind {
	if !r.Actionable() {
		return []ActionKind{}
	}
	return []ActionKind{ActionSuccess, ActionReassign, ActionReject}
}

// Outstanding is the quantity not yet received from the current supplier
func (r SupplierRequest) Outstanding() int {
	if r.AmountReceived >= r.TotalQuantity {
		return 0
	}
	return r.TotalQuantity - r.AmountReceived
}

// SupplierRequestWithDetails is a supplier request joined with its referenced records.
// Lookups that failed leave the matching field nil.
type SupplierRequestWithDetails struct {
	SupplierRequest
	SupplierDetails    *User        `json:"supplier_details"`
	ProductDetails     *Product     `json:"product_details"`
	OrderDetails       []Order      `json:"order_details"`
	NewSupplierDetails *User        `json:"new_supplier_details"`
	DisplayStatus      string       `json:"display_status"`
	AllowedActions     []ActionKind `json:"allowed_actions"`
}

// NewSupplierRequestWithDetails wraps a request and fills in the derived display fields
func NewSupplierRequestWithDetails(r SupplierRequest) SupplierRequestWithDetails {
	return SupplierRequestWithDetails{
		SupplierRequest: r,
		OrderDetails:    []Order{},
		DisplayStatus:   r.DisplayStatus(),
		AllowedActions:  r.AllowedActions(),
	}
}

package models

// Badge labels
const (
	LabelPending  = "Pending"
	LabelSuccess  = "Success"
	LabelRejected = "Rejected"
	LabelPartial  = "Partial"
)

// RequestState is the lifecycle state of a supplier request.
// Implementations: Pending, Succeeded, Rejected, Partial.
type RequestState interface {
	Label() string
	Terminal() bool
	isRequestState()
}

// Pending is the initial state assigned by the backend
type Pending struct{}

// Succeeded means the supplier delivered and the buy price was recorded
type Succeeded struct{}

// Rejected means the request was rejected and is closed
type Rejected struct{}

// Partial means part of the request was reassigned to another supplier
type Partial struct {
	OriginalSupplier    uint
	NewSupplier         uint // zero when the backend reported "pt" without a new supplier
	TransferredQuantity int
}

func (Pending) Label() string   { return LabelPending }
func (Succeeded) Label() string { return LabelSuccess }
func (Rejected) Label() string  { return LabelRejected }
func (Partial) Label() string   { return LabelPartial }

func (Pending) Terminal() bool   { return false }
func (Succeeded) Terminal() bool { return true }
func (Rejected) Terminal() bool  { return true }
func (Partial) Terminal() bool   { return false }

func (Pending) isRequestState()   {}
func (Succeeded) isRequestState() {}
func (Rejected) isRequestState()  {}
func (Partial) isRequestState()   {}

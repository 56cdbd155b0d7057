package services

import (
	"errors"
	"fmt"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/shopspring/decimal"
)

// Validation error codes
const (
	CodeNotActionable       = "NOT_ACTIONABLE"
	CodeBuyPriceRequired    = "BUY_PRICE_REQUIRED"
	CodeInvalidBuyPrice     = "INVALID_BUY_PRICE"
	CodeNewSupplierRequired = "NEW_SUPPLIER_REQUIRED"
	CodeSelfReassignment    = "SELF_REASSIGNMENT"
	CodeQuantityRequired    = "QUANTITY_REQUIRED"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeInvalidReference    = "INVALID_REFERENCE"
	CodeUnsupportedAction   = "UNSUPPORTED_ACTION"
)

// ValidationError is a pre-flight failure. No backend call is made when one is returned.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is (or wraps) a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CommandAddProduct is the kind of command that appends a product to an order
const CommandAddProduct models.ActionKind = "add_product"

// Command is a planned backend mutation
type Command struct {
	Kind      models.ActionKind
	RequestID uint
	Path      string
	Payload   interface{} // nil for commands without a body
}

// SuccessPayload is the body of a success command
type SuccessPayload struct {
	BuyPrice decimal.Decimal `json:"buy_price"`
}

// ReassignPayload is the body of a reassign command
type ReassignPayload struct {
	NewSupplier uint            `json:"new_supplier"`
	Quantity    int             `json:"quantity"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
}

// AddProductPayload is the body of an add-product command
type AddProductPayload struct {
	OrderID   uint `json:"order_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Action is an administrative action on a supplier request.
// Implementations: SuccessAction, ReassignAction, RejectAction.
type Action interface {
	Kind() models.ActionKind
}

// SuccessAction marks a request fulfilled at the given buy price
type SuccessAction struct {
	BuyPrice decimal.NullDecimal
}

// ReassignAction moves quantity units of a request to another supplier
type ReassignAction struct {
	NewSupplier *uint
	Quantity    *int
	BuyPrice    decimal.NullDecimal
}

// RejectAction closes a request as rejected
type RejectAction struct{}

func (SuccessAction) Kind() models.ActionKind  { return models.ActionSuccess }
func (ReassignAction) Kind() models.ActionKind { return models.ActionReassign }
func (RejectAction) Kind() models.ActionKind   { return models.ActionReject }

// Plan validates action against the request's current state and returns the
// backend command that applies it
func Plan(req models.SupplierRequest, action Action) (Command, error) {
	if !req.Actionable() {
		return Command{}, &ValidationError{
			Code:    CodeNotActionable,
			Message: fmt.Sprintf("Request %d has status %q; only pending requests accept actions", req.ID, req.Status),
		}
	}

	switch a := action.(type) {
	case SuccessAction:
		price, err := validateBuyPrice(a.BuyPrice)
		if err != nil {
			return Command{}, err
		}
		return Command{
			Kind:      models.ActionSuccess,
			RequestID: req.ID,
			Path:      fmt.Sprintf("/supplier/supplier-request/%d/success/", req.ID),
			Payload:   SuccessPayload{BuyPrice: price},
		}, nil

	case ReassignAction:
		if a.NewSupplier == nil || *a.NewSupplier == 0 {
			return Command{}, &ValidationError{Code: CodeNewSupplierRequired, Message: "New supplier is required"}
		}
		if *a.NewSupplier == req.Supplier {
			return Command{}, &ValidationError{Code: CodeSelfReassignment, Message: "Cannot reassign a request to its current supplier"}
		}
		if a.Quantity == nil {
			return Command{}, &ValidationError{Code: CodeQuantityRequired, Message: "Quantity is required"}
		}
		// Zero passes: the backend decides what an empty transfer means.
		if *a.Quantity < 0 {
			return Command{}, &ValidationError{Code: CodeInvalidQuantity, Message: "Quantity must not be negative"}
		}
		if outstanding := req.Outstanding(); *a.Quantity > outstanding {
			return Command{}, &ValidationError{
				Code:    CodeInvalidQuantity,
				Message: fmt.Sprintf("Quantity must not exceed the %d units not yet transferred", outstanding),
			}
		}
		price, err := validateBuyPrice(a.BuyPrice)
		if err != nil {
			return Command{}, err
		}
		return Command{
			Kind:      models.ActionReassign,
			RequestID: req.ID,
			Path:      fmt.Sprintf("/supplier/supplier-requests/%d/reassign/", req.ID),
			Payload: ReassignPayload{
				NewSupplier: *a.NewSupplier,
				Quantity:    *a.Quantity,
				BuyPrice:    price,
			},
		}, nil

	case RejectAction:
		return Command{
			Kind:      models.ActionReject,
			RequestID: req.ID,
			Path:      fmt.Sprintf("/supplier/supplier-requests/%d/reject/", req.ID),
		}, nil
	}

	return Command{}, &ValidationError{Code: CodeUnsupportedAction, Message: fmt.Sprintf("Unsupported action %T", action)}
}

// PlanAddProduct validates and builds the command that adds quantity units of a
// product to an existing order
func PlanAddProduct(orderID, productID uint, quantity int) (Command, error) {
	if orderID == 0 || productID == 0 {
		return Command{}, &ValidationError{Code: CodeInvalidReference, Message: "Order and product are required"}
	}
	if quantity <= 0 {
		return Command{}, &ValidationError{Code: CodeInvalidQuantity, Message: "Quantity must be greater than 0"}
	}
	return Command{
		Kind: CommandAddProduct,
		Path: "/supplier/supplier-requests/add-product/",
		Payload: AddProductPayload{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  quantity,
		},
	}, nil
}

// CandidateSuppliers returns the suppliers a request may be reassigned to
func CandidateSuppliers(req models.SupplierRequest, suppliers []models.User) []models.User {
	out := make([]models.User, 0, len(suppliers))
	for _, s := range suppliers {
		if s.ID == req.Supplier {
			continue
		}
		out = append(out, s)
	}
	return out
}

func validateBuyPrice(p decimal.NullDecimal) (decimal.Decimal, error) {
	if !p.Valid {
		return decimal.Decimal{}, &ValidationError{Code: CodeBuyPriceRequired, Message: "Buy price is required"}
	}
	if p.Decimal.IsNegative() {
		return decimal.Decimal{}, &ValidationError{Code: CodeInvalidBuyPrice, Message: "Buy price must not be negative"}
	}
	return p.Decimal, nil
}

package cart

import "errors"

var (
	ErrOutOfStock      = errors.New("cart: requested quantity out of stock")
	ErrItemNotFound    = errors.New("cart: item not in cart")
	ErrOperationFailed = errors.New("cart: operation failed")
	ErrInvalidLine     = errors.New("cart: invalid line item")
)

// FailureKind classifies a failed cart operation.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureOutOfStock      FailureKind = "out_of_stock"
	FailureItemNotFound    FailureKind = "item_not_found"
	FailureOperationFailed FailureKind = "operation_failed"
)

// KindOf maps err to its failure kind. Unclassified errors count as operation failures.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrOutOfStock):
		return FailureOutOfStock
	case errors.Is(err, ErrItemNotFound):
		return FailureItemNotFound
	default:
		return FailureOperationFailed
	}
}

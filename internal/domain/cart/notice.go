package cart

// Operation names one of the three cart mutations.
type Operation string

const (
	OpAddItem     Operation = "add_item"
	OpRemoveItem  Operation = "remove_item"
	OpSetQuantity Operation = "set_quantity"
)

// NoticeKind is the message class shown to the shopper.
type NoticeKind string

const (
	NoticeOutOfStock   NoticeKind = "out_of_stock"
	NoticeAddFailed    NoticeKind = "add_failed"
	NoticeRemoveFailed NoticeKind = "remove_failed"
	NoticeUpdateFailed NoticeKind = "update_failed"
)

var noticeMessages = map[NoticeKind]string{
	NoticeOutOfStock:   "Requested quantity is out of stock",
	NoticeAddFailed:    "Could not add the product",
	NoticeRemoveFailed: "Could not remove the product",
	NoticeUpdateFailed: "Could not change the product quantity",
}

// Notice is a user-visible message raised for a failed operation.
type Notice struct {
	Kind      NoticeKind
	Message   string
	Operation Operation
	ProductID int
}

// NoticeFor picks the single notice class for a failure of op.
// Out-of-stock wins regardless of operation; every other failure maps to the operation's failure class.
func NoticeFor(op Operation, productID int, kind FailureKind) Notice {
	nk := NoticeUpdateFailed
	switch {
	case kind == FailureOutOfStock:
		nk = NoticeOutOfStock
	case op == OpAddItem:
		nk = NoticeAddFailed
	case op == OpRemoveItem:
		nk = NoticeRemoveFailed
	}
	return Notice{
		Kind:      nk,
		Message:   noticeMessages[nk],
		Operation: op,
		ProductID: productID,
	}
}

package service

// NumberGenerator hands out unique, roughly time ordered document numbers
// printed on receipts and order confirmations.
type NumberGenerator interface {
	Next() int64
}

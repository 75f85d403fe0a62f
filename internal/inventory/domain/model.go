package domain

// Direction labels a stock movement.
type Direction string

const (
	DirectionRestock  Direction = "restock"
	DirectionDeduct   Direction = "deduct"
	DirectionAllocate Direction = "allocate"
)

// Line is one product quantity moved by the ledger.
type Line struct {
	ProductID int64
	Quantity  int64
}

package domain

type Status string

const (
	StatusCreated          Status = "created"
	StatusPaid             Status = "paid"
	StatusFulfilling       Status = "fulfilling"
	StatusPartiallyShipped Status = "partially_shipped"
	StatusShipped          Status = "shipped"
	StatusCompleted        Status = "completed"
	StatusCanceled         Status = "canceled"
	StatusReturned         Status = "returned"
	StatusRefunded         Status = "refunded"
)

var statusLabels = map[Status]string{
	StatusCreated:          "Created",
	StatusPaid:             "Paid",
	StatusFulfilling:       "Fulfilling",
	StatusPartiallyShipped: "Partially Shipped",
	StatusShipped:          "Shipped",
	StatusCompleted:        "Completed",
	StatusCanceled:         "Canceled",
	StatusReturned:         "Returned",
	StatusRefunded:         "Refunded",
}

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{
	StatusCreated,
	StatusPaid,
	StatusFulfilling,
	StatusPartiallyShipped,
	StatusShipped,
	StatusCompleted,
	StatusCanceled,
	StatusReturned,
	StatusRefunded,
}

// RevenueStatuses count towards sales figures.
var RevenueStatuses = []Status{
	StatusPaid,
	StatusFulfilling,
	StatusPartiallyShipped,
	StatusShipped,
	StatusCompleted,
}

// ParseStatus accepts only the exact lowercase status values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := statusLabels[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Label is the display name used in notes and receipts.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminalNegative reports whether goods are considered back in stock for
// an order in this status.
func (s Status) IsTerminalNegative() bool {
	switch s {
	case StatusCanceled, StatusRefunded, StatusReturned:
		return true
	}
	return false
}

package valueobjects

// OrderStatus is the order state machine. Allowed transitions:
//
//	pending -> paid -> delivered
//	paid -> partial
//	pending -> expired
//	pending -> cancelled
//
// delivered, partial, expired and cancelled are terminal; re-entering
// pending is never permitted.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusDelivered,
		OrderStatusPartial, OrderStatusExpired, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsPending() bool {
	return s == OrderStatusPending
}

func (s OrderStatus) IsPaid() bool {
	return s == OrderStatusPaid
}

// IsFinal reports whether the status admits no further transitions.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusPartial, OrderStatusExpired, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits s -> target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusExpired || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusDelivered || target == OrderStatusPartial
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

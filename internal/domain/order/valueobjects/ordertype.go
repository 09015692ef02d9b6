package valueobjects

// OrderType identifies the purchased good.
type OrderType string

const (
	OrderTypeSubscription OrderType = "subscription"
	OrderTypeDeposit      OrderType = "deposit"
	OrderTypeCurrencySwap OrderType = "currency_swap"
	OrderTypeNetworkFee   OrderType = "network_fee"
)

func NewOrderType(s string) (OrderType, bool) {
	t := OrderType(s)
	return t, t.IsValid()
}

func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeSubscription, OrderTypeDeposit, OrderTypeCurrencySwap, OrderTypeNetworkFee:
		return true
	default:
		return false
	}
}

func (t OrderType) IsDeposit() bool {
	return t == OrderTypeDeposit
}

// IsDisambiguated reports whether orders of this type carry an amount
// suffix. All chargeable types do: the receiving addresses have no memo
// field, so the amount itself is the only attribution signal.
func (t OrderType) IsDisambiguated() bool {
	return t.IsValid()
}

// RequiresDelivery reports whether a paid order of this type triggers an
// external fulfillment call. Deposits only credit the balance ledger.
func (t OrderType) RequiresDelivery() bool {
	return t.IsValid() && t != OrderTypeDeposit
}

func (t OrderType) String() string {
	return string(t)
}

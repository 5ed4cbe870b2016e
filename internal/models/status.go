package models

// OrderStatus is one stage in the fixed order lifecycle.
type OrderStatus string

const (
	StatusReceived  OrderStatus = "received"
	StatusPreparing OrderStatus = "preparing"
	StatusBaking    OrderStatus = "baking"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

// StatusSequence is the ordered list of stages every order moves through.
// Orders never skip a stage or move backward.
var StatusSequence = []OrderStatus{
	StatusReceived,
	StatusPreparing,
	StatusBaking,
	StatusReady,
	StatusDelivered,
}

// IsTerminal reports whether no further transitions occur after s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered
}

// IsValid reports whether s is one of the known lifecycle stages.
func (s OrderStatus) IsValid() bool {
	for _, st := range StatusSequence {
		if s == st {
			return true
		}
	}
	return false
}

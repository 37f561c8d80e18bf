package domain

// All is the filter value meaning "no constraint".
const All = "All"

type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusComplete   Status = "Complete"
)

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusComplete
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityNormal Priority = "Normal"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities for the active queue: High(3) > Normal(2) > Low(1).
// Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

type Source string

const (
	SourceCloverPOS Source = "Clover POS"
	SourceMobileApp Source = "Mobile App"
	SourceWebsite   Source = "Website"
)

func (s Source) Valid() bool {
	switch s {
	case SourceCloverPOS, SourceMobileApp, SourceWebsite:
		return true
	default:
		return false
	}
}

type OrderType string

const (
	OrderTypePickup   OrderType = "Pickup"
	OrderTypeDelivery OrderType = "Delivery"
	OrderTypeDineIn   OrderType = "Dine In"
	OrderTypeCurbside OrderType = "Curbside"
	OrderTypeTable    OrderType = "Table"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypePickup, OrderTypeDelivery, OrderTypeDineIn, OrderTypeCurbside, OrderTypeTable:
		return true
	default:
		return false
	}
}

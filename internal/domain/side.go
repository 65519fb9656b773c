package domain

// Side is the direction of an exchange order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsValid reports whether the side is one the exchange accepts.
func (s Side) IsValid() bool {
	switch s {
	case SideBuy, SideSell:
		return true
	}
	return false
}

// String returns the string representation of the side
func (s Side) String() string {
	return string(s)
}

package domain

// Decision is the binding adjudication outcome for a claim.
type Decision string

const (
	DecisionPay  Decision = "PAY"
	DecisionDeny Decision = "DENY"
	DecisionFlag Decision = "FLAG"
)

// Valid reports whether d is a member of the closed decision set.
func (d Decision) Valid() bool {
	switch d {
	case DecisionPay, DecisionDeny, DecisionFlag:
		return true
	}
	return false
}

package worker

// PolicyDecision is the worker's simplified two-outcome rule. Full
// adjudication belongs to the orchestrator pipeline; trigger-originated
// claims only decide between immediate payout and human review.
type PolicyDecision string

const (
	PolicyPay    PolicyDecision = "PAY"
	PolicyReview PolicyDecision = "REVIEW"
)

// EvaluatePolicy gates payout on the single protection-active flag.
func EvaluatePolicy(protectionActive bool) PolicyDecision {
	if protectionActive {
		return PolicyPay
	}
	return PolicyReview
}

package metrics

const namespace = "lcc"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

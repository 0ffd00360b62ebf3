package parking

type PaymentStatus string

const (
	PaymentUnprocessed  PaymentStatus = "unprocessed"
	PaymentUnsuccessful PaymentStatus = "unsuccessful" // checkout bill awaiting settlement
	PaymentProcessing   PaymentStatus = "processing"
	PaymentSuccessful   PaymentStatus = "successful"
	PaymentFailed       PaymentStatus = "failed"
)

var validNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentUnprocessed:  {PaymentProcessing: true, PaymentSuccessful: true, PaymentFailed: true},
	PaymentUnsuccessful: {PaymentProcessing: true, PaymentSuccessful: true, PaymentFailed: true},
	PaymentProcessing:   {PaymentProcessing: true, PaymentSuccessful: true, PaymentFailed: true},
	PaymentFailed:       {PaymentSuccessful: true}, // only a verified webhook revives a failed payment
	PaymentSuccessful:   {},
}

func CanTransition(from, to PaymentStatus) bool {
	return validNext[from][to]
}

// sourcesOf lists every status allowed to move into to.
func sourcesOf(to PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for _, from := range []PaymentStatus{
		PaymentUnprocessed, PaymentUnsuccessful, PaymentProcessing, PaymentFailed, PaymentSuccessful,
	} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccessful || s == PaymentFailed
}

package jobs

type JobType string

const (
	JobOfferSold        JobType = "offer.sold"
	JobPaymentReconcile JobType = "payment.reconcile"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobOfferSold, JobPaymentReconcile:
		return true
	default:
		return false
	}
}

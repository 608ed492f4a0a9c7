package saga

import "github.com/meridianledger/corebank/internal/platform/apperr"

// ErrCompensationFailed builds the typed error for a compensation step
// that itself fails. Compensation failures are never retried
// automatically; they raise an alert and require human action.
func ErrCompensationFailed(sagaID, stepName string, cause error) *apperr.Error {
	msg := "compensation step " + stepName + " failed for saga " + sagaID + ": manual intervention required"
	if cause != nil {
		msg += " (" + cause.Error() + ")"
	}

	return apperr.New(apperr.KindCompensation, "Saga", "COMPENSATION_FAILED", "Compensation Failed", msg)
}

package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrImmutable indicates an attempt to change a row that is no longer editable (e.g. a POSTED ledger).
	ErrImmutable = errors.New("immutable")
)

// Posting workflow failures. These are precondition or reference failures and are never retried.
var (
	ErrAlreadyPosted        = errors.New("already posted")
	ErrNothingToPost        = errors.New("nothing to post")
	ErrNothingToUnpost      = errors.New("nothing to unpost")
	ErrBalanceAlreadyPosted = errors.New("balance already posted")
	ErrAccountNotFound      = errors.New("account not found")
	ErrPeriodClosed         = errors.New("period closed")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrNegativeBalance      = errors.New("negative balance")
)

// ErrTransient marks store failures (deadlock, serialization conflict, lock timeout,
// dropped connection) that may succeed when the whole transaction is retried.
var ErrTransient = errors.New("transient store failure")

var codes = []struct {
	err  error
	code string
}{
	{ErrAlreadyPosted, "ALREADY_POSTED"},
	{ErrNothingToPost, "NOTHING_TO_POST"},
	{ErrNothingToUnpost, "NOTHING_TO_UNPOST"},
	{ErrBalanceAlreadyPosted, "BALANCE_ALREADY_POSTED"},
	{ErrAccountNotFound, "ACCOUNT_NOT_FOUND"},
	{ErrPeriodClosed, "PERIOD_CLOSED"},
	{ErrInvalidAmount, "INVALID_AMOUNT"},
	{ErrInvalidDate, "INVALID_DATE"},
	{ErrNegativeBalance, "NEGATIVE_BALANCE"},
	{ErrTransient, "STORE_UNAVAILABLE"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrConflict, "CONFLICT"},
	{ErrImmutable, "IMMUTABLE"},
	{ErrInvalid, "INVALID"},
}

// Code returns the machine-readable reason code for err, or "INTERNAL" when err
// does not wrap any known sentinel.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

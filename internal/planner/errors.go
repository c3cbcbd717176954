package planner

// insufficientMemoryError signals an expected capacity failure: no
// single-device or split placement fits even with margins. The public
// message is deliberately terse and never discloses device inventory;
// the detail string is for logs only.
type insufficientMemoryError struct {
	requiredBytes int64
	detail        string
}

func (e insufficientMemoryError) Error() string {
	return "insufficient accelerator memory for model load"
}

// Detail returns the verbose log-only diagnostic for a capacity failure.
func (e insufficientMemoryError) Detail() string { return e.detail }

// RequiredBytes returns the margined requirement that could not be met.
func (e insufficientMemoryError) RequiredBytes() int64 { return e.requiredBytes }

// ErrInsufficientMemory constructs an insufficientMemoryError.
func ErrInsufficientMemory(requiredBytes int64, detail string) error {
	return insufficientMemoryError{requiredBytes: requiredBytes, detail: detail}
}

// IsInsufficientMemory reports whether err is an expected capacity failure.
func IsInsufficientMemory(err error) bool {
	_, ok := err.(insufficientMemoryError)
	return ok
}

// CapacityDetail extracts the log-only diagnostic from a capacity failure,
// or "" when err is not one.
func CapacityDetail(err error) string {
	if e, ok := err.(insufficientMemoryError); ok {
		return e.detail
	}
	return ""
}

// invariantError signals a should-never-happen internal condition. Distinct
// from capacity failures so callers can page an operator instead of telling
// a user to free memory.
type invariantError struct{ msg string }

func (e invariantError) Error() string { return "planner invariant violated: " + e.msg }

// ErrInvariant constructs an invariantError.
func ErrInvariant(msg string) error { return invariantError{msg: msg} }

// IsInvariantViolation reports whether err indicates an internal defect.
func IsInvariantViolation(err error) bool {
	_, ok := err.(invariantError)
	return ok
}

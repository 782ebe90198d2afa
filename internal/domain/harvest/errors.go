package harvest

import "errors"

// ValidationError is a field-level problem caught before any network
// call. Field names the offending form field so the UI can keep focus on
// it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError means the harvest batch clashes with an existing record
// (already finalized, or live in a different location). Nothing was
// mutated unless the message says otherwise.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

var (
	// ErrNoRecords: the planning view had no row for the scanned
	// (harvest name, location) pair.
	ErrNoRecords = errors.New("no records found for this harvest name and location combination")

	// Data-quality problems in the first planner row. Operators cannot
	// fix these; the canned messages say to contact support.
	ErrMissingSerial  = errors.New("no MnfSerial found in the record")
	ErrMissingLicense = errors.New("missing required fields in the record")
)

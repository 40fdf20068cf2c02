package receipt

import "context"

// Status is the lifecycle of a single validation attempt. A validation
// starts Idle, moves to Validating while in flight, and lands on exactly one
// of the three outcomes.
type Status uint8

const (
	StatusIdle Status = iota
	StatusValidating
	StatusValid
	StatusInvalid

	// StatusIndeterminate means the platform cannot decide validity on the
	// client. It is a capability boundary, not a failure.
	StatusIndeterminate
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final outcome of a validation attempt.
func (s Status) Terminal() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusIndeterminate:
		return true
	default:
		return false
	}
}

// ValidationResult is the outcome of validating a single product's receipt.
type ValidationResult struct {
	Status Status

	// ReceiptData carries the raw signed receipt when the platform exposes
	// one. Nil on platforms without local receipt data.
	ReceiptData []byte

	// JWS carries the JWS transaction representation when the platform
	// provides one. Empty otherwise.
	JWS string

	// Reason explains Invalid and Indeterminate outcomes.
	Reason string
}

type Validator interface {

	// Validate determines whether the caller holds a valid receipt covering
	// productID. The returned result always has a terminal status; an error
	// is returned only when the attempt itself could not run, such as a
	// cancelled context or an unreachable verification endpoint.
	Validate(ctx context.Context, productID string) (*ValidationResult, error)
}

// VerificationParams is the minimal contract a server-side verifier needs to
// finish a validation the client cannot complete locally. The client fills in
// what it knows; AccessToken is a server credential and always left empty.
type VerificationParams struct {
	PackageName  string
	ProductToken string
	AccessToken  string
}

package riskassess

import "fmt"

const (
	CodeValidation     = "validation"
	CodeBackpressure   = "backpressure"
	CodeProviderConfig = "provider_config"
	CodeUnavailable    = "provider_unavailable"
	CodeInvariant      = "invariant"
)

// ValidationError rejects a malformed request. Never retried, surfaced to the
// caller as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ProviderUnavailable covers timeouts, transient provider errors, and
// malformed replies after retries are exhausted. Recoverable: the engine
// falls back to template narrative and still returns a full assessment.
type ProviderUnavailable struct {
	Reason string
	Err    error
}

func (e *ProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable (%s): %v", e.Reason, e.Err)
	}
	return "provider unavailable: " + e.Reason
}

func (e *ProviderUnavailable) Unwrap() error { return e.Err }

// ProviderConfigError marks authentication or configuration failures. Fatal
// for the assessment; never retried.
type ProviderConfigError struct {
	Message string
	Err     error
}

func (e *ProviderConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider config: %s: %v", e.Message, e.Err)
	}
	return "provider config: " + e.Message
}

func (e *ProviderConfigError) Unwrap() error { return e.Err }

// BackpressureError rejects a request while the concurrency ceiling is full.
type BackpressureError struct {
	Limit int
}

func (e *BackpressureError) Error() string {
	return fmt.Sprintf("assessment rejected: %d assessments already in flight", e.Limit)
}

// InvariantError flags internal state that should be impossible on valid
// input, such as a score outside its closed range or a missing weight.
type InvariantError struct {
	What  string
	Value string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s (%s)", e.What, e.Value)
}

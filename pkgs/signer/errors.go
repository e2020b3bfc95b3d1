package signer

import "fmt"

// ConfigurationError reports missing or malformed key material. A signer in
// this state refuses every request.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signer misconfigured: %s: %v", e.Reason, e.Err)
	}
	return "signer misconfigured: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(reason string, err error) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Err: err}
}

package esimaccess

import "encoding/json"

// envelope is the provider's uniform response wrapper.
//
// The provider signals success through two conventions that do not always
// agree: a boolean `success` flag on some endpoints, and an `errorCode` that
// is null or "0" on success elsewhere. Success and errorCode are pointers so
// absence is distinguishable from a zero value.
type envelope struct {
	Success   *bool           `json:"success,omitempty"`
	ErrorCode *string         `json:"errorCode"`
	ErrorMsg  string          `json:"errorMsg"`
	Obj       json.RawMessage `json:"obj,omitempty"`
}

// IsSuccess normalizes the provider's dual success convention: the response
// succeeded if the flag says so, or if errorCode is absent, or if it is the
// literal "0". Either signal alone is sufficient.
func (e *envelope) IsSuccess() bool {
	if e.Success != nil && *e.Success {
		return true
	}
	if e.ErrorCode == nil {
		return true
	}
	return *e.ErrorCode == "0"
}

// Code returns the business error code, empty on success or when absent.
func (e *envelope) Code() string {
	if e.ErrorCode == nil {
		return ""
	}
	return *e.ErrorCode
}

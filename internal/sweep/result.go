// Package sweep dispatches one HTTP request per descriptor and records the
// status code or transport error each one produced.
package sweep

// Result is the outcome of one descriptor. Exactly one of StatusCode and Error
// is set.
type Result struct {
	Route      string `json:"Route"`
	Method     string `json:"Method"`
	StatusCode *int   `json:"Status Code,omitempty"`
	Error      string `json:"Error,omitempty"`
}

// Failed reports whether the descriptor ended in an error instead of a status.
func (r Result) Failed() bool {
	return r.StatusCode == nil
}

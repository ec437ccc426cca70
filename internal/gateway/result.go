package gateway

import (
	"encoding/json"
	"fmt"
)

// Outcome is the closed set of ways a gateway call can end
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAuthExpired
	OutcomeFailed
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAuthExpired:
		return "auth_expired"
	case OutcomeFailed:
		return "failed"
	case OutcomeTransport:
		return "transport"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a single gateway call produced
type Result struct {
	Outcome Outcome
	Status  int             // HTTP status, 0 when none was received
	Data    json.RawMessage // envelope data on success
	Message string          // envelope message, or the fallback on failure
	Err     error           // nil only for OutcomeOK
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Decode unmarshals the payload into v. Calls that did not succeed return
// their error; an empty payload leaves v untouched.
func (r Result) Decode(v any) error {
	if r.Outcome != OutcomeOK {
		return r.Err
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

package arcgis

import "fmt"

// Kind classifies an upstream failure.
type Kind int

const (
	// KindTransport is a network-level failure: DNS, connection, timeout.
	KindTransport Kind = iota + 1
	// KindStatus is a non-2xx response.
	KindStatus
	// KindDecode is a 2xx response whose body is not JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by Client.Query for every failure.
type Error struct {
	Kind   Kind
	Status int // set for KindStatus
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("ArcGIS API error: %d", e.Status)
	case KindDecode:
		return fmt.Sprintf("ArcGIS API returned invalid JSON: %v", e.Err)
	default:
		return fmt.Sprintf("ArcGIS API request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

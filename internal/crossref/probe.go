package crossref

// Outcome is the expected result of a status probe.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeFound
	OutcomeGone
	OutcomeNoContent
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeGone:
		return "gone"
	case OutcomeNoContent:
		return "no_content"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Probe is the tagged result of DOIGet and MetadataGet. Expected remote
// conditions are outcomes; only failures the caller cannot interpret are
// returned as errors.
type Probe struct {
	Outcome Outcome
	// Body holds the response payload when Outcome is OutcomeFound.
	Body []byte
}

// Found reports whether the probed resource exists.
func (p Probe) Found() bool { return p.Outcome == OutcomeFound }

package dispatch

// Phase is the closed set of progress phases.
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// Event is one progress report. Within a single request Percent is
// non-decreasing until either complete (100) or error, which resets to 0
// to signal abandonment.
type Event struct {
	Phase   Phase  `json:"phase"`
	Percent int    `json:"progressPercent"`
	Message string `json:"message"`
}

// ProgressFunc receives progress events for one request. Streams are
// never shared between requests.
type ProgressFunc func(Event)

func emit(fn ProgressFunc, phase Phase, percent int, message string) {
	if fn != nil {
		fn(Event{Phase: phase, Percent: percent, Message: message})
	}
}

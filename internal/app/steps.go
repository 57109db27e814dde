package app

// Wizard step names. These are also the navigation targets the frontend
// routes on; anything unrecognized resolves to landing.
const (
	StepLanding      = "landing"
	StepAppeal       = "appeal"
	StepUploads      = "uploads"
	StepScheduling   = "scheduling"
	StepConfirmation = "confirmation"
	StepFinish       = "finish"
	StepServiceDown  = "service-down"
)

// wizardOrder is the forward path through the form steps. Finish and
// service-down are terminal outcomes, not part of the gated sequence.
var wizardOrder = []string{
	StepLanding,
	StepAppeal,
	StepUploads,
	StepScheduling,
	StepConfirmation,
}

// CanonicalStep maps a requested step name to the step to show. The root
// and unknown names fall through to landing. "confirm" is accepted as an
// alias: older builds of the form navigated there from scheduling.
func CanonicalStep(name string) string {
	switch name {
	case StepLanding, StepAppeal, StepUploads, StepScheduling, StepConfirmation, StepFinish, StepServiceDown:
		return name
	case "confirm":
		return StepConfirmation
	default:
		return StepLanding
	}
}

package aircraft

import (
	"fmt"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	pkgerrors "github.com/aerotrack-io/aerotrack-backend/pkg/errors"
)

// minProgressToAdvance is the completion gate an aircraft must clear in its
// current phase before it can move forward to the next one.
var minProgressToAdvance = map[enums.AircraftPhase]int{
	enums.PhaseManufacturing:    40,
	enums.PhaseGroundTesting:    55,
	enums.PhaseFlightTesting:    70,
	enums.PhaseCertification:    90,
	enums.PhaseReadyForDelivery: 98,
	enums.PhaseDelivered:        100,
}

// ValidateTransition enforces the pipeline rules: an aircraft stays in place
// or advances exactly one phase once its progress clears the gate. Phases
// never move backward, so Delivered is terminal.
func ValidateTransition(current, target enums.AircraftPhase, currentProgress int) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown phase %q", target))
	}
	if !current.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("aircraft has unknown phase %q", current))
	}

	currentIdx := current.Index()
	targetIdx := target.Index()

	switch targetIdx - currentIdx {
	case 0:
		return nil
	case 1:
		gate := minProgressToAdvance[current]
		if currentProgress < gate {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot advance from %s at %d%% progress, %d%% required", current.Display(), currentProgress, gate))
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move from %s to %s, phases only advance one step at a time", current.Display(), target.Display()))
	}
}

// StageStatusFor computes the lifecycle stage status relative to the
// aircraft's current phase.
func StageStatusFor(stage, current enums.AircraftPhase) enums.MilestoneStatus {
	stageIdx := stage.Index()
	currentIdx := current.Index()

	switch {
	case current == enums.PhaseDelivered:
		return enums.MilestoneCompleted
	case stageIdx < currentIdx:
		return enums.MilestoneCompleted
	case stageIdx == currentIdx:
		return enums.MilestoneInProgress
	default:
		return enums.MilestoneUpcoming
	}
}

// MilestoneProgress converts completed/total milestone counts into a whole
// percentage, rounding half up.
func MilestoneProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (completed*100 + total/2) / total
}

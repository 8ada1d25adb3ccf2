package provisionee

import (
	"github.com/ffs-wifi/provisionee/internal/ffs/dss"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// Transition computes the next state from the finished state, its
// outcome and the report response. The server is authoritative: the
// machine jumps wherever the advice points unless canProceed is false,
// which terminates the session. The local outcome travels to the server
// inside the report; it does not override the advice here.
func Transition(current model.ProvisioneeState, outcome model.ReportResult, advice dss.ReportResult) model.ProvisioneeState {
	_ = current
	_ = outcome
	if !advice.CanProceed {
		return model.StateFailed
	}
	return advice.NextState
}

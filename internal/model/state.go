package model

import "fmt"

// ProvisioneeState is one step of the provisioning session. The server is
// authoritative: every report response names the next state and the
// provisionee never transitions unilaterally except into StateFailed.
type ProvisioneeState int

const (
	// StateNotStarted is the initial state before the session begins.
	StateNotStarted ProvisioneeState = iota
	// StateStartProvisioning starts the provisioning session.
	StateStartProvisioning
	// StateStartPinBasedSetup performs optional PIN-based setup.
	StateStartPinBasedSetup
	// StateComputeConfigurationData fetches cloud configuration.
	StateComputeConfigurationData
	// StatePostWifiScanData posts visible networks to the cloud.
	StatePostWifiScanData
	// StateGetWifiCredentials fetches matched credentials from the cloud.
	StateGetWifiCredentials
	// StateConnectToUserNetwork attempts the received credentials.
	StateConnectToUserNetwork
	// StateCompleted is the terminal success state.
	StateCompleted
	// StateFailed is the terminal failure state.
	StateFailed
)

// stateWireNames maps states to their DSS wire representation.
var stateWireNames = map[ProvisioneeState]string{
	StateNotStarted:               "NOT_STARTED",
	StateStartProvisioning:        "START_PROVISIONING",
	StateStartPinBasedSetup:       "START_PIN_BASED_SETUP",
	StateComputeConfigurationData: "COMPUTE_CONFIGURATION_DATA",
	StatePostWifiScanData:         "POST_WIFI_SCAN_DATA",
	StateGetWifiCredentials:       "GET_WIFI_CREDENTIALS",
	StateConnectToUserNetwork:     "CONNECT_TO_NETWORK",
	StateCompleted:                "DONE",
	StateFailed:                   "FAILED",
}

// String returns the DSS wire name for the state.
func (s ProvisioneeState) String() string {
	if name, ok := stateWireNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// ParseProvisioneeState maps a DSS wire name back to a state.
func ParseProvisioneeState(name string) (ProvisioneeState, error) {
	for state, wireName := range stateWireNames {
		if wireName == name {
			return state, nil
		}
	}
	return StateFailed, fmt.Errorf("%w: provisionee state %q", ErrInvalidArgument, name)
}

// Terminal reports whether the state ends the session.
func (s ProvisioneeState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ReportResult is the outcome of one state's action, included in the
// report request for that state.
type ReportResult int

const (
	// ReportResultSuccess indicates the state's action completed.
	ReportResultSuccess ReportResult = iota
	// ReportResultFailure indicates the state's action failed.
	ReportResultFailure
)

// String returns the DSS wire name for the report result.
func (r ReportResult) String() string {
	if r == ReportResultSuccess {
		return "SUCCESS"
	}
	return "FAILURE"
}

// RegistrationState tracks device registration progress across a session.
type RegistrationState int

const (
	// RegistrationNotRegistered is the initial registration state.
	RegistrationNotRegistered RegistrationState = iota
	// RegistrationInProgress indicates a registration token was received.
	RegistrationInProgress
	// RegistrationComplete indicates registration finished.
	RegistrationComplete
	// RegistrationFailed indicates registration failed.
	RegistrationFailed
)

// String returns the DSS wire name for the registration state.
func (r RegistrationState) String() string {
	switch r {
	case RegistrationNotRegistered:
		return "NOT_REGISTERED"
	case RegistrationInProgress:
		return "IN_PROGRESS"
	case RegistrationComplete:
		return "COMPLETE"
	case RegistrationFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ProvisioningResult is the exit value of one provisioning run.
type ProvisioningResult int

const (
	// Provisioned indicates the device joined the user's network.
	Provisioned ProvisioningResult = iota
	// NotProvisioned indicates the session ended without credentials,
	// including a structured canProceed=false termination.
	NotProvisioned
	// InternalError indicates an unrecoverable internal fault.
	InternalError
	// InvalidArgument indicates the embedding host passed bad arguments.
	InvalidArgument
	// InitError indicates session setup failed before the state machine ran.
	InitError
)

// String returns the result name.
func (r ProvisioningResult) String() string {
	switch r {
	case Provisioned:
		return "provisioned"
	case NotProvisioned:
		return "not provisioned"
	case InternalError:
		return "internal error"
	case InvalidArgument:
		return "invalid argument"
	case InitError:
		return "init error"
	default:
		return "unknown"
	}
}

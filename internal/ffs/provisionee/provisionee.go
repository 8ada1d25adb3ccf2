// Package provisionee implements the device-side state machine that
// drives one Frustration-Free Setup session: associate to the setup
// network, walk the DSS operations under the server's direction, join
// the customer's network and report every transition.
package provisionee

import (
	"context"
	"errors"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/ffs/codec"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/dss"
	"github.com/ffs-wifi/provisionee/internal/ffs/setupnet"
	"github.com/ffs-wifi/provisionee/internal/ffs/wifi"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// Provisionee runs one provisioning session against a user context.
type Provisionee struct {
	uc *UserContext

	state             model.ProvisioneeState
	salt              []byte
	registrationState model.RegistrationState
}

// New creates the state machine in the not-started state.
func New(uc *UserContext) *Provisionee {
	return &Provisionee{
		uc:                uc,
		state:             model.StateNotStarted,
		registrationState: model.RegistrationNotRegistered,
	}
}

// State returns the machine's current state.
func (p *Provisionee) State() model.ProvisioneeState {
	return p.state
}

// Run executes the session to a terminal state and maps it to an exit
// value. Association with the setup network and the initial background
// scan happen before the first DSS call.
func (p *Provisionee) Run(ctx context.Context) (model.ProvisioningResult, error) {
	if err := p.joinSetupNetwork(ctx); err != nil {
		p.uc.logf(iostreams.LevelError, iostreams.CategoryState, "joining setup network: %v", err)
		return model.InitError, err
	}

	// The first scan runs in the background while the session starts.
	if err := p.uc.Wifi.StartScan(ctx); err != nil {
		p.uc.logf(iostreams.LevelWarn, iostreams.CategoryWifi, "initial scan failed: %v", err)
	}

	p.state = model.StateStartProvisioning
	for !p.state.Terminal() {
		if !p.uc.canProceed() {
			p.uc.logf(iostreams.LevelInfo, iostreams.CategoryState, "host stopped the session")
			return model.NotProvisioned, nil
		}

		outcome, actionErr := p.executeState(ctx)
		if actionErr != nil {
			p.uc.logf(iostreams.LevelWarn, iostreams.CategoryState,
				"state %s failed: %v", p.state, actionErr)
		}

		if ctx.Err() != nil {
			return model.InternalError, ctx.Err()
		}

		// canProceed=false is a structured termination, not an error:
		// the cloud has already ended the session, so no report follows.
		if errors.Is(actionErr, model.ErrSessionTerminated) {
			p.state = model.StateFailed
			return model.NotProvisioned, nil
		}

		next, reportErr := p.report(ctx, outcome)
		if reportErr != nil {
			p.uc.logf(iostreams.LevelError, iostreams.CategoryState, "report failed: %v", reportErr)
			p.state = model.StateFailed
			return model.InternalError, reportErr
		}

		p.uc.logf(iostreams.LevelInfo, iostreams.CategoryState,
			"state %s -> %s (%s)", p.state, next, outcome)
		if p.uc.Callbacks.OnStateTransition != nil {
			p.uc.Callbacks.OnStateTransition(p.state, next, outcome)
		}
		p.state = next
	}

	if p.state == model.StateCompleted {
		return model.Provisioned, nil
	}
	return model.NotProvisioned, nil
}

// joinSetupNetwork derives (or accepts) the setup network and associates
// with it.
func (p *Provisionee) joinSetupNetwork(ctx context.Context) error {
	cfg, err := p.setupNetworkConfiguration()
	if err != nil {
		return err
	}
	p.uc.logf(iostreams.LevelInfo, iostreams.CategoryWifi, "joining setup network %q", cfg.SSID)
	return p.uc.Wifi.ConnectToNetwork(ctx, cfg)
}

// setupNetworkConfiguration prefers a host-supplied custom network and
// falls back to the derived 1P Amazon network.
func (p *Provisionee) setupNetworkConfiguration() (model.WifiConfiguration, error) {
	if p.uc.Callbacks.GetSetupNetworkConfiguration != nil {
		cfg, err := p.uc.Callbacks.GetSetupNetworkConfiguration()
		switch model.ResultFromError(err) {
		case model.ResultSuccess:
			return cfg, nil
		case model.ResultNotImplemented:
			// Fall through to the derived network.
		default:
			return model.WifiConfiguration{}, err
		}
	}
	return setupnet.Derive(p.uc.Config, p.uc.PrivateKey, nil)
}

// executeState performs the current state's action and returns the
// outcome reported to the cloud.
func (p *Provisionee) executeState(ctx context.Context) (model.ReportResult, error) {
	var err error
	switch p.state {
	case model.StateStartProvisioning:
		err = p.startProvisioning(ctx)
	case model.StateStartPinBasedSetup:
		err = p.startPinBasedSetup(ctx)
	case model.StateComputeConfigurationData:
		err = p.computeConfigurationData(ctx)
	case model.StatePostWifiScanData:
		err = p.postWifiScanData(ctx)
	case model.StateGetWifiCredentials:
		err = p.getWifiCredentials(ctx)
	case model.StateConnectToUserNetwork:
		err = p.connectToUserNetwork(ctx)
	default:
		err = fmt.Errorf("%w: no action for state %s", model.ErrInvalidArgument, p.state)
	}

	if err != nil {
		return model.ReportResultFailure, err
	}
	return model.ReportResultSuccess, nil
}

// report tells the cloud the state's outcome and returns the next state.
// Connection attempts recorded since the last report ride along.
func (p *Provisionee) report(ctx context.Context, outcome model.ReportResult) (model.ProvisioneeState, error) {
	attempts := p.uc.Wifi.DrainConnectionAttempts()
	advice, err := p.uc.DSS.Report(ctx, p.state, outcome, p.registrationState, attempts)
	if err != nil {
		return model.StateFailed, err
	}
	return Transition(p.state, outcome, advice), nil
}

// startProvisioning opens the session and stores the PIN salt.
func (p *Provisionee) startProvisioning(ctx context.Context) error {
	result, err := p.uc.DSS.StartProvisioningSession(ctx)
	if err != nil {
		return err
	}
	p.salt = result.Salt
	if !result.CanProceed {
		return model.ErrSessionTerminated
	}
	return nil
}

// startPinBasedSetup hashes the device PIN with the session salt. A
// device without a stored PIN skips the call; the cloud routes such
// devices straight to configuration.
func (p *Provisionee) startPinBasedSetup(ctx context.Context) error {
	pin, err := p.uc.Config.GetString(configmap.KeyPin)
	switch model.ResultFromError(err) {
	case model.ResultSuccess:
	case model.ResultNotImplemented:
		p.uc.logf(iostreams.LevelDebug, iostreams.CategoryState, "no device PIN stored, skipping PIN-based setup")
		return nil
	default:
		return err
	}

	// Only the salted hash leaves the device.
	salted := append([]byte(pin), p.salt...)
	hashedPin := codec.AppendBase64(crypto.Sha256(salted))

	canProceed, err := p.uc.DSS.StartPinBasedSetup(ctx, hashedPin)
	if err != nil {
		return err
	}
	if !canProceed {
		return model.ErrSessionTerminated
	}
	return nil
}

// computeConfigurationData persists known cloud configuration keys and
// surfaces a registration token.
func (p *Provisionee) computeConfigurationData(ctx context.Context) error {
	return p.uc.DSS.ComputeConfigurationData(ctx,
		func(key string, value configmap.Value) error {
			if !configmap.IsKnown(key) {
				// Unknown keys are skipped for forward compatibility.
				return model.ErrNotImplemented
			}
			return p.uc.Config.Set(key, value)
		},
		func(details dss.RegistrationDetails) error {
			p.registrationState = model.RegistrationInProgress
			if p.uc.Callbacks.SaveRegistrationDetails != nil {
				return p.uc.Callbacks.SaveRegistrationDetails(details)
			}
			return p.uc.Config.Set(configmap.KeySessionToken, configmap.StringValue(details.RegistrationToken))
		})
}

// postWifiScanData drives the scan loop: refresh the background scan,
// then post batches until the cloud has seen enough.
func (p *Provisionee) postWifiScanData(ctx context.Context) error {
	if err := p.uc.Wifi.StartScan(ctx); err != nil {
		return err
	}

	totalFound := 0
	allFound := false
	for sequence := uint32(1); ; sequence++ {
		if !p.uc.canPostWifiScanData(sequence, totalFound, allFound) {
			return nil
		}

		scans := wifi.FilterSupported(p.uc.Wifi.ScanResults())
		resp, err := p.uc.DSS.PostWifiScanData(ctx, scans)
		if err != nil {
			return err
		}
		totalFound = resp.TotalCredentialsFound
		allFound = resp.AllCredentialsFound

		if allFound || !resp.CanProceed {
			return nil
		}
	}
}

// getWifiCredentials drives the credentials loop, appending every
// returned credential to the Wi-Fi configuration list.
func (p *Provisionee) getWifiCredentials(ctx context.Context) error {
	allReturned := false
	for sequence := uint32(1); ; sequence++ {
		if !p.uc.canGetWifiCredentials(sequence, allReturned) {
			return nil
		}

		resp, credentials, err := p.uc.DSS.GetWifiCredentials(ctx)
		if err != nil {
			return err
		}
		for _, credential := range credentials {
			p.uc.Wifi.AddConfiguration(credential)
		}
		allReturned = resp.AllCredentialsReturned

		if allReturned || !resp.CanProceed {
			return nil
		}
	}
}

// connectToUserNetwork leaves the setup network and tries the received
// credentials in order.
func (p *Provisionee) connectToUserNetwork(ctx context.Context) error {
	if err := p.uc.Wifi.Disconnect(ctx); err != nil {
		p.uc.logf(iostreams.LevelWarn, iostreams.CategoryWifi, "leaving setup network: %v", err)
	}
	return p.uc.Wifi.ConnectToUserNetwork(ctx)
}

package dss

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/ffs/codec"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// Operation paths under the API root.
const (
	pathStartProvisioningSession = "startProvisioningSession"
	pathStartPinBasedSetup       = "startPinBasedSetup"
	pathComputeConfigurationData = "computeConfigurationData"
	pathPostWifiScanData         = "postWifiScanData"
	pathGetWifiCredentials       = "getWifiCredentials"
	pathReport                   = "report"
)

// StartProvisioningSessionResult carries the session parameters assigned
// by the cloud.
type StartProvisioningSessionResult struct {
	CanProceed bool
	Salt       []byte // 8 bytes, for PIN hashing
}

// StartProvisioningSession opens the session. The request carries only a
// nonce; the response assigns the session ID used by every later call.
func (c *Client) StartProvisioningSession(ctx context.Context) (StartProvisioningSessionResult, error) {
	if err := c.RefreshNonce(); err != nil {
		return StartProvisioningSessionResult{}, err
	}

	body, err := json.Marshal(startProvisioningSessionRequest{Nonce: c.Nonce()})
	if err != nil {
		return StartProvisioningSessionResult{}, err
	}

	var result StartProvisioningSessionResult
	err = c.execute(ctx, pathStartProvisioningSession, body, func(payload []byte) error {
		var resp startProvisioningSessionResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return fmt.Errorf("parsing startProvisioningSession response: %w", err)
		}
		salt, err := codec.DecodeBase64String(resp.Salt)
		if err != nil {
			return fmt.Errorf("decoding salt: %w", err)
		}
		c.setSessionID(resp.SessionID)
		result.CanProceed = resp.CanProceed
		result.Salt = salt
		return nil
	})
	if err != nil {
		return StartProvisioningSessionResult{}, err
	}
	return result, nil
}

// StartPinBasedSetup proves PIN possession. Only the salted hash of the
// PIN ever leaves the device.
func (c *Client) StartPinBasedSetup(ctx context.Context, hashedPin string) (bool, error) {
	if err := c.RefreshNonce(); err != nil {
		return false, err
	}

	details, err := ConstructDeviceDetails(c.cfg)
	if err != nil {
		return false, err
	}
	body, err := json.Marshal(startPinBasedSetupRequest{
		Nonce:          c.Nonce(),
		SessionID:      c.sessionID,
		SequenceNumber: c.sequence + 1,
		DeviceDetails:  details,
		HashedPin:      hashedPin,
	})
	if err != nil {
		return false, err
	}

	var canProceed bool
	err = c.execute(ctx, pathStartPinBasedSetup, body, func(payload []byte) error {
		var resp startPinBasedSetupResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return fmt.Errorf("parsing startPinBasedSetup response: %w", err)
		}
		canProceed = resp.CanProceed
		return nil
	})
	return canProceed, err
}

// SaveConfigurationFunc receives one cloud-supplied configuration entry.
// Returning ErrNotImplemented skips the entry without failing the
// operation.
type SaveConfigurationFunc func(key string, value configmap.Value) error

// SaveRegistrationDetailsFunc receives a non-null registration token.
type SaveRegistrationDetailsFunc func(details RegistrationDetails) error

// ComputeConfigurationData fetches the cloud configuration. Every entry
// is offered to saveConfiguration; unknown keys must be skipped there,
// not failed. A non-null registration token is surfaced through
// saveRegistration.
func (c *Client) ComputeConfigurationData(ctx context.Context,
	saveConfiguration SaveConfigurationFunc, saveRegistration SaveRegistrationDetailsFunc) error {

	if err := c.RefreshNonce(); err != nil {
		return err
	}

	details, err := ConstructDeviceDetails(c.cfg)
	if err != nil {
		return err
	}
	body, err := json.Marshal(computeConfigurationDataRequest{
		Nonce:          c.Nonce(),
		SessionID:      c.sessionID,
		SequenceNumber: c.sequence + 1,
		DeviceDetails:  details,
	})
	if err != nil {
		return err
	}

	return c.execute(ctx, pathComputeConfigurationData, body, func(payload []byte) error {
		var resp computeConfigurationDataResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return fmt.Errorf("parsing computeConfigurationData response: %w", err)
		}

		if resp.RegistrationDetails != nil && resp.RegistrationDetails.RegistrationToken != "" && saveRegistration != nil {
			if err := saveRegistration(*resp.RegistrationDetails); err != nil {
				return err
			}
		}

		if saveConfiguration == nil {
			return nil
		}
		for key, raw := range resp.Configuration {
			value, err := decodeConfigurationValue(raw)
			if err != nil {
				// A malformed value is skipped, not fatal.
				c.logf(iostreams.LevelWarn, "skipping configuration key %q: %v", key, err)
				continue
			}
			err = saveConfiguration(key, value)
			if err != nil && model.ResultFromError(err) != model.ResultNotImplemented {
				return err
			}
		}
		return nil
	})
}

// decodeConfigurationValue maps a JSON configuration value to a typed
// entry: strings, integral numbers and booleans are supported.
func decodeConfigurationValue(raw json.RawMessage) (configmap.Value, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return configmap.Value{}, err
	}
	switch value := v.(type) {
	case string:
		return configmap.StringValue(value), nil
	case float64:
		if value != float64(int64(value)) {
			return configmap.Value{}, fmt.Errorf("%w: non-integral number", model.ErrInvalidArgument)
		}
		return configmap.IntegerValue(int64(value)), nil
	case bool:
		return configmap.BooleanValue(value), nil
	default:
		return configmap.Value{}, fmt.Errorf("%w: unsupported configuration value", model.ErrInvalidArgument)
	}
}

// PostWifiScanData posts one batch of scan results. Networks with
// unsupported security protocols must be filtered by the caller.
func (c *Client) PostWifiScanData(ctx context.Context, scans []model.WifiScanResult) (PostWifiScanDataResponse, error) {
	if err := c.RefreshNonce(); err != nil {
		return PostWifiScanDataResponse{}, err
	}

	details, err := ConstructDeviceDetails(c.cfg)
	if err != nil {
		return PostWifiScanDataResponse{}, err
	}
	wire := make([]wifiScanResultWire, 0, len(scans))
	for _, scan := range scans {
		wire = append(wire, scanResultToWire(scan))
	}
	body, err := json.Marshal(postWifiScanDataRequest{
		Nonce:          c.Nonce(),
		SessionID:      c.sessionID,
		SequenceNumber: c.sequence + 1,
		DeviceDetails:  details,
		WifiScanData:   wire,
	})
	if err != nil {
		return PostWifiScanDataResponse{}, err
	}

	var result PostWifiScanDataResponse
	err = c.execute(ctx, pathPostWifiScanData, body, func(payload []byte) error {
		if err := json.Unmarshal(payload, &result); err != nil {
			return fmt.Errorf("parsing postWifiScanData response: %w", err)
		}
		return nil
	})
	if err != nil {
		return PostWifiScanDataResponse{}, err
	}
	return result, nil
}

// GetWifiCredentials fetches one batch of matched credentials. Malformed
// entries are skipped with a warning; the remaining credentials are
// returned in cloud order.
func (c *Client) GetWifiCredentials(ctx context.Context) (GetWifiCredentialsResponse, []model.WifiConfiguration, error) {
	if err := c.RefreshNonce(); err != nil {
		return GetWifiCredentialsResponse{}, nil, err
	}

	details, err := ConstructDeviceDetails(c.cfg)
	if err != nil {
		return GetWifiCredentialsResponse{}, nil, err
	}
	body, err := json.Marshal(getWifiCredentialsRequest{
		Nonce:          c.Nonce(),
		SessionID:      c.sessionID,
		SequenceNumber: c.sequence + 1,
		DeviceDetails:  details,
	})
	if err != nil {
		return GetWifiCredentialsResponse{}, nil, err
	}

	var result GetWifiCredentialsResponse
	var credentials []model.WifiConfiguration
	err = c.execute(ctx, pathGetWifiCredentials, body, func(payload []byte) error {
		if err := json.Unmarshal(payload, &result); err != nil {
			return fmt.Errorf("parsing getWifiCredentials response: %w", err)
		}
		for i := range result.Credentials {
			cfg, err := result.Credentials[i].toConfiguration()
			if err != nil {
				c.logf(iostreams.LevelWarn, "skipping credential %d: %v", i, err)
				continue
			}
			credentials = append(credentials, cfg)
		}
		return nil
	})
	if err != nil {
		return GetWifiCredentialsResponse{}, nil, err
	}
	return result, credentials, nil
}

// ReportResult carries the transition oracle's answer.
type ReportResult struct {
	CanProceed bool
	NextState  model.ProvisioneeState
}

// Report tells the cloud the outcome of the named state. The response's
// next state and canProceed flag are authoritative for the machine's
// transition.
func (c *Client) Report(ctx context.Context, state model.ProvisioneeState,
	transition model.ReportResult, registration model.RegistrationState,
	attempts []model.ConnectionAttempt) (ReportResult, error) {

	if err := c.RefreshNonce(); err != nil {
		return ReportResult{}, err
	}

	details, err := ConstructDeviceDetails(c.cfg)
	if err != nil {
		return ReportResult{}, err
	}
	wire := make([]connectionAttemptWire, 0, len(attempts))
	for _, attempt := range attempts {
		wire = append(wire, connectionAttemptToWire(attempt))
	}
	body, err := json.Marshal(reportRequest{
		Nonce:                 c.Nonce(),
		SessionID:             c.sessionID,
		SequenceNumber:        c.sequence + 1,
		DeviceDetails:         details,
		ProvisioneeState:      state.String(),
		StateTransitionResult: transition.String(),
		RegistrationState:     registration.String(),
		ConnectionAttempts:    wire,
	})
	if err != nil {
		return ReportResult{}, err
	}

	var result ReportResult
	err = c.execute(ctx, pathReport, body, func(payload []byte) error {
		var resp reportResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return fmt.Errorf("parsing report response: %w", err)
		}
		next, err := model.ParseProvisioneeState(resp.NextProvisioningState)
		if err != nil {
			return err
		}
		result.CanProceed = resp.CanProceed
		result.NextState = next
		return nil
	})
	if err != nil {
		return ReportResult{}, err
	}
	return result, nil
}

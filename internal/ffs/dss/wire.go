package dss

import (
	"encoding/json"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/ffs/codec"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// DeviceDetails is the device identity block embedded in every request
// after session start. Fields read from absent configuration keys are
// omitted from the JSON.
type DeviceDetails struct {
	Manufacturer         string `json:"manufacturer,omitempty"`
	DeviceModel          string `json:"deviceModel,omitempty"`
	DeviceSerial         string `json:"deviceSerial,omitempty"`
	ProductIndex         string `json:"productIndex,omitempty"`
	SoftwareVersionIndex string `json:"softwareVersionIndex,omitempty"`
	DeviceName           string `json:"deviceName,omitempty"`
	FirmwareVersion      string `json:"firmwareVersion,omitempty"`
	HardwareVersion      string `json:"hardwareVersion,omitempty"`
}

// deviceDetailsKeys pairs each configuration key with its setter; order
// follows the request layout.
var deviceDetailsKeys = []struct {
	key    string
	assign func(*DeviceDetails, string)
}{
	{configmap.KeyManufacturerName, func(d *DeviceDetails, v string) { d.Manufacturer = v }},
	{configmap.KeyModelNumber, func(d *DeviceDetails, v string) { d.DeviceModel = v }},
	{configmap.KeySerialNumber, func(d *DeviceDetails, v string) { d.DeviceSerial = v }},
	{configmap.KeyProductIndex, func(d *DeviceDetails, v string) { d.ProductIndex = v }},
	{configmap.KeySoftwareVersionIndex, func(d *DeviceDetails, v string) { d.SoftwareVersionIndex = v }},
	{configmap.KeyBleDeviceName, func(d *DeviceDetails, v string) { d.DeviceName = v }},
	{configmap.KeyFirmwareVersion, func(d *DeviceDetails, v string) { d.FirmwareVersion = v }},
	{configmap.KeyHardwareVersion, func(d *DeviceDetails, v string) { d.HardwareVersion = v }},
}

// ConstructDeviceDetails reads the device identity from the configuration
// map. Missing keys are skipped; the product index, stored as bytes, is
// carried as its ASCII form.
func ConstructDeviceDetails(cfg *configmap.Manager) (DeviceDetails, error) {
	var details DeviceDetails
	for _, item := range deviceDetailsKeys {
		value, err := cfg.Get(item.key)
		if err != nil {
			// A device without the entry simply omits the field.
			if model.ResultFromError(err) == model.ResultNotImplemented {
				continue
			}
			return DeviceDetails{}, err
		}
		switch value.Type {
		case configmap.TypeString:
			item.assign(&details, value.String)
		case configmap.TypeBytes:
			item.assign(&details, string(value.Bytes))
		default:
			return DeviceDetails{}, fmt.Errorf("%w: device details key %q holds %s",
				model.ErrInvalidArgument, item.key, value.Type)
		}
	}
	return details, nil
}

// startProvisioningSessionRequest starts the session; it is the only
// request without a session ID.
type startProvisioningSessionRequest struct {
	Nonce string `json:"nonce"`
}

type startProvisioningSessionResponse struct {
	CanProceed bool   `json:"canProceed"`
	SessionID  string `json:"sessionId"`
	Salt       string `json:"salt"` // 8 bytes, base64
}

type startPinBasedSetupRequest struct {
	Nonce          string        `json:"nonce"`
	SessionID      string        `json:"sessionId"`
	SequenceNumber uint32        `json:"sequenceNumber"`
	DeviceDetails  DeviceDetails `json:"deviceDetails"`
	HashedPin      string        `json:"hashedPin"`
}

type startPinBasedSetupResponse struct {
	CanProceed bool `json:"canProceed"`
}

type computeConfigurationDataRequest struct {
	Nonce          string        `json:"nonce"`
	SessionID      string        `json:"sessionId"`
	SequenceNumber uint32        `json:"sequenceNumber"`
	DeviceDetails  DeviceDetails `json:"deviceDetails"`
}

type computeConfigurationDataResponse struct {
	Configuration       map[string]json.RawMessage `json:"configuration"`
	RegistrationDetails *RegistrationDetails       `json:"registrationDetails"`
}

// RegistrationDetails is the registration block of a
// computeConfigurationData response.
type RegistrationDetails struct {
	RegistrationToken string `json:"registrationToken"`
	Expiration        int64  `json:"expiration,omitempty"` // milliseconds since epoch
}

// wifiScanResultWire is one scanned network on the wire. SSIDs are
// arbitrary octets and travel base64-encoded.
type wifiScanResultWire struct {
	SSID             string `json:"ssid"`
	BSSID            string `json:"bssid"`
	SecurityProtocol string `json:"securityProtocol"`
	FrequencyBand    int    `json:"frequencyBand"`
	SignalStrength   int    `json:"signalStrength"`
}

func scanResultToWire(scan model.WifiScanResult) wifiScanResultWire {
	return wifiScanResultWire{
		SSID: codec.AppendBase64(scan.SSID),
		BSSID: fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			scan.BSSID[0], scan.BSSID[1], scan.BSSID[2], scan.BSSID[3], scan.BSSID[4], scan.BSSID[5]),
		SecurityProtocol: scan.Security.String(),
		FrequencyBand:    scan.Frequency,
		SignalStrength:   scan.RSSI,
	}
}

type postWifiScanDataRequest struct {
	Nonce          string               `json:"nonce"`
	SessionID      string               `json:"sessionId"`
	SequenceNumber uint32               `json:"sequenceNumber"`
	DeviceDetails  DeviceDetails        `json:"deviceDetails"`
	WifiScanData   []wifiScanResultWire `json:"wifiScanDataList"`
}

// PostWifiScanDataResponse is the cloud's answer to one scan-data post.
type PostWifiScanDataResponse struct {
	CanProceed            bool `json:"canProceed"`
	TotalCredentialsFound int  `json:"totalCredentialsFound"`
	AllCredentialsFound   bool `json:"allCredentialsFound"`
}

type getWifiCredentialsRequest struct {
	Nonce          string        `json:"nonce"`
	SessionID      string        `json:"sessionId"`
	SequenceNumber uint32        `json:"sequenceNumber"`
	DeviceDetails  DeviceDetails `json:"deviceDetails"`
}

// wifiCredentialWire is one network credential on the wire.
type wifiCredentialWire struct {
	SSID             string `json:"ssid"`
	SecurityProtocol string `json:"securityProtocol"`
	Key              string `json:"key,omitempty"`
	IsHiddenNetwork  bool   `json:"isHiddenNetwork"`
	NetworkPriority  int    `json:"networkPriority,omitempty"`
	WepIndex         int    `json:"wepIndex,omitempty"`
}

// toConfiguration decodes a wire credential into a configuration entry.
func (w *wifiCredentialWire) toConfiguration() (model.WifiConfiguration, error) {
	ssid, err := codec.DecodeBase64String(w.SSID)
	if err != nil {
		return model.WifiConfiguration{}, fmt.Errorf("decoding credential SSID: %w", err)
	}
	security, err := model.ParseSecurityProtocol(w.SecurityProtocol)
	if err != nil {
		return model.WifiConfiguration{}, err
	}
	var key []byte
	if w.Key != "" {
		key, err = codec.DecodeBase64String(w.Key)
		if err != nil {
			return model.WifiConfiguration{}, fmt.Errorf("decoding credential key: %w", err)
		}
	}
	cfg := model.WifiConfiguration{
		SSID:     ssid,
		Security: security,
		Key:      key,
		Hidden:   w.IsHiddenNetwork,
		Priority: w.NetworkPriority,
		WEPIndex: w.WepIndex,
	}
	if err := cfg.Validate(); err != nil {
		return model.WifiConfiguration{}, err
	}
	return cfg, nil
}

// GetWifiCredentialsResponse is the cloud's answer to one credentials
// fetch; the credential list itself is returned separately after
// per-entry validation.
type GetWifiCredentialsResponse struct {
	CanProceed             bool                 `json:"canProceed"`
	Credentials            []wifiCredentialWire `json:"wifiCredentialsList"`
	AllCredentialsReturned bool                 `json:"allCredentialsReturned"`
}

// errorDetailsWire is the structured error payload in a report.
type errorDetailsWire struct {
	Operation string `json:"operation,omitempty"`
	Cause     string `json:"cause,omitempty"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code,omitempty"`
}

// connectionAttemptWire is one association attempt in a report.
type connectionAttemptWire struct {
	SSID             string            `json:"ssid"`
	SecurityProtocol string            `json:"securityProtocol"`
	State            string            `json:"state"`
	ErrorDetails     *errorDetailsWire `json:"errorDetails"`
}

func connectionAttemptToWire(attempt model.ConnectionAttempt) connectionAttemptWire {
	wire := connectionAttemptWire{
		SSID:             codec.AppendBase64(attempt.SSID),
		SecurityProtocol: attempt.Security.String(),
		State:            attempt.State.String(),
	}
	if attempt.ErrorDetails != nil {
		wire.ErrorDetails = &errorDetailsWire{
			Operation: attempt.ErrorDetails.Operation,
			Cause:     attempt.ErrorDetails.Cause,
			Details:   attempt.ErrorDetails.Details,
			Code:      attempt.ErrorDetails.Code,
		}
	}
	return wire
}

type reportRequest struct {
	Nonce                 string                  `json:"nonce"`
	SessionID             string                  `json:"sessionId"`
	SequenceNumber        uint32                  `json:"sequenceNumber"`
	DeviceDetails         DeviceDetails           `json:"deviceDetails"`
	ProvisioneeState      string                  `json:"provisioneeState"`
	StateTransitionResult string                  `json:"stateTransitionResult"`
	RegistrationState     string                  `json:"registrationState"`
	ConnectionAttempts    []connectionAttemptWire `json:"connectionAttempts"`
}

type reportResponse struct {
	CanProceed            bool   `json:"canProceed"`
	NextProvisioningState string `json:"nextProvisioningState"`
}

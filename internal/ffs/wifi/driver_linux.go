//go:build linux

package wifi

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonm "github.com/Wifx/gonetworkmanager/v2"
	"github.com/godbus/dbus/v5"
	nl80211 "github.com/mdlayher/wifi"

	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// nm80211APFlagPrivacy is the NM_802_11_AP_FLAGS_PRIVACY bit.
const nm80211APFlagPrivacy = 0x1

const activationPollInterval = 250 * time.Millisecond

// linuxDriver drives Wi-Fi through NetworkManager over D-Bus, with
// nl80211 station info for association diagnostics.
type linuxDriver struct {
	nm         gonm.NetworkManager
	device     gonm.Device
	wireless   gonm.DeviceWireless
	devicePath dbus.ObjectPath

	nl        *nl80211.Client
	ifaceName string

	active gonm.ActiveConnection
	logger *iostreams.Logger
}

// NewPlatformDriver opens the first managed wireless device.
func NewPlatformDriver(logger *iostreams.Logger) (Driver, error) {
	nm, err := gonm.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("connecting to NetworkManager: %w", err)
	}

	devices, err := nm.GetPropertyAllDevices()
	if err != nil {
		return nil, fmt.Errorf("listing network devices: %w", err)
	}

	for _, device := range devices {
		deviceType, err := device.GetPropertyDeviceType()
		if err != nil {
			continue
		}
		if deviceType != gonm.NmDeviceTypeWifi {
			continue
		}

		path := device.GetPath()
		wireless, err := gonm.NewDeviceWireless(path)
		if err != nil {
			return nil, fmt.Errorf("opening wireless device: %w", err)
		}
		name, err := device.GetPropertyInterface()
		if err != nil {
			name = ""
		}

		driver := &linuxDriver{
			nm:         nm,
			device:     device,
			wireless:   wireless,
			devicePath: path,
			ifaceName:  name,
			logger:     logger,
		}
		// Station-info access is diagnostic only; the driver works
		// without it.
		if nl, err := nl80211.New(); err == nil {
			driver.nl = nl
		}
		return driver, nil
	}

	return nil, fmt.Errorf("%w: no wireless device found", model.ErrInvalidArgument)
}

// Scan requests a fresh scan and converts the visible access points.
func (d *linuxDriver) Scan(ctx context.Context) ([]model.WifiScanResult, error) {
	if err := d.wireless.RequestScan(); err != nil {
		return nil, fmt.Errorf("requesting scan: %w", err)
	}

	// NetworkManager has no completion signal worth blocking on here;
	// give the hardware a moment before reading the AP list.
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	accessPoints, err := d.wireless.GetAccessPoints()
	if err != nil {
		return nil, fmt.Errorf("reading access points: %w", err)
	}

	results := make([]model.WifiScanResult, 0, len(accessPoints))
	for _, ap := range accessPoints {
		result, err := convertAccessPoint(ap)
		if err != nil {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func convertAccessPoint(ap gonm.AccessPoint) (model.WifiScanResult, error) {
	ssid, err := ap.GetPropertySSID()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	hwAddress, err := ap.GetPropertyHWAddress()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	frequency, err := ap.GetPropertyFrequency()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	strength, err := ap.GetPropertyStrength()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	flags, err := ap.GetPropertyFlags()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	wpaFlags, err := ap.GetPropertyWPAFlags()
	if err != nil {
		return model.WifiScanResult{}, err
	}
	rsnFlags, err := ap.GetPropertyRSNFlags()
	if err != nil {
		return model.WifiScanResult{}, err
	}

	result := model.WifiScanResult{
		SSID:      []byte(ssid),
		Security:  classifySecurity(flags, wpaFlags, rsnFlags),
		Frequency: int(frequency),
		// NetworkManager reports strength as a 0-100 percentage; map it
		// onto the usual dBm range.
		RSSI: int(strength)/2 - 100,
	}
	copy(result.BSSID[:], parseHardwareAddress(hwAddress))
	return result, nil
}

func classifySecurity(flags, wpaFlags, rsnFlags uint32) model.SecurityProtocol {
	switch {
	case wpaFlags != 0 || rsnFlags != 0:
		return model.SecurityWPAPSK
	case flags&nm80211APFlagPrivacy != 0:
		return model.SecurityWEP
	default:
		return model.SecurityOpen
	}
}

func parseHardwareAddress(s string) []byte {
	parts := strings.Split(s, ":")
	out := make([]byte, 0, len(parts))
	for _, part := range parts {
		var b byte
		if _, err := fmt.Sscanf(part, "%02x", &b); err != nil {
			return nil
		}
		out = append(out, b)
	}
	return out
}

// Connect adds and activates a NetworkManager connection for the
// configuration, then waits for activation.
func (d *linuxDriver) Connect(ctx context.Context, cfg model.WifiConfiguration) error {
	settings := map[string]map[string]any{
		"connection": {
			"id":   string(cfg.SSID),
			"type": "802-11-wireless",
		},
		"802-11-wireless": {
			"ssid":   cfg.SSID,
			"mode":   "infrastructure",
			"hidden": cfg.Hidden,
		},
	}
	switch cfg.Security {
	case model.SecurityWPAPSK:
		settings["802-11-wireless-security"] = map[string]any{
			"key-mgmt": "wpa-psk",
			"psk":      string(cfg.Key),
		}
	case model.SecurityWEP:
		settings["802-11-wireless-security"] = map[string]any{
			"key-mgmt":      "none",
			"wep-key-type":  1, // hex/ascii key
			"wep-key0":      string(cfg.Key),
			"wep-tx-keyidx": uint32(cfg.WEPIndex),
			"auth-alg":      "open",
		}
	case model.SecurityOpen:
	default:
		return fmt.Errorf("%w: security protocol %v", model.ErrInvalidArgument, cfg.Security)
	}

	active, err := d.nm.AddAndActivateConnection(settings, d.device)
	if err != nil {
		return fmt.Errorf("activating connection: %w", err)
	}
	d.active = active

	if err := d.waitForActivation(ctx, active); err != nil {
		return err
	}
	d.logStationInfo()
	return nil
}

// waitForActivation polls the active connection until it reaches the
// activated state or the attempt deadline expires.
func (d *linuxDriver) waitForActivation(ctx context.Context, active gonm.ActiveConnection) error {
	for {
		state, err := active.GetPropertyState()
		if err != nil {
			return fmt.Errorf("reading activation state: %w", err)
		}
		switch state {
		case gonm.NmActiveConnectionStateActivated:
			return nil
		case gonm.NmActiveConnectionStateDeactivated:
			// NetworkManager tears the connection down on a failed
			// handshake; without the failure reason, a bad key is the
			// common cause.
			return ErrAuthenticationFailed
		}

		select {
		case <-time.After(activationPollInterval):
		case <-ctx.Done():
			return fmt.Errorf("waiting for association: %w", model.ErrTimeout)
		}
	}
}

// logStationInfo logs the associated station's signal, when nl80211 is
// available.
func (d *linuxDriver) logStationInfo() {
	if d.nl == nil {
		return
	}
	interfaces, err := d.nl.Interfaces()
	if err != nil {
		return
	}
	for _, ifi := range interfaces {
		if d.ifaceName != "" && ifi.Name != d.ifaceName {
			continue
		}
		stations, err := d.nl.StationInfo(ifi)
		if err != nil {
			continue
		}
		for _, station := range stations {
			d.logf(iostreams.LevelDebug, "associated: %s signal %d dBm", ifi.Name, station.Signal)
		}
	}
}

// Disconnect deactivates the current connection, falling back to a
// device-level disconnect.
func (d *linuxDriver) Disconnect(ctx context.Context) error {
	_ = ctx
	if d.active != nil {
		err := d.nm.DeactivateConnection(d.active)
		d.active = nil
		if err == nil {
			return nil
		}
	}
	if err := d.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnecting device: %w", err)
	}
	return nil
}

// Close releases the nl80211 handle. The D-Bus connection is shared and
// stays open for the process lifetime.
func (d *linuxDriver) Close() error {
	if d.nl != nil {
		return d.nl.Close()
	}
	return nil
}

func (d *linuxDriver) logf(level iostreams.LogLevel, format string, args ...any) {
	if d.logger != nil {
		d.logger.Log(level, iostreams.CategoryWifi, format, args...)
		return
	}
	iostreams.Log(level, iostreams.CategoryWifi, format, args...)
}

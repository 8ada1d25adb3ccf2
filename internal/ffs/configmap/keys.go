package configmap

// Configuration entry keys. Keys use a dotted Section.Name form; on disk
// each full dotted key is one entry of a flat YAML mapping.
const (
	// KeyCountryCode is the country code, e.g. "US".
	KeyCountryCode = "LocaleConfiguration.CountryCode"
	// KeyRealm is the realm, e.g. "USAmazon".
	KeyRealm = "LocaleConfiguration.Realm"
	// KeyMarketplace is the obfuscated marketplace, e.g. "ATVPDKIKX0DER".
	KeyMarketplace = "LocaleConfiguration.Marketplace"
	// KeyLanguageLocale is the language locale, e.g. "en-US".
	KeyLanguageLocale = "LocaleConfiguration.LanguageLocale"
	// KeyCountryOfResidence is the country of residence, e.g. "US".
	KeyCountryOfResidence = "LocaleConfiguration.CountryOfResidence"
	// KeyRegion is the region, e.g. "US".
	KeyRegion = "LocaleConfiguration.Region"

	// KeyReportingURL is the Device Setup Service reporting URL.
	KeyReportingURL = "DSS.ReportUrl"
	// KeyDSSHost is the Device Setup Service host.
	KeyDSSHost = "DSS.Host"
	// KeyDSSPort is the Device Setup Service port.
	KeyDSSPort = "DSS.Port"
	// KeyCloudPublicKey is the DER-encoded EC public key of the device
	// type's cloud service, used to verify every DSS response signature.
	KeyCloudPublicKey = "DSS.PublicKey"

	// KeyAlexaEventGatewayEndpoint is the client SmartHome endpoint.
	KeyAlexaEventGatewayEndpoint = "SmartHome.AlexaEventGatewayEndpoint"
	// KeySessionToken is the final session token passed by the cloud.
	KeySessionToken = "FFS.SessionToken"
	// KeyUTCTime is the ISO 8601 UTC time.
	KeyUTCTime = "Time.UTC"

	// KeyManufacturerName is the manufacturer name, e.g. "Amazon".
	KeyManufacturerName = "DeviceInformation.ManufacturerName"
	// KeyModelNumber is the device model number, e.g. "A39GNED7NAJGKP".
	KeyModelNumber = "DeviceInformation.ModelNumber"
	// KeySerialNumber is the device serial number, e.g. "G030JU0660540206".
	KeySerialNumber = "DeviceInformation.SerialNumber"
	// KeyHardwareVersion is the hardware revision, e.g. "0.0.0".
	KeyHardwareVersion = "DeviceInformation.HardwareVersion"
	// KeyFirmwareVersion is the firmware revision, e.g. "0.6.195".
	KeyFirmwareVersion = "DeviceInformation.FirmwareVersion"
	// KeyPin is the device PIN; only its salted hash ever leaves the device.
	KeyPin = "DeviceInformation.Pin"
	// KeyCpuID is the device CPU ID, e.g. "0000000b0029444e".
	KeyCpuID = "DeviceInformation.CpuId"
	// KeyBleDeviceName is the BLE device name, e.g. "DashButton".
	KeyBleDeviceName = "DeviceInformation.BleDeviceName"
	// KeyBleTransmitPower is the BLE transmit power as a signed byte.
	KeyBleTransmitPower = "DeviceInformation.BleTransmitPower"
	// KeyWifiMacAddress is the Wi-Fi MAC address bytes.
	KeyWifiMacAddress = "DeviceInformation.WifiMacAddress"
	// KeyProductIndex is the 4-byte product index, e.g. "CbtN".
	KeyProductIndex = "DeviceInformation.ProductIndex"
	// KeySoftwareVersionIndex is the software version index, e.g. "00".
	KeySoftwareVersionIndex = "DeviceInformation.SoftwareVersionIndex"
	// KeyDevicePublicKey is the device's DER-encoded EC public key.
	KeyDevicePublicKey = "DeviceInformation.PublicKey"
)

// KnownKeys lists every key the provisionee recognizes. Cloud-supplied
// configuration for any other key is silently skipped.
var KnownKeys = []string{
	KeyCountryCode,
	KeyRealm,
	KeyMarketplace,
	KeyLanguageLocale,
	KeyCountryOfResidence,
	KeyRegion,
	KeyReportingURL,
	KeyDSSHost,
	KeyDSSPort,
	KeyCloudPublicKey,
	KeyAlexaEventGatewayEndpoint,
	KeySessionToken,
	KeyUTCTime,
	KeyManufacturerName,
	KeyModelNumber,
	KeySerialNumber,
	KeyHardwareVersion,
	KeyFirmwareVersion,
	KeyPin,
	KeyCpuID,
	KeyBleDeviceName,
	KeyBleTransmitPower,
	KeyWifiMacAddress,
	KeyProductIndex,
	KeySoftwareVersionIndex,
	KeyDevicePublicKey,
}

// IsKnown reports whether key is one the provisionee recognizes.
func IsKnown(key string) bool {
	for _, k := range KnownKeys {
		if k == key {
			return true
		}
	}
	return false
}

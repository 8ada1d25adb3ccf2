// Package provisionee is the host embedding surface for the
// Frustration-Free Setup device-side agent. A host hands ProvisionDevice
// the device key material and receives a terminal ProvisioningResult;
// everything between — the ephemeral setup network, the Device Setup
// Service conversation and the hand-off onto the customer's Wi-Fi — is
// driven internally.
package provisionee

import (
	"context"

	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	internal "github.com/ffs-wifi/provisionee/internal/ffs/provisionee"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// KeyType identifies the encoding of caller-supplied key material.
type KeyType = crypto.KeyType

// Key type values.
const (
	KeyTypePEM = crypto.KeyTypePEM
	KeyTypeDER = crypto.KeyTypeDER
)

// KeyMaterial is one key or certificate blob with its explicit encoding.
type KeyMaterial = internal.KeyMaterial

// Args are the inputs to ProvisionDevice.
type Args = internal.Args

// Callbacks let the host steer the session.
type Callbacks = internal.Callbacks

// ProvisioningResult is the terminal exit value of one session.
type ProvisioningResult = model.ProvisioningResult

// Exit values.
const (
	Provisioned     = model.Provisioned
	NotProvisioned  = model.NotProvisioned
	InternalError   = model.InternalError
	InvalidArgument = model.InvalidArgument
	InitError       = model.InitError
)

// ProvisionDevice runs one complete provisioning session.
func ProvisionDevice(ctx context.Context, args Args) (ProvisioningResult, error) {
	return internal.ProvisionDevice(ctx, args)
}

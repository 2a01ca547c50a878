package system

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

// ErrInvalidSystem marks definitions that cannot be resolved into a snapshot
var ErrInvalidSystem = errorsmod.Register(orbital.ModuleName, 5, "invalid system")

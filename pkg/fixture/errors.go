package fixture

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

// ErrInvalidFixture marks records or sets that cannot be checked: empty or
// duplicate names, bad orbit parameters, malformed JSON.
var ErrInvalidFixture = errorsmod.Register(orbital.ModuleName, 4, "invalid fixture")

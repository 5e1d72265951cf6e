package spatial

import "errors"

// Error categories shared by all subpackages. Subpackage errors wrap one of
// these so callers can classify with errors.Is.
var (
	// ErrConfiguration reports invalid construction parameters such as an
	// unsupported ambisonic order, a malformed channel map or an HRIR list
	// of the wrong length. Nothing is created when it is returned.
	ErrConfiguration = errors.New("spatial: invalid configuration")

	// ErrAssetLoad reports that HRIR assets could not be fetched or decoded.
	// The renderer stays silent instead of failing.
	ErrAssetLoad = errors.New("spatial: asset load failed")
)

// SpeedOfSound is the default speed of sound in m/s.
const SpeedOfSound = 343.0

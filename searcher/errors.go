package searcher

import "github.com/pkg/errors"

var (
	// ErrInvalidState reports driver API misuse, such as starting a search
	// on a driver that is already running.
	ErrInvalidState = errors.New("searcher: invalid driver state")

	// ErrNoIterations reports a best-move request with no statistics to
	// decide from and no single legal move to fall back on.
	ErrNoIterations = errors.New("searcher: no iterations to decide from")

	// ErrConfiguration reports an unusable driver configuration.
	ErrConfiguration = errors.New("searcher: invalid configuration")
)

package ports

import "context"

// Connectivity reports whether the remote side is reachable
type Connectivity interface {
	Online() bool
	// Watch delivers every online/offline flip until ctx is done, then
	// closes the channel. Flips are not debounced.
	Watch(ctx context.Context) <-chan bool
}

package quality

import "fmt"

// InsufficientDataError reports a channel that lacks usable samples. It is
// localized: the engine converts it into an unanalyzable result instead of
// aborting the run.
type InsufficientDataError struct {
	Channel string
	Reason  string
}

func NewInsufficientDataError(channel, reason string) *InsufficientDataError {
	return &InsufficientDataError{Channel: channel, Reason: reason}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("channel %s: %s", e.Channel, e.Reason)
}

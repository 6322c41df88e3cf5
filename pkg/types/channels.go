package types

import "github.com/Luksow29/classic-offset-backend/pkg/enums"

// Channels is the set of delivery channels enabled for a notification type.
type Channels []enums.NotificationChannel

// Has reports whether the channel is enabled.
func (c Channels) Has(channel enums.NotificationChannel) bool {
	for _, candidate := range c {
		if candidate == channel {
			return true
		}
	}
	return false
}

// DefaultChannels is the fallback when a user has no preference row for a
// notification type: in-app only.
func DefaultChannels() Channels {
	return Channels{enums.ChannelInApp}
}

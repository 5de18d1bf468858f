package api

import (
	"github.com/corpix/uarand"
)

// UserAgentProvider returns the User-Agent header value for the next request.
// An empty string means the header is not set at all.
type UserAgentProvider interface {
	UserAgent() string
}

// RandomUserAgent picks a new browser User-Agent for every request.
type RandomUserAgent struct{}

func (RandomUserAgent) UserAgent() string {
	return uarand.GetRandom()
}

// StaticUserAgent always returns the same value.
type StaticUserAgent string

func (s StaticUserAgent) UserAgent() string {
	return string(s)
}

// NoUserAgent disables the header, leaving Go's default in place.
type NoUserAgent struct{}

func (NoUserAgent) UserAgent() string {
	return ""
}

// NewUserAgentProvider maps a user supplied value to a provider:
// "" is random, "none" disables the header, anything else is used as-is.
func NewUserAgentProvider(value string) UserAgentProvider {
	switch value {
	case "":
		return RandomUserAgent{}
	case "none":
		return NoUserAgent{}
	default:
		return StaticUserAgent(value)
	}
}

package pusher

import (
	"fmt"
	"regexp"
	"strings"
)

// Channel name prefixes that require authorization.
const (
	PrivatePrefix  = "private-"
	PresencePrefix = "presence-"
)

var socketIDPattern = regexp.MustCompile(`^\d+\.\d+$`)

// ChannelKind classifies a channel by its name prefix.
type ChannelKind int

const (
	// KindOther is a public channel; it needs no authorization.
	KindOther ChannelKind = iota

	// KindPrivate is a channel whose name starts with "private-".
	KindPrivate

	// KindPresence is a channel whose name starts with "presence-".
	KindPresence
)

// KindOf returns the kind of the named channel.
func KindOf(name string) ChannelKind {
	switch {
	case strings.HasPrefix(name, PrivatePrefix):
		return KindPrivate
	case strings.HasPrefix(name, PresencePrefix):
		return KindPresence
	default:
		return KindOther
	}
}

func (k ChannelKind) String() string {
	switch k {
	case KindPrivate:
		return "private"
	case KindPresence:
		return "presence"
	default:
		return "other"
	}
}

// AuthToken is the response a subscribing client presents to join a
// private or presence channel.
type AuthToken struct {
	// Auth is "<key>:<hex signature>".
	Auth string `json:"auth"`

	// ChannelData is the presence user JSON. Empty for private channels.
	ChannelData string `json:"channel_data,omitempty"`
}

func (t AuthToken) String() string { return t.Auth }

// PresenceUser identifies a member of a presence channel.
type PresenceUser struct {
	// ID is the user id shown to other members.
	ID string

	// Info is arbitrary JSON-serializable user data. Nil encodes as {}.
	// Use json.RawMessage to control field order.
	Info any
}

type presenceData struct {
	UserID   string `json:"user_id"`
	UserInfo any    `json:"user_info"`
}

// ChannelData returns the canonical JSON for the user:
// {"user_id":...,"user_info":...}.
func (u PresenceUser) ChannelData() (string, error) {
	info := u.Info
	if info == nil {
		info = struct{}{}
	}

	data, err := marshalJSON(presenceData{UserID: u.ID, UserInfo: info})
	if err != nil {
		return "", fmt.Errorf("%w: encode presence user: %v", ErrValidation, err)
	}

	return string(data), nil
}

// AuthenticatePrivate signs "<socketID>:<channel>" for a private channel.
// Presence and public channels are rejected with ErrInvalidChannelType.
func (c *Client) AuthenticatePrivate(socketID, channel string) (AuthToken, error) {
	if err := validateAuth(socketID, channel, KindPrivate); err != nil {
		return AuthToken{}, err
	}

	return c.token(socketID+":"+channel, ""), nil
}

// AuthenticatePresence signs "<socketID>:<channel>:<channelData>" for a
// presence channel and returns the channel data with the token. Private
// and public channels are rejected with ErrInvalidChannelType.
func (c *Client) AuthenticatePresence(socketID, channel string, user PresenceUser) (AuthToken, error) {
	if err := validateAuth(socketID, channel, KindPresence); err != nil {
		return AuthToken{}, err
	}

	if user.ID == "" {
		return AuthToken{}, fmt.Errorf("%w: presence user id must not be empty", ErrValidation)
	}

	channelData, err := user.ChannelData()
	if err != nil {
		return AuthToken{}, err
	}

	return c.token(socketID+":"+channel+":"+channelData, channelData), nil
}

// Authenticate authorizes socketID on channel, choosing the private or
// presence variant from the channel name. user is required for presence
// channels and ignored otherwise.
func (c *Client) Authenticate(socketID, channel string, user *PresenceUser) (AuthToken, error) {
	switch KindOf(channel) {
	case KindPresence:
		if user == nil {
			return AuthToken{}, fmt.Errorf("%w: presence user must not be nil", ErrValidation)
		}

		return c.AuthenticatePresence(socketID, channel, *user)
	default:
		return c.AuthenticatePrivate(socketID, channel)
	}
}

func (c *Client) token(input, channelData string) AuthToken {
	return AuthToken{
		Auth:        c.signer.Key() + ":" + c.signer.Sign(input),
		ChannelData: channelData,
	}
}

func validateAuth(socketID, channel string, want ChannelKind) error {
	if socketID == "" {
		return fmt.Errorf("%w: socket id must not be empty", ErrValidation)
	}

	if !socketIDPattern.MatchString(socketID) {
		return fmt.Errorf("%w: malformed socket id %q", ErrValidation, socketID)
	}

	if channel == "" {
		return fmt.Errorf("%w: channel name must not be empty", ErrValidation)
	}

	switch got := KindOf(channel); {
	case got == want:
		return nil
	case got == KindOther:
		return fmt.Errorf("%w: %q is neither a private nor a presence channel", ErrInvalidChannelType, channel)
	default:
		return fmt.Errorf("%w: %q is a %s channel, use the %s variant", ErrInvalidChannelType, channel, got, got)
	}
}

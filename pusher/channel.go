package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Protocol limits for a single trigger.
const (
	MaxTriggerChannels = 100
	MaxEventNameLength = 200
)

// Channel is a named channel of a Client.
type Channel struct {
	client *Client
	name   string
}

// Channel returns a handle for the named channel. No request is made.
func (c *Client) Channel(name string) *Channel {
	return &Channel{client: c, name: name}
}

// Name returns the channel name.
func (ch *Channel) Name() string { return ch.name }

func (ch *Channel) String() string { return ch.name }

// Kind returns the channel kind derived from its name prefix.
func (ch *Channel) Kind() ChannelKind { return KindOf(ch.name) }

// Publish sends event with data to this channel.
func (ch *Channel) Publish(ctx context.Context, event string, data any) error {
	return ch.client.Trigger(ctx, []string{ch.name}, event, data)
}

// ChannelInfo is the state of a channel as reported by the API.
type ChannelInfo struct {
	Occupied          bool `json:"occupied"`
	UserCount         int  `json:"user_count,omitempty"`
	SubscriptionCount int  `json:"subscription_count,omitempty"`
}

// Info fetches the channel state. attributes selects optional fields such
// as "user_count" (presence channels only) or "subscription_count".
func (ch *Channel) Info(ctx context.Context, attributes ...string) (ChannelInfo, error) {
	if ch.name == "" {
		return ChannelInfo{}, fmt.Errorf("%w: channel name must not be empty", ErrValidation)
	}

	var query url.Values
	if len(attributes) > 0 {
		query = url.Values{"info": {strings.Join(attributes, ",")}}
	}

	resp, err := ch.client.Dispatch(ctx, http.MethodGet, "channels/"+url.PathEscape(ch.name), nil, query)
	if err != nil {
		return ChannelInfo{}, err
	}

	var info ChannelInfo
	if len(resp.Body) == 0 {
		return info, nil
	}

	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return ChannelInfo{}, fmt.Errorf("pusher: decode channel info: %w", err)
	}

	return info, nil
}

// eventPayload is the body of POST events. Data carries the event JSON as
// a string.
type eventPayload struct {
	Channels []string `json:"channels"`
	Name     string   `json:"name"`
	Data     string   `json:"data"`
}

// Trigger publishes event to every channel in channels. data is serialized
// to JSON text unless it already is a string, []byte or json.RawMessage.
func (c *Client) Trigger(ctx context.Context, channels []string, event string, data any) error {
	if err := validateTrigger(channels, event, data); err != nil {
		return err
	}

	encoded, err := encodeEventData(data)
	if err != nil {
		return err
	}

	_, err = c.Dispatch(ctx, http.MethodPost, "events", eventPayload{
		Channels: channels,
		Name:     event,
		Data:     encoded,
	}, nil)

	return err
}

func validateTrigger(channels []string, event string, data any) error {
	if event == "" {
		return fmt.Errorf("%w: event name must not be empty", ErrValidation)
	}

	if len(event) > MaxEventNameLength {
		return fmt.Errorf("%w: event name must be at most %d characters", ErrValidation, MaxEventNameLength)
	}

	if data == nil {
		return fmt.Errorf("%w: event data must not be nil", ErrValidation)
	}

	if len(channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", ErrValidation)
	}

	if len(channels) > MaxTriggerChannels {
		return fmt.Errorf("%w: got %d, at most %d allowed", ErrTooManyChannels, len(channels), MaxTriggerChannels)
	}

	for _, name := range channels {
		if name == "" {
			return fmt.Errorf("%w: channel name must not be empty", ErrValidation)
		}
	}

	return nil
}

func encodeEventData(data any) (string, error) {
	switch d := data.(type) {
	case string:
		return d, nil
	case []byte:
		return string(d), nil
	case json.RawMessage:
		return string(d), nil
	}

	encoded, err := marshalJSON(data)
	if err != nil {
		return "", fmt.Errorf("%w: encode event data: %v", ErrValidation, err)
	}

	return string(encoded), nil
}

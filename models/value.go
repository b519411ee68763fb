package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ValueKind discriminates the config value types the store accepts.
type ValueKind string

const (
	KindInt     ValueKind = "int"
	KindChannel ValueKind = "channel"
	KindURL     ValueKind = "url"
)

// Value is a tagged union of the supported per-guild config value types:
// an integer threshold, a channel ID, or a URL string. It is serialized as a
// small JSON envelope, one per config file.
type Value struct {
	Kind ValueKind `json:"kind"`
	Int  int64     `json:"int,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// IntValue wraps an integer config value.
func IntValue(n int64) Value {
	return Value{Kind: KindInt, Int: n}
}

// ChannelValue wraps a channel ID config value.
func ChannelValue(id string) Value {
	return Value{Kind: KindChannel, Str: id}
}

// URLValue wraps a URL config value.
func URLValue(u string) Value {
	return Value{Kind: KindURL, Str: u}
}

// Validate checks that the value is well formed for its kind.
func (v Value) Validate() error {
	switch v.Kind {
	case KindInt:
		return nil
	case KindChannel:
		if v.Str == "" {
			return fmt.Errorf("channel value is empty")
		}
		if _, err := strconv.ParseUint(v.Str, 10, 64); err != nil {
			return fmt.Errorf("channel value %q is not a snowflake ID", v.Str)
		}
		return nil
	case KindURL:
		u, err := url.Parse(v.Str)
		if err != nil {
			return fmt.Errorf("invalid URL value %q: %w", v.Str, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("URL value %q must use http or https", v.Str)
		}
		return nil
	default:
		return fmt.Errorf("unknown config value kind %q", v.Kind)
	}
}

// Marshal serializes the value for persistence.
func (v Value) Marshal() ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalValue deserializes a persisted config value and validates it.
func UnmarshalValue(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, fmt.Errorf("failed to decode config value: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	return v, nil
}

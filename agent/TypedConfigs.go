package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// TypedConfig implements functionality for typing a Config. In this
// way, a Config can explicitly have its type stored so that when
// deserializing the Config, we can deserialize it into its concrete
// type without knowing or declaring beforehand a variable of its
// concrete type.
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig types the argument Config and returns it as a
// TypedConfig which explicitly holds its Type
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	ty, ok := registered(raw.Type)
	if !ok {
		return fmt.Errorf("unmarshalJSON: no agent type %q registered",
			raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %w", err)
		}
	}

	config, ok := value.Elem().Interface().(Config)
	if !ok {
		config, ok = value.Interface().(Config)
	}
	if !ok {
		return fmt.Errorf("unmarshalJSON: type %v is not a Config", ty)
	}

	t.Type = raw.Type
	t.Config = config
	return nil
}

// Validate returns an error if the Config is missing or invalid
func (t TypedConfig) Validate() error {
	if t.Config == nil {
		return fmt.Errorf("validate: no config for agent type %q", t.Type)
	}
	if t.Config.Type() != t.Type {
		return fmt.Errorf("validate: config of type %v stored as type %v",
			t.Config.Type(), t.Type)
	}
	return t.Config.Validate()
}

package config

// SecretStringValue is what gets printed instead of the actual value.
const SecretStringValue = "<secret>"

// SecretString is used for fields that should never be visible in logs or
// configuration dumps, like store API tokens.
type SecretString string

// String masks value when printed with fmt or zap.Stringer.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// Reveal returns actual value, to be used only when talking to the store.
func (s SecretString) Reveal() string {
	return string(s)
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}

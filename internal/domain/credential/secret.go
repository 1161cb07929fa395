package credential

import (
	"fmt"
	"sort"
	"strings"
)

const redacted = "[REDACTED]"

// Secret holds a resolved secret value. It formats as [REDACTED] through fmt
// and JSON; the value is only readable through Reveal.
type Secret struct {
	value string
}

// NewSecret wraps a value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the raw value.
func (s Secret) Reveal() string { return s.value }

// Empty reports whether the secret has no value.
func (s Secret) Empty() bool { return s.value == "" }

// String implements fmt.Stringer.
func (s Secret) String() string { return redacted }

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted.
func (s Secret) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(redacted))
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Redact replaces every occurrence of each secret's value in text.
// Longer values are replaced first so a secret that contains another is
// removed whole.
func Redact(text string, secrets ...Secret) string {
	values := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s.value != "" {
			values = append(values, s.value)
		}
	}
	if len(values) == 0 {
		return text
	}
	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })
	for _, v := range values {
		text = strings.ReplaceAll(text, v, redacted)
	}
	return text
}

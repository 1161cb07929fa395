package vault

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// OnePassword resolves op:// references with "op item get".
type OnePassword struct {
	runner  ports.CommandRunner
	session *Session
}

// NewOnePassword creates a OnePassword backend.
func NewOnePassword(runner ports.CommandRunner, session *Session) *OnePassword {
	return &OnePassword{runner: runner, session: session}
}

// Resolve fetches the item and returns the field whose label or id matches
// ref.Field, ignoring case.
func (o *OnePassword) Resolve(ctx context.Context, ref credential.Reference) (credential.Secret, error) {
	if err := o.session.Ensure(ctx); err != nil {
		return credential.Secret{}, credential.Unavailable(ref, err.Error())
	}

	result, err := o.runner.Run(ctx, "op", "item", "get", ref.Item, "--reveal", "--format", "json")
	if err != nil {
		return credential.Secret{}, credential.Unavailable(ref, err.Error())
	}
	if !result.Success() {
		return credential.Secret{}, credential.Unavailable(ref, result.Diagnostic())
	}

	// The payload holds every field of the item; it must not appear in errors.
	if !gjson.Valid(result.Stdout) {
		return credential.Secret{}, credential.Unavailable(ref, "op returned malformed JSON")
	}
	value, found := "", false
	gjson.Get(result.Stdout, "fields").ForEach(func(_, field gjson.Result) bool {
		label := field.Get("label").String()
		id := field.Get("id").String()
		if strings.EqualFold(label, ref.Field) || strings.EqualFold(id, ref.Field) {
			value, found = field.Get("value").String(), true
			return false
		}
		return true
	})
	if !found {
		return credential.Secret{}, credential.Unavailable(ref, "field not found in item")
	}
	if value == "" {
		return credential.Secret{}, credential.Unavailable(ref, "field is empty")
	}
	return credential.NewSecret(value), nil
}

var _ credential.Provider = (*OnePassword)(nil)

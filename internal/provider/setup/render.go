package setup

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// secretSet holds the secrets resolved for one step. It lives only for the
// duration of a single Apply.
type secretSet struct {
	byAlias map[string]credential.Secret
}

func (s *secretSet) values() []credential.Secret {
	out := make([]credential.Secret, 0, len(s.byAlias))
	for _, v := range s.byAlias {
		out = append(out, v)
	}
	return out
}

// redact removes every resolved secret from text.
func (s *secretSet) redact(text string) string {
	return credential.Redact(text, s.values()...)
}

// render executes text as a template with a secret function. Templates
// cannot read anything but the step's own aliases.
func (s *secretSet) render(name, text string) (string, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"secret": func(alias string) (string, error) {
				v, ok := s.byAlias[alias]
				if !ok {
					return "", fmt.Errorf("unknown credential alias %q", alias)
				}
				return v.Reveal(), nil
			},
			"quote": quote,
			"path":  ports.ExpandPath,
		}).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// quote wraps s in double quotes with backslash escapes, the form curl
// config files and most INI readers accept.
func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

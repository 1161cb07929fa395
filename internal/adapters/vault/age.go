package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
	"github.com/tidwall/gjson"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/validation"
)

// Age resolves age:// references from <dir>/<item>.age files, each holding
// an encrypted JSON object of field -> value.
type Age struct {
	fs           ports.FileSystem
	dir          string
	identityPath string

	once       sync.Once
	identities []age.Identity
	idErr      error
}

// NewAge creates an Age backend.
func NewAge(fs ports.FileSystem, dir, identityPath string) *Age {
	return &Age{fs: fs, dir: ports.ExpandPath(dir), identityPath: ports.ExpandPath(identityPath)}
}

func (a *Age) loadIdentities() ([]age.Identity, error) {
	a.once.Do(func() {
		if a.identityPath == "" {
			a.idErr = fmt.Errorf("no age identity configured")
			return
		}
		data, err := a.fs.ReadFile(a.identityPath)
		if err != nil {
			a.idErr = fmt.Errorf("read age identity: %w", err)
			return
		}
		a.identities, err = age.ParseIdentities(bytes.NewReader(data))
		if err != nil {
			a.idErr = fmt.Errorf("parse age identity: %w", err)
		}
	})
	return a.identities, a.idErr
}

// Resolve decrypts the item file in memory and returns the matching field.
func (a *Age) Resolve(_ context.Context, ref credential.Reference) (credential.Secret, error) {
	if err := validation.ValidateItemName(ref.Item); err != nil {
		return credential.Secret{}, credential.Unavailable(ref, "invalid item name")
	}
	ids, err := a.loadIdentities()
	if err != nil {
		return credential.Secret{}, credential.Unavailable(ref, err.Error())
	}

	path := filepath.Join(a.dir, ref.Item+".age")
	ciphertext, err := a.fs.ReadFile(path)
	if err != nil {
		return credential.Secret{}, credential.Unavailable(ref, "item not found")
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), ids...)
	if err != nil {
		return credential.Secret{}, credential.Unavailable(ref, "decrypt: "+err.Error())
	}
	plaintext, err := io.ReadAll(r)
	defer zero(plaintext)
	if err != nil {
		return credential.Secret{}, credential.Unavailable(ref, "decrypt: "+err.Error())
	}
	if !gjson.ValidBytes(plaintext) {
		return credential.Secret{}, credential.Unavailable(ref, "item is not a JSON object")
	}

	value, found := "", false
	gjson.ParseBytes(plaintext).ForEach(func(key, v gjson.Result) bool {
		if strings.EqualFold(key.String(), ref.Field) {
			value, found = v.String(), true
			return false
		}
		return true
	})
	if !found {
		return credential.Secret{}, credential.Unavailable(ref, "field not found in item")
	}
	return credential.NewSecret(value), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var _ credential.Provider = (*Age)(nil)

// Package nameservice reads a folder of wallet key files and creates a name
// service lookup between wallet names and the public keys that identify them
// inside transactions.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// KeyExtension is the file extension of wallet key files.
const KeyExtension = ".key"

// NameService maintains the mapping of names and public keys.
type NameService struct {
	names map[string]string
	keys  map[string]string
}

// New constructs a name service from the key files found under root. The
// name of a wallet is its file name without the extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
		keys:  make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != KeyExtension {
			return nil
		}

		privateKey, err := signature.LoadKey(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		publicKey, err := signature.EncodePublicKey(&privateKey.PublicKey)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", fileName, err)
		}

		name := strings.TrimSuffix(filepath.Base(fileName), KeyExtension)
		ns.names[publicKey] = name
		ns.keys[name] = publicKey

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the public key. Unknown keys are returned
// as given.
func (ns *NameService) Lookup(publicKey string) string {
	name, exists := ns.names[publicKey]
	if !exists {
		return publicKey
	}
	return name
}

// Resolve returns the public key for a wallet name.
func (ns *NameService) Resolve(name string) (string, bool) {
	publicKey, exists := ns.keys[name]
	return publicKey, exists
}

// Copy returns a copy of the map of public keys to names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for publicKey, name := range ns.names {
		cpy[publicKey] = name
	}
	return cpy
}

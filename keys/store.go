package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name    string
	Address common.Address
	Roles   []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".pixelz", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) roleKeyPath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

func checkIdentifier(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, kind)
	}
	return nil
}

func CheckKeyName(name string) error { return checkIdentifier("key name", name) }

func CheckRole(role string) error { return checkIdentifier("role", role) }

// ParseKeyHex parses a hex private key, with or without 0x.
func ParseKeyHex(keyHex string) (*ecdsa.PrivateKey, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	return crypto.HexToECDSA(keyHex)
}

func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func (ks *KeyStore) saveKeyToFile(filePath string, key *ecdsa.PrivateKey, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(common.Bytes2Hex(crypto.FromECDSA(key)) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadKeyFromFile(filePath string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseKeyHex(string(data))
}

// InitializeRootKey stores key (a fresh one when nil) as name's root key.
func (ks *KeyStore) InitializeRootKey(name string, key *ecdsa.PrivateKey, overwrite bool) (addr common.Address, filePath string, err error) {
	if err := CheckKeyName(name); err != nil {
		return common.Address{}, "", err
	}
	if key == nil {
		if key, err = crypto.GenerateKey(); err != nil {
			return common.Address{}, "", err
		}
	}
	filePath = ks.rootKeyPath(name)
	if err := ks.saveKeyToFile(filePath, key, overwrite); err != nil {
		return common.Address{}, "", err
	}
	return Address(key), filePath, nil
}

func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (addr common.Address, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return common.Address{}, "", err
	}
	if err := CheckRole(role); err != nil {
		return common.Address{}, "", err
	}
	root, err := ks.loadKeyFromFile(ks.rootKeyPath(from))
	if err != nil {
		return common.Address{}, "", err
	}
	roleKey, err := DeriveRoleKey(root, role)
	if err != nil {
		return common.Address{}, "", err
	}
	filePath = ks.roleKeyPath(from, role)
	if err := ks.saveKeyToFile(filePath, roleKey, overwrite); err != nil {
		return common.Address{}, "", err
	}
	return Address(roleKey), filePath, nil
}

// ExportKey returns the address of name's root key, or of its role key when
// role is set. Use LoadKey to obtain the private key itself.
func (ks *KeyStore) ExportKey(name, role string) (common.Address, error) {
	key, err := ks.LoadKey("", name, role, "")
	if err != nil {
		return common.Address{}, err
	}
	return Address(key), nil
}

// LoadKey resolves a signer from, in order: a literal hex key, a key file,
// or a named key (optionally a role below it) in the store.
func (ks *KeyStore) LoadKey(keyHex, name, role, keyFile string) (*ecdsa.PrivateKey, error) {
	if keyHex != "" {
		return ParseKeyHex(keyHex)
	}
	if keyFile != "" {
		return ks.loadKeyFromFile(keyFile)
	}
	if name != "" {
		if err := CheckKeyName(name); err != nil {
			return nil, err
		}
		if role == "" {
			return ks.loadKeyFromFile(ks.rootKeyPath(name))
		}
		if err := CheckRole(role); err != nil {
			return nil, err
		}
		return ks.loadKeyFromFile(ks.roleKeyPath(name, role))
	}
	return nil, errors.New("no signer provided")
}

// ParseSigner splits "name" or "name/role".
func ParseSigner(s string) (name, role string) {
	name, role, _ = strings.Cut(s, "/")
	return name, role
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		root, err := ks.loadKeyFromFile(ks.rootKeyPath(name))
		if err != nil {
			continue
		}
		var roles []string
		if roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, name, "roles")); rerr == nil {
			for _, roleEntry := range roleEntries {
				if !roleEntry.IsDir() && strings.HasSuffix(roleEntry.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Name: name, Address: Address(root), Roles: roles})
	}
	return result, nil
}

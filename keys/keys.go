// Package keys provides the RSA signing key pair used to issue UAT tokens.
//
// The private key is written as unencrypted PKCS8 PEM and never leaves the
// store. The public key is written as SubjectPublicKeyInfo PEM and is the only
// artifact registered with Cloud Manager.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	uat "github.com/chimerakang/uat-go"
	"github.com/golang-jwt/jwt/v5"
)

// File names inside the store directory.
const (
	PrivateKeyFile = "private_key.pem"
	PublicKeyFile  = "public_key.pem"
)

// MinBits is the smallest RSA modulus accepted for RS256 signing.
const MinBits = 2048

// ErrKeyExists is returned by Generate when a key pair is already present.
// Replacing it invalidates any configuration registered with the old public key,
// so it requires WithOverwrite.
var ErrKeyExists = errors.New("uat/keys: key pair already exists")

// KeyPair is a freshly generated key pair and where it was written.
type KeyPair struct {
	PrivateKeyPEM  []byte
	PublicKeyPEM   []byte
	PrivateKeyPath string
	PublicKeyPath  string
}

// Store persists a key pair as PEM files in a directory.
type Store struct {
	dir string
}

// compile-time check
var _ uat.KeyProvider = (*Store)(nil)

// NewStore returns a store rooted at dir. An empty dir means uat.DefaultKeyDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = uat.DefaultKeyDir
	}
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// PrivateKeyPath returns the path of the private key file.
func (s *Store) PrivateKeyPath() string { return filepath.Join(s.dir, PrivateKeyFile) }

// PublicKeyPath returns the path of the public key file.
func (s *Store) PublicKeyPath() string { return filepath.Join(s.dir, PublicKeyFile) }

// GenerateOption configures Generate.
type GenerateOption func(*generateConfig)

type generateConfig struct {
	bits      int
	overwrite bool
}

// WithBits sets the RSA modulus size. Values below MinBits are rejected.
func WithBits(bits int) GenerateOption {
	return func(c *generateConfig) { c.bits = bits }
}

// WithOverwrite allows Generate to replace an existing key pair.
func WithOverwrite() GenerateOption {
	return func(c *generateConfig) { c.overwrite = true }
}

// Exists reports whether either key file is present.
func (s *Store) Exists() bool {
	for _, p := range []string{s.PrivateKeyPath(), s.PublicKeyPath()} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// Generate creates a new key pair and writes both files, creating the store
// directory if needed. Every call produces a different pair.
func (s *Store) Generate(opts ...GenerateOption) (*KeyPair, error) {
	cfg := generateConfig{bits: MinBits}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.bits < MinBits {
		return nil, uat.Invalid("bits", "RSA keys need at least %d bits, got %d", MinBits, cfg.bits)
	}
	if !cfg.overwrite && s.Exists() {
		return nil, ErrKeyExists
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, &uat.IOError{Path: s.dir, Err: err}
	}

	key, err := rsa.GenerateKey(rand.Reader, cfg.bits)
	if err != nil {
		return nil, fmt.Errorf("uat/keys: generate: %w", err)
	}

	privPEM, pubPEM, err := Encode(key)
	if err != nil {
		return nil, err
	}

	if err := writeFile(s.PrivateKeyPath(), privPEM, 0o600); err != nil {
		return nil, err
	}
	if err := writeFile(s.PublicKeyPath(), pubPEM, 0o644); err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKeyPEM:  privPEM,
		PublicKeyPEM:   pubPEM,
		PrivateKeyPath: s.PrivateKeyPath(),
		PublicKeyPath:  s.PublicKeyPath(),
	}, nil
}

// LoadPrivateKey reads and parses the private key.
func (s *Store) LoadPrivateKey() (*rsa.PrivateKey, error) {
	data, err := s.read(s.PrivateKeyPath())
	if err != nil {
		return nil, err
	}
	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, &uat.KeyMaterialError{Path: s.PrivateKeyPath(), Err: err}
	}
	return key, nil
}

// LoadPublicKeyPEM reads the public key PEM text. A missing file yields an
// error matching uat.ErrMissingKeyMaterial.
func (s *Store) LoadPublicKeyPEM() ([]byte, error) {
	data, err := s.read(s.PublicKeyPath())
	if err != nil {
		return nil, err
	}
	if _, err := ParsePublicKey(data); err != nil {
		return nil, &uat.KeyMaterialError{Path: s.PublicKeyPath(), Err: err}
	}
	return data, nil
}

// LoadPublicKey reads and parses the public key.
func (s *Store) LoadPublicKey() (*rsa.PublicKey, error) {
	data, err := s.LoadPublicKeyPEM()
	if err != nil {
		return nil, err
	}
	return ParsePublicKey(data)
}

func (s *Store) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &uat.KeyMaterialError{Path: path, Err: uat.ErrMissingKeyMaterial}
	}
	if err != nil {
		return nil, &uat.KeyMaterialError{Path: path, Err: err}
	}
	return data, nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return &uat.IOError{Path: path, Err: err}
	}
	return nil
}

// Encode serializes key as PKCS8 private PEM and SubjectPublicKeyInfo public PEM.
func Encode(key *rsa.PrivateKey) (privPEM, pubPEM []byte, err error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("uat/keys: marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("uat/keys: marshal public key: %w", err)
	}
	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM, nil
}

// ParsePrivateKey parses a PKCS1 or PKCS8 RSA private key PEM.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("uat/keys: parse private key: %w", err)
	}
	return key, nil
}

// ParsePublicKey parses an RSA public key PEM (SubjectPublicKeyInfo, PKCS1 or certificate).
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("uat/keys: parse public key: %w", err)
	}
	return key, nil
}

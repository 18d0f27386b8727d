// Package vault encrypts account login secrets at rest. The account
// directory stores only the ciphertext; placement pipelines open secrets
// just-in-time with the operator master password.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/betswarm/betswarm/internal/domain"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// currentVersion is the ciphertext envelope schema version.
	currentVersion = 1
)

// envelope is the stored ciphertext layout. It is persisted as the raw JSON
// bytes in the account row's secret column.
type envelope struct {
	Version    int    `json:"v"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ct"`
}

// Vault seals and opens login secrets with one master password.
type Vault struct {
	password string
}

// New creates a Vault. The master password must not be empty.
func New(masterPassword string) (*Vault, error) {
	if masterPassword == "" {
		return nil, errors.New("vault: master password must not be empty")
	}
	return &Vault{password: masterPassword}, nil
}

// Seal encrypts a plaintext login secret with PBKDF2-HMAC-SHA256 key
// derivation and AES-256-GCM, returning the envelope bytes to persist.
func (v *Vault) Seal(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("vault: secret must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: generating salt: %w", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault: generating nonce: %w", err)
	}

	env := envelope{
		Version:    currentVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, []byte(secret), nil),
	}
	return json.Marshal(env)
}

// OpenCipher decrypts envelope bytes produced by Seal.
func (v *Vault) OpenCipher(cipherBytes []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(cipherBytes, &env); err != nil {
		return "", fmt.Errorf("vault: parsing envelope: %w", err)
	}
	if env.Version != currentVersion {
		return "", fmt.Errorf("vault: unsupported envelope version %d", env.Version)
	}

	gcm, err := v.aead(env.Salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("vault: decryption failed (wrong master password?): %w", err)
	}
	return string(plaintext), nil
}

// Open implements the placement SecretOpener: it decrypts the account's
// stored ciphertext and pairs it with the account's username.
func (v *Vault) Open(acct domain.Account) (domain.Credentials, error) {
	if len(acct.SecretCipher) == 0 {
		return domain.Credentials{}, fmt.Errorf("vault: account %s has no stored secret", acct.ID)
	}
	password, err := v.OpenCipher(acct.SecretCipher)
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{
		Username: acct.Username,
		Password: password,
	}, nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key([]byte(v.password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("vault: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: creating GCM: %w", err)
	}
	return gcm, nil
}

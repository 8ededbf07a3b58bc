// Package secrets stores gateway credentials in the system keyring.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/webclaw-cli/internal/config"
)

// Credential kinds
const (
	KindToken    = "token"
	KindPassword = "password"
)

const (
	defaultAccountKey = "default_account"
	keyringTimeout    = 5 * time.Second
)

// Environment variables that control the keyring backend
const (
	EnvKeyringBackend  = "WEBCLAW_KEYRING_BACKEND"
	EnvKeyringPassword = "WEBCLAW_KEYRING_PASSWORD"
)

// ErrNotFound is returned when no credential is stored for a profile.
var ErrNotFound = errors.New("credential not found")

var errKeyringTimeout = errors.New("timed out opening keyring")

var keyringOpenFunc = keyring.Open

// Credential is what the CLI keeps per profile: the secret used to reach
// the gateway and where that gateway lives.
type Credential struct {
	Profile    string    `json:"profile"`
	Secret     string    `json:"secret"`
	Kind       string    `json:"kind,omitempty"`
	GatewayURL string    `json:"gateway_url,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Store is the credential store used by the CLI.
type Store interface {
	Keys() ([]string, error)
	SetCredential(profile string, cred Credential) error
	GetCredential(profile string) (Credential, error)
	DeleteCredential(profile string) error
	ListCredentials() ([]Credential, error)
	GetDefaultAccount() (string, error)
	SetDefaultAccount(profile string) error
}

// KeyringStore implements Store on top of a keyring.Keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringBackendInfo describes which backend was requested and where the
// choice came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

const (
	backendSourceEnv     = "env"
	backendSourceConfig  = "config"
	backendSourceDefault = "default"
)

// ResolveKeyringBackendInfo determines the backend from the environment,
// then the config file, then "auto".
func ResolveKeyringBackendInfo() (KeyringBackendInfo, error) {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvKeyringBackend))); v != "" {
		return KeyringBackendInfo{Value: v, Source: backendSourceEnv}, nil
	}
	cfg, err := config.ReadConfig()
	if err != nil {
		return KeyringBackendInfo{}, err
	}
	if v := strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)); v != "" {
		return KeyringBackendInfo{Value: v, Source: backendSourceConfig}, nil
	}
	return KeyringBackendInfo{Value: "auto", Source: backendSourceDefault}, nil
}

func allowedBackends(info KeyringBackendInfo) ([]keyring.BackendType, error) {
	switch info.Value {
	case "", "auto":
		return nil, nil
	case "keychain":
		return []keyring.BackendType{keyring.KeychainBackend}, nil
	case "file":
		return []keyring.BackendType{keyring.FileBackend}, nil
	case "secret-service":
		return []keyring.BackendType{keyring.SecretServiceBackend}, nil
	case "wincred":
		return []keyring.BackendType{keyring.WinCredBackend}, nil
	default:
		return nil, fmt.Errorf("invalid keyring_backend %q (source: %s); expected auto, keychain, file, secret-service or wincred", info.Value, info.Source)
	}
}

// shouldForceFileBackend reports whether an auto backend on Linux has no
// D-Bus session to reach the secret service through.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening the keyring may block on
// an unresponsive secret service.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func filePassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv(EnvKeyringPassword); ok {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// OpenDefault opens the keyring selected by the environment or config.
func OpenDefault() (Store, error) {
	info, err := ResolveKeyringBackendInfo()
	if err != nil {
		return nil, err
	}
	backends, err := allowedBackends(info)
	if err != nil {
		return nil, err
	}

	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		backends = []keyring.BackendType{keyring.FileBackend}
	}

	keyringDir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, err
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		AllowedBackends:          backends,
		KeychainTrustApplication: runtime.GOOS == "darwin",
		FileDir:                  keyringDir,
		FilePasswordFunc:         filePassword,
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return &KeyringStore{ring: ring}, nil
}

type openResult struct {
	ring keyring.Keyring
	err  error
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	ch := make(chan openResult, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- openResult{ring: ring, err: err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s: the secret service did not respond; set %s=file (and %s) to use the encrypted file backend",
			errKeyringTimeout, timeout, EnvKeyringBackend, EnvKeyringPassword)
	}
}

// wrapKeychainError adds recovery steps to locked-keychain errors.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	if keychainLocked(err.Error()) {
		return fmt.Errorf("%w\n\nThe login keychain is locked. Unlock it with:\n  security unlock-keychain %s", err, loginKeychainPath())
	}
	return err
}

func keychainLocked(msg string) bool {
	return strings.Contains(msg, "errSecInteractionNotAllowed") || strings.Contains(msg, "-25308")
}

func credentialKey(profile string) string {
	return "credential:" + profile
}

// Keys lists every raw key in the keyring.
func (s *KeyringStore) Keys() ([]string, error) {
	return s.ring.Keys()
}

// SetCredential stores cred under profile.
func (s *KeyringStore) SetCredential(profile string, cred Credential) error {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return errors.New("missing profile")
	}
	if strings.TrimSpace(cred.Secret) == "" {
		return errors.New("missing secret")
	}
	cred.Profile = profile
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:   credentialKey(profile),
		Data:  data,
		Label: config.AppName + " " + profile,
	}))
}

// GetCredential returns the credential stored under profile.
func (s *KeyringStore) GetCredential(profile string) (Credential, error) {
	item, err := s.ring.Get(credentialKey(strings.TrimSpace(profile)))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, wrapKeychainError(err)
	}
	var cred Credential
	if err := json.Unmarshal(item.Data, &cred); err != nil {
		return Credential{}, fmt.Errorf("decoding credential: %w", err)
	}
	return cred, nil
}

// DeleteCredential removes the credential for profile. A missing credential
// is not an error.
func (s *KeyringStore) DeleteCredential(profile string) error {
	err := s.ring.Remove(credentialKey(strings.TrimSpace(profile)))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return wrapKeychainError(err)
	}
	return nil
}

// ListCredentials returns all stored credentials sorted by profile.
func (s *KeyringStore) ListCredentials() ([]Credential, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	var out []Credential
	for _, key := range keys {
		profile, ok := strings.CutPrefix(key, "credential:")
		if !ok {
			continue
		}
		cred, err := s.GetCredential(profile)
		if err != nil {
			continue
		}
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profile < out[j].Profile })
	return out, nil
}

// GetDefaultAccount returns the default profile, or "" when unset.
func (s *KeyringStore) GetDefaultAccount() (string, error) {
	item, err := s.ring.Get(defaultAccountKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", wrapKeychainError(err)
	}
	return string(item.Data), nil
}

// SetDefaultAccount records the default profile.
func (s *KeyringStore) SetDefaultAccount(profile string) error {
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:  defaultAccountKey,
		Data: []byte(strings.TrimSpace(profile)),
	}))
}

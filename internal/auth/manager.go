package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const serviceName = "gdmirror"

// Manager resolves service account credentials and stores imported keys
type Manager struct {
	configDir      string
	storage        StorageBackend
	storageWarning string
	scopes         []string
}

// NewManager creates a manager that stores keys in the system keyring, or
// in encrypted files under configDir when no keyring is available
func NewManager(configDir string) *Manager {
	mgr := &Manager{
		configDir: configDir,
		scopes:    []string{utils.ScopeReadonly},
	}

	if checkKeyringAvailable() {
		mgr.storage = NewKeyringStorage(serviceName)
		return mgr
	}

	storage, err := NewEncryptedFileStorage(configDir)
	if err != nil {
		mgr.storageWarning = fmt.Sprintf("WARNING: no keyring and encrypted storage unavailable (%v); stored keys cannot be used", err)
		return mgr
	}
	mgr.storage = storage
	mgr.storageWarning = "INFO: System keyring not available. Using encrypted file storage."
	return mgr
}

// NewManagerWithStorage creates a manager over an explicit backend
func NewManagerWithStorage(storage StorageBackend) *Manager {
	return &Manager{
		storage: storage,
		scopes:  []string{utils.ScopeReadonly},
	}
}

// checkKeyringAvailable tests if system keyring is available
func checkKeyringAvailable() bool {
	testKey := serviceName + "-availability"
	if err := keyring.Set(serviceName, testKey, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey)
	return true
}

// GetStorageBackend names the active storage backend
func (m *Manager) GetStorageBackend() string {
	if m.storage == nil {
		return "none"
	}
	return m.storage.Name()
}

// GetStorageWarning returns a notice about degraded key storage, if any
func (m *Manager) GetStorageWarning() string {
	return m.storageWarning
}

// ImportKey validates key and stores it under profile
func (m *Manager) ImportKey(profile string, key *ServiceAccountKey) error {
	if profile == "" {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument, "profile name is required").Build())
	}
	if err := key.Validate(); err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthInvalid, err.Error()).Build())
	}
	if m.storage == nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, "no key storage available").Build())
	}
	data, err := key.JSON()
	if err != nil {
		return err
	}
	if err := m.storage.Save(profile, data); err != nil {
		return utils.NewIOError("store key", profile, err)
	}
	return nil
}

// LoadKey returns the key stored under profile
func (m *Manager) LoadKey(profile string) (*ServiceAccountKey, error) {
	if m.storage == nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, "no key storage available").Build())
	}
	data, err := m.storage.Load(profile)
	if err != nil {
		return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).
			WithContext("profile", profile).
			WithContext("suggestedAction", "run 'gdmirror auth import' for this profile").
			Build(), err)
	}
	return ParseKey(data)
}

// RemoveKey deletes the key stored under profile
func (m *Manager) RemoveKey(profile string) error {
	if m.storage == nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, "no key storage available").Build())
	}
	if err := m.storage.Delete(profile); err != nil {
		return utils.WrapAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).
			WithContext("profile", profile).
			Build(), err)
	}
	return nil
}

// ResolveKey returns the key selected by the credential settings
func (m *Manager) ResolveKey(creds config.CredentialsConfig) (*ServiceAccountKey, error) {
	if err := creds.Validate(); err != nil {
		return nil, utils.NewConfigError("invalid credentials", err)
	}

	switch {
	case creds.KeyFile != "":
		key, err := LoadKeyFile(creds.KeyFile)
		if err != nil {
			return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeAuthInvalid, err.Error()).
				WithContext("keyFile", creds.KeyFile).
				Build(), err)
		}
		return key, nil
	case creds.KeyringProfile != "":
		return m.LoadKey(creds.KeyringProfile)
	default:
		key := NewInlineKey(creds.ClientEmail, creds.PrivateKey)
		if err := key.Validate(); err != nil {
			return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthInvalid, err.Error()).Build())
		}
		return key, nil
	}
}

// Credentials turns a key into a token source for the Drive scope
func (m *Manager) Credentials(ctx context.Context, key *ServiceAccountKey) (*google.Credentials, error) {
	data, err := key.JSON()
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, m.scopes...)
	if err != nil {
		return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeAuthInvalid,
			fmt.Sprintf("failed to parse service account key: %s", err)).Build(), err)
	}
	return creds, nil
}

// GetHTTPClient returns an authorized client. With debug set, every
// request and response is logged through logger.
func (m *Manager) GetHTTPClient(ctx context.Context, creds *google.Credentials, logger logging.Logger, debug bool) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if debug && logger != nil {
		base = logging.NewDebugTransport(base, logger)
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, creds.TokenSource),
			Base:   base,
		},
	}
}

// GetDriveService creates a Drive API service from credentials
func (m *Manager) GetDriveService(ctx context.Context, creds *google.Credentials, logger logging.Logger, debug bool) (*drive.Service, error) {
	client := m.GetHTTPClient(ctx, creds, logger, debug)
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("failed to create Drive service: %s", err)).Build(), err)
	}
	return svc, nil
}

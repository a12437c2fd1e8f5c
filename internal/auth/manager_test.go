package auth

import (
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/zalando/go-keyring"
)

func TestNewManagerUsesKeyring(t *testing.T) {
	keyring.MockInit()

	mgr := NewManager(t.TempDir())
	if mgr.GetStorageBackend() != "system-keyring" {
		t.Errorf("backend = %s, want system-keyring", mgr.GetStorageBackend())
	}
	if mgr.GetStorageWarning() != "" {
		t.Errorf("unexpected warning %q", mgr.GetStorageWarning())
	}
}

func TestManagerImportLoadRemove(t *testing.T) {
	storage, err := NewEncryptedFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := NewManagerWithStorage(storage)

	key := NewInlineKey("svc@p.iam.gserviceaccount.com", testPEM)
	if err := mgr.ImportKey("mirror", key); err != nil {
		t.Fatalf("ImportKey() = %v", err)
	}

	loaded, err := mgr.LoadKey("mirror")
	if err != nil {
		t.Fatalf("LoadKey() = %v", err)
	}
	if loaded.ClientEmail != key.ClientEmail || loaded.PrivateKey != key.PrivateKey {
		t.Errorf("loaded key mismatch: %+v", loaded)
	}

	if err := mgr.RemoveKey("mirror"); err != nil {
		t.Fatalf("RemoveKey() = %v", err)
	}
	_, err = mgr.LoadKey("mirror")
	if utils.ErrorCode(err) != utils.ErrCodeAuthRequired {
		t.Errorf("LoadKey after remove code = %s, want %s", utils.ErrorCode(err), utils.ErrCodeAuthRequired)
	}
}

func TestManagerImportRejectsInvalid(t *testing.T) {
	keyring.MockInit()
	mgr := NewManagerWithStorage(NewKeyringStorage("gdmirror-test"))

	tests := []struct {
		name    string
		profile string
		key     *ServiceAccountKey
		code    string
	}{
		{"empty profile", "", NewInlineKey("a@b.com", testPEM), utils.ErrCodeInvalidArgument},
		{"bad key", "p", NewInlineKey("", testPEM), utils.ErrCodeAuthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.ImportKey(tt.profile, tt.key)
			if utils.ErrorCode(err) != tt.code {
				t.Errorf("ImportKey() code = %s, want %s", utils.ErrorCode(err), tt.code)
			}
		})
	}
}

func TestManagerResolveKey(t *testing.T) {
	keyring.MockInit()
	mgr := NewManagerWithStorage(NewKeyringStorage("gdmirror-test"))
	if err := mgr.ImportKey("stored", NewInlineKey("stored@p.com", testPEM)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		creds     config.CredentialsConfig
		wantEmail string
		wantCode  string
	}{
		{
			name:      "inline",
			creds:     config.CredentialsConfig{ClientEmail: "inline@p.com", PrivateKey: testPEM},
			wantEmail: "inline@p.com",
		},
		{
			name:      "keyring",
			creds:     config.CredentialsConfig{KeyringProfile: "stored"},
			wantEmail: "stored@p.com",
		},
		{
			name:     "none",
			creds:    config.CredentialsConfig{},
			wantCode: utils.ErrCodeConfigInvalid,
		},
		{
			name:     "two sources",
			creds:    config.CredentialsConfig{KeyFile: "k.json", KeyringProfile: "stored"},
			wantCode: utils.ErrCodeConfigInvalid,
		},
		{
			name:     "unknown profile",
			creds:    config.CredentialsConfig{KeyringProfile: "nope"},
			wantCode: utils.ErrCodeAuthRequired,
		},
		{
			name:     "inline without email",
			creds:    config.CredentialsConfig{PrivateKey: testPEM},
			wantCode: utils.ErrCodeConfigInvalid,
		},
		{
			name:     "inline key not pem",
			creds:    config.CredentialsConfig{ClientEmail: "a@b.com", PrivateKey: "not-a-key"},
			wantCode: utils.ErrCodeAuthInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := mgr.ResolveKey(tt.creds)
			if tt.wantCode != "" {
				if utils.ErrorCode(err) != tt.wantCode {
					t.Fatalf("ResolveKey() code = %s (%v), want %s", utils.ErrorCode(err), err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveKey() = %v", err)
			}
			if key.ClientEmail != tt.wantEmail {
				t.Errorf("ClientEmail = %s, want %s", key.ClientEmail, tt.wantEmail)
			}
		})
	}
}

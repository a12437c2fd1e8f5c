package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const serviceAccountType = "service_account"

// ServiceAccountKey represents the JSON structure of a service account key file
type ServiceAccountKey struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id,omitempty"`
	PrivateKeyID            string `json:"private_key_id,omitempty"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id,omitempty"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri,omitempty"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
}

// NewInlineKey builds a key from an email and PEM private key. Escaped
// newlines ("\n" as two characters), common when the key comes from an
// environment variable, are turned into real ones.
func NewInlineKey(clientEmail, privateKey string) *ServiceAccountKey {
	return &ServiceAccountKey{
		Type:        serviceAccountType,
		ClientEmail: strings.TrimSpace(clientEmail),
		PrivateKey:  NormalizePrivateKey(privateKey),
	}
}

var escapedLineBreaks = strings.NewReplacer(`\r\n`, "\n", `\r`, "\n", `\n`, "\n")

// NormalizePrivateKey turns escaped \r\n, \r and \n sequences into newlines
func NormalizePrivateKey(key string) string {
	return escapedLineBreaks.Replace(key)
}

// ParseKey parses and validates service account key JSON
func ParseKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	if key.Type == "" {
		key.Type = serviceAccountType
	}
	key.PrivateKey = NormalizePrivateKey(key.PrivateKey)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &key, nil
}

// LoadKeyFile reads a service account key from disk
func LoadKeyFile(path string) (*ServiceAccountKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key %s: %w", path, err)
	}
	return ParseKey(data)
}

// Validate checks the fields needed to mint tokens
func (k *ServiceAccountKey) Validate() error {
	if k.Type != serviceAccountType {
		return fmt.Errorf("invalid service account key type: %s", k.Type)
	}
	if k.ClientEmail == "" {
		return fmt.Errorf("missing client_email in service account key")
	}
	if k.PrivateKey == "" {
		return fmt.Errorf("missing private_key in service account key")
	}
	if !strings.Contains(k.PrivateKey, "PRIVATE KEY") {
		return fmt.Errorf("private_key is not a PEM encoded key")
	}
	return nil
}

// JSON encodes the key in the format google.CredentialsFromJSON expects
func (k *ServiceAccountKey) JSON() ([]byte, error) {
	return json.Marshal(k)
}

package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// CredentialInput carries a new brokerage connection. The raw key and
// secret exist only for the duration of the create request; the gateway
// never stores them.
type CredentialInput struct {
	Exchange   string `json:"exchange"`
	APIKey     string `json:"apiKey"`
	APISecret  string `json:"apiSecret"`
	Passphrase string `json:"passphrase,omitempty"`
	Version    string `json:"version,omitempty"`
}

// VerifyKeysInput carries exchange credentials for a dry-run validation
type VerifyKeysInput struct {
	Exchange   string `json:"exchange"`
	APIKey     string `json:"apiKey"`
	APISecret  string `json:"apiSecret"`
	Passphrase string `json:"passphrase,omitempty"`
}

// verifyKeysResult is the wire shape of the verify-keys response
type verifyKeysResult struct {
	Valid bool `json:"valid"`
}

// CreateCredential registers a new brokerage connection with the backend
func (c *Client) CreateCredential(ctx context.Context, input CredentialInput) (*domain.Credential, error) {
	data, err := c.do(ctx, http.MethodPost, "/crypto/credentials/", input)
	if err != nil {
		return nil, err
	}

	var cred domain.Credential
	if err := decode(data, &cred); err != nil {
		return nil, err
	}
	if cred.ID == "" {
		return nil, fmt.Errorf("backend credential response missing id")
	}

	return &cred, nil
}

// ListCredentials fetches all brokerage connections for a user
func (c *Client) ListCredentials(ctx context.Context, userID string) ([]domain.Credential, error) {
	data, err := c.do(ctx, http.MethodGet, "/crypto/credentials/"+userID, nil)
	if err != nil {
		return nil, err
	}

	var creds []domain.Credential
	if err := decode(data, &creds); err != nil {
		return nil, err
	}

	return creds, nil
}

// UpdateCredential updates an existing brokerage connection
func (c *Client) UpdateCredential(ctx context.Context, id string, input CredentialInput) (*domain.Credential, error) {
	data, err := c.do(ctx, http.MethodPut, "/crypto/credentials/"+id, input)
	if err != nil {
		return nil, err
	}

	var cred domain.Credential
	if err := decode(data, &cred); err != nil {
		return nil, err
	}
	if cred.ID == "" {
		return nil, fmt.Errorf("backend credential response missing id")
	}

	return &cred, nil
}

// DeleteCredential removes a brokerage connection
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/crypto/credentials/"+id, nil)
	return err
}

// VerifyKeys asks the backend to validate exchange credentials without
// storing them.
func (c *Client) VerifyKeys(ctx context.Context, input VerifyKeysInput) (bool, error) {
	data, err := c.do(ctx, http.MethodPost, "/crypto/exchange/verify-keys", input)
	if err != nil {
		return false, err
	}

	var result verifyKeysResult
	if err := decode(data, &result); err != nil {
		return false, err
	}

	return result.Valid, nil
}

// Package googleauth loads Google service-account credentials and exchanges them for
// OAuth2 access tokens using the JWT-bearer grant.
package googleauth

import (
	"encoding/json"
	"errors"
	"fmt"
)

// IndexingScope is the OAuth2 scope required by the Indexing API.
const IndexingScope = "https://www.googleapis.com/auth/indexing"

var (
	// ErrCredentialParse reports a service-account blob that is not a JSON object.
	ErrCredentialParse = errors.New("parse service account credential")
	// ErrAuthentication reports a failed or empty token exchange.
	ErrAuthentication = errors.New("authenticate service account")
)

// Credential holds the service-account fields needed for the JWT-bearer grant.
type Credential struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseCredential decodes a service-account JSON key. Only well-formedness is checked;
// missing fields surface later as authentication failures.
func ParseCredential(raw string) (Credential, error) {
	var cred *Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrCredentialParse, err)
	}
	if cred == nil {
		return Credential{}, fmt.Errorf("%w: null is not an object", ErrCredentialParse)
	}
	return *cred, nil
}

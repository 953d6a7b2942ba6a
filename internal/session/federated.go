package session

import "github.com/roomly-dev/roomly/internal/identity"

// FederatedOutcome tells whether the identity provider created the account
// during this sign-in
type FederatedOutcome int

const (
	Existing FederatedOutcome = iota
	New
)

func (o FederatedOutcome) String() string {
	if o == New {
		return "new"
	}
	return "existing"
}

func outcomeOf(cred *identity.Credential) FederatedOutcome {
	if cred.IsNewUser {
		return New
	}
	return Existing
}

// backendPath picks the single backend call for the outcome
func (o FederatedOutcome) backendPath() string {
	if o == New {
		return registerPath
	}
	return loginPath
}

package models

// Tokens is the bearer token pair issued by POST /token/.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// SessionState is the persisted client session. It is written verbatim to
// the session repository under the workspace's storage key.
type SessionState struct {
	User          *User  `json:"user"`
	Tokens        Tokens `json:"tokens"`
	Authenticated bool   `json:"isAuthenticated"`
}

package models

// IdentityKind tags which account table a caller lives in.
type IdentityKind string

const (
	IdentityRider  IdentityKind = "user"
	IdentityDriver IdentityKind = "driver"
)

// Identity is the caller resolved by the authentication provider.
type Identity struct {
	Kind  IdentityKind
	ID    uint
	Email string
}

func (i Identity) IsRider() bool  { return i.Kind == IdentityRider }
func (i Identity) IsDriver() bool { return i.Kind == IdentityDriver }

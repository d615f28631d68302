package domain

import "encoding/json"

// Session describes whether a storefront user is currently signed in.
// A zero-value Session is unauthenticated.
type Session struct {
	UserID          int64 `json:"user_id"`
	IsAuthenticated bool  `json:"is_authenticated"`
}

// Identity is the persisted "current user" record written to client storage
// after a successful login. It mirrors what the backend's login reply carries.
type Identity struct {
	ID        FlexInt64 `json:"id"`
	FirstName string    `json:"firstname,omitempty"`
	LastName  string    `json:"lastname,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
}

// Session derives the session view of the identity record. A record without a
// positive user id does not authenticate.
func (id Identity) Session() Session {
	if id.ID <= 0 {
		return Session{}
	}
	return Session{UserID: int64(id.ID), IsAuthenticated: true}
}

// ParseIdentity decodes a stored identity record. Malformed data yields a
// zero Identity and false rather than an error: a corrupt record means
// "no session", never a failure.
func ParseIdentity(data []byte) (Identity, bool) {
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false
	}
	if id.ID <= 0 {
		return Identity{}, false
	}
	return id, true
}

package model

// Session is the identity issued by sign-in. UserID is sent as the caller
// identity on every request.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Valid reports whether the session carries an identity.
func (s Session) Valid() bool {
	return s.UserID != ""
}

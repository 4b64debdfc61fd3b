package auth

import "strings"

// Credentials are the out-of-band override username/password typed into a
// protected dialog. They are checked on every call and never retained.
type Credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// Pair is one configured override credential pair. A password of the form
// "bcrypt:<hash>" is verified against the bcrypt hash.
type Pair struct {
	Username string
	Password string
}

const bcryptPrefix = "bcrypt:"

func (p Pair) configured() bool {
	return strings.TrimSpace(p.Username) != "" && p.Password != ""
}

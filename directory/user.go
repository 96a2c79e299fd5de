package directory

import "net/url"

// User is one record returned by the directory endpoint.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Params filters a directory listing.
type Params struct {
	Name string
}

// Key identifies the cached result for p. Two Params share a key iff their
// fields are equal.
func (p Params) Key() string {
	return "users:name=" + url.QueryEscape(p.Name)
}

package client

import (
	"encoding/base64"
	"net/http"
)

// Credentials decides how requests are authorized. It is either BasicAuth or
// Anonymous.
type Credentials interface {
	// Authenticated reports whether requests carry credentials.
	Authenticated() bool

	apply(h http.Header)
}

// BasicAuth sends HTTP Basic credentials with JSON content negotiation.
type BasicAuth struct {
	Username string
	Password string
}

// Authenticated implements Credentials.
func (BasicAuth) Authenticated() bool { return true }

func (b BasicAuth) apply(h http.Header) {
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", b.HeaderValue())
}

// HeaderValue returns the Authorization header value.
func (b BasicAuth) HeaderValue() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(b.Username+":"+b.Password))
}

// String keeps the password out of formatted output.
func (b BasicAuth) String() string {
	return "BasicAuth{" + b.Username + ":***}"
}

// GoString keeps the password out of %#v output.
func (b BasicAuth) GoString() string {
	return b.String()
}

// Anonymous sends requests without Authorization, Accept or Content-Type
// headers. The remote service answers with an authorization error.
type Anonymous struct{}

// Authenticated implements Credentials.
func (Anonymous) Authenticated() bool { return false }

func (Anonymous) apply(http.Header) {}

// Connection describes where and as whom requests are sent.
type Connection struct {
	// BaseURL is the REST API root without a trailing slash,
	// e.g. "https://codebeamer.example.com/cb/api/v3". It is used verbatim.
	BaseURL string

	// Credentials is BasicAuth or Anonymous; nil means Anonymous.
	Credentials Credentials
}

// NewConnection returns a BasicAuth connection when both username and
// password are non-empty, and an Anonymous one otherwise.
func NewConnection(baseURL, username, password string) Connection {
	conn := Connection{BaseURL: baseURL, Credentials: Anonymous{}}
	if username != "" && password != "" {
		conn.Credentials = BasicAuth{Username: username, Password: password}
	}
	return conn
}

// Authenticated reports whether requests on this connection carry credentials.
func (c Connection) Authenticated() bool {
	return c.Credentials != nil && c.Credentials.Authenticated()
}

func (c Connection) applyHeaders(h http.Header) {
	if c.Credentials == nil {
		return
	}
	c.Credentials.apply(h)
}

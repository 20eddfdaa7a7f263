package http

// Auth carries the outcome of authenticating a request. A handler only
// ever sees a Request after Auth.Access is true — access control is
// enforced by the dispatch layer, not by each handler.
type Auth struct {
	Account string
	Access  bool

	// Extra lets an application attach its own data (claims, roles, a DB
	// row) to the authenticated identity, without this package needing to
	// know its shape.
	Extra any
}

// AuthRequest is what an Authenticator receives: the raw Authorization
// header value (possibly empty) plus the request it arrived on, so an
// authenticator can factor in method, route or remote address.
type AuthRequest struct {
	AuthHeader string
	Request    *Request
}

// Authenticator decides whether a request is allowed through. When none is
// supplied, the session falls back to AllowAllAuthenticator; applications
// supply their own for real credential checks.
type Authenticator func(AuthRequest) Auth

// AllowAllAuthenticator grants access to every request under the account
// name "anonymous". Useful for examples and for servers that enforce
// authentication at a layer above this library (a reverse proxy, a VPN).
func AllowAllAuthenticator(_ AuthRequest) Auth {
	return Auth{Account: "anonymous", Access: true}
}

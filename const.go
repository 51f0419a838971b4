package oauth2

// ResponseType the type of authorization request
type ResponseType string

// define the type of authorization request
const (
	Code ResponseType = "code"
)

func (rt ResponseType) String() string {
	return string(rt)
}

// GrantType authorization model
type GrantType string

// define authorization model
const (
	AuthorizationCode GrantType = "authorization_code"
)

func (gt GrantType) String() string {
	return string(gt)
}

// TokenType the type of access token on the wire
type TokenType string

// define the supported token types; MAC is registered but not accepted by
// header-based validation
const (
	Bearer TokenType = "Bearer"
	MAC    TokenType = "MAC"
)

func (tt TokenType) String() string {
	return string(tt)
}

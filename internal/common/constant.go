package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
// gRPC metadata uses the lower-cased form.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the optional scheme in front of the token.
const BearerPrefix = "Bearer "

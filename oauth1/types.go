package oauth1

import "errors"

// SignatureMethodPlaintext is the only signature method the provider accepts for web applications.
// Signature: the consumer secret and token secret joined with "&", sent as-is over TLS.
const SignatureMethodPlaintext = "PLAINTEXT"

// OAuth parameter names used in Authorization headers and token responses.
const (
	ParamConsumerKey       = "oauth_consumer_key"
	ParamNonce             = "oauth_nonce"
	ParamToken             = "oauth_token"
	ParamTokenSecret       = "oauth_token_secret"
	ParamSignature         = "oauth_signature"
	ParamSignatureMethod   = "oauth_signature_method"
	ParamTimestamp         = "oauth_timestamp"
	ParamVersion           = "oauth_version"
	ParamCallback          = "oauth_callback"
	ParamCallbackConfirmed = "oauth_callback_confirmed"
	ParamVerifier          = "oauth_verifier"
)

var (
	ErrMissingConsumerKey    = errors.New("consumer key is required")
	ErrMissingConsumerSecret = errors.New("consumer secret is required")
)

// ConsumerCredential identifies this application to the provider.
// Lifetime: loaded once at startup, immutable, never stored per user.
type ConsumerCredential struct {
	// Key is the consumer key issued by the provider.
	// Sent as: oauth_consumer_key on every request
	Key string

	// Secret is the consumer secret issued by the provider.
	// Sent as: first half of the PLAINTEXT signature ("<secret>&")
	// Security: never logged, never placed in a URL
	Secret string
}

// Validate reports a configuration problem when either half of the credential is empty.
func (c ConsumerCredential) Validate() error {
	if c.Key == "" {
		return ErrMissingConsumerKey
	}
	if c.Secret == "" {
		return ErrMissingConsumerSecret
	}
	return nil
}

// TokenCredential is a token/secret pair used to sign a request on behalf of a user.
// Used in: access-token exchange (request token pair) and every call after login (access token pair)
type TokenCredential struct {
	Token  string
	Secret string
}

// RequestToken is the temporary credential returned by the request-token endpoint.
// Lifetime: from issuance until the callback completes or the login attempt is abandoned.
// Storage: transient (flash) storage only, never the long-lived session.
type RequestToken struct {
	// Token is sent to the authorize page and echoed back on the callback as oauth_token.
	Token string

	// TokenSecret signs the access-token exchange ("<consumer secret>&<token secret>").
	// Security: never exposed in a redirect URL
	TokenSecret string

	// CallbackConfirmed is true when the provider accepted the oauth_callback we sent.
	// A false value means the login attempt must be aborted.
	CallbackConfirmed bool
}

// Credential returns the pair used to sign the access-token exchange.
func (t RequestToken) Credential() *TokenCredential {
	return &TokenCredential{Token: t.Token, Secret: t.TokenSecret}
}

// AccessToken is the long-lived credential representing one user's grant to this application.
// Lifetime: until logout or provider-side revocation (which surfaces as a failed signed call).
type AccessToken struct {
	Token       string `json:"accessToken"`
	TokenSecret string `json:"accessTokenSecret"`
}

// Credential returns the pair used to sign calls made on behalf of the user.
func (t AccessToken) Credential() *TokenCredential {
	return &TokenCredential{Token: t.Token, Secret: t.TokenSecret}
}

// Param is a single additional OAuth parameter. Params keep the order they are given in.
type Param struct {
	Key   string
	Value string
}

// Callback builds the oauth_callback parameter sent with the request-token call.
func Callback(callbackURL string) Param {
	return Param{Key: ParamCallback, Value: callbackURL}
}

// Verifier builds the oauth_verifier parameter sent with the access-token call.
func Verifier(verifier string) Param {
	return Param{Key: ParamVerifier, Value: verifier}
}

// Version builds the oauth_version parameter. Catalog calls send "1.0".
func Version() Param {
	return Param{Key: ParamVersion, Value: "1.0"}
}

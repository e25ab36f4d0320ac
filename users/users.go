package users

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/vinylogger/oauth1"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Identity is the minimal profile fetched right after login and cached in the session.
// It is not refreshed automatically and can go stale.
type Identity struct {
	ID                int    `json:"id" validate:"required"`             // Discogs user id
	Username          string `json:"username" validate:"required"`       // Discogs username, used to build catalog URLs
	ResourceURL       string `json:"resourceUrl"`                        // API URL of the user resource
	ConsumerName      string `json:"consumerName"`                       // Name of the application the grant was issued to
	Avatar            string `json:"avatar"`                             // Avatar image URL
	ItemsInCollection int    `json:"itemsInCollection" validate:"gte=0"` // Number of releases in the collection
	ItemsInWantlist   int    `json:"itemsInWantlist" validate:"gte=0"`   // Number of releases in the wantlist
}

// User is the authenticated user stored in the session: identity, the access token pair and
// the consumer credential, i.e. everything needed to sign a catalog call later.
type User struct {
	Identity

	AccessToken       string `json:"accessToken" validate:"required"`
	AccessTokenSecret string `json:"accessTokenSecret" validate:"required"`
	ConsumerKey       string `json:"consumerKey" validate:"required"`
	ConsumerSecret    string `json:"consumerSecret" validate:"required"`
}

// New assembles the authenticated user at the end of a successful login.
func New(consumer oauth1.ConsumerCredential, token oauth1.AccessToken, identity Identity) *User {
	return &User{
		Identity:          identity,
		AccessToken:       token.Token,
		AccessTokenSecret: token.TokenSecret,
		ConsumerKey:       consumer.Key,
		ConsumerSecret:    consumer.Secret,
	}
}

// Validate reports missing required fields. A user failing validation is never stored or used.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	return nil
}

// Consumer returns the consumer credential the user's grant was issued to.
func (u *User) Consumer() oauth1.ConsumerCredential {
	return oauth1.ConsumerCredential{Key: u.ConsumerKey, Secret: u.ConsumerSecret}
}

// Token returns the access token pair used to sign calls on the user's behalf.
func (u *User) Token() *oauth1.TokenCredential {
	return &oauth1.TokenCredential{Token: u.AccessToken, Secret: u.AccessTokenSecret}
}

// ValidateIdentity checks an identity assembled from provider responses.
func ValidateIdentity(identity Identity) error {
	if err := validate.Struct(identity); err != nil {
		return fmt.Errorf("invalid identity: %w", err)
	}
	return nil
}

package features

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/cache"
	"github.com/jonwraymond/ems/observe"
)

// Users manages dashboard accounts and the current user's profile photo.
type Users struct {
	feature *cache.Feature
	CRUD[User, UserInput]
	UpdateProfilePhoto *cache.Operation[*Upload, User]
}

func newUsers(c *api.Client, o Options) *Users {
	f := o.newFeature(FeatureUser)
	u := &Users{
		feature: f,
		CRUD: defineCRUD[User, UserInput](f, c, resource{singular: "User", plural: "Users", path: "/users", noun: "user"},
			func(u User) string { return u.ID }),
	}
	// Keep the password out of the key.
	u.Create.KeyBy(func(in UserInput) any { return in.Email })

	sessions, logger := o.Sessions, o.logger()
	u.UpdateProfilePhoto = cache.MustDefine(f, "updateProfilePhoto", func(ctx context.Context, photo *Upload) (User, error) {
		if photo == nil {
			return User{}, errNoPhoto
		}
		var out User
		form := api.Form{Files: []api.File{photo.file("photo")}}
		if err := c.Upload(ctx, http.MethodPut, "/users/profile-photo", form, &out, "Failed to update profile photo"); err != nil {
			return User{}, err
		}
		mirrorPhoto(ctx, sessions, logger, out.PhotoURL)
		return out, nil
	})
	return u
}

var errNoPhoto = &api.Error{Message: "No photo selected"}

// mirrorPhoto writes the new photo URL into the persisted session so the
// header avatar survives a restart. The upload already succeeded, so a
// storage failure is logged rather than returned.
func mirrorPhoto(ctx context.Context, sessions auth.SessionStore, logger observe.Logger, url string) {
	if sessions == nil || url == "" {
		return
	}
	err := sessions.UpdateUser(func(u *auth.User) { u.PhotoURL = url })
	if err != nil && !errors.Is(err, auth.ErrNoSession) {
		logger.Warn(ctx, "mirror profile photo", observeErr(err))
	}
}

// Feature returns the underlying cache feature.
func (u *Users) Feature() *cache.Feature { return u.feature }

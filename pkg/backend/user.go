package backend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/oauth"
	"github.com/tricox-dev/tricox/pkg/proto"
	"github.com/tricox-dev/tricox/pkg/utils"
)

// adminSeedSalt is the salt of the password written by the legacy login
// bootstrap, kept so bootstrapped hashes match existing deployments.
const adminSeedSalt = "seed_salt"

func normalizeEmail(email string) string {
	return utils.SanitizeEmail(email)
}

// IsAdmin reports whether user is the administrator. There is no role
// table, the administrator is whoever owns the configured admin email.
func (d *Backend) IsAdmin(user proto.User) bool {
	return user != nil && d.isAdminEmail(user.Email())
}

func (d *Backend) isAdminEmail(email string) bool {
	return d.cfg.Admin.Email != "" && normalizeEmail(email) == normalizeEmail(d.cfg.Admin.Email)
}

// UserByID finds a user by ID.
func (d *Backend) UserByID(ctx context.Context, id int64) (proto.User, error) {
	m, err := d.store.GetUserByID(ctx, d.db, id)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		d.logger.Error("error finding user", "id", id, "error", err)
		return nil, err
	}

	return d.loadUser(ctx, d.db, m)
}

// UserByEmail finds a user by email.
func (d *Backend) UserByEmail(ctx context.Context, email string) (proto.User, error) {
	m, err := d.store.FindUserByEmail(ctx, d.db, normalizeEmail(email))
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		d.logger.Error("error finding user", "email", email, "error", err)
		return nil, err
	}

	return d.loadUser(ctx, d.db, m)
}

func (d *Backend) loadUser(ctx context.Context, h db.Handler, m models.User) (proto.User, error) {
	orgs, err := d.store.ListOrgsByUserID(ctx, h, m.ID)
	if err != nil {
		return nil, db.WrapError(err)
	}

	return &user{user: m, orgs: orgs}, nil
}

// Users returns all users except the administrator.
func (d *Backend) Users(ctx context.Context) ([]proto.User, error) {
	ms, err := d.store.GetAllUsers(ctx, d.db)
	if err != nil {
		return nil, db.WrapError(err)
	}

	users := make([]proto.User, 0, len(ms))
	for _, m := range ms {
		if d.isAdminEmail(m.Email) {
			continue
		}

		u, err := d.loadUser(ctx, d.db, m)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, nil
}

// createUserWithOrg creates a user and its organization in one
// transaction.
func (d *Backend) createUserWithOrg(ctx context.Context, email, password, orgName string) (proto.User, error) {
	var u proto.User
	err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		m, err := d.store.CreateUser(ctx, tx, email, password)
		if err != nil {
			err = db.WrapError(err)
			if errors.Is(err, db.ErrDuplicateKey) {
				return proto.ErrUserExist
			}
			return err
		}

		if _, err := d.store.CreateOrg(ctx, tx, m.ID, orgName); err != nil {
			err = db.WrapError(err)
			if errors.Is(err, db.ErrDuplicateKey) {
				return proto.ErrOrgExist
			}
			return err
		}

		u, err = d.loadUser(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Signup registers a new user and its organization. Signup does not log
// the user in.
func (d *Backend) Signup(ctx context.Context, email, orgName, password string) (proto.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, proto.NewError(proto.ErrValidation, "email is required")
	}

	if _, err := d.store.FindUserByEmail(ctx, d.db, email); err == nil {
		return nil, proto.ErrUserExist
	} else if err = db.WrapError(err); !errors.Is(err, db.ErrRecordNotFound) {
		return nil, err
	}

	if d.isAdminEmail(email) {
		return nil, proto.ErrEmailReserved
	}

	if password == "" {
		return nil, proto.ErrPasswordRequired
	}

	orgName, err := validateOrgName(orgName)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := d.createUserWithOrg(ctx, email, hash, orgName)
	if err != nil {
		return nil, err
	}

	d.logger.Info("user signed up", "email", email, "org", orgName)
	return u, nil
}

// ProvisionAdmin creates the administrator account and its organization.
// It returns proto.ErrUserExist when the account already exists.
func (d *Backend) ProvisionAdmin(ctx context.Context, password string) (proto.User, error) {
	if password == "" {
		return nil, proto.ErrPasswordRequired
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return d.provisionAdmin(ctx, hash)
}

func (d *Backend) provisionAdmin(ctx context.Context, hash string) (proto.User, error) {
	email := normalizeEmail(d.cfg.Admin.Email)
	if email == "" {
		return nil, proto.NewError(proto.ErrValidation, "admin email is not configured")
	}

	u, err := d.createUserWithOrg(ctx, email, hash, d.cfg.Admin.Org)
	if err != nil {
		return nil, err
	}

	d.logger.Info("provisioned admin user", "email", email, "org", d.cfg.Admin.Org)
	return u, nil
}

// bootstrapAdmin creates the administrator on first login when the legacy
// bootstrap is enabled.
func (d *Backend) bootstrapAdmin(ctx context.Context, email string) error {
	if !d.cfg.Admin.Bootstrap || d.cfg.Admin.SeedPassword == "" || !d.isAdminEmail(email) {
		return nil
	}

	if _, err := d.store.FindUserByEmail(ctx, d.db, email); err == nil {
		return nil
	}

	hash := HashPasswordWithSalt(d.cfg.Admin.SeedPassword, adminSeedSalt)
	if _, err := d.provisionAdmin(ctx, hash); err != nil && !errors.Is(err, proto.ErrUserExist) {
		return err
	}

	return nil
}

// checkPassword verifies password against the stored hash of u.
// Placeholder and malformed hashes are not checked. OAuth only accounts
// reject passwords, except for the administrator.
func (d *Backend) checkPassword(u models.User, password string) error {
	switch {
	case IsPlaceholderHash(u.Password):
		return nil
	case u.Password == HashGitHubOAuth:
		if d.isAdminEmail(u.Email) {
			return nil
		}
		return proto.ErrOAuthOnly
	case !isWellFormedHash(u.Password):
		return nil
	case !VerifyPassword(password, u.Password):
		return proto.ErrInvalidPassword
	}

	return nil
}

// Login authenticates a user by email and optional password and returns
// the user with a session token. The "Web Login" token is reused when it
// exists.
func (d *Backend) Login(ctx context.Context, email, password string) (proto.User, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", proto.NewError(proto.ErrValidation, "email is required")
	}

	if err := d.bootstrapAdmin(ctx, email); err != nil {
		return nil, "", err
	}

	m, err := d.store.FindUserByEmail(ctx, d.db, email)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, "", proto.NewError(proto.ErrNotFound, "user not found, please sign up")
		}
		return nil, "", err
	}

	if password != "" {
		if err := d.checkPassword(m, password); err != nil {
			return nil, "", err
		}
	}

	token, err := d.sessionToken(ctx, m.ID, WebLoginToken, WebLoginToken)
	if err != nil {
		return nil, "", err
	}

	u, err := d.loadUser(ctx, d.db, m)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// GitHubAuthURL returns the GitHub authorization URL and its state.
func (d *Backend) GitHubAuthURL(context.Context) (string, string, error) {
	if d.github == nil {
		return "", "", proto.NewError(proto.ErrValidation, "github login is not configured")
	}

	var state string
	if d.states != nil {
		var err error
		state, err = d.states.Sign()
		if err != nil {
			return "", "", err
		}
	}

	return d.github.AuthCodeURL(state), state, nil
}

// OAuthLogin logs in with a GitHub authorization code. Unknown emails get
// a new OAuth only account with an organization named after the GitHub
// handle.
func (d *Backend) OAuthLogin(ctx context.Context, code, state string) (proto.User, string, error) {
	if d.github == nil {
		return nil, "", proto.NewError(proto.ErrValidation, "github login is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, "", proto.NewError(proto.ErrValidation, "code is required")
	}
	if d.states != nil {
		if err := d.states.Verify(state); err != nil {
			return nil, "", proto.NewError(proto.ErrValidation, "%s", err)
		}
	}

	id, err := d.github.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrExchange) {
			return nil, "", proto.NewError(proto.ErrValidation, "%s", err)
		}
		return nil, "", err
	}

	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, "", proto.NewError(proto.ErrValidation, "no email found from GitHub")
	}

	u, err := d.UserByEmail(ctx, email)
	switch {
	case err == nil:
		token, err := d.sessionToken(ctx, u.ID(), GitHubSessionToken, WebLoginToken, GitHubSessionToken)
		if err != nil {
			return nil, "", err
		}
		return u, token, nil
	case !errors.Is(err, proto.ErrUserNotFound):
		return nil, "", err
	}

	if d.isAdminEmail(email) {
		return nil, "", proto.ErrEmailReserved
	}

	u, err = d.createUserWithOrg(ctx, email, HashGitHubOAuth, id.Login+"-org")
	if errors.Is(err, proto.ErrUserExist) {
		// Lost a race with a concurrent first login.
		return d.oauthRelogin(ctx, email)
	}
	if err != nil {
		return nil, "", err
	}

	token, err := d.issueAccessToken(ctx, d.db, u.ID(), GitHubSessionToken)
	if err != nil {
		return nil, "", err
	}

	d.logger.Info("created user from github", "email", email, "login", id.Login)
	return u, token, nil
}

func (d *Backend) oauthRelogin(ctx context.Context, email string) (proto.User, string, error) {
	u, err := d.UserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	token, err := d.sessionToken(ctx, u.ID(), GitHubSessionToken, WebLoginToken, GitHubSessionToken)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ChangePassword sets a new password for the user. The old password is
// not checked for placeholder and OAuth only accounts.
func (d *Backend) ChangePassword(ctx context.Context, userID int64, oldPass, newPass string) (proto.User, error) {
	if newPass == "" {
		return nil, proto.NewError(proto.ErrValidation, "new password is required")
	}

	m, err := d.store.GetUserByID(ctx, d.db, userID)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	if m.Password != HashGitHubOAuth && !IsPlaceholderHash(m.Password) &&
		isWellFormedHash(m.Password) && !VerifyPassword(oldPass, m.Password) {
		return nil, proto.NewError(proto.ErrUnauthorized, "incorrect old password")
	}

	hash, err := HashPassword(newPass)
	if err != nil {
		return nil, err
	}

	if err := d.store.SetUserPassword(ctx, d.db, userID, hash); err != nil {
		return nil, db.WrapError(err)
	}

	return d.UserByID(ctx, userID)
}

// DeleteUser deletes a user with everything it owns: tokens, then the
// versions and components of its organizations, then the organizations.
func (d *Backend) DeleteUser(ctx context.Context, id int64) (proto.User, error) {
	var (
		u    proto.User
		keys []string
	)

	err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		m, err := d.store.GetUserByID(ctx, tx, id)
		if err != nil {
			err = db.WrapError(err)
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrUserNotFound
			}
			return err
		}

		if u, err = d.loadUser(ctx, tx, m); err != nil {
			return err
		}

		if keys, err = d.store.ListBlobKeysByUserID(ctx, tx, id); err != nil {
			return db.WrapError(err)
		}

		for _, step := range []func(context.Context, db.Handler, int64) error{
			d.store.DeleteAccessTokensByUserID,
			d.store.DeleteVersionsByUserID,
			d.store.DeleteComponentsByUserID,
			d.store.DeleteOrgsByUserID,
			d.store.DeleteUserByID,
		} {
			if err := step(ctx, tx, id); err != nil {
				return db.WrapError(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range u.Orgs() {
		d.cache.Delete(o.Name())
	}
	d.deleteBlobs(ctx, keys)

	d.logger.Info("deleted user", "id", id, "email", u.Email())
	return u, nil
}

type user struct {
	user models.User
	orgs []models.Organization
}

var _ proto.User = (*user)(nil)

// ID implements proto.User.
func (u *user) ID() int64 {
	return u.user.ID
}

// Email implements proto.User.
func (u *user) Email() string {
	return u.user.Email
}

// Password implements proto.User.
func (u *user) Password() string {
	return u.user.Password
}

// CreatedAt implements proto.User.
func (u *user) CreatedAt() time.Time {
	return u.user.CreatedAt
}

// Orgs implements proto.User.
func (u *user) Orgs() []proto.Org {
	return toOrgs(u.orgs)
}

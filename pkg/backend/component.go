package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/proto"
)

// Ship appends a new version of a component, creating the organization
// and the component on first use. The component visibility is only
// recorded when the component is created.
func (d *Backend) Ship(ctx context.Context, caller proto.User, opts proto.ShipOptions) (proto.Package, error) {
	name, err := validateName("component", opts.Name)
	if err != nil {
		return proto.Package{}, err
	}

	orgName, err := validateOrgName(opts.Org)
	if err != nil {
		return proto.Package{}, err
	}

	owner, err := d.ensureUser(ctx, caller.Email())
	if err != nil {
		return proto.Package{}, err
	}

	o, err := d.findOrCreateOrg(ctx, owner.ID, orgName)
	if err != nil {
		return proto.Package{}, err
	}

	if o.UserID != owner.ID {
		return proto.Package{}, proto.NewError(proto.ErrForbidden,
			"you do not have permission to ship to organization %q, switch to one of your own organizations", orgName)
	}

	c, err := d.findOrCreateComponent(ctx, o.ID, name, opts.Public)
	if err != nil {
		return proto.Package{}, err
	}

	deps := opts.Dependencies
	if deps == nil {
		deps = []string{}
	}

	meta := map[string]interface{}{"dependencies": deps}
	v, err := d.appendVersion(ctx, c.ID, opts.Content, meta)
	if err != nil {
		return proto.Package{}, err
	}

	d.logger.Info("shipped component", "org", o.Name, "component", c.Name, "version", v.Version)

	return proto.Package{
		Org:       o.Name,
		Component: c.Name,
		Version:   v.Version,
		Content:   opts.Content,
		Metadata:  meta,
	}, nil
}

// ensureUser returns the user with the given email, creating one with a
// placeholder password when it does not exist.
func (d *Backend) ensureUser(ctx context.Context, email string) (models.User, error) {
	email = normalizeEmail(email)
	u, err := d.store.FindUserByEmail(ctx, d.db, email)
	if err == nil {
		return u, nil
	}
	if err = db.WrapError(err); !errors.Is(err, db.ErrRecordNotFound) {
		return u, err
	}

	u, err = d.store.CreateUser(ctx, d.db, email, HashMock)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			u, err = d.store.FindUserByEmail(ctx, d.db, email)
			return u, db.WrapError(err)
		}
		return u, err
	}

	d.logger.Info("created user on ship", "email", email)
	return u, nil
}

func (d *Backend) findOrCreateComponent(ctx context.Context, orgID int64, name string, isPublic bool) (models.Component, error) {
	c, err := d.store.FindComponentByName(ctx, d.db, orgID, name)
	if err == nil {
		return c, nil
	}
	if err = db.WrapError(err); !errors.Is(err, db.ErrRecordNotFound) {
		return c, err
	}

	c, err = d.store.CreateComponent(ctx, d.db, orgID, name, isPublic)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			c, err = d.store.FindComponentByName(ctx, d.db, orgID, name)
			return c, db.WrapError(err)
		}
		return c, err
	}

	return c, nil
}

func blobKey(componentID, versionID int64) string {
	return fmt.Sprintf("components/%d/%d", componentID, versionID)
}

// appendVersion creates a new version of a component. When a blob storage
// is configured, the content is written under the version key before the
// version row is committed.
func (d *Backend) appendVersion(ctx context.Context, componentID int64, content string, meta map[string]interface{}) (models.Version, error) {
	mb, err := json.Marshal(meta)
	if err != nil {
		return models.Version{}, err
	}

	version := fmt.Sprintf("1.0.%d", d.now().UnixMilli())

	var v models.Version
	if d.blobs == nil {
		v, err = d.store.CreateVersion(ctx, d.db, componentID, version, content, string(mb))
		if err != nil {
			return v, db.WrapError(err)
		}
	} else {
		var key string
		err = d.db.TransactionContext(ctx, func(tx *db.Tx) error {
			v, err = d.store.CreateVersion(ctx, tx, componentID, version, "", string(mb))
			if err != nil {
				return db.WrapError(err)
			}

			key = blobKey(componentID, v.ID)
			if _, err := d.blobs.Put(ctx, key, strings.NewReader(content)); err != nil {
				return fmt.Errorf("store version content: %w", err)
			}

			v.BlobKey = key
			return db.WrapError(d.store.SetVersionBlobKey(ctx, tx, v.ID, key))
		})
		if err != nil {
			if key != "" {
				d.deleteBlobs(ctx, []string{key})
			}
			return v, err
		}
	}

	if err := d.store.TouchComponent(ctx, d.db, componentID); err != nil {
		return v, db.WrapError(err)
	}

	shipCounter.Inc()
	return v, nil
}

// readContent returns the content of a version.
func (d *Backend) readContent(ctx context.Context, v models.Version) (string, error) {
	if v.BlobKey == "" {
		return v.Content, nil
	}
	if d.blobs == nil {
		return "", fmt.Errorf("version %d is stored in blob storage, but no blob storage is configured", v.ID)
	}

	r, err := d.blobs.Open(ctx, v.BlobKey)
	if err != nil {
		return "", fmt.Errorf("open version content: %w", err)
	}
	defer r.Close() // nolint: errcheck

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// deleteBlobs removes version contents from blob storage. Failures are
// logged.
func (d *Backend) deleteBlobs(ctx context.Context, keys []string) {
	if d.blobs == nil {
		return
	}
	for _, key := range keys {
		if err := d.blobs.Delete(ctx, key); err != nil {
			d.logger.Warn("failed to delete version content", "key", key, "err", err)
		}
	}
}

func decodeMetadata(s string) map[string]interface{} {
	meta := map[string]interface{}{}
	if s == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(s), &meta); err != nil || meta == nil {
		return map[string]interface{}{}
	}
	return meta
}

// component returns the organization and component named by orgName and
// name.
func (d *Backend) component(ctx context.Context, orgName, name string) (models.Organization, models.Component, error) {
	o, err := d.findOrg(ctx, d.db, orgName)
	if err != nil {
		return o, models.Component{}, err
	}

	c, err := d.findComponent(ctx, o.ID, name)
	if !errors.Is(err, proto.ErrComponentNotFound) {
		return o, c, err
	}

	// The cached organization may have been deleted and recreated by
	// another process.
	fresh, ferr := d.loadOrg(ctx, d.db, orgName)
	if ferr != nil {
		return fresh, c, ferr
	}
	if fresh.ID == o.ID {
		return o, c, err
	}

	c, err = d.findComponent(ctx, fresh.ID, name)
	return fresh, c, err
}

func (d *Backend) findComponent(ctx context.Context, orgID int64, name string) (models.Component, error) {
	c, err := d.store.FindComponentByName(ctx, d.db, orgID, name)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return c, proto.ErrComponentNotFound
		}
		return c, err
	}
	return c, nil
}

// Dock returns a version of a component and counts the download. An empty
// version selects the latest version.
func (d *Backend) Dock(ctx context.Context, orgName, name, version string) (proto.Package, error) {
	o, c, err := d.component(ctx, orgName, name)
	if err != nil {
		return proto.Package{}, err
	}

	var v models.Version
	if version == "" {
		v, err = d.store.GetLatestVersion(ctx, d.db, c.ID)
	} else {
		v, err = d.store.FindVersion(ctx, d.db, c.ID, version)
	}
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.Package{}, proto.ErrVersionNotFound
		}
		return proto.Package{}, err
	}

	content, err := d.readContent(ctx, v)
	if err != nil {
		return proto.Package{}, err
	}

	if err := d.store.IncrementComponentDownloads(ctx, d.db, c.ID); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.Package{}, proto.ErrComponentNotFound
		}
		return proto.Package{}, err
	}

	dockCounter.Inc()

	return proto.Package{
		Org:       o.Name,
		Component: c.Name,
		Version:   v.Version,
		Content:   content,
		Metadata:  decodeMetadata(v.Metadata),
	}, nil
}

// Components lists the components of an organization.
func (d *Backend) Components(ctx context.Context, orgName string, onlyPublic bool) ([]proto.Component, error) {
	o, err := d.loadOrg(ctx, d.db, orgName)
	if err != nil {
		return nil, err
	}

	ms, err := d.store.ListComponentsByOrgID(ctx, d.db, o.ID, onlyPublic)
	if err != nil {
		return nil, db.WrapError(err)
	}

	return toComponents(ms), nil
}

// AllComponents lists every component of the registry.
func (d *Backend) AllComponents(ctx context.Context) ([]proto.Component, error) {
	ms, err := d.store.ListAllComponents(ctx, d.db)
	if err != nil {
		return nil, db.WrapError(err)
	}

	return toComponents(ms), nil
}

// Stats returns the registry counters.
func (d *Backend) Stats(ctx context.Context) (proto.Stats, error) {
	ships, err := d.store.CountVersions(ctx, d.db)
	if err != nil {
		return proto.Stats{}, db.WrapError(err)
	}

	fetches, err := d.store.CountDownloads(ctx, d.db)
	if err != nil {
		return proto.Stats{}, db.WrapError(err)
	}

	return proto.Stats{TotalShips: ships, TotalFetches: fetches}, nil
}

// ownedComponent returns a component and its organization, failing with
// proto.ErrForbidden when user does not own the organization.
func (d *Backend) ownedComponent(ctx context.Context, h db.Handler, id int64, user proto.User, action string) (models.Component, models.Organization, error) {
	c, o, err := d.componentByID(ctx, h, id)
	if err != nil {
		return c, o, err
	}

	if user == nil || o.UserID != user.ID() {
		return c, o, proto.NewError(proto.ErrForbidden, "you do not have permission to %s this component", action)
	}

	return c, o, nil
}

func (d *Backend) componentByID(ctx context.Context, h db.Handler, id int64) (models.Component, models.Organization, error) {
	c, err := d.store.GetComponentByID(ctx, h, id)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return c, models.Organization{}, proto.ErrComponentNotFound
		}
		return c, models.Organization{}, err
	}

	o, err := d.store.GetOrgByID(ctx, h, c.OrgID)
	if err != nil {
		return c, o, db.WrapError(err)
	}

	return c, o, nil
}

// DeleteComponent deletes a component and its versions.
func (d *Backend) DeleteComponent(ctx context.Context, id int64, user proto.User) error {
	var keys []string
	err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, _, err := d.ownedComponent(ctx, tx, id, user, "delete"); err != nil {
			return err
		}

		var err error
		if keys, err = d.store.ListBlobKeysByComponentID(ctx, tx, id); err != nil {
			return db.WrapError(err)
		}

		if err := d.store.DeleteVersionsByComponentID(ctx, tx, id); err != nil {
			return db.WrapError(err)
		}

		return db.WrapError(d.store.DeleteComponentByID(ctx, tx, id))
	})
	if err != nil {
		return err
	}

	d.deleteBlobs(ctx, keys)
	d.logger.Info("deleted component", "id", id, "user", user.Email())
	return nil
}

// canRead reports whether caller may read the details of a component.
func (d *Backend) canRead(c models.Component, o models.Organization, caller proto.User) bool {
	if c.Public || d.cfg.Policy.PublicDetails {
		return true
	}
	return caller != nil && (caller.ID() == o.UserID || d.IsAdmin(caller))
}

// ComponentDetails returns a component with the content of its latest
// version. caller may be nil.
func (d *Backend) ComponentDetails(ctx context.Context, caller proto.User, id int64) (proto.ComponentDetails, error) {
	c, o, err := d.componentByID(ctx, d.db, id)
	if err != nil {
		return proto.ComponentDetails{}, err
	}

	if !d.canRead(c, o, caller) {
		return proto.ComponentDetails{}, proto.ErrComponentNotFound
	}

	details := proto.ComponentDetails{
		Component: proto.Component{
			ID:            c.ID,
			Name:          c.Name,
			OrgID:         o.ID,
			OrgName:       o.Name,
			OwnerID:       o.UserID,
			Public:        c.Public,
			Downloads:     c.Downloads,
			LatestVersion: proto.ZeroVersion,
			CreatedAt:     c.CreatedAt,
			UpdatedAt:     c.UpdatedAt,
		},
		Metadata: map[string]interface{}{},
	}

	v, err := d.store.GetLatestVersion(ctx, d.db, c.ID)
	if err != nil {
		if err = db.WrapError(err); errors.Is(err, db.ErrRecordNotFound) {
			return details, nil
		}
		return details, err
	}

	if details.Content, err = d.readContent(ctx, v); err != nil {
		return details, err
	}
	details.LatestVersion = v.Version
	details.Metadata = decodeMetadata(v.Metadata)

	return details, nil
}

// UpdateComponent appends a version with new content to a component owned
// by user.
func (d *Backend) UpdateComponent(ctx context.Context, id int64, content string, user proto.User) (proto.Version, error) {
	c, _, err := d.ownedComponent(ctx, d.db, id, user, "update")
	if err != nil {
		return proto.Version{}, err
	}

	meta := map[string]interface{}{"updatedBy": "web-editor"}
	v, err := d.appendVersion(ctx, c.ID, content, meta)
	if err != nil {
		return proto.Version{}, err
	}

	d.logger.Info("updated component", "id", c.ID, "version", v.Version)

	return proto.Version{
		ID:        v.ID,
		Version:   v.Version,
		Content:   content,
		Metadata:  meta,
		CreatedAt: v.CreatedAt,
	}, nil
}

// SetComponentVisibility changes the visibility of a component owned by
// user.
func (d *Backend) SetComponentVisibility(ctx context.Context, id int64, isPublic bool, user proto.User) error {
	c, _, err := d.ownedComponent(ctx, d.db, id, user, "change")
	if err != nil {
		return err
	}

	if err := d.store.SetComponentPublic(ctx, d.db, c.ID, isPublic); err != nil {
		return db.WrapError(err)
	}

	d.logger.Info("changed component visibility", "id", c.ID, "public", isPublic)
	return nil
}

// Versions lists the versions of a component, newest first, without their
// content.
func (d *Backend) Versions(ctx context.Context, caller proto.User, orgName, name string) ([]proto.Version, error) {
	o, c, err := d.component(ctx, orgName, name)
	if err != nil {
		return nil, err
	}

	if !d.canRead(c, o, caller) {
		return nil, proto.ErrComponentNotFound
	}

	ms, err := d.store.ListVersions(ctx, d.db, c.ID)
	if err != nil {
		return nil, db.WrapError(err)
	}

	versions := make([]proto.Version, 0, len(ms))
	for _, v := range ms {
		versions = append(versions, proto.Version{
			ID:        v.ID,
			Version:   v.Version,
			Metadata:  decodeMetadata(v.Metadata),
			CreatedAt: v.CreatedAt,
		})
	}

	return versions, nil
}

func toComponents(ms []models.ComponentSummary) []proto.Component {
	cs := make([]proto.Component, 0, len(ms))
	for _, m := range ms {
		latest := m.LatestVersion
		if latest == "" {
			latest = proto.ZeroVersion
		}
		cs = append(cs, proto.Component{
			ID:            m.ID,
			Name:          m.Name,
			OrgID:         m.OrgID,
			OrgName:       m.OrgName,
			OwnerID:       m.OwnerID,
			OwnerEmail:    m.OwnerEmail,
			Public:        m.Public,
			Downloads:     m.Downloads,
			LatestVersion: latest,
			CreatedAt:     m.CreatedAt,
			UpdatedAt:     m.UpdatedAt,
		})
	}
	return cs
}

package store

// Store is the registry data store.
type Store interface {
	UserStore
	OrgStore
	ComponentStore
	VersionStore
	AccessTokenStore
}

package backend

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// cache keeps organizations by name for read paths. Entries go stale when
// the owner is deleted, possibly by another process sharing the database,
// so ownership checks and writes always read the row through loadOrg.
type cache struct {
	b    *Backend
	orgs *lru.Cache[string, models.Organization]
}

func newCache(b *Backend, size int) *cache {
	if size <= 0 {
		size = 1
	}
	c := &cache{b: b}
	cache, _ := lru.New[string, models.Organization](size)
	c.orgs = cache
	return c
}

func (c *cache) Get(name string) (models.Organization, bool) {
	return c.orgs.Get(name)
}

func (c *cache) Set(o models.Organization) {
	c.orgs.Add(o.Name, o)
}

func (c *cache) Delete(name string) {
	c.orgs.Remove(name)
}

func (c *cache) Len() int {
	return c.orgs.Len()
}

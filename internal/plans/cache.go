package plans

import (
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	KindWorkout = "workout"
	KindDiet    = "diet"
)

// Cache holds rendered plan responses per user and kind. The engine
// itself stays pure; only the HTTP layer caches. Profile writes drop
// both entries for the user.
type Cache struct {
	cache      *freecache.Cache
	expireSecs int
}

func NewCache(expireSecs int) *Cache {
	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte

	return &Cache{
		cache:      freecache.NewCache(cacheSize),
		expireSecs: expireSecs,
	}
}

func (c *Cache) cacheKey(kind, userID string) []byte {
	return []byte(fmt.Sprintf("%s::%s", kind, userID))
}

func (c *Cache) Get(kind, userID string) ([]byte, bool) {
	planBytes, err := c.cache.Get(c.cacheKey(kind, userID))
	if err != nil {
		return nil, false
	}
	return planBytes, true
}

func (c *Cache) Set(kind, userID string, planBytes []byte) {
	if err := c.cache.Set(c.cacheKey(kind, userID), planBytes, c.expireSecs); err != nil {
		log.Errorf("failed to cache %s plan for user %s: %s", kind, userID, err)
	}
}

func (c *Cache) InvalidateUser(userID string) {
	c.cache.Del(c.cacheKey(KindWorkout, userID))
	c.cache.Del(c.cacheKey(KindDiet, userID))
}

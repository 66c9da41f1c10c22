package conversation

import (
	"hash/fnv"
	"sync"
)

// keyLocks is a sharded mutex arena. Turns for the same user hash to the same
// shard and serialize their read-merge-write sequence; turns for different
// users almost always proceed on distinct shards.
type keyLocks struct {
	shards []sync.Mutex
}

func newKeyLocks(n int) *keyLocks {
	if n <= 0 {
		n = 64
	}
	return &keyLocks{shards: make([]sync.Mutex, n)}
}

func (k *keyLocks) shard(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &k.shards[h.Sum32()%uint32(len(k.shards))]
}

func (k *keyLocks) Lock(key string)   { k.shard(key).Lock() }
func (k *keyLocks) Unlock(key string) { k.shard(key).Unlock() }

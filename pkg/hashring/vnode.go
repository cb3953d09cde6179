package hashring

import "fmt"

// VirtualNode is one position a physical server occupies on the ring.
// A server with weight w occupies w * vnodesPerWeight positions, which
// is what makes traffic share proportional to weight.
type VirtualNode struct {
	ServerID string
	Replica  int
	Hash     uint64

	// seq is the ring-wide insertion order, used to break ties between
	// vnodes that collide on the same hash value. Collisions are kept,
	// never dropped.
	seq uint64
}

func (v VirtualNode) String() string {
	return fmt.Sprintf("%s:%d@%d", v.ServerID, v.Replica, v.Hash)
}

func replicaKey(serverID string, replica int) string {
	return fmt.Sprintf("%s:%d", serverID, replica)
}

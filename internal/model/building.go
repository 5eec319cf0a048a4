package model

import "time"

// Building groups rooms under a physical dormitory block.  The core
// only reads buildings through room foreign keys; building management
// itself lives elsewhere.
type Building struct {
	ID        uint64    // buildings.id
	Name      string    // buildings.name
	Address   string    // buildings.address
	CreatedAt time.Time // buildings.created_at
}

package model

import "time"

// Vehicle mirrors the `vehicles` table.  LastSeen is nil until a gate
// reports the plate.
type Vehicle struct {
	ID        uint64     `json:"id"`
	Plate     string     `json:"plate"`
	OwnerName string     `json:"ownerName"`
	Note      string     `json:"note"`
	LastSeen  *time.Time `json:"lastSeen"`
	CreatedAt time.Time  `json:"createdAt"`
}

package model

// InventoryEntry is the running total for one blood group.
type InventoryEntry struct {
	BloodGroup BloodGroup `json:"blood_group"`
	TotalML    uint64     `json:"total_ml"`
}

package domain

import "time"

// UniqueIdentifierField is the internal field used to match inbound records
// against existing assets.
const UniqueIdentifierField = "uniqueIdentifier"

// Asset is an inventory record owned by the asset CRUD layer.
type Asset struct {
	ID               string    `json:"id"`
	UniqueIdentifier string    `json:"uniqueIdentifier"`
	Fields           Record    `json:"fields"`
	CreatedBy        string    `json:"createdBy,omitempty"`
	UpdatedBy        string    `json:"updatedBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Record returns the asset as a flat record including its identifier.
func (a *Asset) Record() Record {
	rec := make(Record, len(a.Fields)+1)
	for k, v := range a.Fields {
		rec[k] = v
	}
	if a.UniqueIdentifier != "" {
		rec[UniqueIdentifierField] = a.UniqueIdentifier
	}
	return rec
}

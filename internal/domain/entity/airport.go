package entity

// Airport represents airport reference data mirrored from the backend
type Airport struct {
	ID        string   `json:"id" bson:"_id"`
	IATACode  string   `json:"iata_code" bson:"iata_code"`
	Name      string   `json:"name" bson:"name"`
	City      string   `json:"city" bson:"city"`
	Country   string   `json:"country" bson:"country"`
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Timezone  string   `json:"timezone,omitempty" bson:"timezone,omitempty"`
}

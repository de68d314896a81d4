package entity

// Airline represents an airline entity
type Airline struct {
	ID       string `json:"id" bson:"id"`
	IATACode string `json:"iata_code" bson:"iata_code"`
	Name     string `json:"name" bson:"name"`
	LogoURL  string `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
}

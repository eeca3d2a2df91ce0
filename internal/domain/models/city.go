package models

// City owns many locations. CityID is the display code (e.g. "C001").
type City struct {
	ID        int64      `json:"id"`
	CityID    string     `json:"cityId"`
	CityName  string     `json:"cityName"`
	Locations []Location `json:"locations"`
}

// Location is a pickup/drop point inside a city.
type Location struct {
	ID           int64  `json:"id"`
	LocationID   string `json:"locationId"`
	LocationName string `json:"locationName"`
	CityID       int64  `json:"cityId"`
}

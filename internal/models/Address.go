package models

// Address is a named geographic point used for stops, route endpoints and
// student pickup locations.
type Address struct {
	Base
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

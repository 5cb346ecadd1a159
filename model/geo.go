package model

// Place is one result of a coordinate search. The upstream schema is
// not owned by this system; fields may be missing.
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Address is an assembled reverse-geocode result.
type Address struct {
	Road     string `json:"road,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
	Full     string `json:"full"`
}

package models

// ListingStatus is the sale state of a listing.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "Available"
	ListingPending   ListingStatus = "Pending"
	ListingSold      ListingStatus = "Sold"
)

// Listing represents a property for sale or rent.
type Listing struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        int           `json:"price"`
	Location     string        `json:"location"`
	Beds         int           `json:"beds"`
	Baths        int           `json:"baths"`
	CarParks     int           `json:"carParks"`
	PropertyType string        `json:"propertyType"`
	LotType      string        `json:"lotType"`
	Sqft         int           `json:"sqft"`
	ImageURL     string        `json:"imageUrl"`
	ExtraImages  []string      `json:"extraImages,omitempty"`
	Status       ListingStatus `json:"status"`
}

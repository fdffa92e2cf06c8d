package models

// DefaultListings seeds the catalog on first run (or when the stored
// listings document is missing or unreadable).
func DefaultListings() []Listing {
	return []Listing{
		{
			ID:           "1",
			Title:        "Modern Glass Villa",
			Description:  "Breathtaking architecture meets natural light in this stunning minimalist masterpiece.",
			Price:        1250000,
			Location:     "Beverly Hills, CA",
			Beds:         4,
			Baths:        3,
			CarParks:     4,
			PropertyType: "Bungalow",
			LotType:      "Freehold",
			Sqft:         3500,
			ImageURL:     "https://images.unsplash.com/photo-1613490493576-7fde63acd811?q=80&w=800&auto=format&fit=crop",
			ExtraImages: []string{
				"https://images.unsplash.com/photo-1613490493576-7fde63acd811?q=80&w=800",
				"https://images.unsplash.com/photo-1512917774080-9991f1c4c750?q=80&w=800",
			},
			Status: ListingAvailable,
		},
		{
			ID:           "2",
			Title:        "Rustic Pine Chalet",
			Description:  "Escape to the serenity of the mountains. This cozy timber home offers a massive stone fireplace.",
			Price:        845000,
			Location:     "Aspen, CO",
			Beds:         3,
			Baths:        2,
			CarParks:     2,
			PropertyType: "Chalet",
			LotType:      "Leasehold",
			Sqft:         2200,
			ImageURL:     "https://images.unsplash.com/photo-1518780664697-55e3ad937233?q=80&w=800&auto=format&fit=crop",
			Status:       ListingPending,
		},
		{
			ID:           "3",
			Title:        "Azure Waterfront Estate",
			Description:  "Luxurious coastal living at its finest. Private dock and infinity pool.",
			Price:        3750000,
			Location:     "Miami, FL",
			Beds:         6,
			Baths:        5,
			CarParks:     6,
			PropertyType: "Mansion",
			LotType:      "Freehold",
			Sqft:         6800,
			ImageURL:     "https://images.unsplash.com/photo-1512917774080-9991f1c4c750?q=80&w=800&auto=format&fit=crop",
			Status:       ListingAvailable,
		},
	}
}

// DefaultSiteConfig is the built-in configuration used until the operator
// saves their own.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		SiteName:   "Therin Property",
		AgentNo:    "REN73686",
		Phone:      "0195984836",
		FooterText: "Your premier partner in high-end real estate solutions.",
		AboutText:  "Therin Property is a boutique real estate agency specializing in luxury residential properties. With decades of experience, we provide tailored services to buyers and sellers worldwide.",
		AdsEnabled: true,
		Ads: []AdItem{
			{ID: "ad1", ImageURL: "https://images.unsplash.com/photo-1449844908441-8829872d2607?q=80&w=1200", Title: "Luxury Condos Launching Q3", Link: "#"},
			{ID: "ad2", ImageURL: "https://images.unsplash.com/photo-1512917774080-9991f1c4c750?q=80&w=1200", Title: "Summer Sale: Zero Entry Fees", Link: "#"},
		},
		NotificationEmail: "mailtherin@gmail.com",
	}
}

package main

import (
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/repository/memory"
)

// seedDemo fills the in-memory stores with one restaurant so the API can be
// exercised without a database.
func seedDemo() (*memory.VendorStore, *memory.Catalog) {
	ref := domain.VendorRef{Type: domain.VendorRestaurant, ID: "demo-restaurant"}
	vendors := memory.NewVendorStore(domain.Vendor{
		Ref:      ref,
		OwnerID:  "demo-owner",
		Name:     "Demo Kitchen",
		IsActive: true,
	})
	catalog := memory.NewCatalog(
		domain.MenuItem{ID: "paneer-tikka", Vendor: ref, Name: "Paneer Tikka", Price: 220, IsAvailable: true,
			Customizations: []domain.Customization{{
				Name:    "Spice",
				Options: []domain.CustomizationOption{{Name: "Mild"}, {Name: "Hot", Price: 10}},
			}},
		},
		domain.MenuItem{ID: "butter-naan", Vendor: ref, Name: "Butter Naan", Price: 45, IsAvailable: true},
		domain.MenuItem{ID: "masala-chai", Vendor: ref, Name: "Masala Chai", Price: 30, IsAvailable: true},
	)
	return vendors, catalog
}

package domain

type Vendor struct {
	Ref            VendorRef `json:"ref"`
	OwnerID        string    `json:"ownerId"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"isActive"`
	DeliveryFee    *float64  `json:"deliveryFee,omitempty"`
	RatingsAverage float64   `json:"ratingsAverage"`
	RatingsCount   int       `json:"ratingsCount"`
}

// MenuItem is the catalog's authoritative view of an item. Customizations
// lists every group the item offers along with its option surcharges.
type MenuItem struct {
	ID             string          `json:"id"`
	Vendor         VendorRef       `json:"vendor"`
	Name           string          `json:"name"`
	Price          float64         `json:"price"`
	IsAvailable    bool            `json:"isAvailable"`
	Customizations []Customization `json:"customizations,omitempty"`
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleDelivery, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

package domain

// Represents a single delivery unit handled by the system.
// A Parcel is picked up at its warehouse and delivered to a customer
// location, always by the same truck, pickup strictly before delivery.
type Parcel struct {
	ParcelID    string
	Name        string
	Volume      float64
	WarehouseID string
	Pickup      Coordinates
	Delivery    Coordinates
	Recipient   string
}

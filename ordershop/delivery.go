package ordershop

// DeliveryStatus is the lifecycle state of a Delivery.
type DeliveryStatus string

const (
	DeliveryStatusReady     DeliveryStatus = "READY"
	DeliveryStatusCompleted DeliveryStatus = "COMPLETED"
)

// Delivery is owned one-to-one by an Order: it is created with its Order and
// deleted with it. There is no back-reference to the Order; the owning side
// holds the delivery by value.
type Delivery struct {
	ID      int64
	Address Address
	Status  DeliveryStatus
}

// BuildDelivery creates a new Delivery in status READY for the given address.
func BuildDelivery(address Address) Delivery {
	return Delivery{Address: address, Status: DeliveryStatusReady}
}

package domain

import "time"

// PackageBinding is the destination and courier assignment read from a
// package record. Receiver coordinates are nil when the address was never
// geocoded; CourierName may lag the assignment write.
type PackageBinding struct {
	PackageID         string
	ReceiverLatitude  *float64
	ReceiverLongitude *float64
	CourierName       string
}

// DeliveryConfirmation captures what the courier reported at the moment a
// package was marked delivered.
type DeliveryConfirmation struct {
	PackageID        string
	CourierID        string
	CourierName      string
	CourierLatitude  float64
	CourierLongitude float64
	ConfirmedAt      time.Time
}

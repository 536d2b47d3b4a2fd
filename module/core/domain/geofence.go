package domain

// Coordinate is a latitude/longitude pair with optional GPS accuracy in meters.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// GeofenceResult is the outcome of a single proximity check between a
// courier and a delivery destination. DistanceMeters is -1 when the
// courier's position could not be obtained.
type GeofenceResult struct {
	WithinRange         bool        `json:"is_within_range"`
	DistanceMeters      float64     `json:"distance_meters"`
	CourierLocation     Coordinate  `json:"courier_location"`
	DestinationLocation *Coordinate `json:"destination_location,omitempty"`
}

// ValidationOutcome is what the delivery gate returns to the caller.
type ValidationOutcome struct {
	Allowed      bool           `json:"allowed"`
	Result       GeofenceResult `json:"result"`
	AlertCreated bool           `json:"alert_created"`
	Message      string         `json:"message"`
}

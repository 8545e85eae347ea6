package domain

type AccommodationType string

const (
	AccommodationTypeHouse        AccommodationType = "HOUSE"
	AccommodationTypeApartment    AccommodationType = "APARTMENT"
	AccommodationTypeCondo        AccommodationType = "CONDO"
	AccommodationTypeVacationHome AccommodationType = "VACATION_HOME"
)

type Accommodation struct {
	ID             int64
	Type           AccommodationType
	LocationID     int64
	Location       string
	Size           string
	Amenities      []string
	DailyRateCents int64
	// Availability is the number of concurrent bookings the listing admits,
	// not an open/closed flag.
	Availability int
}

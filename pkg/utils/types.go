package utils

const (
	// DATE_LAYOUT is the wire format for search dates
	DATE_LAYOUT = "2006-01-02"
	// DISPLAY_LAYOUT is used when printing flight times
	DISPLAY_LAYOUT = "02 Jan 2006 15:04"

	// DefaultReturnOffsetDays is added to the departure date when a round trip has no usable return date
	DefaultReturnOffsetDays = 7
)

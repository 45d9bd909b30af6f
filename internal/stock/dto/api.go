package dto

// AvailabilityResponse is the body of the availabilities endpoint. The zero
// value is the "empty" result returned when a GTIN could not be fetched.
type AvailabilityResponse struct {
	StocksQueryResult []AvailabilityEntry `json:"stocksQueryResult"`
}

func (r AvailabilityResponse) IsEmpty() bool {
	return len(r.StocksQueryResult) == 0
}

type AvailabilityEntry struct {
	GTIN              string  `json:"gtin"`
	Quantity          *int    `json:"quantity"`
	StockTrafficLight *string `json:"stockTrafficLight"`
	Type              *int    `json:"type"`
	Timestamp         *string `json:"timestamp"`
}

// Package event holds the pipeline's record model: e-commerce user events
// produced by the generator, indexed into the document store, and cached by id.
package event

import (
	"encoding/json"
	"fmt"

	"eventpipe/pkg/utils"
)

// CacheKeyPrefix namespaces event records in the cache. One entry per record
// id; later writes overwrite earlier ones.
const CacheKeyPrefix = "event:"

// Location is the coarse geo attribution carried on an event.
type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Event is one user-activity record. ID is the external unique identifier;
// everything else is analytical payload handed to the document store and the
// cache as-is.
type Event struct {
	ID        string `json:"id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp" validate:"required"`
	EventType string `json:"event_type" validate:"required,oneof=view click add_to_cart purchase search wishlist review share compare checkout"`

	ProductID  string   `json:"product_id,omitempty"`
	Category   string   `json:"category,omitempty"`
	Price      float64  `json:"price,omitempty"`
	Quantity   int      `json:"quantity,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	UserAgent  string   `json:"user_agent,omitempty"`
	IPAddress  string   `json:"ip_address,omitempty"`
	Location   Location `json:"location,omitempty"`
	DeviceType string   `json:"device_type,omitempty"`
	Referrer   string   `json:"referrer,omitempty"`
	PageURL    string   `json:"page_url,omitempty"`
	Revenue    float64  `json:"revenue,omitempty"`

	// search events
	SearchQuery        string `json:"search_query,omitempty"`
	SearchResultsCount int    `json:"search_results_count,omitempty"`

	// review events
	Rating     int    `json:"rating,omitempty"`
	ReviewText string `json:"review_text,omitempty"`

	// purchase events
	PaymentMethod   string  `json:"payment_method,omitempty"`
	DiscountApplied bool    `json:"discount_applied,omitempty"`
	DiscountAmount  float64 `json:"discount_amount,omitempty"`
}

// Validate checks the record's required fields and enumerations
func (e *Event) Validate() error {
	return utils.ValidateStruct(e)
}

// CacheKey derives the record's cache key from its id
func (e *Event) CacheKey() string {
	return CacheKey(e.ID)
}

// CacheKey derives the cache key for a record id
func CacheKey(id string) string {
	return CacheKeyPrefix + id
}

// Payload serializes the record to the opaque byte form stored in the cache
// and indexed in the document store.
func (e *Event) Payload() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return b, nil
}

// Decode parses a stored payload back into an Event
func Decode(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return &e, nil
}

package event

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var (
	categories = []string{
		"electronics", "clothing", "books", "home", "sports",
		"beauty", "toys", "automotive", "health", "food",
	}

	eventTypes = []string{
		"view", "click", "add_to_cart", "purchase", "search",
		"wishlist", "review", "share", "compare", "checkout",
	}

	productNames = []string{
		"smartphone", "laptop", "headphones", "shoes", "book",
		"watch", "camera", "tablet", "speaker", "backpack",
		"keyboard", "monitor", "mouse", "charger", "case",
	}

	searchQueries = []string{
		"best smartphone 2024", "wireless headphones", "gaming laptop",
		"running shoes", "python programming", "smartwatch fitness",
		"bluetooth speaker", "travel backpack", "mechanical keyboard",
		"ultrawide monitor", "wireless mouse", "phone case", "book mystery",
	}

	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	}

	locations = []Location{
		{City: "New York", State: "NY", Country: "US"},
		{City: "Los Angeles", State: "CA", Country: "US"},
		{City: "Chicago", State: "IL", Country: "US"},
		{City: "Houston", State: "TX", Country: "US"},
		{City: "Phoenix", State: "AZ", Country: "US"},
	}

	deviceTypes    = []string{"desktop", "mobile", "tablet"}
	referrers      = []string{"google.com", "facebook.com", "direct", "email", "twitter.com"}
	paymentMethods = []string{"credit_card", "paypal", "apple_pay", "google_pay"}
)

// Generator produces synthetic user events for scheduled pipeline runs.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the clock
func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededGenerator creates a generator with a fixed seed
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces one event with a fresh unique id
func (g *Generator) Generate() *Event {
	eventType := pick(g.rng, eventTypes)
	loc := locations[g.rng.Intn(len(locations))]

	// timestamp within the last 24 hours
	ts := time.Now().UTC().Add(-time.Duration(g.rng.Intn(86400)) * time.Second)

	e := &Event{
		ID:         uuid.New().String(),
		UserID:     fmt.Sprintf("user_%d", 1+g.rng.Intn(1000)),
		SessionID:  fmt.Sprintf("session_%d", 1+g.rng.Intn(500)),
		Timestamp:  ts.Format(time.RFC3339),
		EventType:  eventType,
		ProductID:  fmt.Sprintf("product_%d", 1+g.rng.Intn(1000)),
		Category:   pick(g.rng, categories),
		Price:      round2(5.99 + g.rng.Float64()*(999.99-5.99)),
		Quantity:   1,
		Currency:   "USD",
		UserAgent:  pick(g.rng, userAgents),
		IPAddress:  fmt.Sprintf("%d.%d.%d.%d", 1+g.rng.Intn(255), 1+g.rng.Intn(255), 1+g.rng.Intn(255), 1+g.rng.Intn(255)),
		Location:   loc,
		DeviceType: pick(g.rng, deviceTypes),
		Referrer:   pick(g.rng, referrers),
		PageURL:    "/products/" + pick(g.rng, productNames),
	}

	switch eventType {
	case "add_to_cart", "purchase":
		e.Quantity = 1 + g.rng.Intn(10)
	}

	switch eventType {
	case "search":
		e.SearchQuery = pick(g.rng, searchQueries)
		e.SearchResultsCount = g.rng.Intn(1001)
	case "review":
		e.Rating = 1 + g.rng.Intn(5)
		e.ReviewText = fmt.Sprintf("Great product! Rating: %d/5", e.Rating)
	case "purchase":
		e.Revenue = e.Price
		e.PaymentMethod = pick(g.rng, paymentMethods)
		e.DiscountApplied = g.rng.Intn(2) == 0
		if e.DiscountApplied {
			e.DiscountAmount = round2(e.Price * 0.1)
		}
	}

	return e
}

// GenerateBatch produces n events
func (g *Generator) GenerateBatch(n int) []*Event {
	batch := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, g.Generate())
	}
	return batch
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() *Event {
	return &Event{
		ID:        "evt-1",
		UserID:    "user_7",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		EventType: "view",
	}
}

func TestEventValidate(t *testing.T) {
	t.Run("valid event", func(t *testing.T) {
		assert.NoError(t, validEvent().Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		e := validEvent()
		e.ID = ""
		assert.Error(t, e.Validate())
	})

	t.Run("missing user", func(t *testing.T) {
		e := validEvent()
		e.UserID = ""
		assert.Error(t, e.Validate())
	})

	t.Run("unknown event type", func(t *testing.T) {
		e := validEvent()
		e.EventType = "teleport"
		assert.Error(t, e.Validate())
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "event:evt-1", validEvent().CacheKey())
	assert.Equal(t, "event:abc", CacheKey("abc"))
}

func TestPayloadRoundTrip(t *testing.T) {
	e := validEvent()
	e.EventType = "purchase"
	e.Price = 19.99
	e.Revenue = 19.99
	e.PaymentMethod = "paypal"
	e.Location = Location{City: "Chicago", State: "IL", Country: "US"}

	payload, err := e.Payload()
	require.NoError(t, err)

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestGenerator(t *testing.T) {
	t.Run("events pass validation", func(t *testing.T) {
		g := NewSeededGenerator(1)
		for i := 0; i < 100; i++ {
			e := g.Generate()
			require.NoError(t, e.Validate())
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		g := NewSeededGenerator(1)
		seen := map[string]bool{}
		for _, e := range g.GenerateBatch(50) {
			assert.False(t, seen[e.ID])
			seen[e.ID] = true
		}
	})

	t.Run("type specific fields", func(t *testing.T) {
		g := NewSeededGenerator(7)
		var sawSearch, sawPurchase, sawReview bool
		for i := 0; i < 500; i++ {
			e := g.Generate()
			switch e.EventType {
			case "search":
				sawSearch = true
				assert.NotEmpty(t, e.SearchQuery)
			case "purchase":
				sawPurchase = true
				assert.Equal(t, e.Price, e.Revenue)
				assert.NotEmpty(t, e.PaymentMethod)
			case "review":
				sawReview = true
				assert.GreaterOrEqual(t, e.Rating, 1)
				assert.LessOrEqual(t, e.Rating, 5)
			}
		}
		assert.True(t, sawSearch)
		assert.True(t, sawPurchase)
		assert.True(t, sawReview)
	})

	t.Run("batch size", func(t *testing.T) {
		g := NewSeededGenerator(3)
		assert.Len(t, g.GenerateBatch(25), 25)
		assert.Empty(t, g.GenerateBatch(0))
	})
}

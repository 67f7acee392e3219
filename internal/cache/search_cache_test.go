package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "rail:search:1:3:2025-03-14", searchKey("1:3:2025-03-14"))
}

func TestItineraryRoundTrip(t *testing.T) {
	dep := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	it := models.NewItinerary(
		models.Leg{TripID: 1, DepartureTime: dep, ArrivalTime: dep.Add(2 * time.Hour), Price: models.NewMoney(12, 40)},
		models.Leg{TripID: 2, DepartureTime: dep.Add(145 * time.Minute), ArrivalTime: dep.Add(265 * time.Minute), Price: models.NewMoney(9, 15)},
	)

	raw, err := json.Marshal([]models.Itinerary{it})
	require.NoError(t, err)

	var decoded []models.Itinerary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "1-2", decoded[0].Key())
	assert.Equal(t, models.NewMoney(21, 55), decoded[0].TotalPrice)
	assert.Equal(t, "4h 25m", decoded[0].TotalDurationText)
	assert.True(t, decoded[0].Departure().Equal(dep))
}

func TestSearchCache_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewSearchCache(client)

	_, ok, err := c.Get(context.Background(), "1:3:2025-03-14")
	assert.Error(t, err)
	assert.False(t, ok)

	err = c.Set(context.Background(), "1:3:2025-03-14", nil, time.Minute)
	assert.Error(t, err)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://not-redis")
	assert.Error(t, err)
}

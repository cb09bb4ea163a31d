package integration_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

func (s *IntegrationSuite) TestCartSurvivesCacheRoundTrip() {
	ctx := context.Background()

	cart := domain.NewCart([]domain.CartItem{
		{ID: "course-101", Type: domain.ProductTypeCourse, Name: "AI Basics", Price: decimal.RequireFromString("49.99"), Quantity: 1},
	})

	cartBytes, err := json.Marshal(cart)
	s.Require().NoError(err)

	err = s.redis.Set(ctx, cart.Id, cartBytes, time.Minute).Err()
	s.Require().NoError(err)

	stored, err := s.redis.Get(ctx, cart.Id).Bytes()
	s.Require().NoError(err)

	var got domain.Cart
	s.Require().NoError(json.Unmarshal(stored, &got))

	items, err := got.Snapshot()
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(int64(4999), items[0].UnitAmount)
}

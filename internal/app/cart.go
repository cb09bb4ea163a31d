package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slimmermetai/checkout-api/api"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

const cartTTL = 30 * time.Minute

func cartSessionKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func (app *Application) AddCartItemHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.AddCartItemRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if input.Price.IsNegative() {
		app.badRequestResponse(w, r, fmt.Errorf("price must not be negative"))
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	cart, err := app.loadCart(r.Context(), sessionID)
	if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	if cart == nil {
		newCart := domain.NewCart(nil)
		cart = &newCart
	}

	merged := false
	for i, item := range cart.Items {
		if item.ID == input.ProductId && item.Type == domain.ProductType(input.Type) {
			cart.Items[i].Quantity += input.Quantity
			merged = true
			break
		}
	}

	if !merged {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:       input.ProductId,
			Type:     domain.ProductType(input.Type),
			Name:     input.Name,
			Price:    input.Price,
			Quantity: input.Quantity,
		})
	}

	err = app.saveCart(r.Context(), sessionID, cart)
	if err != nil {
		logger.Error("failed to persist cart", "cart_id", cart.Id, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toApiCart(cart)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionManager.Token(r.Context())

	cart, err := app.loadCart(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiCart(cart), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionManager.Token(r.Context())

	cartId, err := app.redis.Get(r.Context(), cartSessionKey(sessionID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		app.serverErrorResponse(w, r, err)
		return
	}

	if cartId == "" {
		app.notFoundResponse(w, r)
		return
	}

	pipe := app.redis.TxPipeline()
	pipe.Del(r.Context(), cartId)
	pipe.Del(r.Context(), cartSessionKey(sessionID))

	_, err = pipe.Exec(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cartId, err := app.redis.Get(ctx, cartSessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCartNotFound
		}

		return nil, err
	}

	cartBytes, err := app.redis.Get(ctx, cartId).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The session points to a cart that no longer exists, delete the session key
			app.logger.Warn("dangling cart session key found and cleaned up", "dangling_cart_id", cartId)
			app.redis.Del(ctx, cartSessionKey(sessionID))

			return nil, domain.ErrCartNotFound
		}

		return nil, err
	}

	var cart domain.Cart

	err = json.Unmarshal(cartBytes, &cart)
	if err != nil {
		return nil, err
	}

	cart.Id = cartId

	return &cart, nil
}

func (app *Application) saveCart(ctx context.Context, sessionID string, cart *domain.Cart) error {
	cartBytes, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	pipe := app.redis.TxPipeline()
	pipe.Set(ctx, cartSessionKey(sessionID), cart.Id, cartTTL)
	pipe.Set(ctx, cart.Id, cartBytes, cartTTL)

	_, err = pipe.Exec(ctx)

	return err
}

// clearCartById removes a settled cart. The session key is left to the
// dangling-key cleanup in loadCart because the webhook has no user session.
func (app *Application) clearCartById(ctx context.Context, cartId string) error {
	return app.redis.Del(ctx, cartId).Err()
}

func toApiCart(cart *domain.Cart) api.CartResponse {
	items := make([]api.CartItem, len(cart.Items))

	for i, item := range cart.Items {
		items[i] = api.CartItem{
			ProductId: item.ID,
			Type:      string(item.Type),
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	return api.CartResponse{
		CartId:     cart.Id,
		Items:      items,
		TotalPrice: cart.TotalPrice(),
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// GetCart читает корзину текущего пользователя.
func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var dto cartDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: "/cart", authenticated: true}, &dto); err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{Lines: make([]domain.CartLine, 0, len(dto.Items))}
	for _, item := range dto.Items {
		cart.Lines = append(cart.Lines, item.toDomain())
	}
	return cart, nil
}

// AddCartItem добавляет товар; сервер может объединить его с существующей позицией.
func (c *Client) AddCartItem(ctx context.Context, productID int64, quantity int32) (domain.CartLine, error) {
	var dto cartLineDTO
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/cart/items",
		body:          cartItemRequest{ProductID: productID, Quantity: quantity},
		authenticated: true,
	}, &dto)
	if err != nil {
		return domain.CartLine{}, err
	}
	return dto.toDomain(), nil
}

// UpdateCartItem меняет количество в позиции.
func (c *Client) UpdateCartItem(ctx context.Context, id int64, quantity int32) (domain.CartLine, error) {
	var dto cartLineDTO
	err := c.do(ctx, request{
		method:        http.MethodPut,
		path:          fmt.Sprintf("/cart/items/%d", id),
		body:          cartItemRequest{Quantity: quantity},
		authenticated: true,
	}, &dto)
	if err != nil {
		return domain.CartLine{}, err
	}
	// Сервер может ответить 204 без тела.
	if dto.ID == 0 {
		return domain.CartLine{ID: id, Quantity: quantity}, nil
	}
	return dto.toDomain(), nil
}

// RemoveCartItem удаляет позицию.
func (c *Client) RemoveCartItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/cart/items/%d", id),
		authenticated: true,
	}, nil)
}

// ClearCart удаляет все позиции.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/cart", authenticated: true}, nil)
}

var _ domain.CartAPI = (*Client)(nil)

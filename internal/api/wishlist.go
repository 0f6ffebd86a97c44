package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// GetWishlist читает страницу списка желаний.
func (c *Client) GetWishlist(ctx context.Context, page domain.PageRequest) (domain.Page[domain.WishlistItem], error) {
	page = page.Normalize()

	var dto pageDTO[wishlistItemDTO]
	err := c.do(ctx, request{method: http.MethodGet, path: "/wishlist", query: pageQuery(page), authenticated: true}, &dto)
	if err != nil {
		return domain.Page[domain.WishlistItem]{}, err
	}
	return toPage(dto, page, wishlistItemDTO.toDomain), nil
}

// AddWishlistItem добавляет товар в список желаний.
func (c *Client) AddWishlistItem(ctx context.Context, productID int64) error {
	return c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/wishlist",
		body:          wishlistRequest{ProductID: productID},
		authenticated: true,
	}, nil)
}

// RemoveWishlistItem удаляет товар из списка желаний.
func (c *Client) RemoveWishlistItem(ctx context.Context, productID int64) error {
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/wishlist/%d", productID),
		authenticated: true,
	}, nil)
}

var _ domain.WishlistAPI = (*Client)(nil)

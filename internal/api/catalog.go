package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func pageQuery(req domain.PageRequest) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Number))
	q.Set("size", strconv.Itoa(req.Size))
	return q
}

// GetProduct читает карточку товара.
func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var dto productDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/products/%d", id)}, &dto); err != nil {
		return domain.Product{}, err
	}
	return dto.toDomain(), nil
}

// ListNews читает страницу новостей.
func (c *Client) ListNews(ctx context.Context, page domain.PageRequest) (domain.Page[domain.NewsArticle], error) {
	page = page.Normalize()

	var dto pageDTO[newsDTO]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/news", query: pageQuery(page)}, &dto); err != nil {
		return domain.Page[domain.NewsArticle]{}, err
	}
	return toPage(dto, page, newsDTO.toDomain), nil
}

// GetNews читает статью.
func (c *Client) GetNews(ctx context.Context, id int64) (domain.NewsArticle, error) {
	var dto newsDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/news/%d", id)}, &dto); err != nil {
		return domain.NewsArticle{}, err
	}
	return dto.toDomain(), nil
}

// GetHomeBanners читает баннеры главной страницы.
func (c *Client) GetHomeBanners(ctx context.Context) ([]domain.HeroBanner, error) {
	var dto []bannerDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: "/home/banners"}, &dto); err != nil {
		return nil, err
	}

	banners := make([]domain.HeroBanner, 0, len(dto))
	for _, b := range dto {
		banners = append(banners, domain.HeroBanner{ID: b.ID, Title: b.Title, Image: b.Image, Link: b.Link, Position: b.Position})
	}
	return banners, nil
}

// GetFilters читает фильтры каталога.
func (c *Client) GetFilters(ctx context.Context) ([]domain.CatalogFilter, error) {
	var dto []filterDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: "/filters"}, &dto); err != nil {
		return nil, err
	}

	filters := make([]domain.CatalogFilter, 0, len(dto))
	for _, f := range dto {
		filters = append(filters, domain.CatalogFilter{Name: f.Name, Values: f.Values})
	}
	return filters, nil
}

var _ domain.CatalogAPI = (*Client)(nil)

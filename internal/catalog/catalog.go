package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/memo"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// singleton — ключ для ресурсов, существующих в одном экземпляре.
type singleton struct{}

// Catalog объединяет memo-кэши публичных справочных данных витрины.
type Catalog struct {
	api    domain.CatalogAPI
	logger *log.Entry

	products *memo.Cache[int64, domain.Product]
	news     *memo.Cache[memo.PageKey, domain.Page[domain.NewsArticle]]
	articles *memo.Cache[int64, domain.NewsArticle]
	banners  *memo.Cache[singleton, []domain.HeroBanner]
	filters  *memo.Cache[singleton, []domain.CatalogFilter]
}

// New создаёт каталог поверх API.
func New(api domain.CatalogAPI, logger *log.Entry, m *metrics.SyncMetrics) *Catalog {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}

	cacheOpts := func(name string) []memo.Option {
		return []memo.Option{memo.WithName(name), memo.WithLogger(logger), memo.WithMetrics(m)}
	}

	c := &Catalog{api: api, logger: logger}
	c.products = memo.New(api.GetProduct, cacheOpts("products")...)
	c.news = memo.New(func(ctx context.Context, key memo.PageKey) (domain.Page[domain.NewsArticle], error) {
		return api.ListNews(ctx, domain.PageRequest{Number: key.Number, Size: key.Size})
	}, cacheOpts("news")...)
	c.articles = memo.New(api.GetNews, cacheOpts("news-article")...)
	c.banners = memo.New(func(ctx context.Context, _ singleton) ([]domain.HeroBanner, error) {
		return api.GetHomeBanners(ctx)
	}, cacheOpts("home")...)
	c.filters = memo.New(func(ctx context.Context, _ singleton) ([]domain.CatalogFilter, error) {
		return api.GetFilters(ctx)
	}, cacheOpts("filters")...)

	return c
}

// Product возвращает карточку товара из кэша.
func (c *Catalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	return c.products.Get(ctx, id)
}

// Products загружает набор карточек; недоступные товары в результат не попадают.
func (c *Catalog) Products(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return c.products.FetchMany(ctx, ids)
}

// LiveProduct читает карточку мимо кэша, чтобы получить актуальный остаток.
func (c *Catalog) LiveProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := c.api.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("live product %d: %w", id, err)
	}
	return product, nil
}

// News возвращает страницу новостей и заодно прогревает кэш отдельных статей.
func (c *Catalog) News(ctx context.Context, req domain.PageRequest) (domain.Page[domain.NewsArticle], error) {
	req = req.Normalize()
	page, err := c.news.Get(ctx, memo.PageKey{Number: req.Number, Size: req.Size})
	if err != nil {
		return domain.Page[domain.NewsArticle]{}, err
	}
	for _, article := range page.Items {
		if _, ok := c.articles.Peek(article.ID); !ok {
			c.articles.Put(article.ID, article)
		}
	}
	return page, nil
}

// Article возвращает статью по идентификатору.
func (c *Catalog) Article(ctx context.Context, id int64) (domain.NewsArticle, error) {
	return c.articles.Get(ctx, id)
}

// HomeBanners возвращает баннеры главной страницы.
func (c *Catalog) HomeBanners(ctx context.Context) ([]domain.HeroBanner, error) {
	return c.banners.Get(ctx, singleton{})
}

// Filters возвращает фильтры каталога.
func (c *Catalog) Filters(ctx context.Context) ([]domain.CatalogFilter, error) {
	return c.filters.Get(ctx, singleton{})
}

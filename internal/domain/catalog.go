package domain

import "time"

// NewsArticle — новость витрины.
type NewsArticle struct {
	ID          int64
	Title       string
	Summary     string
	Body        string
	Image       string
	PublishedAt time.Time
}

// HeroBanner — баннер главной страницы.
type HeroBanner struct {
	ID       int64
	Title    string
	Image    string
	Link     string
	Position int
}

// CatalogFilter — группа значений фильтра каталога (бренд, категория и т.п.).
type CatalogFilter struct {
	Name   string
	Values []string
}

package api

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// pageDTO — конверт постраничного ответа сервера.
// Отсутствующий content означает пустую страницу.
type pageDTO[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          *bool `json:"last"`
}

func toPage[D, T any](dto pageDTO[D], req domain.PageRequest, convert func(D) T) domain.Page[T] {
	page := domain.Page[T]{
		Items:         make([]T, 0, len(dto.Content)),
		PageNumber:    dto.PageNumber,
		PageSize:      dto.PageSize,
		TotalElements: dto.TotalElements,
		TotalPages:    dto.TotalPages,
	}
	if page.PageSize == 0 {
		page.PageNumber = req.Number
		page.PageSize = req.Size
	}
	for _, item := range dto.Content {
		page.Items = append(page.Items, convert(item))
	}
	if dto.Last != nil {
		page.LastPage = *dto.Last
	} else {
		page.LastPage = page.TotalPages == 0 || page.PageNumber >= page.TotalPages-1
	}
	return page
}

type cartLineDTO struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

func (d cartLineDTO) toDomain() domain.CartLine {
	return domain.CartLine{ID: d.ID, ProductID: d.ProductID, Quantity: d.Quantity}
}

type cartDTO struct {
	Items []cartLineDTO `json:"items"`
}

type cartItemRequest struct {
	ProductID int64 `json:"productId,omitempty"`
	Quantity  int32 `json:"quantity"`
}

type productDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Available bool   `json:"available"`
	Quantity  int32  `json:"quantity"`
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:         d.ID,
		Name:       d.Name,
		PriceMinor: d.Price,
		Image:      d.Image,
		Available:  d.Available,
		Quantity:   d.Quantity,
	}
}

type newsDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Body        string    `json:"body"`
	Image       string    `json:"image"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (d newsDTO) toDomain() domain.NewsArticle {
	return domain.NewsArticle{
		ID:          d.ID,
		Title:       d.Title,
		Summary:     d.Summary,
		Body:        d.Body,
		Image:       d.Image,
		PublishedAt: d.PublishedAt,
	}
}

type bannerDTO struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Link     string `json:"link"`
	Position int    `json:"position"`
}

type filterDTO struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type wishlistItemDTO struct {
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage"`
	Price        int64  `json:"price"`
}

func (d wishlistItemDTO) toDomain() domain.WishlistItem {
	return domain.WishlistItem{
		ProductID:    d.ProductID,
		ProductName:  d.ProductName,
		ProductImage: d.ProductImage,
		PriceMinor:   d.Price,
	}
}

type addressDTO struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Line      string `json:"line"`
	City      string `json:"city"`
	Default   bool   `json:"default"`
}

func (d addressDTO) toDomain() domain.Address {
	return domain.Address{
		ID:        d.ID,
		Recipient: d.Recipient,
		Phone:     d.Phone,
		Line:      d.Line,
		City:      d.City,
		Default:   d.Default,
	}
}

type orderItemDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
	Price     int64 `json:"price"`
}

type createOrderRequest struct {
	ShippingAddressID int64          `json:"shippingAddressId"`
	PaymentMethod     string         `json:"paymentMethod"`
	ShippingFee       int64          `json:"shippingFee"`
	Items             []orderItemDTO `json:"items"`
	Note              string         `json:"note,omitempty"`
}

type orderDTO struct {
	ID                int64          `json:"id"`
	Total             int64          `json:"total"`
	PaymentMethod     string         `json:"paymentMethod"`
	ShippingAddressID int64          `json:"shippingAddressId"`
	Items             []orderItemDTO `json:"items"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
}

func (d orderDTO) toDomain() domain.Order {
	order := domain.Order{
		ID:                d.ID,
		TotalMinor:        d.Total,
		PaymentMethod:     domain.PaymentMethod(d.PaymentMethod),
		ShippingAddressID: d.ShippingAddressID,
		Status:            domain.OrderStatus(d.Status),
		CreatedAt:         d.CreatedAt,
		Items:             make([]domain.OrderItem, 0, len(d.Items)),
	}
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceMinor: item.Price,
		})
	}
	return order
}

type externalPaymentRequest struct {
	OrderID     int64  `json:"orderId"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type externalPaymentDTO struct {
	PayURL        string `json:"payUrl"`
	TransactionID string `json:"transactionId"`
	OrderID       int64  `json:"orderId"`
}

type profileDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type wishlistRequest struct {
	ProductID int64 `json:"productId"`
}

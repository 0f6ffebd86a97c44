package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// GetAddresses читает адреса доставки.
func (c *Client) GetAddresses(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Address], error) {
	page = page.Normalize()

	var dto pageDTO[addressDTO]
	err := c.do(ctx, request{method: http.MethodGet, path: "/addresses", query: pageQuery(page), authenticated: true}, &dto)
	if err != nil {
		return domain.Page[domain.Address]{}, err
	}
	return toPage(dto, page, addressDTO.toDomain), nil
}

// CreateOrder создаёт заказ; Idempotency-Key из черновика передаётся заголовком.
func (c *Client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	body := createOrderRequest{
		ShippingAddressID: draft.ShippingAddressID,
		PaymentMethod:     string(draft.PaymentMethod),
		ShippingFee:       draft.ShippingFeeMinor,
		Note:              draft.Note,
		Items:             make([]orderItemDTO, 0, len(draft.Items)),
	}
	for _, item := range draft.Items {
		body.Items = append(body.Items, orderItemDTO{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.PriceMinor})
	}

	var dto orderDTO
	err := c.do(ctx, request{
		method:         http.MethodPost,
		path:           "/orders",
		body:           body,
		authenticated:  true,
		idempotencyKey: draft.IdempotencyKey,
	}, &dto)
	if err != nil {
		return domain.Order{}, err
	}
	return dto.toDomain(), nil
}

// CancelOrder переводит заказ в статус cancelled.
func (c *Client) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	var dto orderDTO
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          fmt.Sprintf("/orders/%d/cancel", id),
		authenticated: true,
	}, &dto)
	if err != nil {
		return domain.Order{}, err
	}
	return dto.toDomain(), nil
}

// CreateExternalPayment создаёт платёж у внешнего провайдера и возвращает адрес оплаты.
func (c *Client) CreateExternalPayment(ctx context.Context, orderID int64, description string, amountMinor int64) (domain.ExternalPayment, error) {
	var dto externalPaymentDTO
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/payments/external",
		body:          externalPaymentRequest{OrderID: orderID, Description: description, Amount: amountMinor},
		authenticated: true,
	}, &dto)
	if err != nil {
		return domain.ExternalPayment{}, err
	}

	payment := domain.ExternalPayment{PayURL: dto.PayURL, TransactionID: dto.TransactionID, OriginalOrderID: dto.OrderID}
	if payment.OriginalOrderID == 0 {
		payment.OriginalOrderID = orderID
	}
	return payment, nil
}

// GetProfile читает профиль текущего пользователя.
func (c *Client) GetProfile(ctx context.Context) (domain.Profile, error) {
	var dto profileDTO
	if err := c.do(ctx, request{method: http.MethodGet, path: "/profile", authenticated: true}, &dto); err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{ID: dto.ID, Name: dto.Name, Email: dto.Email, Avatar: dto.Avatar}, nil
}

var (
	_ domain.AddressAPI = (*Client)(nil)
	_ domain.OrderAPI   = (*Client)(nil)
	_ domain.PaymentAPI = (*Client)(nil)
	_ domain.ProfileAPI = (*Client)(nil)
)

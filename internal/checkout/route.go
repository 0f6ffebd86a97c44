package checkout

import "fmt"

// RouteKind — куда интерфейсу перейти после шага оформления.
type RouteKind string

const (
	RouteNone              RouteKind = ""
	RouteLogin             RouteKind = "login"
	RouteCart              RouteKind = "cart"
	RouteCheckout          RouteKind = "checkout"
	RouteOrderConfirmation RouteKind = "order_confirmation"
	RouteOrder             RouteKind = "order"
	RouteExternal          RouteKind = "external"
)

// Route — результат навигации: вид и параметры.
type Route struct {
	Kind    RouteKind
	OrderID int64
	// URL заполнен только для RouteExternal.
	URL string
}

func (r Route) String() string {
	switch r.Kind {
	case RouteOrderConfirmation, RouteOrder:
		return fmt.Sprintf("%s(%d)", r.Kind, r.OrderID)
	case RouteExternal:
		return fmt.Sprintf("%s(%s)", r.Kind, r.URL)
	case RouteNone:
		return "none"
	default:
		return string(r.Kind)
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleverdining/datahub/internal/models"
)

// Wire shapes follow the upstream JSON field naming, which is snake_case for
// most resources but camelCase for reservations; the mismatch is the API's,
// not ours.

type foodWire struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Available bool            `json:"available"`
}

type orderItemWire struct {
	ID       int64           `json:"id"`
	FoodID   int64           `json:"food_id"`
	FoodName string          `json:"food_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type orderWire struct {
	ID            int64           `json:"id"`
	DeviceName    string          `json:"device_name"`
	OrderItems    []orderItemWire `json:"order_items"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedTime   string          `json:"created_time"`
}

type reservationWire struct {
	ID              int64  `json:"id"`
	CustomerName    string `json:"customerName"`
	TableNo         string `json:"tableNo"`
	GuestNo         int    `json:"guestNo"`
	CellNumber      string `json:"cellNumber"`
	Email           string `json:"email"`
	ReservationTime string `json:"reservationTime"`
	CustomRequest   string `json:"customRequest"`
}

type deviceWire struct {
	ID        int64  `json:"id"`
	TableName string `json:"table_name"`
	Region    string `json:"region"`
	Action    string `json:"action"`
}

type memberWire struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Action   string `json:"action"`
}

type categoryWire struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ParentCategory *int64 `json:"parent_category"`
}

type restaurantWire struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

func parseWireTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// --- food items ---

// FoodItemInput is the create/update payload for a food item.
type FoodItemInput struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Image     string          `json:"image,omitempty"`
	Available bool            `json:"available"`
}

func (c *Client) FetchFoodItems(ctx context.Context, role models.Role, page int, search string) (Page[models.FoodItem], error) {
	path, err := EndpointFor(role, ResourceFoods)
	if err != nil {
		return Page[models.FoodItem]{}, err
	}
	raw, err := fetchPage[foodWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.FoodItem]{}, fmt.Errorf("fetch food items page=%d: %w", page, err)
	}

	out := make([]models.FoodItem, 0, len(raw.Results))
	for _, f := range raw.Results {
		out = append(out, models.FoodItem{
			ID:        f.ID,
			Name:      f.Name,
			Price:     f.Price,
			Category:  f.Category,
			Image:     f.Image,
			Available: f.Available,
		})
	}
	return Page[models.FoodItem]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

func (c *Client) CreateFoodItem(ctx context.Context, role models.Role, in FoodItemInput) error {
	path, err := EndpointFor(role, ResourceFoods)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, in, nil)
}

func (c *Client) UpdateFoodItem(ctx context.Context, role models.Role, id int64, in FoodItemInput) error {
	path, err := EndpointFor(role, ResourceFoods)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s%d/", path, id), nil, in, nil)
}

func (c *Client) DeleteFoodItem(ctx context.Context, role models.Role, id int64) error {
	path, err := EndpointFor(role, ResourceFoods)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", path, id), nil, nil, nil)
}

// --- orders ---

func (c *Client) FetchOrders(ctx context.Context, role models.Role, page int, search string) (Page[models.Order], error) {
	path, err := EndpointFor(role, ResourceOrders)
	if err != nil {
		return Page[models.Order]{}, err
	}
	raw, err := fetchPage[orderWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Order]{}, fmt.Errorf("fetch orders page=%d: %w", page, err)
	}

	out := make([]models.Order, 0, len(raw.Results))
	for _, o := range raw.Results {
		status, _ := models.NormalizeOrderStatus(o.Status)
		items := make([]models.OrderItem, 0, len(o.OrderItems))
		for _, it := range o.OrderItems {
			items = append(items, models.OrderItem{
				ID:       it.ID,
				OrderID:  o.ID,
				FoodID:   it.FoodID,
				FoodName: it.FoodName,
				Quantity: it.Quantity,
				Price:    it.Price,
			})
		}
		out = append(out, models.Order{
			ID:            o.ID,
			DeviceName:    o.DeviceName,
			Status:        status,
			PaymentStatus: o.PaymentStatus,
			TotalPrice:    o.TotalPrice,
			CreatedTime:   parseWireTime(o.CreatedTime),
			Items:         items,
		})
	}
	return Page[models.Order]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

// UpdateOrderStatus patches a single order's status field.
func (c *Client) UpdateOrderStatus(ctx context.Context, role models.Role, id int64, status models.OrderStatus) error {
	path, err := EndpointFor(role, ResourceOrders)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s%d/", path, id), nil, map[string]string{"status": string(status)}, nil)
}

// --- reservations ---

func (c *Client) FetchReservations(ctx context.Context, role models.Role, page int, search string) (Page[models.Reservation], error) {
	path, err := EndpointFor(role, ResourceReservations)
	if err != nil {
		return Page[models.Reservation]{}, err
	}
	raw, err := fetchPage[reservationWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Reservation]{}, fmt.Errorf("fetch reservations page=%d: %w", page, err)
	}

	out := make([]models.Reservation, 0, len(raw.Results))
	for _, r := range raw.Results {
		status, _ := models.NormalizeReservationStatus(r.CustomRequest)
		out = append(out, models.Reservation{
			ID:              r.ID,
			CustomerName:    r.CustomerName,
			TableNo:         r.TableNo,
			GuestNo:         r.GuestNo,
			CellNumber:      r.CellNumber,
			Email:           r.Email,
			ReservationTime: parseWireTime(r.ReservationTime),
			Status:          status,
		})
	}
	return Page[models.Reservation]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

func (c *Client) UpdateReservationStatus(ctx context.Context, role models.Role, id int64, status models.ReservationStatus) error {
	path, err := EndpointFor(role, ResourceReservations)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s%d/", path, id), nil, map[string]string{"customRequest": string(status)}, nil)
}

// --- devices ---

func (c *Client) FetchDevices(ctx context.Context, role models.Role, page int, search string) (Page[models.Device], error) {
	path, err := EndpointFor(role, ResourceDevices)
	if err != nil {
		return Page[models.Device]{}, err
	}
	raw, err := fetchPage[deviceWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Device]{}, fmt.Errorf("fetch devices page=%d: %w", page, err)
	}

	out := make([]models.Device, 0, len(raw.Results))
	for _, d := range raw.Results {
		action, _ := models.NormalizeActionStatus(d.Action)
		out = append(out, models.Device{
			ID:     d.ID,
			Table:  d.TableName,
			Region: d.Region,
			Action: action,
		})
	}
	return Page[models.Device]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

func (c *Client) UpdateDeviceStatus(ctx context.Context, role models.Role, id int64, status models.ActionStatus) error {
	path, err := EndpointFor(role, ResourceDevices)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s%d/", path, id), nil, map[string]string{"action": string(status)}, nil)
}

func (c *Client) DeleteDevice(ctx context.Context, role models.Role, id int64) error {
	path, err := EndpointFor(role, ResourceDevices)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", path, id), nil, nil, nil)
}

// --- members ---

// MemberInput creates a staff/chef account under the restaurant.
type MemberInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

func (c *Client) FetchMembers(ctx context.Context, role models.Role, page int, search string) (Page[models.Member], error) {
	path, err := EndpointFor(role, ResourceMembers)
	if err != nil {
		return Page[models.Member]{}, err
	}
	raw, err := fetchPage[memberWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Member]{}, fmt.Errorf("fetch members page=%d: %w", page, err)
	}

	out := make([]models.Member, 0, len(raw.Results))
	for _, m := range raw.Results {
		mrole, _ := models.NormalizeRole(m.Role)
		action, _ := models.NormalizeActionStatus(m.Action)
		out = append(out, models.Member{
			ID:       m.ID,
			Username: m.Username,
			Role:     mrole,
			Email:    m.Email,
			Action:   action,
		})
	}
	return Page[models.Member]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

func (c *Client) CreateMember(ctx context.Context, role models.Role, in MemberInput) error {
	path, err := EndpointFor(role, ResourceMembers)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, in, nil)
}

func (c *Client) UpdateMemberStatus(ctx context.Context, role models.Role, id int64, status models.ActionStatus) error {
	path, err := EndpointFor(role, ResourceMembers)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s%d/", path, id), nil, map[string]string{"action": string(status)}, nil)
}

func (c *Client) DeleteMember(ctx context.Context, role models.Role, id int64) error {
	path, err := EndpointFor(role, ResourceMembers)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", path, id), nil, nil, nil)
}

// --- categories ---

// CategoryInput creates a category; a non-nil parent makes it a subcategory.
type CategoryInput struct {
	Name           string `json:"name"`
	ParentCategory *int64 `json:"parent_category,omitempty"`
}

func (c *Client) FetchCategories(ctx context.Context, role models.Role, page int, search string) (Page[models.Category], error) {
	path, err := EndpointFor(role, ResourceCategories)
	if err != nil {
		return Page[models.Category]{}, err
	}
	raw, err := fetchPage[categoryWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Category]{}, fmt.Errorf("fetch categories page=%d: %w", page, err)
	}

	out := make([]models.Category, 0, len(raw.Results))
	for _, cat := range raw.Results {
		out = append(out, models.Category{
			ID:             cat.ID,
			Name:           cat.Name,
			ParentCategory: cat.ParentCategory,
		})
	}
	return Page[models.Category]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

func (c *Client) CreateCategory(ctx context.Context, role models.Role, in CategoryInput) error {
	path, err := EndpointFor(role, ResourceCategories)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, in, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, role models.Role, id int64) error {
	path, err := EndpointFor(role, ResourceCategories)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", path, id), nil, nil, nil)
}

// --- restaurants (admin) ---

func (c *Client) FetchRestaurants(ctx context.Context, role models.Role, page int, search string) (Page[models.Restaurant], error) {
	path, err := EndpointFor(role, ResourceRestaurants)
	if err != nil {
		return Page[models.Restaurant]{}, err
	}
	raw, err := fetchPage[restaurantWire](ctx, c, path, page, search)
	if err != nil {
		return Page[models.Restaurant]{}, fmt.Errorf("fetch restaurants page=%d: %w", page, err)
	}

	out := make([]models.Restaurant, 0, len(raw.Results))
	for _, r := range raw.Results {
		out = append(out, models.Restaurant{
			ID:        r.ID,
			Name:      r.Name,
			OwnerName: r.OwnerName,
			Email:     r.Email,
			Active:    r.Active,
		})
	}
	return Page[models.Restaurant]{Count: raw.Count, Page: raw.Page, Results: out}, nil
}

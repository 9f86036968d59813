// Package status exposes a small read-only HTTP surface for operators and
// health checks: is the session alive, is the feed up, how fresh is each
// mirrored slice.
package status

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/notify"
	"github.com/cleverdining/datahub/internal/session"
	"github.com/cleverdining/datahub/internal/store"
	"github.com/cleverdining/datahub/internal/stream"
)

// Sources holds whichever components the daemon wired for its role; nil
// fields are simply absent from the response.
type Sources struct {
	Session    *session.Store
	Conn       *stream.Conn
	Dispatcher *stream.Dispatcher
	Notifier   *notify.Notifier
	Owner      *store.OwnerStore
	Staff      *store.StaffStore
	Admin      *store.AdminStore
}

type Server struct {
	echo   *echo.Echo
	addr   string
	src    Sources
	logger *log.Logger
}

func NewServer(addr string, src Sources, lg *log.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, addr: addr, src: src, logger: lg}
	e.GET("/healthz", s.health)
	e.GET("/status", s.status)
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Printf("🌐 Status server listening on %s", s.addr)
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type resourceStatus struct {
	Name     string     `json:"name"`
	Count    int        `json:"count"`
	Loaded   int        `json:"loaded"`
	Page     int        `json:"page"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

type statusResponse struct {
	LoggedIn  bool   `json:"logged_in"`
	Role      string `json:"role,omitempty"`
	Dashboard string `json:"dashboard,omitempty"`

	Feed struct {
		Connected  bool  `json:"connected"`
		Reconnects int64 `json:"reconnects"`
		Decoded    int64 `json:"frames_decoded"`
		Malformed  int64 `json:"frames_malformed"`
	} `json:"feed"`

	UnreadChats int64            `json:"unread_chats"`
	CashAlerts  int64            `json:"cash_alerts"`
	Resources   []resourceStatus `json:"resources"`
}

func (s *Server) status(c echo.Context) error {
	var resp statusResponse
	resp.LoggedIn = s.src.Session.LoggedIn()
	if role, ok := s.src.Session.Role(); ok {
		resp.Role = string(role)
		resp.Dashboard = models.DashboardPath(role)
	}

	if s.src.Conn != nil {
		resp.Feed.Connected = s.src.Conn.Connected()
		resp.Feed.Reconnects = s.src.Conn.Reconnects()
	}
	if s.src.Dispatcher != nil {
		resp.Feed.Decoded, resp.Feed.Malformed = s.src.Dispatcher.Stats()
	}
	if s.src.Notifier != nil {
		resp.UnreadChats = s.src.Notifier.Unread()
		resp.CashAlerts = s.src.Notifier.AlertsSeen()
	}

	switch {
	case s.src.Owner != nil:
		o := s.src.Owner
		resp.Resources = []resourceStatus{
			resourceFor(o.Foods.Name(), o.Foods.Count(), len(o.Foods.Items()), o.Foods.Page(), o.Foods.LastSync()),
			resourceFor(o.Orders.Name(), o.Orders.Count(), len(o.Orders.Items()), o.Orders.Page(), o.Orders.LastSync()),
			resourceFor(o.Reservations.Name(), o.Reservations.Count(), len(o.Reservations.Items()), o.Reservations.Page(), o.Reservations.LastSync()),
			resourceFor(o.Devices.Name(), o.Devices.Count(), len(o.Devices.Items()), o.Devices.Page(), o.Devices.LastSync()),
			resourceFor(o.Members.Name(), o.Members.Count(), len(o.Members.Items()), o.Members.Page(), o.Members.LastSync()),
			resourceFor(o.Categories.Name(), o.Categories.Count(), len(o.Categories.Items()), o.Categories.Page(), o.Categories.LastSync()),
		}
	case s.src.Staff != nil:
		st := s.src.Staff
		resp.Resources = []resourceStatus{
			resourceFor(st.Orders.Name(), st.Orders.Count(), len(st.Orders.Items()), st.Orders.Page(), st.Orders.LastSync()),
			resourceFor(st.Reservations.Name(), st.Reservations.Count(), len(st.Reservations.Items()), st.Reservations.Page(), st.Reservations.LastSync()),
			resourceFor(st.Foods.Name(), st.Foods.Count(), len(st.Foods.Items()), st.Foods.Page(), st.Foods.LastSync()),
		}
	case s.src.Admin != nil:
		a := s.src.Admin
		resp.Resources = []resourceStatus{
			resourceFor(a.Restaurants.Name(), a.Restaurants.Count(), len(a.Restaurants.Items()), a.Restaurants.Page(), a.Restaurants.LastSync()),
			resourceFor(a.Members.Name(), a.Members.Count(), len(a.Members.Items()), a.Members.Page(), a.Members.LastSync()),
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func resourceFor(name string, count, loaded, page int, lastSync time.Time) resourceStatus {
	rs := resourceStatus{Name: name, Count: count, Loaded: loaded, Page: page}
	if !lastSync.IsZero() {
		rs.LastSync = &lastSync
	}
	return rs
}

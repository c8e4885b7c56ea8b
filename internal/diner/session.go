package diner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablemesa/tablemesa-backend/internal/cart"
	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	pkgerrors "github.com/tablemesa/tablemesa-backend/pkg/errors"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
)

const (
	successBannerTTL = 3 * time.Second
	errorBannerTTL   = 5 * time.Second
)

// BannerKind distinguishes the transient submission feedback states.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a transient feedback message that auto-expires.
type Banner struct {
	Kind    BannerKind
	Message string
}

type orderCreator interface {
	CreateOrder(ctx context.Context, req orderclient.CreateOrderRequest) (*orderclient.Order, error)
}

// Session drives one diner's submission flow: it owns a cart bound to a
// (restaurant, table) target, submits it as an order and reconciles the
// outcome into banner state.
type Session struct {
	client orderCreator
	cart   *cart.Cart
	logg   *logger.Logger

	onSubmitted func()

	mu          sync.Mutex
	submitting  bool
	banner      *Banner
	bannerSeq   uint64
	bannerTimer *time.Timer
	closed      bool
}

// NewSession wires a cart to the order service. onSubmitted, when set, runs
// after each successful submission (the tracking view hooks its refresh here).
func NewSession(client orderCreator, c *cart.Cart, logg *logger.Logger, onSubmitted func()) (*Session, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order client required")
	}
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart required")
	}
	return &Session{
		client:      client,
		cart:        c,
		logg:        logg,
		onSubmitted: onSubmitted,
	}, nil
}

// Cart exposes the session's cart for item operations.
func (s *Session) Cart() *cart.Cart {
	return s.cart
}

// Submit validates the cart, maps it to order lines and sends one atomic
// create call. On success the cart is cleared; on failure it is left intact so
// the diner can retry without re-entering items.
func (s *Session) Submit(ctx context.Context) (*orderclient.Order, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already in flight")
	}

	if err := s.validateTarget(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]orderclient.OrderLine, 0, len(s.cart.Lines()))
	for _, line := range s.cart.Lines() {
		var note *string
		if trimmed, ok := cart.NormalizeNote(line.Note); ok {
			note = &trimmed
		}
		lines = append(lines, orderclient.OrderLine{
			MealID:   line.ItemID,
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
			Note:     note,
		})
	}

	req := orderclient.CreateOrderRequest{
		RestaurantID:   s.cart.RestaurantID(),
		TableID:        s.cart.TableID(),
		Lines:          lines,
		IdempotencyKey: uuid.NewString(),
	}
	s.submitting = true
	s.mu.Unlock()

	order, err := s.client.CreateOrder(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.setBannerLocked(BannerError, failureMessage(err), errorBannerTTL)
		s.mu.Unlock()
		if s.logg != nil {
			s.logg.Error(ctx, "order submission failed", err)
		}
		return nil, err
	}

	s.cart.Clear()
	s.setBannerLocked(BannerSuccess, "order placed", successBannerTTL)
	notify := s.onSubmitted
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return order, nil
}

// Banner returns the currently displayed banner, or nil when none is active.
func (s *Session) Banner() *Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.banner == nil {
		return nil
	}
	copied := *s.banner
	return &copied
}

// Close makes pending banner timers inert. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	s.banner = nil
}

func (s *Session) validateTarget() error {
	if s.cart.RestaurantID() == uuid.Nil || s.cart.TableID() == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing restaurant or table target").
			WithDetails(map[string]any{"reason": "missing_target"})
	}
	return nil
}

// setBannerLocked replaces the banner and arms its expiry. The sequence guard
// keeps a late-firing timer from clearing a banner it did not create.
func (s *Session) setBannerLocked(kind BannerKind, message string, ttl time.Duration) {
	if s.closed {
		return
	}
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
	}
	s.bannerSeq++
	seq := s.bannerSeq
	s.banner = &Banner{Kind: kind, Message: message}
	s.bannerTimer = time.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.bannerSeq == seq {
			s.banner = nil
			s.bannerTimer = nil
		}
	})
}

func failureMessage(err error) string {
	if serverErr, ok := orderclient.AsServerError(err); ok && serverErr.Message != "" {
		return serverErr.Message
	}
	return "could not place the order, please try again"
}

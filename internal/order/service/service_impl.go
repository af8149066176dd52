package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/storefront/internal/clock"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxIdempotencyKeyLen = 255

var tracer = otel.Tracer("storefront/order")

type serviceParams struct {
	fx.In

	Log      *zap.Logger
	DB       *gorm.DB
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     orderdomain.Repository
	Pricing  pricingdomain.Service
	Redeemer coupondomain.Redeemer
	Locker   orderdomain.CheckoutLocker  `optional:"true"`
	Renderer orderdomain.InvoiceRenderer `optional:"true"`
	Metrics  *metrics.Metrics            `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	db       *gorm.DB
	genID    *snowflake.Node
	clock    clock.Clock
	repo     orderdomain.Repository
	pricing  pricingdomain.Service
	redeemer coupondomain.Redeemer
	locker   orderdomain.CheckoutLocker
	renderer orderdomain.InvoiceRenderer
	metrics  *metrics.Metrics
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:      p.Log.Named("order.service"),
		db:       p.DB,
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		pricing:  p.Pricing,
		redeemer: p.Redeemer,
		locker:   p.Locker,
		renderer: p.Renderer,
		metrics:  p.Metrics,
	}
}

// Checkout prices the cart again, persists the order with its rounded
// totals and redeems the coupon in the same transaction. A coupon that
// cannot be redeemed rolls the whole order back.
func (s *Service) Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.CheckoutResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, orderdomain.ErrInvalidStore
	}
	storeLabel := storeID.String()

	ctx, span := tracer.Start(ctx, "order.Checkout")
	span.SetAttributes(attribute.Int64("store_id", storeID.Int64()))
	defer span.End()

	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, orderdomain.ErrInvalidIdempotencyKey
	}

	if key != "" {
		if existing, err := s.replay(ctx, storeID, key); err != nil || existing != nil {
			return existing, err
		}

		token, acquired, err := s.acquire(ctx, storeLabel, key)
		if err != nil {
			return nil, err
		}
		if !acquired {
			s.metrics.RecordCheckout(ctx, storeLabel, "locked", 0)
			return nil, orderdomain.ErrCheckoutInProgress
		}
		defer s.release(ctx, storeLabel, key, token)

		if existing, err := s.replay(ctx, storeID, key); err != nil || existing != nil {
			return existing, err
		}
	}

	cart, err := s.pricing.BuildCart(ctx, storeID.Int64(), req.QuoteRequest)
	if err != nil {
		s.metrics.RecordCheckout(ctx, storeLabel, "invalid", 0)
		return nil, err
	}
	totals, err := s.pricing.Price(ctx, storeID.Int64(), cart)
	if err != nil {
		s.recordFailure(ctx, storeLabel, err)
		return nil, err
	}

	now := s.clock.Now()
	order := orderdomain.NewOrder(s.genID.Generate(), storeID, newOrderNumber(s.clock), cart, *totals, now)
	if key != "" {
		order.IdempotencyKey = &key
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return err
		}
		if order.CouponID == nil {
			return nil
		}
		return s.redeemer.Redeem(ctx, tx, storeID.Int64(), order.CouponID.Int64(), order.ID.Int64())
	})
	if err != nil {
		if key != "" && db.IsDuplicateKeyErr(err) {
			if existing, lookupErr := s.replay(ctx, storeID, key); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		if rej, ok := pricingdomain.AsRejection(err); ok && rej.Kind == pricingdomain.RuleKindCoupon {
			s.metrics.RecordCouponRedemption(ctx, storeLabel, string(rej.Reason))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recordFailure(ctx, storeLabel, err)
		return nil, err
	}

	if order.CouponID != nil {
		s.metrics.RecordCouponRedemption(ctx, storeLabel, "redeemed")
	}
	total, _ := order.Total.Float64()
	s.metrics.RecordCheckout(ctx, storeLabel, "created", total)

	s.log.Info("order created",
		zap.String("store_id", storeLabel),
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("total", order.Total.StringFixed(2)),
	)

	return &orderdomain.CheckoutResponse{
		Order:           toResponse(order),
		CouponRejection: totals.CouponRejection,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*orderdomain.Response, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req orderdomain.ListRequest) (*orderdomain.ListResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, orderdomain.ErrInvalidStore
	}

	var status *orderdomain.Status
	if raw := strings.TrimSpace(req.Status); raw != "" {
		parsed, ok := orderdomain.ParseStatus(raw)
		if !ok {
			return nil, orderdomain.ErrInvalidStatus
		}
		status = &parsed
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return nil, err
	}
	var afterID snowflake.ID
	if cursor != nil {
		afterID = snowflake.ID(cursor.ID)
	}

	limit := req.Size()
	rows, err := s.repo.List(ctx, storeID, status, afterID, limit+1)
	if err != nil {
		return nil, err
	}

	rows, pageInfo, err := pagination.Page(rows, limit, func(o orderdomain.Order) pagination.Cursor {
		return pagination.Cursor{ID: o.ID.Int64()}
	})
	if err != nil {
		return nil, err
	}

	out := &orderdomain.ListResponse{PageInfo: pageInfo, Orders: make([]orderdomain.Response, 0, len(rows))}
	for i := range rows {
		out.Orders = append(out.Orders, toResponse(&rows[i]))
	}
	return out, nil
}

// UpdateStatus moves an order to any known status. Transitions off the
// expected path are allowed but logged and flagged in the history.
func (s *Service) UpdateStatus(ctx context.Context, req orderdomain.UpdateStatusRequest) (*orderdomain.Response, error) {
	order, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	next, ok := orderdomain.ParseStatus(req.Status)
	if !ok {
		return nil, orderdomain.ErrInvalidStatus
	}

	var note *string
	if req.Note != nil {
		if trimmed := strings.TrimSpace(*req.Note); trimmed != "" {
			note = &trimmed
		}
	}

	prev := order.Status
	onPath := orderdomain.OnPath(prev, next)
	if !onPath {
		s.log.Warn("order status change off expected path",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
		)
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(ctx, tx, order.StoreID, order.ID, next, now); err != nil {
			return err
		}
		return s.repo.InsertStatusEvent(ctx, tx, &orderdomain.StatusEvent{
			ID:         s.genID.Generate(),
			StoreID:    order.StoreID,
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   next,
			OnPath:     onPath,
			Note:       note,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStatusChange(ctx, order.StoreID.String(), string(prev), string(next), onPath)

	order.Status = next
	order.UpdatedAt = now
	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) History(ctx context.Context, id string) ([]orderdomain.StatusEventResponse, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.ListStatusEvents(ctx, order.StoreID, order.ID)
	if err != nil {
		return nil, err
	}
	out := make([]orderdomain.StatusEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, orderdomain.StatusEventResponse{
			ID:         e.ID.String(),
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			OnPath:     e.OnPath,
			Note:       e.Note,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) AddComment(ctx context.Context, req orderdomain.AddCommentRequest) (*orderdomain.CommentResponse, error) {
	order, err := s.find(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	comment := &orderdomain.Comment{
		ID:        s.genID.Generate(),
		StoreID:   order.StoreID,
		OrderID:   order.ID,
		Author:    strings.TrimSpace(req.Author),
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: s.clock.Now(),
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	resp := toCommentResponse(*comment)
	return &resp, nil
}

func (s *Service) ListComments(ctx context.Context, id string) ([]orderdomain.CommentResponse, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, order.StoreID, order.ID)
	if err != nil {
		return nil, err
	}
	out := make([]orderdomain.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out, nil
}

func (s *Service) Invoice(ctx context.Context, id string) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("invoice renderer not configured")
	}
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderInvoice(*order)
}

func (s *Service) find(ctx context.Context, id string) (*orderdomain.Order, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, orderdomain.ErrInvalidStore
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	return order, nil
}

func (s *Service) replay(ctx context.Context, storeID snowflake.ID, key string) (*orderdomain.CheckoutResponse, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, storeID, key)
	if err != nil || existing == nil {
		return nil, err
	}
	s.metrics.RecordCheckout(ctx, storeID.String(), "replayed", 0)
	return &orderdomain.CheckoutResponse{Order: toResponse(existing), Replayed: true}, nil
}

func (s *Service) acquire(ctx context.Context, storeID, key string) (string, bool, error) {
	if s.locker == nil {
		return "", true, nil
	}
	return s.locker.AcquireCheckout(ctx, storeID, key)
}

func (s *Service) release(ctx context.Context, storeID, key, token string) {
	if s.locker == nil || token == "" {
		return
	}
	if err := s.locker.ReleaseCheckout(context.WithoutCancel(ctx), storeID, key, token); err != nil {
		s.log.Warn("release checkout lock", zap.String("store_id", storeID), zap.Error(err))
	}
}

func (s *Service) recordFailure(ctx context.Context, storeID string, err error) {
	outcome := "error"
	if rej, ok := pricingdomain.AsRejection(err); ok {
		outcome = rej.Code()
	}
	s.metrics.RecordCheckout(ctx, storeID, outcome, 0)
}

func newOrderNumber(c clock.Clock) string {
	return ulid.MustNew(ulid.Timestamp(c.Now()), ulid.DefaultEntropy()).String()
}

func toResponse(o *orderdomain.Order) orderdomain.Response {
	resp := orderdomain.Response{
		ID:                 o.ID.String(),
		StoreID:            o.StoreID.String(),
		Number:             o.Number,
		Status:             o.Status,
		NextStatuses:       o.Status.Next(),
		Currency:           o.Currency,
		Items:              o.Items,
		Subtotal:           o.Subtotal,
		DiscountTotal:      o.DiscountTotal,
		DiscountedSubtotal: o.DiscountedSubtotal,
		ShippingCost:       o.ShippingCost,
		TaxTotal:           o.TaxTotal,
		Total:              o.Total,
		TaxBreakdown:       o.TaxBreakdown,
		Discounts:          o.Discounts,
		CouponCode:         o.CouponCode,
		ShippingRateID:     o.ShippingRateID.String(),
		ShippingCountry:    o.ShippingCountry,
		ShippingRegion:     o.ShippingRegion,
		CashOnDelivery:     o.CashOnDelivery,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.CouponID != nil {
		id := strconv.FormatInt(o.CouponID.Int64(), 10)
		resp.CouponID = &id
	}
	return resp
}

func toCommentResponse(c orderdomain.Comment) orderdomain.CommentResponse {
	return orderdomain.CommentResponse{
		ID:        c.ID.String(),
		OrderID:   c.OrderID.String(),
		Author:    c.Author,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

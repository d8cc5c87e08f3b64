package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNoMaxAttempts = 3

// OrderService 订单服务
type OrderService struct {
	orderRepo       repository.OrderRepository
	catalogRepo     repository.CatalogRepository
	addressRepo     repository.UserAddressRepository
	couponSvc       *CouponService
	loyaltySvc      *LoyaltyService
	rewardSvc       *RewardService
	notificationSvc *NotificationService
	defaultShipping decimal.Decimal
	numberPrefix    string
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	addressRepo repository.UserAddressRepository,
	couponSvc *CouponService,
	loyaltySvc *LoyaltyService,
	rewardSvc *RewardService,
	notificationSvc *NotificationService,
	defaultShipping decimal.Decimal,
	numberPrefix string,
) *OrderService {
	prefix := strings.ToUpper(strings.TrimSpace(numberPrefix))
	if prefix == "" {
		prefix = "ORD"
	}
	return &OrderService{
		orderRepo:       orderRepo,
		catalogRepo:     catalogRepo,
		addressRepo:     addressRepo,
		couponSvc:       couponSvc,
		loyaltySvc:      loyaltySvc,
		rewardSvc:       rewardSvc,
		notificationSvc: notificationSvc,
		defaultShipping: defaultShipping,
		numberPrefix:    prefix,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID            uint             `json:"-"`
	ShippingAddressID *uint            `json:"shipping_address_id"`
	PaymentMethod     string           `json:"payment_method" validate:"required,oneof=cash_on_delivery card wallet bank_transfer"`
	Items             []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	CouponCode        string           `json:"coupon_code" validate:"max=64"`
	LoyaltyRewardID   *uint            `json:"loyalty_reward_id"`
	Notes             string           `json:"notes" validate:"max=1000"`
	ShippingCost      *models.Money    `json:"shipping_cost"`
	TaxAmount         *models.Money    `json:"tax_amount"`
}

// UpdateStatusInput 状态更新输入
type UpdateStatusInput struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	ChangeReason   string `json:"change_reason" validate:"max=255"`
	Notes          string `json:"notes" validate:"max=1000"`
	TrackingNumber string `json:"tracking_number" validate:"max=128"`
	Carrier        string `json:"carrier" validate:"max=64"`
}

// Actor 状态变更操作者
type Actor struct {
	ID   *uint
	Role string
}

// SystemActor 系统操作者
func SystemActor() Actor {
	return Actor{Role: constants.ActorRoleSystem}
}

// CreateOrder 创建订单：定价、优惠券、积分奖励、落库、初始状态事件、积分入账在同一事务内完成，通知在提交后投递
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUserRequired
	}
	paymentMethod := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if !isSupportedPaymentMethod(paymentMethod) {
		return nil, ErrPaymentMethodInvalid
	}
	if (input.ShippingCost != nil && input.ShippingCost.Decimal.IsNegative()) ||
		(input.TaxAmount != nil && input.TaxAmount.Decimal.IsNegative()) {
		return nil, ErrOrderItemInvalid
	}
	input.PaymentMethod = paymentMethod

	var order *models.Order
	var err error
	for attempt := 1; attempt <= orderNoMaxAttempts; attempt++ {
		order, err = s.createOrder(input)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logger.Warnw("order_no_conflict_retry", "user_id", input.UserID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total_amount", order.TotalAmount.String(),
		"points_earned", order.PointsEarned,
	)
	s.notificationSvc.NotifyOrderCreated(order)
	return order, nil
}

func (s *OrderService) createOrder(input CreateOrderInput) (*models.Order, error) {
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		catalog := s.catalogRepo.WithTx(tx)
		now := time.Now()

		if input.ShippingAddressID != nil {
			address, err := s.addressRepo.WithTx(tx).GetUserAddress(*input.ShippingAddressID, input.UserID)
			if err != nil {
				return err
			}
			if address == nil {
				return ErrAddressNotFound
			}
		}

		priced, err := PriceLines(catalog, input.Items)
		if err != nil {
			return err
		}
		items := make([]models.OrderItem, 0, len(priced.Lines)+1)
		for _, line := range priced.Lines {
			items = append(items, line.Item)
		}
		subtotal := priced.Subtotal

		shipping := s.defaultShipping
		if input.ShippingCost != nil {
			shipping = input.ShippingCost.Decimal
		}
		tax := decimal.Zero
		if input.TaxAmount != nil {
			tax = input.TaxAmount.Decimal
		}

		couponDiscount := decimal.Zero
		var couponUsageID *uint
		if code := strings.TrimSpace(input.CouponCode); code != "" {
			usage, err := s.couponSvc.ApplyByCode(tx, code, input.UserID, subtotal, nil)
			if err != nil {
				return err
			}
			couponDiscount = usage.DiscountAmount.Decimal
			couponUsageID = &usage.ID
		}

		rewardDiscount := decimal.Zero
		var redemption *models.LoyaltyPointsTransaction
		if input.LoyaltyRewardID != nil {
			txn, reward, err := s.rewardSvc.Redeem(tx, input.UserID, *input.LoyaltyRewardID)
			if err != nil {
				return err
			}
			redemption = txn
			effect, err := resolveRewardEffect(reward, subtotal)
			if err != nil {
				return err
			}
			rewardDiscount = effect.Discount
			if effect.FreeShipping {
				shipping = decimal.Zero
			}
			if effect.FreeProduct != nil {
				line, err := buildRewardLine(catalog, *effect.FreeProduct, items)
				if err != nil {
					return err
				}
				items = append(items, line)
			}
		}

		totals, err := computeOrderTotals(subtotal, shipping, tax, couponDiscount, rewardDiscount)
		if err != nil {
			logger.Errorw("order_total_negative",
				"user_id", input.UserID,
				"subtotal", subtotal.String(),
				"discount", totals.Discount.String(),
				"error", err,
			)
			return err
		}

		orderNo, err := s.nextOrderNo(orderRepo, now)
		if err != nil {
			return err
		}
		order = &models.Order{
			OrderNo:              orderNo,
			UserID:               input.UserID,
			Status:               constants.OrderStatusPending,
			PaymentStatus:        constants.PaymentStatusPending,
			PaymentMethod:        input.PaymentMethod,
			ShippingAddressID:    input.ShippingAddressID,
			Subtotal:             models.NewMoneyFromDecimal(totals.Subtotal),
			ShippingCost:         models.NewMoneyFromDecimal(totals.ShippingCost),
			TaxAmount:            models.NewMoneyFromDecimal(totals.TaxAmount),
			CouponDiscountAmount: models.NewMoneyFromDecimal(totals.CouponDiscount),
			RewardDiscountAmount: models.NewMoneyFromDecimal(totals.RewardDiscount),
			DiscountAmount:       models.NewMoneyFromDecimal(totals.Discount),
			TotalAmount:          models.NewMoneyFromDecimal(totals.Total),
			CouponUsageID:        couponUsageID,
			LoyaltyRewardID:      input.LoyaltyRewardID,
			Notes:                strings.TrimSpace(input.Notes),
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		for _, item := range items {
			ok, err := catalog.DecrementStock(item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: variant %d", ErrInsufficientStock, item.VariantID)
			}
		}
		if couponUsageID != nil {
			if err := s.couponSvc.usageRepo.WithTx(tx).AttachOrder(*couponUsageID, order.ID); err != nil {
				return err
			}
		}
		if redemption != nil {
			if err := s.loyaltySvc.loyaltyRepo.WithTx(tx).AttachOrder(redemption.ID, order.ID); err != nil {
				return err
			}
		}

		userID := input.UserID
		if err := orderRepo.CreateStatusEvents([]models.OrderStatusEvent{{
			OrderID:       order.ID,
			NewStatus:     constants.OrderStatusPending,
			ChangedBy:     &userID,
			ChangedByRole: constants.ActorRoleUser,
			ChangeReason:  "order created",
			CreatedAt:     now,
		}}); err != nil {
			return err
		}

		rate, err := s.loyaltySvc.EarningRate(tx, input.UserID)
		if err != nil {
			return err
		}
		if points := PointsForAmount(totals.Subtotal, rate); points > 0 {
			orderID := order.ID
			amount := models.NewMoneyFromDecimal(totals.Subtotal)
			if _, err := s.loyaltySvc.EarnInTx(tx, EarnInput{
				UserID:      input.UserID,
				Points:      points,
				Source:      constants.PointsSourceOrder,
				OrderID:     &orderID,
				OrderAmount: &amount,
				Description: "earned from order " + order.OrderNo,
			}); err != nil {
				return err
			}
			if err := orderRepo.Update(order.ID, map[string]interface{}{"points_earned": points}); err != nil {
				return err
			}
			order.PointsEarned = points
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// buildRewardLine 生成奖励赠品行（零价），库存按同规格已购数量累计校验
func buildRewardLine(catalog CatalogReader, free FreeProductLine, existing []models.OrderItem) (models.OrderItem, error) {
	product, err := catalog.GetActiveProduct(free.ProductID)
	if err != nil {
		return models.OrderItem{}, err
	}
	if product == nil {
		return models.OrderItem{}, ErrRewardFreeProductAbsent
	}
	variant, err := catalog.GetActiveVariant(free.VariantID, free.ProductID)
	if err != nil {
		return models.OrderItem{}, err
	}
	if variant == nil {
		return models.OrderItem{}, ErrRewardFreeProductAbsent
	}
	required := free.Quantity
	for _, item := range existing {
		if item.VariantID == variant.ID {
			required += item.Quantity
		}
	}
	if variant.Stock < required {
		return models.OrderItem{}, fmt.Errorf("%w: variant %d", ErrInsufficientStock, variant.ID)
	}
	return models.OrderItem{
		ProductID:      product.ID,
		VariantID:      variant.ID,
		ProductName:    product.Name,
		VariantName:    variant.Name,
		UnitPrice:      models.ZeroMoney(),
		Quantity:       free.Quantity,
		TotalPrice:     models.ZeroMoney(),
		DiscountAmount: models.ZeroMoney(),
		FinalPrice:     models.ZeroMoney(),
		IsRewardItem:   true,
		Notes:          "loyalty reward",
	}, nil
}

// nextOrderNo 生成 <前缀>-<年份>-<当年序号> 订单号
func (s *OrderService) nextOrderNo(orderRepo repository.OrderRepository, now time.Time) (string, error) {
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	count, err := orderRepo.CountCreatedBetween(yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return "", err
	}
	return formatOrderNo(s.numberPrefix, now.Year(), count+1), nil
}

func formatOrderNo(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// UpdateStatus 更新订单状态：校验流转表，补齐缺失的正向状态事件并写入时间戳
func (s *OrderService) UpdateStatus(orderID uint, input UpdateStatusInput, actor Actor) (*models.Order, error) {
	return s.updateStatus(orderID, input, actor, nil)
}

func (s *OrderService) updateStatus(orderID uint, input UpdateStatusInput, actor Actor, guard func(order *models.Order) error) (*models.Order, error) {
	target := normalizeOrderStatus(input.Status)
	if !isKnownOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	role := strings.TrimSpace(actor.Role)
	if role == "" {
		role = constants.ActorRoleSystem
	}

	var result *models.Order
	changed := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}
		if order.Status == target {
			result = order
			return nil
		}
		if !isTransitionAllowed(order.Status, target) {
			return ErrInvalidStateTransition
		}

		history, err := orderRepo.ListStatusEvents(order.ID)
		if err != nil {
			return err
		}
		recorded := make([]string, 0, len(history))
		for _, event := range history {
			recorded = append(recorded, event.NewStatus)
		}
		walk := missingStatuses(highestRecordedStatus(recorded), target)
		if len(walk) == 0 {
			walk = []string{target}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":     target,
			"updated_at": now,
		}
		events := make([]models.OrderStatusEvent, 0, len(walk))
		previous := order.Status
		for i, status := range walk {
			applyStatusSideEffects(updates, status, now)
			event := models.OrderStatusEvent{
				OrderID:        order.ID,
				PreviousStatus: previous,
				NewStatus:      status,
				ChangedBy:      actor.ID,
				ChangedByRole:  role,
				CreatedAt:      now,
			}
			if i < len(walk)-1 {
				event.IsAutoGenerated = true
				event.ChangeReason = "auto-filled status progression"
			} else {
				event.ChangeReason = strings.TrimSpace(input.ChangeReason)
				event.Notes = strings.TrimSpace(input.Notes)
			}
			events = append(events, event)
			previous = status
		}
		if target == constants.OrderStatusShipped {
			if tracking := strings.TrimSpace(input.TrackingNumber); tracking != "" {
				updates["tracking_number"] = tracking
				updates["carrier"] = strings.TrimSpace(input.Carrier)
			}
		}
		if target == constants.OrderStatusRefunded && order.PaymentStatus == constants.PaymentStatusPaid {
			updates["payment_status"] = constants.PaymentStatusRefunded
		}

		if err := orderRepo.Update(order.ID, updates); err != nil {
			return err
		}
		if err := orderRepo.CreateStatusEvents(events); err != nil {
			return err
		}
		if err := s.releaseOrderResources(tx, order, target); err != nil {
			return err
		}

		result, err = orderRepo.GetByID(order.ID)
		if err != nil {
			return err
		}
		if result == nil {
			return ErrOrderNotFound
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Infow("order_status_updated",
			"order_id", result.ID,
			"status", result.Status,
			"actor_role", role,
		)
		s.notificationSvc.NotifyOrderStatusChanged(result)
	}
	return result, nil
}

// releaseOrderResources 取消时回补库存并冲正下单兑换的奖励；取消与退款均冲回本单获得的积分。优惠券使用记录保留
func (s *OrderService) releaseOrderResources(tx *gorm.DB, order *models.Order, target string) error {
	if target != constants.OrderStatusCancelled && target != constants.OrderStatusRefunded {
		return nil
	}
	if target == constants.OrderStatusCancelled {
		items, err := s.orderRepo.WithTx(tx).ListItems(order.ID)
		if err != nil {
			return err
		}
		catalog := s.catalogRepo.WithTx(tx)
		for _, item := range items {
			if err := catalog.IncrementStock(item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if s.rewardSvc != nil {
			if err := s.rewardSvc.ReleaseForOrderInTx(tx, order); err != nil {
				return err
			}
		}
	}
	if order.PointsEarned > 0 {
		if _, err := s.loyaltySvc.RetractOrderPointsInTx(tx, order.UserID, order.ID); err != nil {
			return err
		}
	}
	return nil
}

// CancelOrder 用户取消订单：仅限本人、待处理且未支付的订单
func (s *OrderService) CancelOrder(orderID, userID uint, reason string) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancelled by customer"
	}
	uid := userID
	return s.updateStatus(orderID, UpdateStatusInput{
		Status:       constants.OrderStatusCancelled,
		ChangeReason: reason,
	}, Actor{ID: &uid, Role: constants.ActorRoleUser}, func(order *models.Order) error {
		if order.UserID != userID {
			return ErrOrderForbidden
		}
		if order.PaymentStatus == constants.PaymentStatusPaid {
			return ErrOrderAlreadyPaid
		}
		if order.Status != constants.OrderStatusPending {
			return ErrOrderNotCancellable
		}
		return nil
	})
}

// MarkPaid 标记订单已支付
func (s *OrderService) MarkPaid(orderID uint, actor Actor) (*models.Order, error) {
	var result *models.Order
	changed := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PaymentStatus == constants.PaymentStatusPaid {
			result = order
			return nil
		}
		if order.Status == constants.OrderStatusCancelled || order.Status == constants.OrderStatusRefunded {
			return ErrInvalidStateTransition
		}
		if err := orderRepo.Update(order.ID, map[string]interface{}{
			"payment_status": constants.PaymentStatusPaid,
			"updated_at":     time.Now(),
		}); err != nil {
			return err
		}
		result, err = orderRepo.GetByID(order.ID)
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Infow("order_marked_paid", "order_id", result.ID, "actor_role", actor.Role)
	}
	return result, nil
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case constants.PaymentMethodCashOnDelivery,
		constants.PaymentMethodCard,
		constants.PaymentMethodWallet,
		constants.PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

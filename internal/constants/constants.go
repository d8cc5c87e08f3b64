package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodCard           = "card"
	PaymentMethodWallet         = "wallet"
	PaymentMethodBankTransfer   = "bank_transfer"
)

// 状态变更操作者角色
const (
	ActorRoleSystem   = "system"
	ActorRoleUser     = "user"
	ActorRoleAdmin    = "admin"
	ActorRoleOperator = "operator"
)

// 优惠券类型常量
const (
	CouponTypeFixedAmount = "fixed_amount"
	CouponTypePercentage  = "percentage"
)

// 优惠券状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusExpired  = "expired"
	CouponStatusDisabled = "disabled"
)

// 积分流水类型常量
const (
	PointsTxnTypeEarned   = "earned"
	PointsTxnTypeRedeemed = "redeemed"
	PointsTxnTypeExpired  = "expired"
	PointsTxnTypeBonus    = "bonus"
	PointsTxnTypeAdjusted = "adjusted"
)

// 积分来源常量
const (
	PointsSourceOrder    = "order"
	PointsSourceReward   = "reward"
	PointsSourceReferral = "referral"
	PointsSourceAdmin    = "admin"
	PointsSourceExpiry   = "expiry"
)

// 奖励类型常量
const (
	RewardTypeDiscount        = "discount"
	RewardTypeFreeShipping    = "free_shipping"
	RewardTypeFreeProduct     = "free_product"
	RewardTypeCashback        = "cashback"
	RewardTypeBirthdayGift    = "birthday_gift"
	RewardTypeExclusiveAccess = "exclusive_access"
)

// 奖励状态常量
const (
	RewardStatusActive   = "active"
	RewardStatusInactive = "inactive"
	RewardStatusExpired  = "expired"
)

// 运行模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

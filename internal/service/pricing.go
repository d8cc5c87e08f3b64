package service

import (
	"fmt"

	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
)

// OrderItemInput 下单商品行
type OrderItemInput struct {
	ProductID uint   `json:"product_id" validate:"required"`
	VariantID uint   `json:"variant_id"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Notes     string `json:"notes" validate:"max=500"`
}

// PricedLine 定价后的商品行
type PricedLine struct {
	Product *models.Product
	Variant *models.ProductVariant
	Item    models.OrderItem
}

// PricingResult 定价结果
type PricingResult struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
}

// PriceLines 按规格价格计算商品行与小计，并校验上架状态与库存
func PriceLines(catalog CatalogReader, items []OrderItemInput) (*PricingResult, error) {
	if len(items) == 0 {
		return nil, ErrOrderItemsEmpty
	}
	result := &PricingResult{
		Lines:    make([]PricedLine, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	requested := make(map[uint]int, len(items))
	for _, input := range items {
		if input.ProductID == 0 {
			return nil, ErrOrderItemInvalid
		}
		if input.VariantID == 0 {
			return nil, ErrVariantRequired
		}
		if input.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		product, err := catalog.GetActiveProduct(input.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		variant, err := catalog.GetActiveVariant(input.VariantID, input.ProductID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, ErrVariantNotFound
		}
		requested[variant.ID] += input.Quantity
		if variant.Stock < requested[variant.ID] {
			return nil, fmt.Errorf("%w: variant %d", ErrInsufficientStock, variant.ID)
		}

		unitPrice := variant.Price.Decimal.Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2)
		result.Lines = append(result.Lines, PricedLine{
			Product: product,
			Variant: variant,
			Item: models.OrderItem{
				ProductID:      product.ID,
				VariantID:      variant.ID,
				ProductName:    product.Name,
				VariantName:    variant.Name,
				UnitPrice:      models.NewMoneyFromDecimal(unitPrice),
				Quantity:       input.Quantity,
				TotalPrice:     models.NewMoneyFromDecimal(lineTotal),
				DiscountAmount: models.ZeroMoney(),
				FinalPrice:     models.NewMoneyFromDecimal(lineTotal),
				Notes:          input.Notes,
			},
		})
		result.Subtotal = result.Subtotal.Add(lineTotal)
	}
	result.Subtotal = result.Subtotal.Round(2)
	return result, nil
}

// OrderTotals 订单金额拆分
type OrderTotals struct {
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	CouponDiscount decimal.Decimal
	RewardDiscount decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
}

// computeOrderTotals 计算实付金额，结果为负视为计算错误而不是截断为 0
func computeOrderTotals(subtotal, shipping, tax, couponDiscount, rewardDiscount decimal.Decimal) (OrderTotals, error) {
	discount := couponDiscount.Add(rewardDiscount).Round(2)
	total := subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)
	totals := OrderTotals{
		Subtotal:       subtotal.Round(2),
		ShippingCost:   shipping.Round(2),
		TaxAmount:      tax.Round(2),
		CouponDiscount: couponDiscount.Round(2),
		RewardDiscount: rewardDiscount.Round(2),
		Discount:       discount,
		Total:          total,
	}
	if total.IsNegative() {
		return totals, fmt.Errorf("%w: total %s", ErrInvalidOrderAmount, total.StringFixed(2))
	}
	return totals, nil
}

// Package pricing рассчитывает стоимость строк заказа и итог со скидкой.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/model"
)

var (
	// ErrInvalidQuantity возвращается при количестве меньше единицы.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidPrice возвращается при неположительной цене за единицу.
	ErrInvalidPrice = errors.New("price per unit must be positive")
	// ErrInvalidDiscount возвращается при некорректных параметрах скидки.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrDiscountExceedsTotal возвращается, если фиксированная скидка больше суммы заказа.
	ErrDiscountExceedsTotal = errors.New("discount exceeds order total")
	// ErrQuantityTooLarge возвращается при количестве больше MaxQuantity.
	ErrQuantityTooLarge = errors.New("quantity is too large")
	// ErrAmountTooLarge возвращается, если цена или стоимость строки не помещается в хранилище.
	ErrAmountTooLarge = errors.New("amount is too large")
)

// MaxQuantity ограничивает количество услуги в одной строке заказа.
const MaxQuantity int64 = 1_000_000

var (
	hundred = decimal.NewFromInt(100)

	// maxPrice и maxLineTotal соответствуют колонкам NUMERIC(14, 2) и NUMERIC(16, 2).
	maxPrice     = decimal.New(1, 12)
	maxLineTotal = decimal.New(1, 14)
)

// CheckAmount проверяет, что цена или сумма помещается в колонку NUMERIC(14, 2).
func CheckAmount(amount decimal.Decimal) error {
	if Round(amount).GreaterThanOrEqual(maxPrice) {
		return ErrAmountTooLarge
	}
	return nil
}

// Discount описывает закрытый вариант скидки: Percent или Fixed.
type Discount interface {
	discount()
}

// Percent уменьшает сумму на долю в процентах.
type Percent struct {
	Rate decimal.Decimal
}

// Fixed уменьшает сумму на фиксированную величину.
type Fixed struct {
	Amount decimal.Decimal
}

func (Percent) discount() {}
func (Fixed) discount()   {}

// NewDiscount строит вариант скидки по типу и величине.
func NewDiscount(kind model.DiscountType, amount decimal.Decimal) (Discount, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidDiscount)
	}
	switch kind {
	case model.DiscountPercent:
		if amount.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percent must not exceed 100", ErrInvalidDiscount)
		}
		return Percent{Rate: amount}, nil
	case model.DiscountFixed:
		return Fixed{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidDiscount, kind)
	}
}

// FromSnapshot строит вариант скидки из снимка заказа; nil означает отсутствие скидки.
func FromSnapshot(s *model.DiscountSnapshot) (Discount, error) {
	if s == nil {
		return nil, nil
	}
	return NewDiscount(s.Type, s.Amount)
}

// LineTotal возвращает стоимость строки: количество, умноженное на цену за единицу.
func LineTotal(quantity int64, pricePerUnit decimal.Decimal) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return decimal.Zero, ErrQuantityTooLarge
	}
	if !pricePerUnit.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	if err := CheckAmount(pricePerUnit); err != nil {
		return decimal.Zero, err
	}

	total := pricePerUnit.Mul(decimal.NewFromInt(quantity))
	if Round(total).GreaterThanOrEqual(maxLineTotal) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return total, nil
}

// GrossTotal возвращает сумму стоимостей всех строк.
func GrossTotal(lines []model.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// NetTotal применяет скидку к сумме заказа.
// Фиксированная скидка больше суммы отклоняется, итог не обрезается до нуля.
func NetTotal(gross decimal.Decimal, d Discount) (decimal.Decimal, error) {
	switch d := d.(type) {
	case nil:
		return gross, nil
	case Percent:
		return gross.Mul(decimal.NewFromInt(1).Sub(d.Rate.Div(hundred))), nil
	case Fixed:
		net := gross.Sub(d.Amount)
		if net.IsNegative() {
			return decimal.Zero, ErrDiscountExceedsTotal
		}
		return net, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported variant %T", ErrInvalidDiscount, d)
	}
}

// Totals содержит итоговые суммы заказа в полной точности.
type Totals struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
}

// Rounded возвращает суммы, округлённые до копеек для ответа клиенту.
func (t Totals) Rounded() Totals {
	return Totals{
		Gross:    Round(t.Gross),
		Discount: Round(t.Discount),
		Net:      Round(t.Net),
	}
}

// Compute рассчитывает итоговые суммы по строкам заказа и снимку скидки.
func Compute(lines []model.OrderLine, snapshot *model.DiscountSnapshot) (Totals, error) {
	d, err := FromSnapshot(snapshot)
	if err != nil {
		return Totals{}, err
	}

	gross := GrossTotal(lines)
	net, err := NetTotal(gross, d)
	if err != nil {
		return Totals{}, err
	}

	return Totals{Gross: gross, Discount: gross.Sub(net), Net: net}, nil
}

// Round округляет денежную сумму до двух знаков, половина вверх.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

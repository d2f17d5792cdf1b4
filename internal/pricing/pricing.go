package pricing

import (
	"errors"
	"fmt"
)

// カタログに無い商品を参照した（部分注文は作らない）
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %d", e.ProductID)
}

func AsProductNotFound(err error) (*ProductNotFoundError, bool) {
	var pe *ProductNotFoundError
	ok := errors.As(err, &pe)
	return pe, ok
}

var ErrInvalidQuantity = errors.New("invalid quantity")
var ErrInvalidCatalogPrice = errors.New("invalid catalog price")

// カタログ側の事実（現在価格と定額割引）
type Fact struct {
	Price    int64
	Discount int64
}

type Line struct {
	ProductID int64
	Quantity  int64
}

// 割引後単価で確定した1行
type PricedLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice int64
}

type Result struct {
	Lines []PricedLine
	Total int64
}

// Quote は要求された数量とカタログ事実から合計を計算する。
// 実効単価 = price - discount（定額）。入力順を保ち、副作用なし。
func Quote(facts map[int64]Fact, lines []Line) (Result, error) {
	out := Result{Lines: make([]PricedLine, 0, len(lines))}

	for _, ln := range lines {
		if ln.Quantity < 1 {
			return Result{}, ErrInvalidQuantity
		}

		f, ok := facts[ln.ProductID]
		if !ok {
			return Result{}, &ProductNotFoundError{ProductID: ln.ProductID}
		}

		unit := f.Price - f.Discount
		if unit < 0 {
			// 割引が価格を超えるカタログデータは受け付けない
			return Result{}, ErrInvalidCatalogPrice
		}

		out.Lines = append(out.Lines, PricedLine{
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			UnitPrice: unit,
		})
		out.Total += unit * ln.Quantity
	}

	return out, nil
}

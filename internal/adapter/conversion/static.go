package conversion

import (
	"context"
	"errors"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// StaticConverter converts with the built-in rate table. Used when no remote
// conversion service is configured.
type StaticConverter struct{}

func NewStaticConverter() *StaticConverter {
	return &StaticConverter{}
}

func (StaticConverter) Convert(_ context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	converted, err := domain.ConvertAmount(from, to, amount)
	if errors.Is(err, domain.ErrUnknownCurrency) {
		return decimal.Zero, apperror.ErrConversionUnavailable(err)
	}
	if err != nil {
		return decimal.Zero, apperror.InternalError(err)
	}
	return converted, nil
}

package wallet

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/common"
	"github.com/AlexZinkM/tkey-wallet/internal/model"

	"go.uber.org/zap"
)

// RateSource prices a coin in a fiat currency
type RateSource interface {
	GetPrice(ctx context.Context, coinID, vsCurrency string) (string, error)
}

// GetBalance gets the balance of the provider's first account in display
// units. When rates is set and vsCurrency is not empty the fiat value is
// added; a failed rate lookup is logged and leaves it out.
func GetBalance(ctx context.Context, provider chain.Provider, rates RateSource, vsCurrency string, logger *zap.Logger) (*model.BalanceResponse, error) {
	if provider == nil {
		return nil, ErrProviderNotReady
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	address, err := firstAccount(ctx, provider)
	if err != nil {
		return nil, err
	}

	baseUnits, err := provider.Balance(ctx, address)
	if err != nil {
		return nil, err
	}

	unit := provider.Unit()
	// no float precision loss
	balance := common.FormatUnits(baseUnits, unit.Decimals, unit.Trim)

	resp := &model.BalanceResponse{
		Address:   address,
		Balance:   balance,
		BaseUnits: baseUnits.String(),
		Symbol:    unit.Symbol,
	}

	if rates == nil || vsCurrency == "" || unit.CoinGeckoID == "" {
		return resp, nil
	}

	rate, err := rates.GetPrice(ctx, unit.CoinGeckoID, vsCurrency)
	if err != nil {
		logger.Warn("rate lookup failed", zap.String("coin", unit.CoinGeckoID), zap.Error(err))
		return resp, nil
	}

	// float only for display, not for critical operations
	balanceFloat, _ := strconv.ParseFloat(balance, 64)
	rateFloat, _ := strconv.ParseFloat(rate, 64)

	resp.Rate = rate
	resp.Currency = vsCurrency
	resp.FiatAmount = fmt.Sprintf("%.2f", balanceFloat*rateFloat)
	return resp, nil
}

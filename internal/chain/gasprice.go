package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/atonomi/atonomi-deploy/internal/units"
)

type gasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasPrice converts a gwei amount such as "20" or "1.5" into wei. An empty
// amount asks the node for its suggestion.
func GasPrice(ctx context.Context, client gasPricer, gwei string) (*big.Int, error) {
	if strings.TrimSpace(gwei) == "" {
		price, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get suggested gas price: %w", err)
		}
		return price, nil
	}

	price, err := units.ToWei(gwei, units.Gwei)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price %q gwei: %w", gwei, err)
	}
	return price, nil
}

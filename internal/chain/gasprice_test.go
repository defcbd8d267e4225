package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPricer struct {
	price *big.Int
	err   error
}

func (f fixedPricer) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.price, f.err
}

func TestGasPrice(t *testing.T) {
	ctx := context.Background()

	price, err := GasPrice(ctx, fixedPricer{}, "20")
	require.NoError(t, err)
	assert.Equal(t, "20000000000", price.String())

	price, err = GasPrice(ctx, fixedPricer{}, "1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000", price.String())

	price, err = GasPrice(ctx, fixedPricer{price: big.NewInt(7)}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), price.Int64())

	_, err = GasPrice(ctx, fixedPricer{err: errors.New("boom")}, " ")
	require.Error(t, err)

	_, err = GasPrice(ctx, fixedPricer{}, "0.0000000001")
	require.Error(t, err)

	_, err = GasPrice(ctx, fixedPricer{}, "fast")
	require.Error(t, err)
}

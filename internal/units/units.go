// Package units converts human-scaled amounts into integer base units.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

type Unit string

const (
	Wei   Unit = "wei"
	Gwei  Unit = "gwei"
	Ether Unit = "ether"
)

var ErrNotIntegral = errors.New("amount is not a whole number of base units")

// Multiplier returns 10^decimals.
func Multiplier(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// Scale returns amount * 10^decimals. The amount is a decimal string and may
// carry a fraction as long as the product is a whole number.
func Scale(amount string, decimals uint8) (*big.Int, error) {
	return scale(amount, Multiplier(decimals))
}

// ToWei converts an amount expressed in unit into wei.
func ToWei(amount string, unit Unit) (*big.Int, error) {
	var factor *big.Int
	switch Unit(strings.ToLower(string(unit))) {
	case Wei:
		factor = big.NewInt(params.Wei)
	case Gwei:
		factor = big.NewInt(params.GWei)
	case Ether:
		factor = big.NewInt(params.Ether)
	default:
		return nil, fmt.Errorf("unknown unit %q", unit)
	}
	return scale(amount, factor)
}

// FromWei renders a wei amount in unit without losing precision.
func FromWei(wei *big.Int, unit Unit) string {
	switch Unit(strings.ToLower(string(unit))) {
	case Gwei:
		return format(wei, big.NewInt(params.GWei))
	case Ether:
		return format(wei, big.NewInt(params.Ether))
	}
	return wei.String()
}

// Descale is the inverse of Scale.
func Descale(amount *big.Int, decimals uint8) string {
	return format(amount, Multiplier(decimals))
}

func format(amount, factor *big.Int) string {
	r := new(big.Rat).SetFrac(amount, factor)
	if r.IsInt() {
		return r.Num().String()
	}
	return strings.TrimRight(r.FloatString(len(factor.String())), "0")
}

func scale(amount string, factor *big.Int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("amount is empty")
	}

	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	r.Mul(r, new(big.Rat).SetInt(factor))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %s", ErrNotIntegral, amount)
	}

	return new(big.Int).Set(r.Num()), nil
}

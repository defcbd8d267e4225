package artifacts

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// Integers at or above 2^53 cannot be told apart from their neighbours
	// once they are a float64.
	maxExactFloat = 1 << 53

	exponentPrecision = 512
)

// ConstructorArgs converts loosely typed values (strings from the command
// line, YAML scalars, resolved addresses) into the Go types the constructor
// inputs expect.
func (a *Artifact) ConstructorArgs(values ...any) ([]any, error) {
	inputs := a.ABI.Constructor.Inputs
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d", a.Name, len(inputs), len(values))
	}

	out := make([]any, len(values))
	for i, input := range inputs {
		converted, err := ConvertArg(input.Type, values[i])
		if err != nil {
			return nil, fmt.Errorf("%s constructor argument %d (%s %s): %w", a.Name, i, input.Type, input.Name, err)
		}
		out[i] = converted
	}
	return out, nil
}

// ConvertArg converts value to the Go representation of typ used by the abi
// packer.
func ConvertArg(typ abi.Type, value any) (any, error) {
	switch typ.T {
	case abi.AddressTy:
		return toAddress(value)
	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(value)
		if err != nil {
			return nil, err
		}
		return sizedInt(typ, n)
	case abi.BoolTy:
		return toBool(value)
	case abi.StringTy:
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return fmt.Sprint(value), nil
	case abi.BytesTy:
		return toBytes(value)
	case abi.FixedBytesTy:
		b, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		if len(b) != typ.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", typ.Size, len(b))
		}
		fixed := reflect.New(typ.GetType()).Elem()
		reflect.Copy(fixed, reflect.ValueOf(b))
		return fixed.Interface(), nil
	}

	return nil, fmt.Errorf("unsupported argument type %s", typ)
}

func toAddress(value any) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, fmt.Errorf("%q is not a hex address", v)
		}
		return common.HexToAddress(v), nil
	}
	return common.Address{}, fmt.Errorf("cannot use %T as address", value)
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if math.Abs(v) >= maxExactFloat {
			return nil, fmt.Errorf("%v is too large to be an exact integer, write it as a string", v)
		}
		f := new(big.Float).SetFloat64(v)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		n, _ := f.Int(nil)
		return n, nil
	case string:
		return parseInteger(v)
	}
	return nil, fmt.Errorf("cannot use %T as integer", value)
}

// parseInteger reads decimal unless a 0x, 0b or 0o prefix says otherwise, so
// a leading zero is never octal. Exponent forms such as 1e27 are accepted
// when they denote a whole number.
func parseInteger(s string) (*big.Int, error) {
	text := strings.TrimSpace(s)
	digits := strings.TrimLeft(text, "+-")

	base := 10
	if len(digits) > 1 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			base = 0
		}
	}
	if n, ok := new(big.Int).SetString(text, base); ok {
		return n, nil
	}

	if base == 10 && strings.ContainsAny(digits, ".eE") {
		f, _, err := big.ParseFloat(text, 10, exponentPrecision, big.ToNearestEven)
		if err == nil && f.IsInt() {
			n, _ := f.Int(nil)
			return n, nil
		}
	}

	return nil, fmt.Errorf("%q is not an integer", s)
}

func sizedInt(typ abi.Type, n *big.Int) (any, error) {
	if typ.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > typ.Size {
			return nil, fmt.Errorf("%s overflows %s", n, typ)
		}
		switch typ.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%s overflows %s", n, typ)
	}
	switch typ.Size {
	case 8:
		return int8(n.Int64()), nil
	case 16:
		return int16(n.Int64()), nil
	case 32:
		return int32(n.Int64()), nil
	case 64:
		return n.Int64(), nil
	}
	return n, nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", v)
		}
		return b, nil
	}
	return false, fmt.Errorf("cannot use %T as bool", value)
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("%q is not 0x-prefixed hex: %w", v, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", value)
}

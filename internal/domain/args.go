package domain

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CoerceArgs converts raw values into the Go types go-ethereum packs for inputs.
// Strings are parsed according to the ABI type, other values pass through
// except plain integers which are widened to *big.Int where needed.
func CoerceArgs(inputs abi.Arguments, args []any) ([]any, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(args))
	}

	out := make([]any, len(args))
	for i, input := range inputs {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		v, err := coerceArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func coerceArg(t abi.Type, arg any) (any, error) {
	switch v := arg.(type) {
	case string:
		return parseArg(t, strings.TrimSpace(v))
	case int:
		return widenInt(t, big.NewInt(int64(v)))
	case int64:
		return widenInt(t, big.NewInt(v))
	case uint64:
		return widenInt(t, new(big.Int).SetUint64(v))
	default:
		return arg, nil
	}
}

func widenInt(t abi.Type, n *big.Int) (any, error) {
	if t.T != abi.IntTy && t.T != abi.UintTy {
		return nil, fmt.Errorf("integer value for non-integer type")
	}
	return parseArg(t, n.String())
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		return common.HexToAddress(s), nil

	case abi.BoolTy:
		return strconv.ParseBool(s)

	case abi.StringTy:
		return s, nil

	case abi.UintTy:
		if t.Size <= 64 {
			n, err := strconv.ParseUint(s, 0, t.Size)
			if err != nil {
				return nil, err
			}
			return nativeInt(t, reflect.ValueOf(n), new(big.Int).SetUint64(n)), nil
		}
		n, ok := new(big.Int).SetString(s, 0)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid unsigned integer %q", s)
		}
		return n, nil

	case abi.IntTy:
		if t.Size <= 64 {
			n, err := strconv.ParseInt(s, 0, t.Size)
			if err != nil {
				return nil, err
			}
			return nativeInt(t, reflect.ValueOf(n), big.NewInt(n)), nil
		}
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return n, nil

	case abi.BytesTy:
		return hexutil.Decode(s)

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported argument type")
	}
}

// nativeInt converts v to the Go integer type go-ethereum packs for t.
// Only 8, 16, 32 and 64 bit widths map to native kinds; uint24, int40 and
// friends are packed from *big.Int.
func nativeInt(t abi.Type, v reflect.Value, wide *big.Int) any {
	switch t.GetType().Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Convert(t.GetType()).Interface()
	}
	return wide
}

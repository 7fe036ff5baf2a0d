package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Payload converts decoded ABI values into a map that survives JSON and SQL
// round trips: integers become decimal strings, addresses lower-case hex, byte
// values 0x-prefixed hex.
func Payload(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		out[name] = normalizeValue(value)
	}
	return out
}

// AddressField returns the address stored under name, if any.
func AddressField(fields map[string]interface{}, name string) (common.Address, bool) {
	value, ok := fields[name]
	if !ok {
		return common.Address{}, false
	}
	addr, err := asAddress(value)
	if err != nil {
		return common.Address{}, false
	}
	return addr, true
}

// BigIntField returns the integer stored under name, if any.
func BigIntField(fields map[string]interface{}, name string) (*big.Int, bool) {
	value, ok := fields[name]
	if !ok {
		return nil, false
	}
	n, err := asBigInt(value)
	if err != nil {
		return nil, false
	}
	return n, true
}

// FormatAddress renders an address in the canonical lower-case form.
func FormatAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case common.Address:
		return FormatAddress(v)
	case *common.Address:
		if v == nil {
			return nil
		}
		return FormatAddress(*v)
	case common.Hash:
		return v.Hex()
	case *big.Int:
		if v == nil {
			return nil
		}
		return v.String()
	case big.Int:
		return v.String()
	case bool:
		return v
	case string:
		return v
	case []byte:
		return hexutil.Encode(v)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return hexutil.Encode(buf)
		}
		return normalizeList(rv)
	case reflect.Slice:
		return normalizeList(rv)
	case reflect.Struct:
		out := make(map[string]interface{}, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			if !rv.Type().Field(i).IsExported() {
				continue
			}
			out[rv.Type().Field(i).Name] = normalizeValue(rv.Field(i).Interface())
		}
		return out
	default:
		return fmt.Sprintf("%v", value)
	}
}

func normalizeList(rv reflect.Value) []interface{} {
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, normalizeValue(rv.Index(i).Interface()))
	}
	return out
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, fmt.Errorf("invalid address: %s", v)
		}
		return common.HexToAddress(v), nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("invalid int: %s", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

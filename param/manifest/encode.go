package manifest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encode converts a YAML scalar to the little-endian bytes of typ.
func encode(typ string, v any) ([]byte, error) {
	switch typ {
	case "bytes":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("bytes value must be a hex string, got %T", v)
		}
		b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, fmt.Errorf("bytes value: %w", err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("bytes value is empty")
		}
		return b, nil

	case "f32":
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v overflows f32", f)
		}
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(f))), nil

	case "u8", "s8", "u16", "s16", "u32", "s32":
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		lo, hi, size := intRange(typ)
		if n < lo || n > hi {
			return nil, fmt.Errorf("%d out of range for %s", n, typ)
		}
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, uint64(n))
		return out[:size], nil

	case "":
		return nil, fmt.Errorf("missing type")
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
}

func intRange(typ string) (lo, hi int64, size int) {
	switch typ {
	case "u8":
		return 0, math.MaxUint8, 1
	case "s8":
		return math.MinInt8, math.MaxInt8, 1
	case "u16":
		return 0, math.MaxUint16, 2
	case "s16":
		return math.MinInt16, math.MaxInt16, 2
	case "u32":
		return 0, math.MaxUint32, 4
	default:
		return math.MinInt32, math.MaxInt32, 4
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d out of range", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 0, 64)
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

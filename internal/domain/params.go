package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// ParamsVersion is the revision of the stored params encoding. Consumers must
// reject versions they do not know.
const ParamsVersion = 1

// Value tags of the params encoding.
const (
	ParamString = "string"
	ParamInt    = "int"
	ParamFloat  = "float"
	ParamBool   = "bool"
	ParamNull   = "null"
)

var (
	// ErrUnsupportedParam is returned for values that are not flat primitives.
	ErrUnsupportedParam = errors.New("unsupported param value")
	// ErrUnsupportedParamsVersion is returned when decoding an unknown revision.
	ErrUnsupportedParamsVersion = errors.New("unsupported params version")
)

// Params are the arguments of a host task. Values must be strings, booleans,
// integers, finite floats or nil.
type Params map[string]any

type paramsEnvelope struct {
	Version int         `json:"v"`
	Items   []paramItem `json:"items"`
}

type paramItem struct {
	Key   string          `json:"k"`
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v"`
}

// EncodeParams renders params as a versioned, tagged key/value list:
//
//	{"v":1,"items":[{"k":"image","t":"string","v":"nginx"}]}
//
// Items are sorted by key so equal params always encode to equal bytes.
func EncodeParams(params Params) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := paramsEnvelope{Version: ParamsVersion, Items: make([]paramItem, 0, len(keys))}
	for _, k := range keys {
		if !utf8.ValidString(k) {
			return "", fmt.Errorf("param %q: %w: key is not valid UTF-8", k, ErrUnsupportedParam)
		}
		tag, raw, err := encodeValue(params[k])
		if err != nil {
			return "", fmt.Errorf("param %q: %w", k, err)
		}
		env.Items = append(env.Items, paramItem{Key: k, Type: tag, Value: raw})
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}
	return string(data), nil
}

func encodeValue(v any) (string, json.RawMessage, error) {
	var tag string
	var val any

	switch x := v.(type) {
	case nil:
		return ParamNull, json.RawMessage("null"), nil
	case string:
		if !utf8.ValidString(x) {
			return "", nil, fmt.Errorf("%w: string is not valid UTF-8", ErrUnsupportedParam)
		}
		tag, val = ParamString, x
	case bool:
		tag, val = ParamBool, x
	case int:
		tag, val = ParamInt, int64(x)
	case int8:
		tag, val = ParamInt, int64(x)
	case int16:
		tag, val = ParamInt, int64(x)
	case int32:
		tag, val = ParamInt, int64(x)
	case int64:
		tag, val = ParamInt, x
	case uint:
		return encodeUnsigned(uint64(x))
	case uint8:
		tag, val = ParamInt, int64(x)
	case uint16:
		tag, val = ParamInt, int64(x)
	case uint32:
		tag, val = ParamInt, int64(x)
	case uint64:
		return encodeUnsigned(x)
	case float32:
		return encodeFloat(float64(x))
	case float64:
		return encodeFloat(x)
	case json.Number:
		i, err := x.Int64()
		if err == nil {
			tag, val = ParamInt, i
			break
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			return "", nil, fmt.Errorf("%w: integer %s does not fit int64", ErrUnsupportedParam, x.String())
		}
		f, err := x.Float64()
		if err != nil {
			return "", nil, fmt.Errorf("%w: number %q", ErrUnsupportedParam, x.String())
		}
		return encodeFloat(f)
	default:
		return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedParam, v)
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedParam, err)
	}
	return tag, raw, nil
}

func encodeUnsigned(u uint64) (string, json.RawMessage, error) {
	if u > math.MaxInt64 {
		return "", nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedParam, u)
	}
	raw, _ := json.Marshal(int64(u))
	return ParamInt, raw, nil
}

func encodeFloat(f float64) (string, json.RawMessage, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", nil, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedParam, f)
	}
	raw, _ := json.Marshal(f)
	return ParamFloat, raw, nil
}

// DecodeParams reverses EncodeParams. Integers decode as int64 and floats as
// float64.
func DecodeParams(s string) (Params, error) {
	var env paramsEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if env.Version != ParamsVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedParamsVersion, env.Version)
	}

	out := make(Params, len(env.Items))
	for _, item := range env.Items {
		v, err := decodeValue(item)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", item.Key, err)
		}
		out[item.Key] = v
	}
	return out, nil
}

func decodeValue(item paramItem) (any, error) {
	switch item.Type {
	case ParamNull:
		return nil, nil
	case ParamString:
		var s string
		err := json.Unmarshal(item.Value, &s)
		return s, err
	case ParamBool:
		var b bool
		err := json.Unmarshal(item.Value, &b)
		return b, err
	case ParamInt:
		dec := json.NewDecoder(bytes.NewReader(item.Value))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, err
		}
		return n.Int64()
	case ParamFloat:
		var f float64
		err := json.Unmarshal(item.Value, &f)
		return f, err
	default:
		return nil, fmt.Errorf("unknown tag %q", item.Type)
	}
}

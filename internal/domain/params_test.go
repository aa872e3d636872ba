package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEncodeParamsIsDeterministic(t *testing.T) {
	params := Params{"image": "nginx:1.25", "replicas": 3, "force": true}

	first, err := EncodeParams(params)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := EncodeParams(params)
		if err != nil {
			t.Fatalf("EncodeParams() error = %v", err)
		}
		if again != first {
			t.Fatalf("EncodeParams() not stable:\n%s\n%s", first, again)
		}
	}

	want := `{"v":1,"items":[{"k":"force","t":"bool","v":true},{"k":"image","t":"string","v":"nginx:1.25"},{"k":"replicas","t":"int","v":3}]}`
	if first != want {
		t.Errorf("EncodeParams() = %s, want %s", first, want)
	}
}

func TestEncodeParamsEmpty(t *testing.T) {
	for _, p := range []Params{nil, {}} {
		got, err := EncodeParams(p)
		if err != nil {
			t.Fatalf("EncodeParams(%v) error = %v", p, err)
		}
		if got != `{"v":1,"items":[]}` {
			t.Errorf("EncodeParams(%v) = %s", p, got)
		}
	}
}

func TestDecodeParamsRestoresValues(t *testing.T) {
	in := Params{
		"container_id": "3f2a9c1b7d4e",
		"timeout":      int32(30),
		"big":          uint64(math.MaxInt64),
		"ratio":        0.75,
		"restart":      false,
		"note":         nil,
	}

	encoded, err := EncodeParams(in)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	out, err := DecodeParams(encoded)
	if err != nil {
		t.Fatalf("DecodeParams() error = %v", err)
	}

	expected := Params{
		"container_id": "3f2a9c1b7d4e",
		"timeout":      int64(30),
		"big":          int64(math.MaxInt64),
		"ratio":        0.75,
		"restart":      false,
		"note":         nil,
	}
	if len(out) != len(expected) {
		t.Fatalf("DecodeParams() returned %d params, want %d", len(out), len(expected))
	}
	for k, want := range expected {
		got, ok := out[k]
		if !ok {
			t.Errorf("missing param %q", k)
			continue
		}
		if got != want {
			t.Errorf("param %q = %#v, want %#v", k, got, want)
		}
	}
}

func TestEncodeParamsRejectsNonPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "nested map", value: map[string]any{"a": 1}},
		{name: "slice", value: []string{"a"}},
		{name: "struct", value: struct{ A int }{1}},
		{name: "uint overflow", value: uint64(math.MaxUint64)},
		{name: "nan", value: math.NaN()},
		{name: "inf", value: math.Inf(1)},
		{name: "invalid utf8 string", value: "\xff\xfeok"},
		{name: "integer above int64", value: json.Number("9223372036854775808")},
		{name: "integer below int64", value: json.Number("-9223372036854775809")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeParams(Params{"bad": tt.value})
			if !errors.Is(err, ErrUnsupportedParam) {
				t.Fatalf("EncodeParams() error = %v, want ErrUnsupportedParam", err)
			}
			if !strings.Contains(err.Error(), `"bad"`) {
				t.Errorf("error should name the key, got %v", err)
			}
		})
	}
}

func TestEncodeParamsRejectsInvalidKeys(t *testing.T) {
	_, err := EncodeParams(Params{"k\xff": "v", "ok": "v"})
	if !errors.Is(err, ErrUnsupportedParam) {
		t.Fatalf("EncodeParams() error = %v, want ErrUnsupportedParam", err)
	}
}

func TestEncodeParamsKeepsLargeFloatNumbers(t *testing.T) {
	got, err := EncodeParams(Params{"f": json.Number("1e300")})
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	if !strings.Contains(got, `"t":"float"`) {
		t.Errorf("EncodeParams() = %s, want a float item", got)
	}
}

func TestDecodeParamsRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeParams(`{"v":2,"items":[]}`)
	if !errors.Is(err, ErrUnsupportedParamsVersion) {
		t.Errorf("DecodeParams() error = %v, want ErrUnsupportedParamsVersion", err)
	}
}

func TestDecodeParamsRejectsUnknownTag(t *testing.T) {
	_, err := DecodeParams(`{"v":1,"items":[{"k":"x","t":"list","v":[1]}]}`)
	if err == nil {
		t.Error("DecodeParams() should fail on an unknown tag")
	}
}

func TestEncodeParamsJSONNumbers(t *testing.T) {
	got, err := EncodeParams(Params{"n": json.Number("42"), "f": json.Number("1.5")})
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	want := `{"v":1,"items":[{"k":"f","t":"float","v":1.5},{"k":"n","t":"int","v":42}]}`
	if got != want {
		t.Errorf("EncodeParams() = %s, want %s", got, want)
	}

	if _, err := EncodeParams(Params{"n": json.Number("nope")}); !errors.Is(err, ErrUnsupportedParam) {
		t.Errorf("EncodeParams(bad number) error = %v, want ErrUnsupportedParam", err)
	}
}

package ucl

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func configTree() *Object {
	server := NewObject()
	server.Set("listen", Integer(8080))
	server.Set("host", String("0.0.0.0"))

	obj := NewObject()
	obj.Set("name", String("api"))
	obj.Set("debug", Bool(true))
	obj.Set("ratio", Float(0.25))
	obj.Set("server", server)
	obj.Set("tags", Array{String("a"), String("b")})

	return obj
}

func TestDecodeStruct(t *testing.T) {
	type Server struct {
		Listen int    `ucl:"listen"`
		Host   string `ucl:"host"`
	}
	type Config struct {
		Name   string
		Debug  bool
		Ratio  float64
		Server Server
		Tags   []string
	}

	var cfg Config
	assert.NoError(t, Decode(configTree(), &cfg))

	assert.Equal(t, Config{
		Name:   "api",
		Debug:  true,
		Ratio:  0.25,
		Server: Server{Listen: 8080, Host: "0.0.0.0"},
		Tags:   []string{"a", "b"},
	}, cfg)
}

func TestDecodeTagHandling(t *testing.T) {
	type Config struct {
		Renamed  string `ucl:"name"`
		Debug    bool   `ucl:"-"`
		Ratio    float64
		internal string
	}

	var cfg Config
	assert.NoError(t, Decode(configTree(), &cfg))

	assert.Equal(t, "api", cfg.Renamed)
	assert.False(t, cfg.Debug) // skipped by tag
	assert.Equal(t, 0.25, cfg.Ratio)
	assert.Equal(t, "", cfg.internal)
}

func TestDecodeSinglePromotion(t *testing.T) {
	obj := NewObject()
	obj.Set("host", String("a.example.com"))

	var cfg struct {
		Host []string
	}
	assert.NoError(t, Decode(obj, &cfg))
	assert.Equal(t, []string{"a.example.com"}, cfg.Host)
}

func TestDecodeMap(t *testing.T) {
	obj := NewObject()
	obj.Set("x", Integer(1))
	obj.Set("y", Integer(2))

	var m map[string]int
	assert.NoError(t, Decode(obj, &m))
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, m)
}

func TestDecodeAny(t *testing.T) {
	obj := NewObject()
	obj.Set("n", Integer(1))

	var out any
	assert.NoError(t, Decode(obj, &out))
	assert.Equal(t, map[string]any{"n": int64(1)}, out.(map[string]any))
}

func TestDecodePointers(t *testing.T) {
	obj := NewObject()
	obj.Set("set", Integer(5))
	obj.Set("cleared", Null{})

	var cfg struct {
		Set     *int
		Cleared *int
	}
	cfg.Cleared = new(int)

	assert.NoError(t, Decode(obj, &cfg))
	assert.Equal(t, 5, *cfg.Set)
	assert.Zero(t, cfg.Cleared)
}

func TestDecodeNumericConversions(t *testing.T) {
	obj := NewObject()
	obj.Set("small", Integer(200))
	obj.Set("f", Integer(3))
	obj.Set("whole", Float(4))

	var cfg struct {
		Small uint8
		F     float64
		Whole int
	}
	assert.NoError(t, Decode(obj, &cfg))
	assert.Equal(t, uint8(200), cfg.Small)
	assert.Equal(t, 3.0, cfg.F)
	assert.Equal(t, 4, cfg.Whole)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("non pointer target", func(t *testing.T) {
		var cfg struct{}
		err := Decode(NewObject(), cfg)
		assert.True(t, errors.Is(err, ErrDecodeTarget))
	})

	t.Run("nil target", func(t *testing.T) {
		err := Decode(NewObject(), nil)
		assert.True(t, errors.Is(err, ErrDecodeTarget))
	})

	t.Run("type mismatch", func(t *testing.T) {
		obj := NewObject()
		obj.Set("port", String("eighty"))

		var cfg struct{ Port int }
		err := Decode(obj, &cfg)
		assert.True(t, errors.Is(err, ErrTypeMismatch))
	})

	t.Run("overflow", func(t *testing.T) {
		obj := NewObject()
		obj.Set("tiny", Integer(300))

		var cfg struct{ Tiny int8 }
		err := Decode(obj, &cfg)
		assert.True(t, errors.Is(err, ErrIntegerOverflow))
	})

	t.Run("negative into unsigned", func(t *testing.T) {
		obj := NewObject()
		obj.Set("count", Integer(-1))

		var cfg struct{ Count uint }
		err := Decode(obj, &cfg)
		assert.True(t, errors.Is(err, ErrIntegerOverflow))
	})

	t.Run("fractional float into int", func(t *testing.T) {
		obj := NewObject()
		obj.Set("n", Float(1.5))

		var cfg struct{ N int }
		err := Decode(obj, &cfg)
		assert.True(t, errors.Is(err, ErrTypeMismatch))
	})

	t.Run("decode stage is reported", func(t *testing.T) {
		var n int
		err := Decode(String("x"), &n)

		var uclErr *Error
		assert.True(t, errors.As(err, &uclErr))
		assert.Equal(t, StageDecode, uclErr.Stage)
	})
}

func TestDecodeFixedArray(t *testing.T) {
	var cfg struct {
		Pair [2]int
	}
	obj := NewObject()
	obj.Set("pair", Array{Integer(1), Integer(2)})

	assert.NoError(t, Decode(obj, &cfg))
	assert.Equal(t, [2]int{1, 2}, cfg.Pair)

	obj.Set("pair", Array{Integer(1), Integer(2), Integer(3)})
	assert.True(t, errors.Is(Decode(obj, &cfg), ErrTypeMismatch))
}

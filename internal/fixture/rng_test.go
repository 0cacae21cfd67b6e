package fixture

import (
	"reflect"
	"testing"
)

func TestHashString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{"empty string is the offset basis", "", 2166136261},
		{"single ASCII char", "a", 3826002220},
		{"Hangul name", "김영희", 1617394722},
		{"resident id", "r-101", 2862242496},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashString(tt.input); got != tt.want {
				t.Errorf("HashString(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRNG_KnownSequence(t *testing.T) {
	tests := []struct {
		seed uint32
		want []float64
	}{
		{0, []float64{0.26642920868471265, 0.0003297457005828619, 0.2232720274478197}},
		{42, []float64{0.6011037519201636, 0.44829055899754167, 0.8524657934904099}},
	}

	for _, tt := range tests {
		rng := NewRNG(tt.seed)
		for i, want := range tt.want {
			if got := rng.Float64(); got != want {
				t.Errorf("seed %d draw %d = %v, want %v", tt.seed, i, got, want)
			}
		}
	}
}

func TestRNG_Range(t *testing.T) {
	rng := NewRNG(HashString("range"))
	for i := 0; i < 10000; i++ {
		v := rng.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d = %v, outside [0, 1)", i, v)
		}
	}
}

func TestRNG_SameSeedSameStream(t *testing.T) {
	a := NewRNG(7)
	b := NewRNG(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d diverged: %v != %v", i, x, y)
		}
	}
}

func TestShuffle(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}
	got := Shuffle(pool, NewRNG(1))

	want := []string{"e", "c", "b", "a", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Shuffle() = %v, want %v", got, want)
	}

	if !reflect.DeepEqual(pool, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("Shuffle() modified its input: %v", pool)
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := Shuffle(pool, NewRNG(99))

	seen := make(map[int]int)
	for _, v := range got {
		seen[v]++
	}
	for _, v := range pool {
		if seen[v] != 1 {
			t.Errorf("value %d appears %d times", v, seen[v])
		}
	}
}

func TestSample(t *testing.T) {
	pool := []string{"a", "b", "c"}

	tests := []struct {
		name    string
		k       int
		wantLen int
	}{
		{"zero", 0, 0},
		{"subset", 2, 2},
		{"exactly pool size", 3, 3},
		{"more than pool", 10, 3},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(pool, tt.k, NewRNG(3)); len(got) != tt.wantLen {
				t.Errorf("Sample(k=%d) returned %d items, want %d", tt.k, len(got), tt.wantLen)
			}
		})
	}
}

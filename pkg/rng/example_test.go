package rng_test

import (
	"crypto/sha256"
	"testing"

	"github.com/dshills/frameflow/pkg/rng"
)

// TestNewRNGStagesAreIndependentAndDeterministic demonstrates deriving
// independent per-stage RNGs from one master seed and confirms that
// repeating the derivation with identical inputs reproduces the same
// sequence.
func TestNewRNGStagesAreIndependentAndDeterministic(t *testing.T) {
	masterSeed := uint64(123456789)
	configHash := sha256.Sum256([]byte("frameflow_config_v1"))

	preplaceRNG := rng.NewRNG(masterSeed, "preplace", configHash[:])
	jitterRNG := rng.NewRNG(masterSeed, "legalize_jitter", configHash[:])

	if preplaceRNG.Seed() == jitterRNG.Seed() {
		t.Fatal("distinct stage names should derive distinct seeds")
	}

	preplaceFirst := preplaceRNG.Intn(100)

	preplaceRNG2 := rng.NewRNG(masterSeed, "preplace", configHash[:])
	if got := preplaceRNG2.Intn(100); got != preplaceFirst {
		t.Errorf("repeating NewRNG with identical inputs gave %d, want %d", got, preplaceFirst)
	}
}

// TestRNGShuffleIsDeterministic demonstrates that Shuffle produces the
// same permutation for the same seed, as used when randomizing satellite
// attach order before legalization.
func TestRNGShuffleIsDeterministic(t *testing.T) {
	configHash := sha256.Sum256([]byte("config"))

	run := func() []string {
		r := rng.NewRNG(42, "legalize_jitter", configHash[:])
		modules := []string{"core", "sram", "pll", "io_ring", "adc"}
		r.Shuffle(len(modules), func(i, j int) {
			modules[i], modules[j] = modules[j], modules[i]
		})
		return modules
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Shuffle() not deterministic: %v vs %v", first, second)
		}
	}
}

// TestRNGWeightedChoiceFavorsLargerWeights demonstrates weighted
// selection, as used when picking which stuck satellite rectangle to
// jitter first.
func TestRNGWeightedChoiceFavorsLargerWeights(t *testing.T) {
	configHash := sha256.Sum256([]byte("config"))
	r := rng.NewRNG(999, "legalize_jitter", configHash[:])

	weights := []float64{50.0, 30.0, 15.0, 5.0}
	counts := make([]int, len(weights))
	for i := 0; i < 500; i++ {
		choice := r.WeightedChoice(weights)
		if choice < 0 || choice >= len(weights) {
			t.Fatalf("WeightedChoice() returned out-of-range index %d", choice)
		}
		counts[choice]++
	}
	if counts[0] <= counts[3] {
		t.Errorf("heaviest weight should be chosen more often than the lightest: counts=%v", counts)
	}
}

// TestRNGFloat64RangeStaysInBounds demonstrates generating bounded
// continuous values, as used for initial pre-placement coordinates.
func TestRNGFloat64RangeStaysInBounds(t *testing.T) {
	configHash := sha256.Sum256([]byte("config"))
	r := rng.NewRNG(777, "preplace", configHash[:])

	for i := 0; i < 50; i++ {
		v := r.Float64Range(0.3, 0.8)
		if v < 0.3 || v >= 0.8 {
			t.Fatalf("Float64Range(0.3, 0.8) = %v, out of bounds", v)
		}
	}
}

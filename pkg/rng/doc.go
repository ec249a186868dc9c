// Package rng provides deterministic random number generation for the
// floorplanner.
//
// # Overview
//
// The RNG type makes a floorplanning run reproducible by deriving
// stage-specific seeds from a master seed. This allows each stage of the
// pipeline (Fruchterman-Reingold pre-placement, legalizer skeleton
// jitter) to draw from an independent random sequence while the overall
// run stays deterministic given the same master seed and configuration.
//
// # Sub-Seed Derivation
//
// Each RNG derives its seed using SHA-256:
//
//	seed_stage = H(masterSeed, stageName, configHash)
//
// where:
//   - masterSeed: top-level seed for the entire floorplanning run
//   - stageName: stage identifier (e.g., "preplace", "legalize_jitter")
//   - configHash: hash of the configuration parameters
//
// This ensures:
//  1. Same inputs always produce the same RNG sequence (determinism)
//  2. Different stages get independent random sequences (isolation)
//  3. Config changes result in different sequences (sensitivity)
//
// # Usage
//
// Create an RNG for each stage:
//
//	configHash := sha256.Sum256([]byte(configJSON))
//	preplaceRNG := rng.NewRNG(masterSeed, "preplace", configHash[:])
//	jitterRNG := rng.NewRNG(masterSeed, "legalize_jitter", configHash[:])
//
// Use the RNG for all random decisions made in that stage:
//
//	initial := preplaceRNG.Float64Range(0, dieWidth)
//	if jitterRNG.Bool() {
//	    // perturb a stuck satellite rectangle
//	}
//
// # Thread Safety
//
// RNG instances are NOT thread-safe. Each goroutine should use its own RNG
// instance. Create stage-specific RNGs before spawning goroutines and pass
// them explicitly.
//
// # Performance
//
// The underlying math/rand.Rand is highly efficient:
//   - Uint64(): ~2ns per call
//   - Intn():   ~3ns per call
//   - Float64(): ~2ns per call
//
// Creating a new RNG costs ~8µs due to SHA-256 computation. Reuse RNG
// instances within a stage for best performance.
package rng

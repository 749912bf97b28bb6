package projdbscan

import (
	"fmt"
	"math"
	"runtime"
)

// Config controls projected clustering behavior.
// Start with [DefaultConfig] and set Epsilon, MinPts, and Lambda for the data.
type Config struct {
	// Epsilon is the neighborhood radius under the locally weighted
	// distance. Must be >= 0.
	Epsilon float64

	// MinPts is the minimum neighbor count for density admission and the
	// minimum size of a committed cluster. Must be >= 1.
	MinPts int

	// Lambda is the maximum admissible correlation dimension: points whose
	// local neighborhood spans more than Lambda strong axes are never
	// admitted to a cluster. Must be >= 1.
	Lambda int

	// Metric is the inner distance used to find the neighborhoods the
	// local subspace analysis runs on. The clustering itself measures with
	// the locally weighted distance derived from that analysis.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// K is the neighborhood size for the local subspace analysis. Set to 0
	// to default to 3 times the data dimensionality. Must be >= 0.
	K int

	// Delta is the relative eigenvalue threshold separating strong from
	// weak axes: an axis is strong when its eigenvalue is at least Delta
	// times the largest. Must be in (0, 1]. Default: 0.01.
	Delta float64

	// Kappa is the penalty weight applied along weak axes by the locally
	// weighted distance. Larger values confine clusters more tightly to
	// their subspace. Must be >= 1. Default: 50.
	Kappa float64

	// LeafSize controls the maximum points per KD-tree leaf node used by
	// the subspace analysis neighborhood queries. Default: 40.
	LeafSize int

	// Workers controls the number of goroutines for the per-point subspace
	// analysis. 0 means runtime.NumCPU(). The clustering pass itself is
	// sequential regardless.
	Workers int

	// Progress, if non-nil, observes (processed points, committed clusters)
	// at unspecified intervals through the run. It must not be used for
	// correctness.
	Progress ProgressFunc
}

// Result contains the output of projected clustering: a partition of the
// point indices into committed clusters and one noise group.
type Result struct {
	// Clusters holds each committed cluster's member indices, in commit
	// order. Members appear in admission order within a cluster. Every
	// cluster has at least MinPts members.
	Clusters [][]int

	// Noise holds the indices of all points admitted to no cluster, in
	// index order. Present (possibly empty) in every result.
	Noise []int

	// Labels assigns each point its cluster index, or -1 for noise.
	Labels []int
}

// DefaultConfig returns a Config with reasonable defaults. Epsilon, MinPts,
// and Lambda are data-dependent and should be set explicitly; the defaults
// (Epsilon 0, MinPts 5, Lambda 1) are valid but cluster almost nothing.
func DefaultConfig() Config {
	return Config{
		MinPts: 5,
		Lambda: 1,
		Metric: EuclideanMetric{},
		Delta:  0.01,
		Kappa:  50,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Delta == 0 {
		cfg.Delta = 0.01
	}
	if cfg.Kappa == 0 {
		cfg.Kappa = 50
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive
// error if not. No processing happens on an invalid config.
func validateConfig(cfg *Config) error {
	if cfg.Epsilon < 0 || math.IsNaN(cfg.Epsilon) {
		return fmt.Errorf("projdbscan: Epsilon must be >= 0, got %f", cfg.Epsilon)
	}
	if cfg.MinPts < 1 {
		return fmt.Errorf("projdbscan: MinPts must be >= 1, got %d", cfg.MinPts)
	}
	if cfg.Lambda < 1 {
		return fmt.Errorf("projdbscan: Lambda must be >= 1, got %d", cfg.Lambda)
	}
	if cfg.K < 0 {
		return fmt.Errorf("projdbscan: K must be >= 0 (0 means default to 3*dims), got %d", cfg.K)
	}
	if cfg.Delta <= 0 || cfg.Delta > 1 {
		return fmt.Errorf("projdbscan: Delta must be in (0, 1], got %f", cfg.Delta)
	}
	if cfg.Kappa < 1 {
		return fmt.Errorf("projdbscan: Kappa must be >= 1, got %f", cfg.Kappa)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("projdbscan: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	return nil
}

// Cluster performs projected clustering on the given data. Each element is a
// point (float64 slice); all points must have the same dimensionality. The
// local subspace of every point is analyzed first; the clustering pass then
// consumes the resulting correlation dimensions and weighted distances.
// Returns an error if the config is invalid.
func Cluster(data [][]float64, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	n := len(data)
	if n == 0 {
		return emptyResult(), nil
	}

	dims := len(data[0])
	if dims == 0 {
		return nil, fmt.Errorf("projdbscan: points must have at least one dimension")
	}
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("projdbscan: point %d has %d dimensions, want %d", i, len(row), dims)
		}
	}

	flatData := make([]float64, n*dims)
	for i, row := range data {
		copy(flatData[i*dims:], row)
	}

	index, err := buildSubspaceIndex(flatData, n, dims, cfg)
	if err != nil {
		return nil, err
	}

	return clusterOracles(n, index, index, cfg)
}

// ClusterOracles performs projected clustering against caller-supplied
// oracles: sub answers per-point correlation dimension lookups, rng answers
// epsilon-range queries under the matching locally weighted distance. n is
// the number of points; indices 0..n-1 identify them in both oracles.
//
// Both oracles must be deterministic for the duration of the call. The
// clustering result is determined by the point index order together with the
// neighbor order the range oracle returns.
func ClusterOracles(n int, sub SubspaceOracle, rng RangeOracle, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("projdbscan: point count must be >= 0, got %d", n)
	}
	return clusterOracles(n, sub, rng, cfg)
}

// clusterOracles is the orchestrator: one pass over the points in index
// order, expanding a cluster from every point not yet classified.
func clusterOracles(n int, sub SubspaceOracle, rng RangeOracle, cfg Config) (*Result, error) {
	cls := newClassification(n)

	if n < cfg.MinPts {
		// No cluster can reach MinPts members; every point is noise
		// without any expansion.
		for i := 0; i < n; i++ {
			cls.markNoise(i)
		}
		cfg.Progress.report(cls.processed, 0)
		return assembleResult(cls), nil
	}

	e := &expander{
		cls:      cls,
		sub:      sub,
		rng:      rng,
		epsilon:  cfg.Epsilon,
		minPts:   cfg.MinPts,
		lambda:   cfg.Lambda,
		progress: cfg.Progress,
	}

	for i := 0; i < n; i++ {
		if cls.class[i] == classUnprocessed {
			if err := e.expand(i); err != nil {
				return nil, err
			}
			// Every point classified and none noise: no later point is
			// unprocessed and no reclaim can happen.
			if cls.allProcessedNoNoise() {
				break
			}
		}
		cfg.Progress.report(cls.processed, len(cls.clusters))
	}

	return assembleResult(cls), nil
}

// emptyResult returns a Result for zero points: no clusters, empty noise.
func emptyResult() *Result {
	return &Result{Noise: []int{}, Labels: []int{}}
}

// assembleResult reads the final classification into a Result. The noise
// group is emitted even when empty.
func assembleResult(cls *classification) *Result {
	return &Result{
		Clusters: cls.clusters,
		Noise:    cls.noisePoints(),
		Labels:   cls.labels(),
	}
}

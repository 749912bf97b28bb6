package projdbscan

import (
	"math"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Epsilon != 0 {
		t.Errorf("Epsilon: got %f, want 0", cfg.Epsilon)
	}
	if cfg.MinPts != 5 {
		t.Errorf("MinPts: got %d, want 5", cfg.MinPts)
	}
	if cfg.Lambda != 1 {
		t.Errorf("Lambda: got %d, want 1", cfg.Lambda)
	}
	if _, ok := cfg.Metric.(EuclideanMetric); !ok {
		t.Errorf("Metric: got %T, want EuclideanMetric", cfg.Metric)
	}
	if cfg.K != 0 {
		t.Errorf("K: got %d, want 0", cfg.K)
	}
	if cfg.Delta != 0.01 {
		t.Errorf("Delta: got %f, want 0.01", cfg.Delta)
	}
	if cfg.Kappa != 50 {
		t.Errorf("Kappa: got %f, want 50", cfg.Kappa)
	}
	if cfg.Progress != nil {
		t.Error("Progress: got non-nil, want nil")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative Epsilon", func(c *Config) { c.Epsilon = -0.5 }},
		{"NaN Epsilon", func(c *Config) { c.Epsilon = math.NaN() }},
		{"MinPts < 1", func(c *Config) { c.MinPts = 0 }},
		{"Lambda < 1", func(c *Config) { c.Lambda = 0 }},
		{"negative K", func(c *Config) { c.K = -1 }},
		{"negative Delta", func(c *Config) { c.Delta = -0.01 }},
		{"Delta > 1", func(c *Config) { c.Delta = 1.5 }},
		{"Kappa < 1", func(c *Config) { c.Kappa = 0.5 }},
		{"negative LeafSize", func(c *Config) { c.LeafSize = -1 }},
	}

	data := [][]float64{{1, 2}, {3, 4}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := Cluster(data, cfg)
			if err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestClusterRaggedDataRejected(t *testing.T) {
	data := [][]float64{{1, 2}, {3, 4, 5}}
	cfg := DefaultConfig()
	cfg.Epsilon = 1
	if _, err := Cluster(data, cfg); err == nil {
		t.Error("expected error for mismatched dimensionality")
	}
}

func TestClusterNonFiniteDataRejected(t *testing.T) {
	data := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {math.NaN(), 0},
	}
	cfg := DefaultConfig()
	cfg.Epsilon = 1
	cfg.MinPts = 2
	if _, err := Cluster(data, cfg); err == nil {
		t.Error("expected error for non-finite data")
	}
}

func TestClusterDensePlaneScenario(t *testing.T) {
	// Five points within epsilon of each other form one cluster; five
	// scattered points fail density and end up as noise. Lambda 2 admits
	// everything in 2D, so this is the pure density path.
	data := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}, // core group
		{10, 10}, {20, -5}, {-15, 8}, {30, 30}, {-20, -20}, // scattered
	}
	cfg := DefaultConfig()
	cfg.Epsilon = 1.5
	cfg.MinPts = 3
	cfg.Lambda = 2
	cfg.Kappa = 1 // no subspace weighting: plain Euclidean radii

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, len(data))
	if len(result.Clusters) != 1 {
		t.Fatalf("clusters: got %d, want 1: %v", len(result.Clusters), result.Clusters)
	}
	if len(result.Clusters[0]) < 3 {
		t.Errorf("cluster size: got %d, want >= MinPts (3)", len(result.Clusters[0]))
	}
	for _, i := range []int{0, 1, 2, 3, 4} {
		if result.Labels[i] != 0 {
			t.Errorf("core point %d: got label %d, want 0", i, result.Labels[i])
		}
	}
	if !reflect.DeepEqual(result.Noise, []int{5, 6, 7, 8, 9}) {
		t.Errorf("noise: got %v, want [5 6 7 8 9]", result.Noise)
	}
}

func TestClusterTwoSeparatedGroups(t *testing.T) {
	data := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{100, 100}, {101, 100}, {100, 101}, {101, 101},
	}
	cfg := DefaultConfig()
	cfg.Epsilon = 1.5
	cfg.MinPts = 3
	cfg.Lambda = 2
	cfg.Kappa = 1

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, len(data))
	if len(result.Clusters) != 2 {
		t.Fatalf("clusters: got %d, want 2: %v", len(result.Clusters), result.Clusters)
	}
	if len(result.Noise) != 0 {
		t.Errorf("noise: got %v, want empty", result.Noise)
	}
	// No cross-membership: the first group keeps label 0, the second 1.
	for i := 0; i < 4; i++ {
		if result.Labels[i] != 0 {
			t.Errorf("point %d: got label %d, want 0", i, result.Labels[i])
		}
	}
	for i := 4; i < 8; i++ {
		if result.Labels[i] != 1 {
			t.Errorf("point %d: got label %d, want 1", i, result.Labels[i])
		}
	}
}

func TestClusterIsolatedPointsAllNoise(t *testing.T) {
	data := [][]float64{{0, 0}, {50, 50}, {-40, 70}}
	cfg := DefaultConfig()
	cfg.Epsilon = 1
	cfg.MinPts = 2
	cfg.Lambda = 2

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, 3)
	if len(result.Clusters) != 0 {
		t.Errorf("clusters: got %d, want 0", len(result.Clusters))
	}
	if !reflect.DeepEqual(result.Noise, []int{0, 1, 2}) {
		t.Errorf("noise: got %v, want [0 1 2]", result.Noise)
	}
}

// lineAndBlobData returns 10 collinear points (local dimension 1) followed
// by a dense 2D blob of 8 points (local dimension 2).
func lineAndBlobData() [][]float64 {
	var data [][]float64
	for i := 0; i < 10; i++ {
		data = append(data, []float64{float64(i), 0})
	}
	blob := [][]float64{
		{50, 50}, {50.5, 50}, {51, 50},
		{50, 50.5}, {50.5, 50.5}, {51, 50.5},
		{50, 51}, {50.5, 51},
	}
	return append(data, blob...)
}

func TestClusterProjectedDimensionalityRejection(t *testing.T) {
	// The distinctive projected behavior: with Lambda 1, only the
	// collinear points can cluster. The blob is denser than the line but
	// locally two-dimensional and is rejected wholesale.
	data := lineAndBlobData()
	cfg := DefaultConfig()
	cfg.Epsilon = 2.2
	cfg.MinPts = 3
	cfg.Lambda = 1

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, len(data))
	if len(result.Clusters) != 1 {
		t.Fatalf("clusters: got %d, want 1: %v", len(result.Clusters), result.Clusters)
	}
	if len(result.Clusters[0]) != 10 {
		t.Errorf("line cluster size: got %d, want 10", len(result.Clusters[0]))
	}
	for i := 10; i < len(data); i++ {
		if result.Labels[i] != -1 {
			t.Errorf("blob point %d: got label %d, want -1 (dimension rejection)", i, result.Labels[i])
		}
	}
}

func TestClusterLambdaTwoAdmitsBlob(t *testing.T) {
	// Same data as the rejection test; raising Lambda to 2 admits the
	// blob as a second cluster.
	data := lineAndBlobData()
	cfg := DefaultConfig()
	cfg.Epsilon = 2.2
	cfg.MinPts = 3
	cfg.Lambda = 2

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, len(data))
	if len(result.Clusters) != 2 {
		t.Fatalf("clusters: got %d, want 2: %v", len(result.Clusters), result.Clusters)
	}
	if len(result.Noise) != 0 {
		t.Errorf("noise: got %v, want empty", result.Noise)
	}
}

func TestClusterDeterminism(t *testing.T) {
	data := lineAndBlobData()
	cfg := DefaultConfig()
	cfg.Epsilon = 2.2
	cfg.MinPts = 3
	cfg.Lambda = 2
	cfg.Workers = 4

	first, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ across runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClusterMinimumClusterSizeProperty(t *testing.T) {
	data := lineAndBlobData()
	cfg := DefaultConfig()
	cfg.Epsilon = 2.2
	cfg.MinPts = 4
	cfg.Lambda = 2

	result, err := Cluster(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPartition(t, result, len(data))
	for ci, cluster := range result.Clusters {
		if len(cluster) < cfg.MinPts {
			t.Errorf("cluster %d has %d members, want >= %d", ci, len(cluster), cfg.MinPts)
		}
	}
}

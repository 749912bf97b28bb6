package projdbscan

import (
	"math/rand"
	"testing"
)

// generateBenchData produces two elongated 2D groups plus uniform noise, so
// the benchmarks exercise real expansions rather than all-noise runs.
func generateBenchData(n int) [][]float64 {
	rng := rand.New(rand.NewSource(42))
	data := make([][]float64, n)
	for i := range data {
		switch {
		case i < n/3:
			data[i] = []float64{float64(i) * 0.1, rng.NormFloat64() * 0.05}
		case i < 2*n/3:
			data[i] = []float64{50 + rng.NormFloat64()*0.05, float64(i) * 0.1}
		default:
			data[i] = []float64{rng.Float64() * 200, rng.Float64() * 200}
		}
	}
	return data
}

func benchCluster(b *testing.B, n int) {
	b.Helper()
	data := generateBenchData(n)
	cfg := DefaultConfig()
	cfg.Epsilon = 0.5
	cfg.MinPts = 5
	cfg.Lambda = 1
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Cluster(data, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCluster_100(b *testing.B)  { benchCluster(b, 100) }
func BenchmarkCluster_500(b *testing.B)  { benchCluster(b, 500) }
func BenchmarkCluster_1000(b *testing.B) { benchCluster(b, 1000) }

func benchSubspaceIndex(b *testing.B, n, workers int) {
	b.Helper()
	data := generateBenchData(n)
	dims := 2
	flat := make([]float64, n*dims)
	for i, row := range data {
		copy(flat[i*dims:], row)
	}
	cfg := DefaultConfig()
	cfg.Epsilon = 0.5
	cfg.Workers = workers
	applyDefaults(&cfg)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := buildSubspaceIndex(flat, n, dims, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSubspaceIndex_500_Serial(b *testing.B)   { benchSubspaceIndex(b, 500, 1) }
func BenchmarkSubspaceIndex_500_Parallel(b *testing.B) { benchSubspaceIndex(b, 500, 0) }

func benchKDTreeRadius(b *testing.B, n int) {
	b.Helper()
	flat := randomPoints(n, 2, 42)
	tree := NewKDTree(flat, n, 2, EuclideanMetric{}, 40)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.QueryRadius(flat[:2], 10)
	}
}

func BenchmarkKDTreeQueryRadius_1000(b *testing.B)  { benchKDTreeRadius(b, 1000) }
func BenchmarkKDTreeQueryRadius_10000(b *testing.B) { benchKDTreeRadius(b, 10000) }

package flat

import (
	"math"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// DotProduct computes the dot product of two equal-length vectors.
func DotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm computes the L2 norm (magnitude) of a vector.
func Norm(v []float32) float64 {
	return math.Sqrt(DotProduct(v, v))
}

// CosineDistance returns 1 - cosine similarity: 0 for identical directions,
// 2 for opposite ones. A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - DotProduct(a, b)/(na*nb)
}

// EuclideanDistance returns the L2 distance between two vectors.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// distanceFunc returns the distance function for a metric.
func distanceFunc(m domain.DistanceMetric) func(a, b []float32) float64 {
	if m == domain.MetricEuclidean {
		return EuclideanDistance
	}
	return CosineDistance
}

package aura

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeans clusters vectors with k-means++ seeding and Lloyd iterations,
// keeping the best of restarts runs by inertia. Labels are deterministic
// for a given seed.
type KMeans struct {
	K        int
	Restarts int
	MaxIter  int
	Seed     int64
}

func (km KMeans) FitPredict(data [][]float64) []int {
	if len(data) == 0 || km.K <= 0 {
		return nil
	}
	k := min(km.K, len(data))
	restarts := max(km.Restarts, 1)
	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 300
	}

	rng := rand.New(rand.NewSource(km.Seed))
	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := lloyd(data, seedCentroids(data, k, rng), maxIter)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best
}

func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.Intn(len(data))]))

	dist := make([]float64, len(data))
	for len(centroids) < k {
		var total float64
		for i, x := range data {
			dist[i] = nearestDist(x, centroids)
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clone(data[rng.Intn(len(data))]))
			continue
		}
		target := rng.Float64() * total
		idx := len(data) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, clone(data[idx]))
	}
	return centroids
}

func lloyd(data, centroids [][]float64, maxIter int) ([]int, float64) {
	labels := make([]int, len(data))
	dim := len(data[0])
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, x := range data {
			if c := nearest(x, centroids); iter == 0 || c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, x := range data {
			floats.Add(sums[labels[i]], x)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	var inertia float64
	for i, x := range data {
		d := floats.Distance(x, centroids[labels[i]], 2)
		inertia += d * d
	}
	return labels, inertia
}

func nearest(x []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(x, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func nearestDist(x []float64, centroids [][]float64) float64 {
	d := floats.Distance(x, centroids[nearest(x, centroids)], 2)
	return d * d
}

func clone(x []float64) []float64 {
	return append([]float64(nil), x...)
}

// MajorityLabel returns the most common label, smallest label on ties.
func MajorityLabel(labels []int) int {
	counts := map[int]int{}
	best, bestCount := 0, -1
	for _, l := range labels {
		counts[l]++
	}
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return best
}

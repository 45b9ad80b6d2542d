package classify

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"
)

// DefaultClusters is the default number of traffic-state clusters.
const DefaultClusters = 6

// DefaultClusterSeed seeds the k-means center initialization when no run
// seed is configured.
const DefaultClusterSeed int64 = 1

// Cluster labeling cutoffs: a cluster's mean up-ratio against these marks
// it as up- or down-dominant.
const (
	clusterUpCutoff   = 0.6
	clusterDownCutoff = 0.4
)

// KMeansClassifier partitions standardized slot features with k-means and
// names each cluster by comparing its mean volume and direction mix against
// the training population.
type KMeansClassifier struct {
	K    int
	Seed int64 // seeds center initialization; fits are reproducible per seed

	mean    []float64
	std     []float64
	centers [][]float64
	labels  []State
}

// NewKMeansClassifier returns an unfitted cluster classifier with k
// clusters (DefaultClusters when k <= 0).
func NewKMeansClassifier(k int) *KMeansClassifier {
	if k <= 0 {
		k = DefaultClusters
	}
	return &KMeansClassifier{K: k, Seed: DefaultClusterSeed}
}

// Name implements Classifier.
func (kc *KMeansClassifier) Name() string { return "kmeans" }

// vector extracts the feature coordinates used for clustering.
func (kc *KMeansClassifier) vector(f SlotFeatures) []float64 {
	return []float64{f.Smoothed, f.UpRatio, f.Entropy, f.LobbyFrac}
}

// Fit standardizes the training features, partitions them, and assigns each
// cluster a human label from its mean volume (against the population's
// 25th/75th percentiles) and mean up-ratio.
func (kc *KMeansClassifier) Fit(feats []SlotFeatures) error {
	if len(feats) == 0 {
		return ErrNoTrainingData
	}
	k := kc.K
	if k > len(feats) {
		k = len(feats)
	}

	dim := len(kc.vector(feats[0]))
	raw := make([][]float64, len(feats))
	for i, f := range feats {
		raw[i] = kc.vector(f)
	}
	kc.mean = make([]float64, dim)
	kc.std = make([]float64, dim)
	col := make([]float64, len(raw))
	for d := 0; d < dim; d++ {
		for i := range raw {
			col[i] = raw[i][d]
		}
		kc.mean[d] = stat.Mean(col, nil)
		kc.std[d] = stat.StdDev(col, nil)
		if kc.std[d] == 0 || math.IsNaN(kc.std[d]) {
			kc.std[d] = 1
		}
	}

	obs := make(clusters.Observations, len(raw))
	for i, v := range raw {
		obs[i] = clusters.Coordinates(kc.standardize(v))
	}
	// muesli/kmeans draws its initial centers from the global math/rand
	// source; seed it so identical training data yields identical clusters.
	rand.Seed(kc.Seed)
	km := kmeans.New()
	parts, err := km.Partition(obs, k)
	if err != nil {
		return fmt.Errorf("classify: kmeans partition: %w", err)
	}

	kc.centers = make([][]float64, len(parts))
	volumes := make([]float64, len(parts))
	upRatios := make([]float64, len(parts))
	for i, c := range parts {
		kc.centers[i] = append([]float64(nil), c.Center...)
		var volSum, upSum float64
		for _, o := range c.Observations {
			v := kc.destandardize(o.Coordinates())
			volSum += v[0]
			upSum += v[1]
		}
		n := float64(len(c.Observations))
		if n > 0 {
			volumes[i] = volSum / n
			upRatios[i] = upSum / n
		}
	}

	sortedVol := append([]float64(nil), volumes...)
	sort.Float64s(sortedVol)
	q25 := stat.Quantile(0.25, stat.LinInterp, sortedVol, nil)
	q75 := stat.Quantile(0.75, stat.LinInterp, sortedVol, nil)

	kc.labels = make([]State, len(parts))
	for i := range parts {
		switch {
		case volumes[i] >= q75 && upRatios[i] >= clusterUpCutoff:
			kc.labels[i] = StateUpPeak
		case volumes[i] >= q75 && upRatios[i] <= clusterDownCutoff:
			kc.labels[i] = StateDownPeak
		case volumes[i] <= q25:
			kc.labels[i] = StateIdleLow
		default:
			kc.labels[i] = StateMixed
		}
	}
	return nil
}

// Classify maps a slot to the label of its nearest frozen cluster center.
func (kc *KMeansClassifier) Classify(f SlotFeatures) State {
	if len(kc.centers) == 0 {
		return StateMixed
	}
	v := kc.standardize(kc.vector(f))
	best, bestDist := 0, math.Inf(1)
	for i, c := range kc.centers {
		var d float64
		for j := range c {
			diff := v[j] - c[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return kc.labels[best]
}

func (kc *KMeansClassifier) standardize(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = (v[i] - kc.mean[i]) / kc.std[i]
	}
	return out
}

func (kc *KMeansClassifier) destandardize(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i]*kc.std[i] + kc.mean[i]
	}
	return out
}

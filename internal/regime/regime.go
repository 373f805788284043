package regime

import (
	"fmt"
	"sort"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Label tags one bar with the market regime that was in force at its close.
type Label string

const (
	// LabelUnknown marks warm-up bars with insufficient history.
	LabelUnknown  Label = "unknown"
	LabelBull     Label = "bull"
	LabelBear     Label = "bear"
	LabelSideways Label = "sideways"
	LabelHighVol  Label = "highvol"
)

// ClusterLabel names the i-th k-means cluster. Cluster identity is
// arbitrary; use Detection.NameByMeanReturn for semantic names.
func ClusterLabel(i int) Label {
	return Label(fmt.Sprintf("cluster-%d", i))
}

// Detection is the output of one classification run. Labels is aligned
// 1:1 with the input series. Centroids is populated by the clustering
// detector only and maps each cluster label to its centroid in raw
// feature space (return, volatility, rsi, volume ratio).
type Detection struct {
	Labels    []Label
	Centroids map[Label][]float64
}

// Detector classifies every bar of a price series into a regime label.
// Implementations return one label per input bar, with the warm-up
// prefix mapped to LabelUnknown rather than omitted, so downstream
// consumers can join labels to bars by index.
type Detector interface {
	Classify(data []types.OHLCV) (*Detection, error)

	// MinLookback returns the number of bars needed before the first
	// non-unknown label can appear.
	MinLookback() int
}

// NameByMeanReturn renames cluster labels to bear/sideways/bull by the
// mean-return component of their centroids. It only applies when the
// detection carries exactly three clusters; otherwise the detection is
// returned unchanged, since there is no canonical naming for other
// cardinalities.
func (d *Detection) NameByMeanReturn() *Detection {
	if len(d.Centroids) != 3 {
		return d
	}

	type clusterReturn struct {
		label Label
		ret   float64
	}
	ordered := make([]clusterReturn, 0, 3)
	for label, centroid := range d.Centroids {
		ordered = append(ordered, clusterReturn{label: label, ret: centroid[0]})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ret < ordered[j].ret })

	rename := map[Label]Label{
		ordered[0].label: LabelBear,
		ordered[1].label: LabelSideways,
		ordered[2].label: LabelBull,
	}

	renamed := &Detection{
		Labels:    make([]Label, len(d.Labels)),
		Centroids: make(map[Label][]float64, len(d.Centroids)),
	}
	for i, label := range d.Labels {
		if to, ok := rename[label]; ok {
			renamed.Labels[i] = to
		} else {
			renamed.Labels[i] = label
		}
	}
	for label, centroid := range d.Centroids {
		renamed.Centroids[rename[label]] = centroid
	}
	return renamed
}

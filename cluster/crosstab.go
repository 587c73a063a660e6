package cluster

import (
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// CrossTab counts cluster assignments against the death-event label the
// clustering never saw. Counts[c][v] is the number of patients in cluster
// c with label v.
type CrossTab struct {
	Clusters []int
	Values   []int
	Counts   [][]int
}

// NewCrossTab tabulates cluster labels against outcome labels. Both
// vectors must use small non-negative identifiers (here cluster 0..k-1
// against death event 0/1).
func NewCrossTab(clusterLabels, outcomes []int) (*CrossTab, error) {
	if len(clusterLabels) != len(outcomes) {
		return nil, errors.NewDimensionError("NewCrossTab", len(clusterLabels), len(outcomes), 0)
	}
	if len(clusterLabels) == 0 {
		return nil, errors.NewValueError("NewCrossTab", "empty labels")
	}

	maxCluster, maxValue := 0, 0
	for i := range clusterLabels {
		if clusterLabels[i] < 0 || outcomes[i] < 0 {
			return nil, errors.NewValueError("NewCrossTab", "labels must be non-negative")
		}
		if clusterLabels[i] > maxCluster {
			maxCluster = clusterLabels[i]
		}
		if outcomes[i] > maxValue {
			maxValue = outcomes[i]
		}
	}

	ct := &CrossTab{
		Clusters: make([]int, maxCluster+1),
		Values:   make([]int, maxValue+1),
		Counts:   make([][]int, maxCluster+1),
	}
	for c := range ct.Clusters {
		ct.Clusters[c] = c
		ct.Counts[c] = make([]int, maxValue+1)
	}
	for v := range ct.Values {
		ct.Values[v] = v
	}
	for i := range clusterLabels {
		ct.Counts[clusterLabels[i]][outcomes[i]]++
	}
	return ct, nil
}

// Purity is the share of patients whose cluster's majority label matches
// their own, a crude agreement score for the 2-cluster outcome probe.
func (ct *CrossTab) Purity() float64 {
	total, agree := 0, 0
	for _, row := range ct.Counts {
		max := 0
		for _, n := range row {
			total += n
			if n > max {
				max = n
			}
		}
		agree += max
	}
	if total == 0 {
		return 0
	}
	return float64(agree) / float64(total)
}

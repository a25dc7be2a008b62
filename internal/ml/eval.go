package ml

import (
	"math/rand"
	"sort"

	"phasecast/internal/features"
)

// Evaluation summarizes held-out performance.
type Evaluation struct {
	Accuracy float64 `json:"accuracy"`
	AUC      float64 `json:"auc"`
	Samples  int     `json:"samples"`
}

// stratifiedSplit partitions indices into train and test sets,
// preserving the label ratio. The shuffle is seeded so the split is
// reproducible run to run. fraction <= 0 keeps everything in the
// training set. Both classes must be present.
func stratifiedSplit(labels []int, fraction float64, seed int64) (train, test []int, err error) {
	if len(labels) == 0 {
		return nil, nil, ErrEmptyTrainingSet
	}

	var byClass [2][]int
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	if len(byClass[0]) == 0 || len(byClass[1]) == 0 {
		return nil, nil, ErrSingleClassLabels
	}

	if fraction <= 0 {
		train = make([]int, len(labels))
		for i := range labels {
			train[i] = i
		}
		return train, nil, nil
	}

	rng := rand.New(rand.NewSource(seed))
	for _, class := range byClass {
		idx := append([]int(nil), class...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx)) * fraction)
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Evaluate computes accuracy and ROC-AUC on a labeled set.
func Evaluate(clf *LogisticRegression, x []features.Vector, y []int) Evaluation {
	if len(x) == 0 {
		return Evaluation{}
	}

	scores := make([]float64, len(x))
	correct := 0
	for i, v := range x {
		scores[i] = clf.PredictProba(v)
		pred := 0
		if scores[i] >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}

	return Evaluation{
		Accuracy: float64(correct) / float64(len(x)),
		AUC:      rocAUC(scores, y),
		Samples:  len(x),
	}
}

// rocAUC computes the area under the ROC curve via the rank statistic,
// with midranks for tied scores. Returns 0 when either class is
// absent.
func rocAUC(scores []float64, y []int) float64 {
	type pair struct {
		score float64
		label int
	}
	ps := make([]pair, len(scores))
	for i := range scores {
		ps[i] = pair{scores[i], y[i]}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].score < ps[j].score })

	var pos, neg int
	for _, p := range ps {
		if p.label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	var rankSum float64
	i := 0
	for i < len(ps) {
		j := i
		for j < len(ps) && ps[j].score == ps[i].score {
			j++
		}
		midrank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if ps[k].label == 1 {
				rankSum += midrank
			}
		}
		i = j
	}

	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg))
}

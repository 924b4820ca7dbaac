package recognize

import (
	"math"
)

// ctcStep is a single timestep of the CTC output: the argmax class and its
// softmax probability.
type ctcStep struct {
	class int
	prob  float64
}

// decodedChar is one collapsed CTC emission with the timestep span it was
// observed over.
type decodedChar struct {
	class int
	prob  float64
	t1    int // first timestep of the run, inclusive
	t2    int // last timestep of the run, inclusive
}

// argmax returns the index of the max value and the value.
func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

// softmaxProbOfIndex computes the softmax probability of v[idx] among v.
// If values already look like probabilities (sum~1 and in [0,1]), returns v[idx].
func softmaxProbOfIndex(v []float32, idx int) float64 {
	if len(v) == 0 || idx < 0 || idx >= len(v) {
		return 0
	}
	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		return float64(v[idx])
	}
	// Stable softmax: p_i = exp(x_i - m) / sum_j exp(x_j - m)
	m := v[0]
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - m))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-m)) / denom
}

// classesFirstLayout reports whether a rank-3 output shape is [N, C, T]
// rather than [N, T, C], given the known class count.
func classesFirstLayout(shape []int64, numClasses int) bool {
	if len(shape) < 3 {
		return false
	}
	if int(shape[1]) == numClasses && int(shape[2]) != numClasses {
		return true
	}
	return false
}

// decodeSteps runs greedy per-timestep argmax over the first batch element.
// Layout can be [N, T, C] or [N, C, T].
func decodeSteps(logits []float32, shape []int64, classesFirst bool) []ctcStep {
	if len(shape) < 3 {
		return nil
	}
	dims := append([]int64(nil), shape...)
	for len(dims) > 3 && dims[len(dims)-1] == 1 {
		dims = dims[:len(dims)-1]
	}
	if dims[0] <= 0 {
		return nil
	}
	var tDim, cDim int
	if classesFirst {
		cDim = int(dims[1])
		tDim = int(dims[2])
	} else {
		tDim = int(dims[1])
		cDim = int(dims[2])
	}
	if tDim <= 0 || cDim <= 0 || len(logits) < tDim*cDim {
		return nil
	}

	steps := make([]ctcStep, tDim)
	for t := 0; t < tDim; t++ {
		var cls []float32
		if classesFirst {
			cls = make([]float32, cDim)
			for k := 0; k < cDim; k++ {
				cls[k] = logits[k*tDim+t]
			}
		} else {
			off := t * cDim
			cls = logits[off : off+cDim]
		}
		idx, _ := argmax(cls)
		steps[t] = ctcStep{class: idx, prob: softmaxProbOfIndex(cls, idx)}
	}
	return steps
}

// collapseSteps applies the CTC collapse rule: blanks are dropped and
// consecutive repeats merge into one emission. A merged run keeps the
// maximum per-step probability and the full timestep span, and a blank
// between two identical classes separates them into distinct emissions.
func collapseSteps(steps []ctcStep, blank int) []decodedChar {
	out := make([]decodedChar, 0, len(steps))
	prev := blank
	for t, s := range steps {
		if s.class == blank {
			prev = blank
			continue
		}
		if s.class == prev && len(out) > 0 {
			last := &out[len(out)-1]
			last.t2 = t
			if s.prob > last.prob {
				last.prob = s.prob
			}
		} else {
			out = append(out, decodedChar{class: s.class, prob: s.prob, t1: t, t2: t})
		}
		prev = s.class
	}
	return out
}


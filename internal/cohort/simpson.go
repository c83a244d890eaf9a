package cohort

import "gonum.org/v1/gonum/mat"

// SimpsonWeights returns the composite Simpson 1/3 weights for n yearly
// values: 1/3 at both ends, 4/3 at odd and 2/3 at interior even indices.
// A positive horizon ends integration at that year; later values get
// weight 0.
func SimpsonWeights(n, horizon int) []float64 {
	w := make([]float64, n)
	if n == 0 {
		return w
	}
	end := n - 1
	if horizon > 0 && horizon < end {
		end = horizon
	}
	w[0] = 1.0 / 3
	for i := 1; i <= end; i++ {
		switch {
		case i == end:
			w[i] = 1.0 / 3
		case i%2 == 0:
			w[i] = 2.0 / 3
		default:
			w[i] = 4.0 / 3
		}
	}
	return w
}

// Simpson integrates yearly matrices with SimpsonWeights.
func Simpson(yearly []*mat.Dense, horizon int) *mat.Dense {
	if len(yearly) == 0 {
		return nil
	}
	r, c := yearly[0].Dims()
	sum := mat.NewDense(r, c, nil)
	var term mat.Dense
	for i, w := range SimpsonWeights(len(yearly), horizon) {
		if w == 0 {
			continue
		}
		term.Scale(w, yearly[i])
		sum.Add(sum, &term)
	}
	return sum
}

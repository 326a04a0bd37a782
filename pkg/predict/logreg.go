package predict

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a multinomial (softmax) classifier with an L2
// penalty on the weights. The intercepts are not penalized.
//
// The objective minimized is
//
//	C * sum_i -log p(y_i | x_i) + 0.5 * sum_k ||w_k||^2
type LogisticRegression struct {
	C                 float64
	MaxIterations     int
	GradientThreshold float64

	classes int
	dim     int
	// classes x (dim+1), last column is the intercept
	theta *mat.Dense
}

// NewLogisticRegression returns a model with the usual defaults
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:                 1.0,
		MaxIterations:     100,
		GradientThreshold: 1e-4,
	}
}

// Fit trains on rows x labelled with class indices y in [0, classes)
func (m *LogisticRegression) Fit(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return errors.New("no training rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("%d rows but %d labels", len(x), len(y))
	}
	if classes < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", classes)
	}

	dim := len(x[0])
	cols := dim + 1

	// rows augmented with a constant 1 for the intercept
	xa := mat.NewDense(len(x), cols, nil)
	for i, row := range x {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), dim)
		}
		if y[i] < 0 || y[i] >= classes {
			return fmt.Errorf("label %d out of range", y[i])
		}
		xa.SetRow(i, append(append(make([]float64, 0, cols), row...), 1))
	}

	obj := &softmaxObjective{
		x:       xa,
		y:       y,
		classes: classes,
		cols:    cols,
		c:       m.C,
	}

	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.gradient,
	}

	settings := &optimize.Settings{
		MajorIterations:   m.MaxIterations,
		GradientThreshold: m.GradientThreshold,
	}

	initial := make([]float64, classes*cols)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}

	// an iteration limit still leaves a usable estimate
	m.classes = classes
	m.dim = dim
	m.theta = mat.NewDense(classes, cols, append([]float64(nil), result.X...))
	return nil
}

// PredictProba returns the posterior of every class for one row
func (m *LogisticRegression) PredictProba(row []float64) ([]float64, error) {
	if m.theta == nil {
		return nil, errors.New("model is not fitted")
	}
	if len(row) != m.dim {
		return nil, fmt.Errorf("row has %d features, model expects %d", len(row), m.dim)
	}

	xa := mat.NewVecDense(m.dim+1, append(append(make([]float64, 0, m.dim+1), row...), 1))
	var z mat.VecDense
	z.MulVec(m.theta, xa)

	scores := make([]float64, m.classes)
	for k := range scores {
		scores[k] = z.AtVec(k)
	}
	lse := floats.LogSumExp(scores)
	for k := range scores {
		scores[k] = math.Exp(scores[k] - lse)
	}
	return scores, nil
}

// Predict returns the most probable class of one row
func (m *LogisticRegression) Predict(row []float64) (int, error) {
	proba, err := m.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

type softmaxObjective struct {
	x       *mat.Dense
	y       []int
	classes int
	cols    int
	c       float64
}

// residuals returns softmax(X theta^T) minus the one-hot labels, and the
// summed negative log likelihood
func (o *softmaxObjective) residuals(params []float64) (*mat.Dense, float64) {
	theta := mat.NewDense(o.classes, o.cols, params)

	n, _ := o.x.Dims()
	z := mat.NewDense(n, o.classes, nil)
	z.Mul(o.x, theta.T())

	var nll float64
	row := make([]float64, o.classes)
	for i := 0; i < n; i++ {
		mat.Row(row, i, z)
		lse := floats.LogSumExp(row)
		nll += lse - row[o.y[i]]
		for k := range row {
			row[k] = math.Exp(row[k] - lse)
		}
		row[o.y[i]]--
		z.SetRow(i, row)
	}
	return z, nll
}

func (o *softmaxObjective) value(params []float64) float64 {
	_, nll := o.residuals(params)

	var penalty float64
	for k := 0; k < o.classes; k++ {
		w := params[k*o.cols : (k+1)*o.cols-1]
		penalty += floats.Dot(w, w)
	}
	return o.c*nll + 0.5*penalty
}

func (o *softmaxObjective) gradient(grad, params []float64) {
	r, _ := o.residuals(params)

	g := mat.NewDense(o.classes, o.cols, grad)
	g.Mul(r.T(), o.x)
	g.Scale(o.c, g)

	for k := 0; k < o.classes; k++ {
		start := k * o.cols
		// intercept is the last entry of each row and stays unpenalized
		floats.Add(grad[start:start+o.cols-1], params[start:start+o.cols-1])
	}
}

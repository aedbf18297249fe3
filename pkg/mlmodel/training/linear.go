package training

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// eigenCutoff is the relative size below which an eigenvalue of the centered
// Gram matrix is treated as zero
const eigenCutoff = 1e-10

// LinearModel is an ordinary least squares fit with intercept
type LinearModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (m *LinearModel) predictRow(idx []int, vals []float64) float64 {
	out := m.Intercept
	for k, j := range idx {
		out += m.Coefficients[j] * vals[k]
	}
	return out
}

// LinearRegressionTrainer solves least squares on the centered design
type LinearRegressionTrainer struct{}

// NewLinearRegressionTrainer creates a new linear regression trainer
func NewLinearRegressionTrainer() *LinearRegressionTrainer {
	return &LinearRegressionTrainer{}
}

// Train returns the minimum-norm least squares solution. One-hot blocks make
// the design rank deficient, so the normal equations are solved through the
// pseudo-inverse of the centered Gram matrix.
func (t *LinearRegressionTrainer) Train(X *encoding.Matrix, y []float64) (*Regressor, error) {
	if err := checkInputs(X, y); err != nil {
		return nil, err
	}

	n, p := X.Rows(), X.Cols()
	yMean := stat.Mean(y, nil)

	model := &LinearModel{Coefficients: make([]float64, p), Intercept: yMean}
	reg := &Regressor{Kind: models.ModelTypeLinearRegression, Features: p, Linear: model}
	if p == 0 {
		return reg, nil
	}

	xMean := make([]float64, p)
	xty := make([]float64, p)
	gram := mat.NewSymDense(p, nil)
	for i := 0; i < n; i++ {
		idx, vals := X.Row(i)
		for a, ja := range idx {
			xMean[ja] += vals[a]
			xty[ja] += vals[a] * y[i]
			for b := a; b < len(idx); b++ {
				jb := idx[b]
				gram.SetSym(ja, jb, gram.At(ja, jb)+vals[a]*vals[b])
			}
		}
	}
	floats.Scale(1/float64(n), xMean)

	// center: G = XᵀX - n·x̄x̄ᵀ and Xᵀy_c = Xᵀy - n·x̄·ȳ
	fn := float64(n)
	for a := 0; a < p; a++ {
		xty[a] -= fn * xMean[a] * yMean
		for b := a; b < p; b++ {
			gram.SetSym(a, b, gram.At(a, b)-fn*xMean[a]*xMean[b])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(gram, true); !ok {
		return nil, errors.New("eigendecomposition of the design did not converge")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	cutoff := floats.Max(values) * eigenCutoff
	var proj mat.VecDense
	proj.MulVec(vectors.T(), mat.NewVecDense(p, xty))
	for i, l := range values {
		if l > cutoff && l > 0 {
			proj.SetVec(i, proj.AtVec(i)/l)
		} else {
			proj.SetVec(i, 0)
		}
	}
	var coef mat.VecDense
	coef.MulVec(&vectors, &proj)

	for j := 0; j < p; j++ {
		model.Coefficients[j] = coef.AtVec(j)
	}
	model.Intercept = yMean - floats.Dot(xMean, model.Coefficients)
	return reg, nil
}

// GetType returns the model type
func (t *LinearRegressionTrainer) GetType() models.ModelType {
	return models.ModelTypeLinearRegression
}

package scorer

import (
	"errors"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/model"
)

// MaxResponseValue is the top of the normalized response scale.
const MaxResponseValue = 5.0

// ErrInvalidInput is returned (wrapped) when a response value is rejected.
var ErrInvalidInput = errors.New("invalid input")

// AbsoluteScore is a 0-100 score produced by the aggregator, the enhancers or
// the composer.
type AbsoluteScore float64

// RelativeScore is an unbounded sector-relative score produced by the
// comparative scorer. It is a distinct type so it cannot be passed where an
// AbsoluteScore is composed.
type RelativeScore float64

// DimensionScore reduces responses on the 0-5 scale to a 0-100 score:
// round2(sum / (count*5) * 100). An empty list scores exactly 0.
//
// Values that are missing, non-numeric or outside [0, 5] are handled by
// policy: "reject" returns ErrInvalidInput, "coerce" counts missing values
// as 0 and clamps out-of-range ones. Coerced values stay in the denominator.
func DimensionScore(responses []model.QuestionResponse, policy string) (AbsoluteScore, error) {
	if len(responses) == 0 {
		return 0, nil
	}

	var total float64
	for _, r := range responses {
		v, err := responseValue(r, policy)
		if err != nil {
			return 0, err
		}
		total += v
	}

	return AbsoluteScore(round2(total / (float64(len(responses)) * MaxResponseValue) * 100)), nil
}

func responseValue(r model.QuestionResponse, policy string) (float64, error) {
	missing := r.Invalid || math.IsNaN(r.Value) || math.IsInf(r.Value, 0)
	outOfRange := !missing && (r.Value < 0 || r.Value > MaxResponseValue)

	if policy == config.InvalidValuesCoerce {
		if missing {
			return 0, nil
		}
		return math.Max(0, math.Min(MaxResponseValue, r.Value)), nil
	}

	switch {
	case missing:
		return 0, eris.Wrapf(ErrInvalidInput, "scorer: response %q has no numeric value", r.ID)
	case outOfRange:
		return 0, eris.Wrapf(ErrInvalidInput, "scorer: response %q value %g outside [0, %g]", r.ID, r.Value, MaxResponseValue)
	}
	return r.Value, nil
}

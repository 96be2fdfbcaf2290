//go:build !treatz_release

package treatz

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/treatz/rx"
)

func expectViolation(t *testing.T, operator string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected a contract violation")
		}
		cv, ok := r.(*ContractViolation)
		if !ok {
			t.Fatalf("expected *ContractViolation, got %T: %v", r, r)
		}
		if cv.Operator != operator {
			t.Errorf("expected violation in %s, got %s", operator, cv.Operator)
		}
	}()
	fn()
}

func TestStrict_UncheckedLiftPanics(t *testing.T) {
	untyped := rx.Throw[int](errors.New("untyped"))

	expectViolation(t, "FromObservableUnchecked", func() {
		FromObservableUnchecked[testError](untyped).Treat(context.Background(), nil, nil, nil)
	})
}

func TestStrict_TreatDetectsMismatch(t *testing.T) {
	mislabeled := wrap[ShapeContinuous, int, testError](rx.Throw[int](errors.New("untyped")))

	expectViolation(t, "Treat", func() {
		mislabeled.Treat(context.Background(), nil, nil, nil)
	})
}

func TestStrict_FromResultsChecksEngineErrors(t *testing.T) {
	src := rx.Throw[Result[int, testError]](errors.New("untyped"))

	expectViolation(t, "FromResults", func() {
		FromResults(src).Treat(context.Background(), nil, nil, nil)
	})
}

func TestStrict_GetOnEmptySingle(t *testing.T) {
	empty := wrap[ShapeSingle, int, testError](rx.Empty[int]())

	expectViolation(t, "Get", func() {
		_, _ = Get(context.Background(), empty)
	})
}

func TestStrict_TreatSingleOnEmptySingle(t *testing.T) {
	empty := wrap[ShapeSingle, int, testError](rx.Empty[int]())

	expectViolation(t, "TreatSingle", func() {
		TreatSingle(context.Background(), empty, func(Result[int, testError]) {})
	})
}

func TestStrict_NilFailureIsAViolation(t *testing.T) {
	src := rx.From(Ok[int, error](1), Err[int, error](nil), Ok[int, error](2))

	expectViolation(t, "FromResults", func() {
		FromResults(src).Treat(context.Background(), nil, nil, nil)
	})
	expectViolation(t, "MapResult", func() {
		MapResult(Of[int, error](1), func(int) Result[int, error] {
			return Err[int, error](nil)
		}).Treat(context.Background(), nil, nil, nil)
	})
	expectViolation(t, "Fail", func() {
		Fail[int, error](nil).Treat(context.Background(), nil, nil, nil)
	})
}

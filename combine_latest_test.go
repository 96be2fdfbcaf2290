package treatz

import (
	"testing"
)

func sum(vs []int) int {
	total := 0
	for _, v := range vs {
		total += v
	}
	return total
}

func TestCombineLatest_EmitsOnEveryChange(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}

	r, sub := record(CombineLatest([]Treatable[int, testError]{a.sequence(), b.sequence()}, sum))
	defer sub.Dispose()

	a.next(1)
	r.assertValues(t) // b has not emitted yet

	b.next(10)
	a.next(2)
	b.next(20)
	r.assertValues(t, 11, 12, 22)

	a.complete()
	r.assertPending(t)
	b.next(30)
	b.complete()
	r.wait(t)

	r.assertValues(t, 11, 12, 22, 32)
	r.assertFinished(t)
}

func TestCombineLatest_SourceFinishingEmpty(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}

	r, _ := record(CombineLatest([]Treatable[int, testError]{a.sequence(), b.sequence()}, sum))
	a.next(1)
	b.complete()
	r.wait(t)

	r.assertValues(t)
	r.assertFinished(t)
}

func TestCombineLatest_Failure(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}

	r, _ := record(CombineLatest([]Treatable[int, testError]{a.sequence(), b.sequence()}, sum))
	a.next(1)
	b.next(2)
	b.fail(errY)
	r.wait(t)

	r.assertValues(t, 3)
	r.assertFailed(t, errY)
}

func TestCombineLatest_NoSources(t *testing.T) {
	r, _ := record(CombineLatest([]Treatable[int, testError]{}, sum))
	r.wait(t)

	r.assertValues(t)
	r.assertFinished(t)
}

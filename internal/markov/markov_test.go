package markov

import (
	"errors"
	"testing"
)

func TestParseValidSpec(t *testing.T) {
	g, err := Parse("<256| 0.1,0.7,0.2<1024|0.3,0.4,0.3  <1470|0.4,0.4,0.2")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if g.Size() != 3 {
		t.Fatalf("expected 3 states, got %d", g.Size())
	}
	lengths := g.Lengths()
	want := []int{256, 1024, 1470}
	for i, l := range want {
		if lengths[i] != l {
			t.Fatalf("expected lengths %v, got %v", want, lengths)
		}
	}
	row := g.Row(0)
	bounds := []float64{0.1, 0.8, 1.0}
	for i, b := range bounds {
		if diff := row[i].Bound - b; diff > floatTolerance || diff < -floatTolerance {
			t.Fatalf("expected row 0 bound[%d]=%v, got %v", i, b, row[i].Bound)
		}
	}
}

func TestParseCrossFillsDestinationLengths(t *testing.T) {
	g, err := Parse("<256|0.5,0.5<1024|0.5,0.5")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	for r := 0; r < g.Size(); r++ {
		row := g.Row(r)
		if row[0].Length != 256 || row[1].Length != 1024 {
			t.Fatalf("row %d carries lengths %d,%d, expected 256,1024", r, row[0].Length, row[1].Length)
		}
	}
}

func TestParseShortRowAccepted(t *testing.T) {
	g, err := Parse("<256|1.0<1024|0.5,0.5")
	if err != nil {
		t.Fatalf("expected short row to be accepted, got %v", err)
	}
	g.SetSeed(42)
	for i := 0; i < 200; i++ {
		got := g.Next()
		if got != 256 && got != 1024 {
			t.Fatalf("sample %d: expected 256 or 1024, got %d", i, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		spec string
		want error
	}{
		{"probability above one", "<256|1.1", ErrProbabilityOutOfRange},
		{"negative probability", "<256|-0.1,1.0", ErrProbabilityOutOfRange},
		{"row sums below one", "<256|0.5", ErrCumulativeProbabilityBelowOne},
		{"row sums above one", "<256|0.7,0.7", ErrCumulativeProbabilityExceedsOne},
		{"unparsable token", "<256|abc", ErrInvalidProbabilityToken},
		{"missing separator", "<256", ErrMalformedRecord},
		{"bad length label", "<abc|1.0", ErrMalformedRecord},
		{"empty specification", "   ", ErrEmptySpecification},
		{"oversized row", "<256|0.5,0.5<512|0.3,0.3,0.4", ErrRowLengthMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Parse(tc.spec)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if g != nil {
				t.Fatalf("expected no graph on failed parse")
			}
		})
	}
}

func TestAbsorbingSingleState(t *testing.T) {
	g, err := Parse("<1000|1.0")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	for _, seed := range []int64{1, 7, 99} {
		g.SetSeed(seed)
		for i := 0; i < 50; i++ {
			if got := g.Next(); got != 1000 {
				t.Fatalf("seed %d sample %d: expected 1000, got %d", seed, i, got)
			}
		}
	}
}

func TestIdenticalSeedsProduceIdenticalSequences(t *testing.T) {
	const spec = "<256|0.1,0.7,0.2<1024|0.3,0.4,0.3<1470|0.4,0.4,0.2"
	a, err := Parse(spec)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	b, err := Parse(spec)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	a.SetSeed(1234)
	b.SetSeed(1234)
	if a.Seed() != 1234 {
		t.Fatalf("expected recorded seed 1234, got %d", a.Seed())
	}
	for i := 0; i < 200; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("sample %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestSampleSkipsZeroProbabilityBoundary(t *testing.T) {
	// A trailing zero-probability entry shares its bound with the previous
	// entry. A draw past every bound clamps to the last column, which must
	// then be skipped back to the nearest entry with real probability.
	g := &Graph{entries: combine([]rowRecord{
		{length: 256, probs: []float64{0.99998, 0}, bounds: []float64{0.99998, 0.99998}},
		{length: 512, probs: []float64{1, 0}, bounds: []float64{1, 1}},
	})}
	if got := g.next(0.999991); got != 256 {
		t.Fatalf("expected skip-back to state 0 (256), got %d", got)
	}
	if g.row != 0 {
		t.Fatalf("expected cursor at row 0, got %d", g.row)
	}
}

func TestSampleZeroDrawOnZeroProbabilityFirstColumn(t *testing.T) {
	// u=0 selects column 0 even when its probability is zero; the walk-back
	// stops at index 0 by definition.
	g := &Graph{entries: combine([]rowRecord{
		{length: 100, probs: []float64{0, 1}, bounds: []float64{0, 1}},
		{length: 200, probs: []float64{0, 1}, bounds: []float64{0, 1}},
	})}
	if got := g.next(0); got != 100 {
		t.Fatalf("expected state 0 (100), got %d", got)
	}
}

func TestSampleAdvancesCursor(t *testing.T) {
	g, err := Parse("<100|0.0,1.0<200|0.0,1.0")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if got := g.next(0.5); got != 200 {
		t.Fatalf("expected transition to 200, got %d", got)
	}
	if g.row != 1 {
		t.Fatalf("expected cursor at row 1, got %d", g.row)
	}
}

package markov

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// floatTolerance bounds the rounding slack accepted when validating
// probabilities and cumulative bounds.
const floatTolerance = 1e-5

// Validation failures reported by Parse. All of them abort construction;
// a failed Parse never returns a partially built graph.
var (
	ErrEmptySpecification              = fmt.Errorf("markov: specification contains no states")
	ErrMalformedRecord                 = fmt.Errorf("markov: record is missing a '|' separated length label")
	ErrInvalidProbabilityToken         = fmt.Errorf("markov: invalid probability value")
	ErrProbabilityOutOfRange           = fmt.Errorf("markov: probability must be between 0 and 1")
	ErrCumulativeProbabilityExceedsOne = fmt.Errorf("markov: cumulative row probability greater than 1")
	ErrCumulativeProbabilityBelowOne   = fmt.Errorf("markov: cumulative row probability less than 1")
	ErrRowLengthMismatch               = fmt.Errorf("markov: row has wrong number of probabilities")
)

// Entry is one transition of the graph: the destination state's payload
// length, the raw transition probability, and the running cumulative bound
// used for inverse-CDF sampling.
type Entry struct {
	Length int
	Prob   float64
	Bound  float64
}

// Graph is a discrete-time Markov chain over payload lengths. Sampling walks
// the chain one transition per call and returns the destination state's
// length label.
//
// A Graph owns its random number stream; it is not safe for concurrent use.
// Each logical traffic stream that needs reproducible shaping should own an
// independent Graph.
type Graph struct {
	entries [][]Entry
	row     int
	seed    int64
	rng     *rand.Rand
}

// rowRecord is one parsed `<LENGTH|p1,...,pN` record before the rows are
// combined into the final matrix.
type rowRecord struct {
	length int
	probs  []float64
	bounds []float64
}

// Parse builds a Graph from its textual specification:
//
//	<L1|p1,p2,...,pN<L2|p1,...,pN<...<LN|p1,...,pN
//
// '<' opens a record, '|' separates the integer length label from the
// comma-separated probability list, and whitespace anywhere is insignificant.
// The number of '<' delimiters fixes the state count N; every record must
// carry exactly N probabilities summing to 1 within tolerance.
func Parse(spec string) (*Graph, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, spec)

	parts := strings.Split(compact, "<")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) == 0 || compact == "" {
		return nil, ErrEmptySpecification
	}

	n := len(parts)
	records := make([]rowRecord, 0, n)
	for k, part := range parts {
		rec, err := parseRecord(part, n)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", k, err)
		}
		records = append(records, rec)
	}

	return &Graph{
		entries: combine(records),
		rng:     rand.New(rand.NewSource(1)),
	}, nil
}

// parseRecord validates a single `LENGTH|p1,...,pN` record and computes its
// cumulative bounds.
func parseRecord(part string, n int) (rowRecord, error) {
	label, list, ok := strings.Cut(part, "|")
	if !ok {
		return rowRecord{}, ErrMalformedRecord
	}
	length, err := strconv.Atoi(label)
	if err != nil {
		return rowRecord{}, fmt.Errorf("%w: length label %q", ErrMalformedRecord, label)
	}

	tokens := strings.Split(list, ",")
	rec := rowRecord{
		length: length,
		probs:  make([]float64, 0, len(tokens)),
		bounds: make([]float64, 0, len(tokens)),
	}

	prev := 0.0
	for _, token := range tokens {
		prob, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return rowRecord{}, fmt.Errorf("%w: %q", ErrInvalidProbabilityToken, token)
		}
		if prob < 0 || greaterThanOne(prob) {
			return rowRecord{}, fmt.Errorf("%w: %v", ErrProbabilityOutOfRange, prob)
		}
		// A ~zero probability owns no interval: its bound stays at the
		// previous entry's bound.
		bound := prev
		if !nearZero(prob) {
			bound = prev + prob
		}
		if greaterThanOne(bound) {
			return rowRecord{}, fmt.Errorf("%w: %v", ErrCumulativeProbabilityExceedsOne, bound)
		}
		rec.probs = append(rec.probs, prob)
		rec.bounds = append(rec.bounds, bound)
		prev = bound
	}

	// Undersized rows are tolerated: the missing transitions get zero
	// probability, which keeps truncated absorbing-prefix rows usable. An
	// oversized row cannot mean anything and is rejected.
	if len(rec.probs) > n {
		return rowRecord{}, fmt.Errorf("%w: expected %d, got %d", ErrRowLengthMismatch, n, len(rec.probs))
	}
	if len(rec.probs) < n {
		fmt.Fprintf(os.Stderr, "markov: row for length %d carries %d probabilities, expected %d; missing transitions treated as zero\n",
			length, len(rec.probs), n)
	}
	if lessThanOne(rec.bounds[len(rec.bounds)-1]) {
		return rowRecord{}, fmt.Errorf("%w: %v", ErrCumulativeProbabilityBelowOne, rec.bounds[len(rec.bounds)-1])
	}
	return rec, nil
}

// combine assembles the final N×N matrix. Every entry in column c carries the
// length label declared by record c, so any row, queried at any column,
// reports the destination state's own length. Columns beyond an undersized
// row's parsed probabilities carry zero probability and inherit the row's
// final bound, so they never win a draw.
func combine(records []rowRecord) [][]Entry {
	n := len(records)
	entries := make([][]Entry, n)
	for r := range records {
		row := make([]Entry, n)
		rec := records[r]
		for c := 0; c < n; c++ {
			e := Entry{Length: records[c].length}
			if c < len(rec.probs) {
				e.Prob = rec.probs[c]
				e.Bound = rec.bounds[c]
			} else {
				e.Bound = rec.bounds[len(rec.bounds)-1]
			}
			row[c] = e
		}
		entries[r] = row
	}
	return entries
}

// Next samples one transition from the current state and returns the
// destination state's payload length.
func (g *Graph) Next() int {
	return g.next(g.rng.Float64())
}

// next performs inverse-CDF selection over the current row for a uniform
// draw u in [0,1): the first entry whose cumulative bound reaches u wins,
// except that a ~zero-probability entry never owns an interval, so the scan
// walks back to the nearest non-zero-probability entry (or index 0) before
// committing the transition.
func (g *Graph) next(u float64) int {
	row := g.entries[g.row]
	ix := 0
	for ix < len(row) && row[ix].Bound < u {
		ix++
	}
	if ix == len(row) {
		ix--
	}
	for ix > 0 && nearZero(row[ix].Prob) {
		ix--
	}
	g.row = ix
	return row[ix].Length
}

// SetSeed reseeds the graph-owned random stream. The seed is also recorded
// for diagnostics.
func (g *Graph) SetSeed(seed int64) {
	g.seed = seed
	g.rng = rand.New(rand.NewSource(seed))
}

// Seed returns the last seed applied via SetSeed.
func (g *Graph) Seed() int64 { return g.seed }

// Size returns the number of states.
func (g *Graph) Size() int { return len(g.entries) }

// Lengths returns each state's payload length label in state order.
func (g *Graph) Lengths() []int {
	out := make([]int, len(g.entries))
	for c := range g.entries {
		out[c] = g.entries[0][c].Length
	}
	return out
}

// Row returns the transitions out of state r. The returned slice is the
// graph's own storage and must not be modified.
func (g *Graph) Row(r int) []Entry { return g.entries[r] }

// String renders the matrix one row per line as
// "len=dst|prob/bound ..." for debugging malformed specifications.
func (g *Graph) String() string {
	var sb strings.Builder
	for r, row := range g.entries {
		fmt.Fprintf(&sb, "%d=", g.entries[r][r].Length)
		for _, e := range row {
			fmt.Fprintf(&sb, "%d|%g/%g ", e.Length, e.Prob, e.Bound)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func nearZero(v float64) bool       { return math.Abs(v) < floatTolerance }
func greaterThanOne(v float64) bool { return v-1 > floatTolerance }
func lessThanOne(v float64) bool    { return 1-v > floatTolerance }

// Package posterior computes, from a knowledge store, the probability that
// each card sits in the envelope. The residual probability mass is
// distributed by counting consistent completions of the unknown state rather
// than assumed uniform, because set constraints and hand capacities skew the
// likelihoods.
//
// Categories are treated as conditionally independent: each is counted on its
// own, and open set constraints are only enforced when all of their remaining
// candidates fall inside the category being counted. Cross-category coupling
// is not modeled exactly; this is a deliberate, documented simplification.
package posterior

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
)

// ErrEstimationTimeout reports that the sampling fallback exhausted its
// budget without finding a valid completion. The accompanying posterior is a
// best-effort uniform distribution, usable but low-confidence.
var ErrEstimationTimeout = errors.New("estimation sample budget exhausted")

// Posterior maps every card to the probability that it is in the envelope.
// Probabilities sum to one within each category. Exact is false when the
// Monte Carlo fallback produced the numbers.
type Posterior struct {
	Prob  map[deck.Card]float64
	Exact bool
}

// TopCandidate returns the most probable envelope card for a category.
func (p Posterior) TopCandidate(cat deck.Category) (deck.Card, float64) {
	best, bestProb := deck.NoCard, -1.0
	for _, c := range deck.CardsInCategory(cat) {
		if prob := p.Prob[c]; prob > bestProb {
			best, bestProb = c, prob
		}
	}
	return best, bestProb
}

// CategoryEntropy returns the Shannon entropy (bits) of one category's
// envelope distribution.
func (p Posterior) CategoryEntropy(cat deck.Category) float64 {
	h := 0.0
	for _, c := range deck.CardsInCategory(cat) {
		if prob := p.Prob[c]; prob > 0 {
			h -= prob * math.Log2(prob)
		}
	}
	return h
}

// Estimator counts consistent completions of a knowledge store. Counting is
// exact via memoized combinatorial backtracking while the constraint case
// space stays under ExactCaseBudget; beyond that it falls back to Monte Carlo
// sampling with SampleCount attempts.
type Estimator struct {
	ExactCaseBudget int
	SampleCount     int

	rng *rand.Rand
	log logrus.FieldLogger
}

// NewEstimator creates an estimator with the given budgets. The rng drives
// only the sampling fallback.
func NewEstimator(exactCaseBudget, sampleCount int, rng *rand.Rand, log logrus.FieldLogger) *Estimator {
	return &Estimator{
		ExactCaseBudget: exactCaseBudget,
		SampleCount:     sampleCount,
		rng:             rng,
		log:             log,
	}
}

// Posterior computes the envelope distribution for every card. The only
// recoverable failure is ErrEstimationTimeout, which still returns a usable
// best-effort posterior; any other error means the store is inconsistent.
func (e *Estimator) Posterior(v knowledge.View) (Posterior, error) {
	result := Posterior{Prob: make(map[deck.Card]float64, deck.NumCards), Exact: true}
	var timeout error
	for _, cat := range deck.Categories() {
		if err := e.estimateCategory(v, cat, &result); err != nil {
			if errors.Is(err, ErrEstimationTimeout) {
				timeout = err
				continue
			}
			return Posterior{}, err
		}
	}
	return result, timeout
}

// estimateCategory fills in one category's probabilities.
func (e *Estimator) estimateCategory(v knowledge.View, cat deck.Category, out *Posterior) error {
	cards := deck.CardsInCategory(cat)

	// A known envelope card settles the whole category.
	if known, ok := v.EnvelopeCard(cat); ok {
		for _, c := range cards {
			out.Prob[c] = 0
		}
		out.Prob[known] = 1
		return nil
	}

	// Cards placed with a seat are out; the rest must be completed.
	var unknown, candidates []deck.Card
	for _, c := range cards {
		if _, placed := v.HolderOf(c); placed {
			out.Prob[c] = 0
			continue
		}
		unknown = append(unknown, c)
		if !v.IsNegative(c, deck.Envelope) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return errors.Wrapf(knowledge.ErrContradiction, "no envelope candidate left in category %s", cat)
	}

	prob := newProblem(v, cat, unknown)
	cases := prob.splitConstraintCases()
	if len(cases)*len(candidates) > e.ExactCaseBudget {
		if e.log != nil {
			e.log.Debugf("category %s: %d cases x %d candidates exceeds exact budget, sampling", cat, len(cases), len(candidates))
		}
		out.Exact = false
		return e.sampleCategory(prob, candidates, out)
	}

	counts := make(map[deck.Card]int64, len(candidates))
	var total int64
	for _, envCard := range candidates {
		var n int64
		for _, cs := range cases {
			n += cs.countWith(envCard)
		}
		counts[envCard] = n
		total += n
	}
	if total == 0 {
		return errors.Wrapf(knowledge.ErrContradiction, "no consistent completion in category %s", cat)
	}
	for _, c := range candidates {
		out.Prob[c] = float64(counts[c]) / float64(total)
	}
	for _, c := range unknown {
		if _, ok := counts[c]; !ok {
			out.Prob[c] = 0
		}
	}
	return nil
}

// sampleCategory estimates the distribution by rejection sampling: each
// attempt proposes a random completion and keeps it only if every relevant
// constraint holds. The proposal is not perfectly uniform over completions,
// so the result is approximate by design.
func (e *Estimator) sampleCategory(p *problem, candidates []deck.Card, out *Posterior) error {
	counts := make(map[deck.Card]int, len(candidates))
	accepted := 0
	for i := 0; i < e.SampleCount; i++ {
		envCard, ok := p.sampleCompletion(candidates, e.rng)
		if !ok {
			continue
		}
		counts[envCard]++
		accepted++
	}
	if accepted == 0 {
		// Best effort: spread the mass uniformly and tell the caller.
		for _, c := range candidates {
			out.Prob[c] = 1 / float64(len(candidates))
		}
		return errors.Wrapf(ErrEstimationTimeout, "%d samples rejected", e.SampleCount)
	}
	for _, c := range candidates {
		out.Prob[c] = float64(counts[c]) / float64(accepted)
	}
	return nil
}

// problem is the per-category counting state extracted from a store.
type problem struct {
	seats       int
	quota       []int             // remaining hand capacity per seat
	eligible    []uint8           // per unknown card, bitmask of seats that may hold it
	cards       []deck.Card       // unknown cards, fixed order
	index       map[deck.Card]int // card -> position in cards
	constraints []knowledge.SetConstraint
}

func newProblem(v knowledge.View, cat deck.Category, unknown []deck.Card) *problem {
	p := &problem{
		seats: v.NumPlayers(),
		cards: unknown,
		index: make(map[deck.Card]int, len(unknown)),
	}
	p.quota = make([]int, p.seats)
	for seat := 0; seat < p.seats; seat++ {
		h := deck.Holder(seat)
		p.quota[seat] = v.HandSize(h) - v.PositiveCount(h)
	}
	p.eligible = make([]uint8, len(unknown))
	for i, c := range unknown {
		p.index[c] = i
		for seat := 0; seat < p.seats; seat++ {
			if !v.IsNegative(c, deck.Holder(seat)) {
				p.eligible[i] |= 1 << seat
			}
		}
	}
	// Only constraints fully inside this category can be enforced here.
	for _, sc := range v.Constraints() {
		if sc.Holder == deck.Envelope {
			continue
		}
		inCategory := true
		for c := range sc.Cards {
			if c.Category() != cat {
				inCategory = false
				break
			}
		}
		if inCategory {
			p.constraints = append(p.constraints, sc)
		}
	}
	return p
}

// constraintCase is one disjoint branch of the constraint space: specific
// cards forced to specific seats, plus per-branch exclusions that keep the
// branches from overlapping.
type constraintCase struct {
	p        *problem
	forced   map[deck.Card]deck.Holder
	excluded map[deck.Card]uint8 // extra per-case ineligibility masks
}

// splitConstraintCases expands the open constraints into disjoint forced-card
// cases, the same decomposition the branch "holder has c2 and not c1" scheme
// produces: summing exact counts over the cases yields the exact total.
func (p *problem) splitConstraintCases() []*constraintCase {
	root := &constraintCase{
		p:        p,
		forced:   make(map[deck.Card]deck.Holder),
		excluded: make(map[deck.Card]uint8),
	}
	return root.expand(p.constraints)
}

func (c *constraintCase) expand(remaining []knowledge.SetConstraint) []*constraintCase {
	if len(remaining) == 0 {
		return []*constraintCase{c}
	}
	sc := remaining[0]
	rest := remaining[1:]

	// Already satisfied in this branch.
	for card := range sc.Cards {
		if c.forced[card] == sc.Holder && c.hasForced(card) {
			return c.expand(rest)
		}
	}

	var cases []*constraintCase
	var earlier []deck.Card
	for _, card := range sc.CardList() {
		if c.canForce(card, sc.Holder) {
			branch := c.clone()
			branch.force(card, sc.Holder)
			for _, prev := range earlier {
				branch.exclude(prev, sc.Holder)
			}
			cases = append(cases, branch.expand(rest)...)
		}
		earlier = append(earlier, card)
	}
	return cases
}

func (c *constraintCase) hasForced(card deck.Card) bool {
	_, ok := c.forced[card]
	return ok
}

func (c *constraintCase) canForce(card deck.Card, h deck.Holder) bool {
	if c.hasForced(card) {
		return false
	}
	seat := int(h)
	mask := c.p.eligible[c.p.index[card]] &^ c.excluded[card]
	if mask&(1<<seat) == 0 {
		return false
	}
	return c.remainingQuota(h) > 0
}

func (c *constraintCase) remainingQuota(h deck.Holder) int {
	q := c.p.quota[h]
	for _, holder := range c.forced {
		if holder == h {
			q--
		}
	}
	return q
}

func (c *constraintCase) force(card deck.Card, h deck.Holder) {
	c.forced[card] = h
}

func (c *constraintCase) exclude(card deck.Card, h deck.Holder) {
	c.excluded[card] |= 1 << int(h)
}

func (c *constraintCase) clone() *constraintCase {
	forced := make(map[deck.Card]deck.Holder, len(c.forced))
	for k, v := range c.forced {
		forced[k] = v
	}
	excluded := make(map[deck.Card]uint8, len(c.excluded))
	for k, v := range c.excluded {
		excluded[k] = v
	}
	return &constraintCase{p: c.p, forced: forced, excluded: excluded}
}

// countWith counts the completions of this case that put envCard in the
// envelope: every other unknown card must land on an eligible seat without
// exceeding any seat's remaining capacity.
func (c *constraintCase) countWith(envCard deck.Card) int64 {
	if c.hasForced(envCard) {
		return 0
	}
	quota := make([]int, c.p.seats)
	copy(quota, c.p.quota)
	for _, h := range c.forced {
		quota[h]--
		if quota[h] < 0 {
			return 0
		}
	}

	// Bucket the free cards by effective eligibility mask; cards with the
	// same mask are interchangeable, which is what makes memoization pay.
	groupSizes := map[uint8]int{}
	for i, card := range c.p.cards {
		if card == envCard || c.hasForced(card) {
			continue
		}
		mask := c.p.eligible[i] &^ c.excluded[card]
		if mask == 0 {
			return 0
		}
		groupSizes[mask]++
	}
	masks := make([]uint8, 0, len(groupSizes))
	for m := range groupSizes {
		masks = append(masks, m)
	}
	sort.Slice(masks, func(i, j int) bool { return masks[i] < masks[j] })
	sizes := make([]int, len(masks))
	for i, m := range masks {
		sizes[i] = groupSizes[m]
	}

	memo := make(map[string]int64)
	return countAssignments(0, c.p.seats, masks, sizes, quota, memo)
}

// countAssignments is the memoized backtracking core: seat by seat, choose
// how many cards each eligibility group contributes, bounded by the seat's
// quota; every card must be placed by the time the seats run out.
func countAssignments(seat, seats int, masks []uint8, sizes, quota []int, memo map[string]int64) int64 {
	if seat == seats {
		for _, n := range sizes {
			if n != 0 {
				return 0
			}
		}
		return 1
	}
	key := memoKey(seat, sizes)
	if v, ok := memo[key]; ok {
		return v
	}

	var total int64
	take := make([]int, len(masks))
	var recurse func(group, used int)
	recurse = func(group, used int) {
		if group == len(masks) {
			next := make([]int, len(sizes))
			for i := range sizes {
				next[i] = sizes[i] - take[i]
			}
			ways := int64(1)
			for i := range masks {
				ways *= comb(sizes[i], take[i])
			}
			total += ways * countAssignments(seat+1, seats, masks, next, quota, memo)
			return
		}
		max := 0
		if masks[group]&(1<<seat) != 0 {
			max = sizes[group]
			if room := quota[seat] - used; max > room {
				max = room
			}
		}
		for k := 0; k <= max; k++ {
			take[group] = k
			recurse(group+1, used+k)
		}
		take[group] = 0
	}
	recurse(0, 0)

	memo[key] = total
	return total
}

func memoKey(seat int, sizes []int) string {
	key := make([]byte, 0, len(sizes)+1)
	key = append(key, byte(seat))
	for _, n := range sizes {
		key = append(key, byte(n))
	}
	return string(key)
}

// sampleCompletion proposes one random completion and reports the envelope
// card, or false if the proposal dead-ends or violates a constraint.
func (p *problem) sampleCompletion(candidates []deck.Card, rng *rand.Rand) (deck.Card, bool) {
	envCard := candidates[rng.Intn(len(candidates))]

	quota := make([]int, p.seats)
	copy(quota, p.quota)
	assigned := make(map[deck.Card]deck.Holder, len(p.cards))

	order := rng.Perm(len(p.cards))
	for _, i := range order {
		card := p.cards[i]
		if card == envCard {
			continue
		}
		var open []int
		for seat := 0; seat < p.seats; seat++ {
			if p.eligible[i]&(1<<seat) != 0 && quota[seat] > 0 {
				open = append(open, seat)
			}
		}
		if len(open) == 0 {
			return deck.NoCard, false
		}
		seat := open[rng.Intn(len(open))]
		quota[seat]--
		assigned[card] = deck.Holder(seat)
	}

	for _, sc := range p.constraints {
		ok := false
		for card := range sc.Cards {
			if assigned[card] == sc.Holder && card != envCard {
				ok = true
				break
			}
		}
		if !ok {
			return deck.NoCard, false
		}
	}
	return envCard, true
}

// comb is an n-choose-k calculator backed by a small lookup cache, since the
// same values recur constantly during counting.
var combCache = map[[2]int]int64{}

func comb(n, k int) int64 {
	if k < 0 || k > n {
		return 0
	}
	if k == 0 || k == n {
		return 1
	}
	key := [2]int{n, k}
	if v, ok := combCache[key]; ok {
		return v
	}
	v := comb(n-1, k-1) + comb(n-1, k)
	combCache[key] = v
	return v
}

// Package inference reconstructs team membership from the combat graph.
//
// Teams are recovered by breadth-first two-coloring: seeded users are
// authoritative, everyone they hit (or were hit by) is assumed to be on
// the opposing team, and the coloring propagates outward. Contradictions
// are recorded as Conflict values and never acted upon; the first
// assignment a user receives is the one it keeps.
package inference

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/snowlog/internal/domain/model"
)

// Default inference configuration constants.
const (
	// DefaultContradictionRatio is the vote imbalance that flags an
	// inferred user as self-contradicting: opposing votes must exceed
	// this multiple of the assigned team's votes. Carried over from the
	// dashboard's original tuning; configurable but deliberately not
	// "improved".
	DefaultContradictionRatio = 2.0

	// DefaultEvidenceSaturation is the vote total at which the evidence
	// bonus component of confidence reaches its maximum.
	DefaultEvidenceSaturation = 20.0

	marginWeight   = 0.6
	evidenceWeight = 0.4
)

// Source describes how a user's team assignment was obtained.
type Source string

// Assignment sources, in decreasing order of trust.
const (
	SourceSeeded   Source = "seeded"
	SourceInferred Source = "inferred"
	SourceUnknown  Source = "unknown"
)

// ConflictKind distinguishes the two contradiction shapes the engine
// can observe.
type ConflictKind string

const (
	// ConflictEdge marks an edge between two users holding the same
	// team where the two-faction model implies opposite teams.
	ConflictEdge ConflictKind = "edge"

	// ConflictSelf marks a user whose accumulated votes contradict its
	// assigned team beyond the contradiction ratio.
	ConflictSelf ConflictKind = "self"
)

// Conflict is an append-only record of a detected contradiction. It
// never causes reassignment; conflicts are findings for an auditor,
// not failures of the run.
type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	User        string       `json:"user"`
	UserTeam    model.Team   `json:"user_team"`
	UserSource  Source       `json:"user_source"`
	Other       string       `json:"other,omitempty"`
	OtherTeam   model.Team   `json:"other_team,omitempty"`
	OtherSource Source       `json:"other_source,omitempty"`
	Expected    model.Team   `json:"expected"`
	Detail      string       `json:"detail"`
}

// Result holds the complete inference output. Every user appearing as
// attacker or victim in the input has an entry in all three maps.
type Result struct {
	Teams      map[string]model.Team `json:"teams"`
	Confidence map[string]float64    `json:"confidence"`
	Source     map[string]Source     `json:"source"`
	Conflicts  []Conflict            `json:"conflicts"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithContradictionRatio overrides the vote imbalance that triggers a
// self-contradiction conflict.
func WithContradictionRatio(ratio float64) Option {
	return func(e *Engine) {
		if ratio > 0 {
			e.contradictionRatio = ratio
		}
	}
}

// WithEvidenceSaturation overrides the vote total at which the evidence
// bonus saturates.
func WithEvidenceSaturation(total float64) Option {
	return func(e *Engine) {
		if total > 0 {
			e.evidenceSaturation = total
		}
	}
}

// Engine performs team inference. It is stateless across calls; a
// single Engine may be reused for any number of Infer invocations.
type Engine struct {
	contradictionRatio float64
	evidenceSaturation float64
}

// New creates an inference engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		contradictionRatio: DefaultContradictionRatio,
		evidenceSaturation: DefaultEvidenceSaturation,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// tally accumulates weighted votes for each faction.
type tally struct {
	penguin  int
	reindeer int
}

func (t *tally) add(team model.Team, w int) {
	switch team {
	case model.TeamPenguin:
		t.penguin += w
	case model.TeamReindeer:
		t.reindeer += w
	}
}

func (t *tally) votesFor(team model.Team) int {
	if team == model.TeamPenguin {
		return t.penguin
	}
	return t.reindeer
}

func (t *tally) total() int { return t.penguin + t.reindeer }

// Infer assigns a team to every user appearing in events, starting from
// the seed map. Seeds referencing Unknown or users absent from the
// events are tolerated; an empty seed map yields an all-Unknown result
// with no conflicts. Infer never fails: malformed events (missing
// attacker or victim) are skipped at graph-build time.
func (e *Engine) Infer(events []model.HitEvent, seeds map[string]model.Team) Result {
	g := buildGraph(events)

	res := Result{
		Teams:      make(map[string]model.Team, len(g.order)),
		Confidence: make(map[string]float64, len(g.order)),
		Source:     make(map[string]Source, len(g.order)),
		Conflicts:  []Conflict{},
	}

	votes := make(map[string]*tally)

	// Seed the frontier in graph insertion order so that propagation is
	// deterministic for a fixed event list.
	queue := make([]string, 0, len(seeds))
	for _, u := range g.order {
		team, ok := seeds[u]
		if !ok || (team != model.TeamPenguin && team != model.TeamReindeer) {
			continue
		}
		res.Teams[u] = team
		res.Source[u] = SourceSeeded
		res.Confidence[u] = 1.0
		queue = append(queue, u)
	}

	// Breadth-first propagation. FIFO order matters: each user's team is
	// decided by its shortest-hop distance to the nearest seed, which
	// keeps long noisy chains from overriding close evidence.
	conflictSeen := make(map[string]bool)
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		team := res.Teams[u]
		expected := team.Opposite()

		adj := g.adj[u]
		for _, v := range adj.order {
			w := adj.weight[v]

			current, assigned := res.Teams[v]
			switch {
			case !assigned:
				// First assignment wins; later edges only add votes.
				res.Teams[v] = expected
				res.Source[v] = SourceInferred
				t := &tally{}
				t.add(expected, w)
				votes[v] = t
				queue = append(queue, v)

			case current == expected:
				// Agreement reinforces confidence for inferred users.
				if res.Source[v] == SourceInferred {
					votes[v].add(expected, w)
				}

			default:
				// Same-team edge: contradiction of the two-faction
				// model. The edge still votes for the team it implies
				// (that is what powers the self-contradiction pass),
				// but the assignment itself is never touched. The
				// conflict is recorded once per pair.
				if res.Source[v] == SourceInferred {
					votes[v].add(expected, w)
				}
				key := pairKey(u, v)
				if conflictSeen[key] {
					continue
				}
				conflictSeen[key] = true
				res.Conflicts = append(res.Conflicts, Conflict{
					Kind:        ConflictEdge,
					User:        u,
					UserTeam:    team,
					UserSource:  res.Source[u],
					Other:       v,
					OtherTeam:   current,
					OtherSource: res.Source[v],
					Expected:    expected,
					Detail:      fmt.Sprintf("%d hits exchanged between users on team %s", w, team),
				})
			}
		}
	}

	// Confidence for inferred users from their accumulated votes.
	for _, u := range g.order {
		if res.Source[u] != SourceInferred {
			continue
		}
		res.Confidence[u] = e.confidence(votes[u])
	}

	// Second pass: inferred users whose votes contradict their assigned
	// team beyond the ratio are flagged, not reassigned. Auto-correcting
	// would require re-running propagation with a different seed order,
	// which is out of scope.
	for _, u := range g.order {
		if res.Source[u] != SourceInferred {
			continue
		}
		t := votes[u]
		assigned := res.Teams[u]
		forVotes := t.votesFor(assigned)
		against := t.votesFor(assigned.Opposite())
		if float64(against) > e.contradictionRatio*float64(forVotes) {
			res.Conflicts = append(res.Conflicts, Conflict{
				Kind:       ConflictSelf,
				User:       u,
				UserTeam:   assigned,
				UserSource: SourceInferred,
				Expected:   assigned.Opposite(),
				Detail:     fmt.Sprintf("votes %d:%d against assigned team", against, forVotes),
			})
		}
	}

	// Users with no path to any seed stay Unknown.
	for _, u := range g.order {
		if _, ok := res.Teams[u]; ok {
			continue
		}
		res.Teams[u] = model.TeamUnknown
		res.Confidence[u] = 0
		res.Source[u] = SourceUnknown
	}

	return res
}

// confidence scores an inferred assignment from its vote tally:
// the vote margin dominates, with a bonus for sheer evidence volume.
func (e *Engine) confidence(t *tally) float64 {
	total := t.total()
	if total == 0 {
		return 0
	}
	margin := math.Abs(float64(t.penguin) - float64(t.reindeer))
	marginRatio := margin / float64(total)
	evidenceBonus := math.Min(1, float64(total)/e.evidenceSaturation)
	return round2(marginWeight*marginRatio + evidenceWeight*evidenceBonus)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// graph is the undirected weighted combat graph. Both the node list and
// each adjacency list preserve insertion order so that traversal and
// tie-breaking are reproducible for a fixed event list.
type graph struct {
	order []string
	adj   map[string]*adjacency
}

type adjacency struct {
	order  []string
	weight map[string]int
}

func buildGraph(events []model.HitEvent) *graph {
	g := &graph{adj: make(map[string]*adjacency)}
	for _, ev := range events {
		if ev.Attacker == "" || ev.Victim == "" {
			continue
		}
		g.addEdge(ev.Attacker, ev.Victim)
	}
	return g
}

func (g *graph) node(u string) *adjacency {
	a, ok := g.adj[u]
	if !ok {
		a = &adjacency{weight: make(map[string]int)}
		g.adj[u] = a
		g.order = append(g.order, u)
	}
	return a
}

// addEdge increments the undirected edge weight between a and b.
func (g *graph) addEdge(a, b string) {
	na := g.node(a)
	nb := g.node(b)
	if _, ok := na.weight[b]; !ok {
		na.order = append(na.order, b)
	}
	na.weight[b]++
	if _, ok := nb.weight[a]; !ok {
		nb.order = append(nb.order, a)
	}
	nb.weight[a]++
}

// Users returns every user in the result in a stable sorted order,
// convenient for deterministic serialization.
func (r Result) Users() []string {
	users := make([]string, 0, len(r.Teams))
	for u := range r.Teams {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// CountBySource tallies users per assignment source.
func (r Result) CountBySource() map[Source]int {
	counts := make(map[Source]int, 3)
	for _, s := range r.Source {
		counts[s]++
	}
	return counts
}

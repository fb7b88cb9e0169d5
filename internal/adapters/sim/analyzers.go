package sim

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"

	"github.com/rawelabs/rawe/internal/domain"
)

// Synthetic analyzer parameters.
const (
	entropyJitter  = 0.1
	velocityScale  = 2.0
	memeticJitter  = 0.2
	spikeThreshold = 0.35
	zoneMinAbsCorr = 0.6
)

// jitter produces a deterministic pseudo-random value in [-1, 1) keyed by a
// string and a salt, so repeated calls for the same narrative agree.
func jitter(key string, salt int64) float64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ salt))
	return rng.Float64()*2 - 1
}

// Topology is a simulated topological stress analyzer. Entropy tracks how
// contested belief is (maximal at 0.5 penetration) and signal strength
// follows volatility.
type Topology struct {
	mu   sync.Mutex
	salt int64
}

// NewTopology creates a topology analyzer with the given jitter salt.
func NewTopology(salt int64) *Topology {
	return &Topology{salt: salt}
}

func (t *Topology) DetectStress(_ context.Context, snap domain.NarrativeSnapshot) (domain.TopologyReading, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Binary entropy of the belief split, jittered.
	entropy := binaryEntropy(snap.BeliefPenetration)
	entropy = clamp01(entropy + jitter(snap.ID+"/entropy", t.salt)*entropyJitter)

	strength := clamp01(snap.Volatility30d)
	return domain.TopologyReading{Entropy: entropy, SignalStrength: strength}, nil
}

// Flux is a simulated narrative flux analyzer. Velocity scales with
// volatility and memetic impact with belief penetration.
type Flux struct {
	mu   sync.Mutex
	salt int64
}

// NewFlux creates a flux analyzer with the given jitter salt.
func NewFlux(salt int64) *Flux {
	return &Flux{salt: salt}
}

func (f *Flux) MapVelocity(_ context.Context, snap domain.NarrativeSnapshot) (domain.FluxReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	velocity := snap.Volatility30d * velocityScale
	impact := clamp01(snap.BeliefPenetration + jitter(snap.ID+"/memetic", f.salt)*memeticJitter)
	return domain.FluxReading{VelocityIndex: velocity, MemeticImpact: impact}, nil
}

// Liquidity is a simulated liquidity channel probe. A spike fires when the
// correlation is strong enough to transmit narrative volatility; the target
// zone needs both a spike and a decisive correlation sign.
type Liquidity struct {
	salt int64
}

// NewLiquidity creates a liquidity probe with the given jitter salt.
func NewLiquidity(salt int64) *Liquidity {
	return &Liquidity{salt: salt}
}

func (l *Liquidity) Probe(_ context.Context, asset string, correlation float64) (domain.LiquidityReading, error) {
	absCorr := math.Abs(correlation)
	noise := jitter(asset, l.salt) * 0.1
	spike := absCorr+noise > spikeThreshold
	zone := spike && absCorr >= zoneMinAbsCorr
	return domain.LiquidityReading{VolatilitySpike: spike, TargetZone: zone}, nil
}

// binaryEntropy is the Shannon entropy of a Bernoulli(p) split in bits.
func binaryEntropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

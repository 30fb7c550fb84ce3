package policy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/forage/agent"
)

// Network dimensions fixed by the observation and action layouts.
const (
	NumInputs  = agent.ObservationSize
	NumOutputs = agent.ActionSize
)

// FFNN is a two-layer feedforward network with tanh activations.
// Every output is in [-1, 1], matching the action range.
type FFNN struct {
	W1 [][NumInputs]float32  // input -> hidden weights, one row per hidden unit
	B1 []float32             // hidden biases
	W2 [NumOutputs][]float32 // hidden -> output weights
	B2 [NumOutputs]float32   // output biases
}

// NewFFNN creates a network with hidden units, Xavier-initialised and
// scaled by initScale.
func NewFFNN(rng *rand.Rand, hidden int, initScale float64) *FFNN {
	nn := newZeroFFNN(hidden)

	scale1 := float32(initScale * math.Sqrt(2.0/float64(NumInputs)))
	scale2 := float32(initScale * math.Sqrt(2.0/float64(hidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}

	return nn
}

func newZeroFFNN(hidden int) *FFNN {
	nn := &FFNN{
		W1: make([][NumInputs]float32, hidden),
		B1: make([]float32, hidden),
	}
	for i := range nn.W2 {
		nn.W2[i] = make([]float32, hidden)
	}
	return nn
}

// Hidden returns the number of hidden units.
func (nn *FFNN) Hidden() int { return len(nn.B1) }

// Forward computes the network output.
func (nn *FFNN) Forward(inputs *[NumInputs]float32) [NumOutputs]float32 {
	hidden := make([]float32, len(nn.B1))
	for i := range hidden {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j, h := range hidden {
			sum += nn.W2[i][j] * h
		}
		out[i] = tanh(sum)
	}
	return out
}

// Act implements Policy.
func (nn *FFNN) Act(obs agent.Observation) agent.Action {
	in := [NumInputs]float32(obs)
	out := nn.Forward(&in)
	return agent.ActionFromSlice(out[:])
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := newZeroFFNN(nn.Hidden())
	copy(clone.W1, nn.W1)
	copy(clone.B1, nn.B1)
	for i := range nn.W2 {
		copy(clone.W2[i], nn.W2[i])
	}
	clone.B2 = nn.B2
	return clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
// The approximation reaches ±1 at |x| = 3 and overshoots beyond it, so it
// saturates there.
func tanh(x float32) float32 {
	if x >= 3 {
		return 1
	}
	if x <= -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// ParamCount returns the number of weights and biases for a network with
// the given hidden size.
func ParamCount(hidden int) int {
	return hidden*NumInputs + hidden + NumOutputs*hidden + NumOutputs
}

// Params flattens the network into W1, B1, W2, B2 order.
func (nn *FFNN) Params() []float64 {
	p := make([]float64, 0, ParamCount(nn.Hidden()))
	for i := range nn.W1 {
		for _, w := range nn.W1[i] {
			p = append(p, float64(w))
		}
	}
	for _, b := range nn.B1 {
		p = append(p, float64(b))
	}
	for i := range nn.W2 {
		for _, w := range nn.W2[i] {
			p = append(p, float64(w))
		}
	}
	for _, b := range nn.B2 {
		p = append(p, float64(b))
	}
	return p
}

// SetParams restores a network flattened by Params.
func (nn *FFNN) SetParams(p []float64) error {
	if want := ParamCount(nn.Hidden()); len(p) != want {
		return fmt.Errorf("policy: got %d params, want %d", len(p), want)
	}
	k := 0
	next := func() float32 {
		v := float32(p[k])
		k++
		return v
	}
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = next()
		}
	}
	for i := range nn.B1 {
		nn.B1[i] = next()
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = next()
		}
	}
	for i := range nn.B2 {
		nn.B2[i] = next()
	}
	return nil
}

// FFNNFromParams builds a network of the given hidden size from flat params.
func FFNNFromParams(hidden int, p []float64) (*FFNN, error) {
	nn := newZeroFFNN(hidden)
	if err := nn.SetParams(p); err != nil {
		return nil, err
	}
	return nn, nil
}

package policy

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/geom"
)

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestMapKeys(t *testing.T) {
	s := 1 / math.Sqrt2
	tests := []struct {
		name  string
		keys  KeyState
		rot   geom.Euler
		move  r3.Vec
		pitch float64
		yaw   float64
	}{
		{"idle", KeyState{}, geom.Euler{}, r3.Vec{}, 0, 0},
		{"forward", KeyState{Forward: true}, geom.Euler{}, r3.Vec{Z: 1}, 0, 0},
		{"back", KeyState{Back: true}, geom.Euler{}, r3.Vec{Z: -1}, 0, 0},
		{"forward right normalised", KeyState{Forward: true, Right: true}, geom.Euler{}, r3.Vec{X: -s, Z: s}, 0, 0},
		{"all three", KeyState{Forward: true, Left: true, Up: true}, geom.Euler{},
			r3.Vec{X: 1 / math.Sqrt(3), Y: 1 / math.Sqrt(3), Z: 1 / math.Sqrt(3)}, 0, 0},
		{"down", KeyState{Down: true}, geom.Euler{}, r3.Vec{Y: -1}, 0, 0},
		{"forward is agent relative", KeyState{Forward: true}, geom.Euler{Yaw: 90}, r3.Vec{X: 1}, 0, 0},
		{"arrows", KeyState{PitchUp: true, YawLeft: true}, geom.Euler{}, r3.Vec{}, 1, 1},
		{"arrows opposite", KeyState{PitchDown: true, YawRight: true}, geom.Euler{}, r3.Vec{}, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := MapKeys(tt.keys, tt.rot)
			if !near(act.Move, tt.move) {
				t.Errorf("move = %v, want %v", act.Move, tt.move)
			}
			if act.Pitch != tt.pitch || act.Yaw != tt.yaw {
				t.Errorf("pitch, yaw = %v, %v; want %v, %v", act.Pitch, act.Yaw, tt.pitch, tt.yaw)
			}
		})
	}
}

func TestSideKeysFollowAgentAxes(t *testing.T) {
	orientations := []geom.Euler{
		{},
		{Yaw: 90},
		{Yaw: -135},
		{Pitch: 30, Yaw: 45},
	}
	for _, rot := range orientations {
		fwd, up := rot.Forward(), rot.Up()
		right := r3.Cross(fwd, up)
		if d := r3.Dot(MapKeys(KeyState{Right: true}, rot).Move, right); d < 1-1e-9 {
			t.Errorf("%+v: D along agent right = %v, want 1", rot, d)
		}
		if d := r3.Dot(MapKeys(KeyState{Left: true}, rot).Move, right); d > -1+1e-9 {
			t.Errorf("%+v: A along agent right = %v, want -1", rot, d)
		}
	}
}

func TestYawKeysTurnTheRightWay(t *testing.T) {
	// A positive yaw input rotates forward towards the agent's left.
	rot := geom.Euler{}
	left := r3.Scale(-1, r3.Cross(rot.Forward(), rot.Up()))

	turned := geom.Euler{Yaw: 10 * MapKeys(KeyState{YawLeft: true}, rot).Yaw}
	if r3.Dot(turned.Forward(), left) <= 0 {
		t.Errorf("left arrow turned forward to %v, away from left %v", turned.Forward(), left)
	}
	turned = geom.Euler{Yaw: 10 * MapKeys(KeyState{YawRight: true}, rot).Yaw}
	if r3.Dot(turned.Forward(), left) >= 0 {
		t.Errorf("right arrow turned forward to %v, towards left %v", turned.Forward(), left)
	}
}

func TestHeuristicUsesKeySource(t *testing.T) {
	h := Heuristic{
		Keys:        func() KeyState { return KeyState{Up: true} },
		Orientation: func() geom.Euler { return geom.Euler{Yaw: 45} },
	}
	act := h.Act(agent.Observation{})
	if !near(act.Move, r3.Vec{Y: 1}) {
		t.Errorf("move = %v, want up", act.Move)
	}
	if (Heuristic{}).Act(agent.Observation{}) != (agent.Action{}) {
		t.Error("heuristic without keys should idle")
	}
}

func TestForwardRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 16, 3)

	var in [NumInputs]float32
	for i := range in {
		in[i] = float32(i) - 5
	}
	for i, v := range nn.Forward(&in) {
		if v < -1 || v > 1 {
			t.Errorf("output %d = %v, out of [-1, 1]", i, v)
		}
	}
}

func TestTanhStaysInRange(t *testing.T) {
	for x := float32(-10); x <= 10; x += 0.01 {
		if y := tanh(x); y < -1 || y > 1 {
			t.Fatalf("tanh(%v) = %v, out of [-1, 1]", x, y)
		}
	}
	tests := []struct {
		x, want float32
	}{
		{0, 0},
		{3, 1},
		{3.5, 1},
		{-3.5, -1},
	}
	for _, tt := range tests {
		if got := tanh(tt.x); got != tt.want {
			t.Errorf("tanh(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestLargeBiasSaturatesActions(t *testing.T) {
	nn := newZeroFFNN(1)
	nn.B2 = [NumOutputs]float32{3.5, -3.5, 3.2, 3.5, -3.9}

	act := nn.Act(agent.Observation{})
	if act.Pitch != 1 || act.Yaw != -1 {
		t.Errorf("pitch, yaw = %v, %v; want 1, -1", act.Pitch, act.Yaw)
	}
	for i, v := range []float64{act.Move.X, act.Move.Y, act.Move.Z} {
		if v < -1 || v > 1 {
			t.Errorf("move[%d] = %v, out of [-1, 1]", i, v)
		}
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 16, 1)

	var obs agent.Observation
	for i := range obs {
		obs[i] = float32(i) / float32(len(obs))
	}
	if nn.Act(obs) != nn.Act(obs) {
		t.Error("Act is not deterministic")
	}
}

func TestZeroNetworkIdles(t *testing.T) {
	nn := newZeroFFNN(8)
	obs := agent.Observation{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	if act := nn.Act(obs); act != (agent.Action{}) {
		t.Errorf("zero network act = %+v, want zero", act)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 16, 1)

	p := nn.Params()
	if len(p) != ParamCount(16) {
		t.Fatalf("len(params) = %d, want %d", len(p), ParamCount(16))
	}

	clone, err := FFNNFromParams(16, p)
	if err != nil {
		t.Fatalf("FFNNFromParams: %v", err)
	}
	obs := agent.Observation{0.1, 0.2, 0.3, 0.9, 0, 1, 0, 0.5, -0.5, 0.2}
	if nn.Act(obs) != clone.Act(obs) {
		t.Error("rebuilt network disagrees")
	}

	if err := nn.SetParams(p[:3]); err == nil {
		t.Error("SetParams should reject the wrong length")
	}
}

func TestCloneIsDeep(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 4, 1)
	clone := nn.Clone()

	clone.W1[0][0] += 1
	clone.W2[0][0] += 1
	if nn.W1[0][0] == clone.W1[0][0] || nn.W2[0][0] == clone.W2[0][0] {
		t.Error("clone shares weights with the original")
	}
}

func TestCheckpointSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 16, 1)
	path := filepath.Join(t.TempDir(), "ckpt", "best.gob.zst")

	if err := SaveCheckpoint(path, NewCheckpoint(nn, "run-1", 12.5)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	c, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if c.RunID != "run-1" || c.Fitness != 12.5 || c.Hidden != 16 {
		t.Errorf("checkpoint header = %+v", c)
	}

	loaded, err := LoadFFNN(path)
	if err != nil {
		t.Fatalf("LoadFFNN: %v", err)
	}
	obs := agent.Observation{0, 0, 0, 1, 0.5, 0.5, 0.7, 0.9, 0.1, 0.3}
	if nn.Act(obs) != loaded.Act(obs) {
		t.Error("loaded network disagrees with saved one")
	}
}

func TestCheckpointVersionMismatch(t *testing.T) {
	nn := newZeroFFNN(2)
	path := filepath.Join(t.TempDir(), "old.gob.zst")
	c := NewCheckpoint(nn, "", 0)
	c.Version = 99
	if err := SaveCheckpoint(path, c); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if _, err := LoadCheckpoint(path); !errors.Is(err, ErrCheckpointVersion) {
		t.Errorf("err = %v, want ErrCheckpointVersion", err)
	}
}

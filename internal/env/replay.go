package env

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Frame is one recorded tick of an episode
type Frame struct {
	Tick    int       `json:"tick"`
	Inputs  []float32 `json:"inputs"`
	Outputs []float32 `json:"outputs"`
	Reward  float64   `json:"reward"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Angle   float64   `json:"angle,omitempty"`
}

// Replay stores a per-tick trace of one episode for offline inspection
type Replay struct {
	Task       string       `json:"task"`
	Seed       int64        `json:"seed"`
	Frames     []Frame      `json:"frames"`
	FinalStats EpisodeStats `json:"final_stats"`
}

// NewReplay creates a new replay recorder
func NewReplay(task string, seed int64) *Replay {
	return &Replay{
		Task:   task,
		Seed:   seed,
		Frames: make([]Frame, 0, 256),
	}
}

// Record adds a tick to the replay. Slices are copied.
func (r *Replay) Record(ep Episode, inputs, outputs []float32, reward float64) {
	f := Frame{
		Tick:    len(r.Frames),
		Inputs:  append([]float32(nil), inputs...),
		Outputs: append([]float32(nil), outputs...),
		Reward:  reward,
	}
	if d, ok := ep.(interface{ Drone() *Drone }); ok {
		body := d.Drone()
		f.X, f.Y, f.Angle = body.Position.X, body.Position.Y, body.Angle
	}
	r.Frames = append(r.Frames, f)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReplay reads a replay file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Replay{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

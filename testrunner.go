package openlime

import (
	"encoding/json"
	"fmt"
	"image"
)

// testStep is one action in a test script, per the teacher's testrunner.go
// JSON shape.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences injected gesture input and snapshots across frames
// for scripted, deterministic viewer testing. Adapted from the teacher's
// TestRunner/LoadTestScript, generalized from Scene.InjectClick/InjectDrag
// to an [Injector] driving a [PointerManager], and from Scene.Screenshot to
// [Canvas.Snapshot].
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool

	Shots map[string]image.Image
}

// LoadTestScript parses a JSON test script into a ready-to-run TestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("openlime: parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("openlime: parse test script: no steps")
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether every step in the script has executed.
func (r *TestRunner) Done() bool { return r.done }

// Step advances the runner by one frame: waits for any pending injected
// events to drain, counts down "wait" steps, and otherwise executes the
// next script step against inj/cv. Call once per frame, ahead of
// inj.Drain and cv.Draw, exactly like the teacher's Scene.Update calling
// TestRunner.step before processInput.
func (r *TestRunner) Step(now float64, inj *Injector, cv *Canvas) error {
	if r.done {
		return nil
	}
	if inj.Pending() > 0 {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		img, err := cv.Snapshot(now)
		if err != nil {
			return fmt.Errorf("openlime: test step %q screenshot: %w", st.Label, err)
		}
		if r.Shots == nil {
			r.Shots = map[string]image.Image{}
		}
		r.Shots[st.Label] = img
	case "click":
		inj.Click(0, st.X, st.Y, false, 0)
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		inj.Drag(0, st.FromX, st.FromY, st.ToX, st.ToY, frames, false, 0)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && inj.Pending() == 0 {
		r.done = true
	}
	return nil
}

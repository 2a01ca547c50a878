package nbody

import (
	"bufio"
	"encoding/json"
	"io"
)

// SnapshotSink receives integration progress
type SnapshotSink interface {
	OnStart(totalSteps int, snapEvery int) error
	OnSnapshot(t float64, bodies []Body) error
	OnEnd(finalT float64) error
}

// JSONLSnapshotWriter writes one JSON object per snapshot line
type JSONLSnapshotWriter struct {
	bw *bufio.Writer
}

type jsonlSnapshot struct {
	Time   float64 `json:"time"`
	Bodies []Body  `json:"bodies"`
}

func NewJSONLSnapshotWriter(w io.Writer) *JSONLSnapshotWriter {
	return &JSONLSnapshotWriter{bw: bufio.NewWriter(w)}
}

func (w *JSONLSnapshotWriter) OnStart(totalSteps int, snapEvery int) error { return nil }

func (w *JSONLSnapshotWriter) OnSnapshot(t float64, bodies []Body) error {
	b, err := json.Marshal(jsonlSnapshot{Time: t, Bodies: bodies})
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

func (w *JSONLSnapshotWriter) OnEnd(finalT float64) error { return w.bw.Flush() }

// Recorder keeps snapshots in memory so a run can be inspected or
// replayed into another sink later.
type Recorder struct {
	Times     []float64
	Snapshots [][]Body

	totalSteps int
	snapEvery  int
	finalTime  float64
}

func (r *Recorder) OnStart(totalSteps int, snapEvery int) error {
	r.totalSteps, r.snapEvery = totalSteps, snapEvery
	r.Times = make([]float64, 0, totalSteps/snapEvery+2)
	r.Snapshots = make([][]Body, 0, totalSteps/snapEvery+2)
	return nil
}

func (r *Recorder) OnSnapshot(t float64, bodies []Body) error {
	c := make([]Body, len(bodies))
	copy(c, bodies)
	r.Times = append(r.Times, t)
	r.Snapshots = append(r.Snapshots, c)
	return nil
}

func (r *Recorder) OnEnd(finalT float64) error {
	r.finalTime = finalT
	return nil
}

// Replay feeds the recorded run to sink as if it were integrating now
func (r *Recorder) Replay(sink SnapshotSink) error {
	if err := sink.OnStart(r.totalSteps, r.snapEvery); err != nil {
		return err
	}
	for i, t := range r.Times {
		if err := sink.OnSnapshot(t, r.Snapshots[i]); err != nil {
			return err
		}
	}
	return sink.OnEnd(r.finalTime)
}

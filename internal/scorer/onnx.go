// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package scorer

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/spill-sentinel/sentinel/internal/features"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// InitRuntime initializes the ONNX Runtime environment from the shared
// library at libPath. Safe to call multiple times; only the first call has
// any effect. All sessions in the process share the environment.
func InitRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// vectorSession wraps one inference session over a [batch, seq, 7] input
// with a sigmoid probability output. Both the anomaly model and the oil
// spill probability model were exported with this shape.
type vectorSession struct {
	mu         sync.Mutex
	kind       string
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

func newVectorSession(kind, modelPath, libPath string) (*vectorSession, error) {
	if err := InitRuntime(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: %s model has %d inputs, want 1", kind, len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: %s model has no outputs", kind)
	}
	dims := inputs[0].Dimensions
	if n := len(dims); n > 0 && dims[n-1] > 0 && dims[n-1] != features.VectorSize {
		return nil, fmt.Errorf("onnx: %s model expects %d features, pipeline produces %d",
			kind, dims[n-1], features.VectorSize)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &vectorSession{
		kind:       kind,
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, nil
}

// run executes one inference. The single report is presented as a length-one
// sequence, matching how the models were exported.
func (s *vectorSession) run(ctx context.Context, vec features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data := make([]float32, features.VectorSize)
	copy(data, vec[:])

	inShape := ort.NewShape(1, 1, features.VectorSize)
	tIn, err := ort.NewTensor(inShape, data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	s.mu.Lock()
	err = s.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("onnx: %s inference failed: %w", s.kind, err)
	}

	out := tOut.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("onnx: empty output tensor")
	}
	return float64(out[0]), nil
}

func (s *vectorSession) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Destroy()
}

// BiLSTMScorer runs the exported BiLSTM anomaly model.
type BiLSTMScorer struct {
	s *vectorSession
}

// NewBiLSTMScorer loads the anomaly model and creates an inference session.
func NewBiLSTMScorer(modelPath, libPath string) (*BiLSTMScorer, error) {
	s, err := newVectorSession("anomaly", modelPath, libPath)
	if err != nil {
		return nil, err
	}
	return &BiLSTMScorer{s: s}, nil
}

// Score runs one anomaly inference.
func (b *BiLSTMScorer) Score(ctx context.Context, vec features.Vector) (float64, error) {
	return b.s.run(ctx, vec)
}

// Close releases the session resources.
func (b *BiLSTMScorer) Close() error {
	return b.s.close()
}

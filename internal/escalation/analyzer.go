// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package escalation

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/spill-sentinel/sentinel/internal/scorer"
)

// imageSide is the classifier's input resolution.
const imageSide = 256

// Analyzer classifies a SAR scene. The returned class follows the training
// labels: 0 = no spill, 1 = spill.
type Analyzer interface {
	Classify(ctx context.Context, imageB64 string) (class int, confidence float64, err error)
}

// ONNXAnalyzer runs the exported SAR scene classifier. The model takes one
// grayscale tensor of shape [batch, 1, 256, 256] and returns per-class
// probabilities.
type ONNXAnalyzer struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	classes    int64
}

// NewONNXAnalyzer loads the classifier model.
func NewONNXAnalyzer(modelPath, libPath string) (*ONNXAnalyzer, error) {
	if err := scorer.InitRuntime(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: classifier has %d inputs / %d outputs", len(inputs), len(outputs))
	}

	classes := int64(2)
	if dims := outputs[0].Dimensions; len(dims) > 0 && dims[len(dims)-1] > 0 {
		classes = dims[len(dims)-1]
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(2)
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

	return &ONNXAnalyzer{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		classes:    classes,
	}, nil
}

// Classify decodes the base64 scene, normalizes it to the training
// resolution and runs the classifier.
func (a *ONNXAnalyzer) Classify(ctx context.Context, imageB64 string) (int, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	pixels, err := decodeScene(imageB64)
	if err != nil {
		return 0, 0, err
	}

	tIn, err := ort.NewTensor(ort.NewShape(1, 1, imageSide, imageSide), pixels)
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, a.classes))
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	a.mu.Lock()
	err = a.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	a.mu.Unlock()
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: classification failed: %w", err)
	}

	probs := tOut.GetData()
	if len(probs) == 0 {
		return 0, 0, fmt.Errorf("onnx: empty classifier output")
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, float64(probs[best]), nil
}

// Close releases the session resources.
func (a *ONNXAnalyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Destroy()
}

// decodeScene converts a base64 PNG/JPEG scene to a normalized grayscale
// [256*256] tensor, resampling with nearest neighbor when the source
// resolution differs.
func decodeScene(imageB64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return nil, fmt.Errorf("decode scene base64: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode scene image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty scene image")
	}

	pixels := make([]float32, imageSide*imageSide)
	for y := 0; y < imageSide; y++ {
		srcY := bounds.Min.Y + y*h/imageSide
		for x := 0; x < imageSide; x++ {
			srcX := bounds.Min.X + x*w/imageSide
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			// Luminance in [0, 1] from 16-bit channels.
			gray := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			pixels[y*imageSide+x] = float32(gray)
		}
	}
	return pixels, nil
}

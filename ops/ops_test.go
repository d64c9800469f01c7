// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops_test

import (
	"context"
	"errors"
	"testing"

	"github.com/born-ml/gbq/backend/cpu"
	"github.com/born-ml/gbq/ops"
	"github.com/born-ml/gbq/tensor"
)

func TestGatherBlockQuantized(t *testing.T) {
	data, err := tensor.FromNibbles([]int8{-1, 2, -3, 4, 5, -6, 7, -8}, tensor.Shape{2, 4}, tensor.Int4)
	if err != nil {
		t.Fatal(err)
	}
	indices, err := tensor.FromSlice([]int64{1}, tensor.Shape{})
	if err != nil {
		t.Fatal(err)
	}
	scales, err := tensor.FromSlice([]float32{1, 2, 0.5, 4}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatal(err)
	}

	backend := cpu.New(cpu.WithWorkers(1))
	defer backend.Release()
	attrs := ops.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}

	out, err := ops.GatherBlockQuantized(context.Background(), backend,
		[]*tensor.RawTensor{data, indices, scales}, attrs, ops.Options{})
	if err != nil {
		t.Fatalf("GatherBlockQuantized failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{4}) {
		t.Fatalf("shape = %v, want [4]", out.Shape())
	}
	want := []float32{2.5, -3, 28, -32}
	got := out.AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestBuildRejectsBadScales(t *testing.T) {
	data, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Uint4, tensor.CPU)
	indices, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	scales, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)

	_, err := ops.Build([]*tensor.RawTensor{data, indices, scales}, ops.DefaultAttributes())
	if !errors.Is(err, ops.ErrDatatypeMismatch) {
		t.Errorf("expected ErrDatatypeMismatch, got %v", err)
	}
}

func TestOutputShape(t *testing.T) {
	got := ops.OutputShape(tensor.Shape{3, 8, 16}, tensor.Shape{2, 5}, 1)
	if !got.Equal(tensor.Shape{3, 2, 5, 16}) {
		t.Errorf("OutputShape = %v, want [3 2 5 16]", got)
	}
}

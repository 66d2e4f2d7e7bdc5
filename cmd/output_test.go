package main

import (
	"bytes"
	"math"
	"testing"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/constants"
	"modelctl/pkg/supervisor"

	"github.com/stretchr/testify/assert"
)

func TestGibToBytes(t *testing.T) {
	tests := []struct {
		name string
		gb   float64
		want uint64
	}{
		{"zero", 0, 0},
		{"fractional", 1.5, 3 << 29},
		{"negative", -4, 0},
		{"nan", math.NaN(), 0},
		{"negative infinity", math.Inf(-1), 0},
		{"positive infinity", math.Inf(1), math.MaxUint64},
		{"overflow", 1e20, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gibToBytes(tt.gb))
		})
	}
}

func TestPrintResult_NegativeGPUMemory(t *testing.T) {
	res := &supervisor.Result{
		Operation: constants.OperationStatus,
		Outcome:   constants.OutcomeSuccess,
		State:     constants.StateRunning,
		Liveness:  constants.LivenessAlive,
		Record: &model.StatusRecord{
			ServiceID:     "svc-gpu",
			OverallStatus: "ready",
			LastHeartbeat: model.EpochSeconds(time.Now()),
			GPUMemory:     &model.GPUMemory{AllocatedGB: -1, TotalGB: 24},
		},
	}

	var out bytes.Buffer
	printResult(&out, res, nil)

	assert.Contains(t, out.String(), "0 B / 24 GiB")
}

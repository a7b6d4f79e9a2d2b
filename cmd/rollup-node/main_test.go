package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/rollup-node/internal/buildtask"
	"github.com/prysmaticlabs/rollup-node/internal/derivation"
)

func TestHandleBuildResultSendsFlushSignalOnHoloceneRecovery(t *testing.T) {
	signals := make(chan derivation.Signal, 1)
	handleBuildResult(buildtask.ErrHoloceneInvalidFlush, signals)

	select {
	case sig := <-signals:
		require.Equal(t, derivation.SignalFlushChannel, sig.Kind)
	default:
		t.Fatal("expected a flush signal to be sent")
	}
}

func TestHandleBuildResultDropsFlushSignalWhenChannelFull(t *testing.T) {
	signals := make(chan derivation.Signal, 1)
	signals <- derivation.Signal{Kind: derivation.SignalReset}

	require.NotPanics(t, func() {
		handleBuildResult(buildtask.ErrHoloceneInvalidFlush, signals)
	})
	require.Len(t, signals, 1)
}

func TestHandleBuildResultIgnoresOtherErrors(t *testing.T) {
	signals := make(chan derivation.Signal, 1)
	handleBuildResult(errors.New("build task failed"), signals)
	require.Len(t, signals, 0)
}

func TestHandleBuildResultIgnoresNil(t *testing.T) {
	signals := make(chan derivation.Signal, 1)
	handleBuildResult(nil, signals)
	require.Len(t, signals, 0)
}

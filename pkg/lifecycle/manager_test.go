package lifecycle

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestManager_ShutdownWakesSleepers(t *testing.T) {
	m := NewManager("test", quietLogger())

	h, err := m.NewServiceHandle("worker")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		defer h.Close()
		done <- h.Sleep(time.Hour)
	}()

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
	assert.ErrorIs(t, <-done, h.Err())
}

func TestManager_DuplicateServiceRejected(t *testing.T) {
	m := NewManager("test", quietLogger())

	h, err := m.NewServiceHandle("worker")
	require.NoError(t, err)
	_, err = m.NewServiceHandle("worker")
	assert.Error(t, err)

	h.Close()
	h.Close()
	_, err = m.NewServiceHandle("worker")
	assert.NoError(t, err)
}

func TestManager_WaitReportsStragglers(t *testing.T) {
	m := NewManager("test", quietLogger())

	_, err := m.NewServiceHandle("stuck")
	require.NoError(t, err)

	m.Shutdown()
	assert.Equal(t, []string{"stuck"}, m.WaitWithTimeout(20*time.Millisecond))
}

func TestHandle_SleepCompletes(t *testing.T) {
	m := NewManager("test", quietLogger())
	h, err := m.NewServiceHandle("worker")
	require.NoError(t, err)
	defer h.Close()

	assert.NoError(t, h.Sleep(time.Millisecond))
}

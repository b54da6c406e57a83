// File: device/device_test.go
// Author: momentics <momentics@gmail.com>

package device_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-devmem/api"
	"github.com/momentics/hioload-devmem/device"
	"github.com/momentics/hioload-devmem/pool"
)

const blockSize = 4096

type fakeProber struct {
	info device.PCIDevice
	err  error
}

func (f fakeProber) Probe() (device.PCIDevice, error) { return f.info, f.err }

func presentProber() device.Prober {
	return fakeProber{info: device.PCIDevice{
		Vendor:  device.VendorNVIDIA,
		Device:  0x2204,
		Address: "0000:01:00.0",
	}}
}

func newTestDevice(t *testing.T) (*device.Device, *pool.Pool) {
	t.Helper()
	p, err := pool.New(32*blockSize, blockSize, pool.WithReserver(pool.HeapReserver()))
	require.NoError(t, err)
	d, err := device.New(p, device.Config{
		StagingSize: 4 * blockSize,
		Prober:      presentProber(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = d.Close()
		_ = p.Close()
	})
	return d, p
}

func TestDeviceStagingRoundTrip(t *testing.T) {
	d, p := newTestDevice(t)

	assert.True(t, d.Present())
	assert.Equal(t, int64(4*blockSize), p.AllocatedBytes(),
		"staging must be carved out of the pool")

	src := bytes.Repeat([]byte("devmem"), 100)
	require.NoError(t, d.CopyToDevice(src))

	dst := make([]byte, len(src))
	require.NoError(t, d.CopyFromDevice(dst))
	assert.Equal(t, src, dst)

	st := d.Stats()
	assert.Equal(t, int64(1), st.TransfersToDevice)
	assert.Equal(t, int64(1), st.TransfersFromDevice)
	assert.Equal(t, int64(len(src)), st.BytesToDevice)
	assert.Equal(t, int64(len(src)), st.BytesFromDevice)
}

func TestDeviceTransferBounds(t *testing.T) {
	d, _ := newTestDevice(t)

	assert.ErrorIs(t, d.CopyToDevice(nil), api.ErrInvalidSize)
	assert.ErrorIs(t, d.CopyFromDevice(nil), api.ErrInvalidSize)

	huge := make([]byte, 5*blockSize)
	assert.ErrorIs(t, d.CopyToDevice(huge), api.ErrTransferTooLarge)
	assert.ErrorIs(t, d.CopyFromDevice(huge), api.ErrTransferTooLarge)

	assert.Equal(t, int64(0), d.Stats().TransfersToDevice)
}

func TestDeviceKernelLaunchCounter(t *testing.T) {
	d, _ := newTestDevice(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.LaunchKernel())
	}
	assert.Equal(t, int64(3), d.Stats().KernelLaunches)
}

func TestDeviceDegradedWithoutAccelerator(t *testing.T) {
	p, err := pool.New(8*blockSize, blockSize, pool.WithReserver(pool.HeapReserver()))
	require.NoError(t, err)
	defer p.Close()

	// No device is not a construction error: the module still loads.
	d, err := device.New(p, device.Config{
		StagingSize: blockSize,
		Prober:      fakeProber{err: api.ErrNoDevice},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.False(t, d.Present())
	assert.Equal(t, int64(0), p.AllocatedBytes(),
		"degraded device must not hold a staging region")
	assert.ErrorIs(t, d.CopyToDevice([]byte("x")), api.ErrNoDevice)
	assert.ErrorIs(t, d.CopyFromDevice(make([]byte, 1)), api.ErrNoDevice)
	assert.ErrorIs(t, d.LaunchKernel(), api.ErrNoDevice)
}

func TestDeviceCloseReturnsStaging(t *testing.T) {
	p, err := pool.New(8*blockSize, blockSize, pool.WithReserver(pool.HeapReserver()))
	require.NoError(t, err)
	defer p.Close()

	d, err := device.New(p, device.Config{
		StagingSize: 2 * blockSize,
		Prober:      presentProber(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2*blockSize), p.AllocatedBytes())

	require.NoError(t, d.Close())
	assert.Equal(t, int64(0), p.AllocatedBytes())
	// Idempotent.
	require.NoError(t, d.Close())
}

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocExactFit(t *testing.T) {
	a := New(make([]byte, 8))

	first, err := a.Alloc(5)
	require.NoError(t, err)
	assert.Len(t, first, 5)
	assert.Equal(t, 5, a.Used())
	assert.Equal(t, 3, a.Remaining())

	second, err := a.Alloc(3)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, 0, a.Remaining())
}

func TestAllocTooLarge(t *testing.T) {
	a := New(make([]byte, 8))

	_, err := a.Alloc(5)
	require.NoError(t, err)

	_, err = a.Alloc(4)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	// A failed allocation must not consume capacity.
	assert.Equal(t, 3, a.Remaining())
	_, err = a.Alloc(3)
	assert.NoError(t, err)
}

func TestAllocNegative(t *testing.T) {
	a := New(make([]byte, 8))
	_, err := a.Alloc(-1)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestRegionsDoNotOverlap(t *testing.T) {
	a := New(make([]byte, 8))

	first, err := a.Copy([]byte("aaaa"))
	require.NoError(t, err)
	second, err := a.Copy([]byte("bbbb"))
	require.NoError(t, err)

	assert.Equal(t, "aaaa", string(first))
	assert.Equal(t, "bbbb", string(second))

	// Appending to a full-capacity region must not bleed into its neighbor.
	first = append(first[:0], []byte("cccc")...)
	assert.Equal(t, "bbbb", string(second))
}

func TestCopyString(t *testing.T) {
	a := New(make([]byte, 16))

	region, err := a.CopyString("contoso.azure-devices.net"[:16])
	require.NoError(t, err)
	assert.Equal(t, "contoso.azure-de", string(region))

	_, err = a.CopyString("x")
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestReset(t *testing.T) {
	a := New(make([]byte, 4))

	_, err := a.Alloc(4)
	require.NoError(t, err)
	_, err = a.Alloc(1)
	require.ErrorIs(t, err, ErrBufferTooSmall)

	a.Reset()
	assert.Equal(t, 0, a.Used())

	region, err := a.Alloc(4)
	require.NoError(t, err)
	assert.Len(t, region, 4)
}

func TestMarkResetTo(t *testing.T) {
	a := New(make([]byte, 16))

	identity, err := a.Copy([]byte("contoso"))
	require.NoError(t, err)
	mark := a.Mark()

	_, err = a.Alloc(9)
	require.NoError(t, err)
	require.Equal(t, 0, a.Remaining())

	a.ResetTo(mark)
	assert.Equal(t, 7, a.Used())
	assert.Equal(t, "contoso", string(identity))

	// The reclaimed space can be allocated again.
	_, err = a.Alloc(9)
	assert.NoError(t, err)

	// Out-of-range marks are ignored.
	a.ResetTo(99)
	assert.Equal(t, 16, a.Used())
	a.ResetTo(-1)
	assert.Equal(t, 16, a.Used())
}

func TestZeroCapacity(t *testing.T) {
	a := New(nil)

	region, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Len(t, region, 0)

	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

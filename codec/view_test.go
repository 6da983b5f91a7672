package codec

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/zerocas/plain"
)

func TestViewAccessAndRelease(t *testing.T) {
	c := MustUnalignedSlice[plain.Uint16]()
	buf := []byte{1, 0, 2, 0, 3, 0}

	v, err := c.View(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
	assert.False(t, v.Released())

	e, err := v.At(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), e.Get())

	_, err = v.At(3)
	assert.Error(t, err)
	_, err = v.At(-1)
	assert.Error(t, err)

	b, err := v.Bytes()
	require.NoError(t, err)
	assert.Equal(t, buf, b)
	assert.Equal(t, len(buf), cap(b))

	v.Release()
	v.Release() // idempotent

	assert.True(t, v.Released())
	assert.Zero(t, v.Len())
	_, err = v.Elems()
	assert.ErrorIs(t, err, ErrViewReleased)
	_, err = v.Bytes()
	assert.ErrorIs(t, err, ErrViewReleased)
	_, err = v.At(0)
	assert.ErrorIs(t, err, ErrViewReleased)
}

func TestViewRejectsMismatch(t *testing.T) {
	c := MustUnalignedSlice[plain.Uint64]()
	v, err := c.View(make([]byte, 9))
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestViewConcurrentRelease(t *testing.T) {
	c := MustUnalignedSlice[plain.Uint32]()
	v, err := c.View(c.AsBytes(plain.Uint32s(1, 2, 3)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if elems, err := v.Elems(); err == nil && len(elems) != 3 {
				t.Errorf("unexpected len %d", len(elems))
			}
		}()
		go func() {
			defer wg.Done()
			v.Release()
		}()
	}
	wg.Wait()
	assert.True(t, v.Released())
}

func TestWith(t *testing.T) {
	c := MustUnalignedSlice[plain.Int32]()
	buf := c.AsBytes([]plain.Int32{plain.I32(-1), plain.I32(5)})

	var sum int32
	err := With(c, buf, func(elems []plain.Int32) error {
		for _, e := range elems {
			sum += e.Get()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), sum)

	sentinel := errors.New("stop")
	err = With(c, buf, func([]plain.Int32) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	called := false
	err = With(c, buf[:3], func([]plain.Int32) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	assert.False(t, called)
}

package common

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		text string
	}{
		{"io", IOError(io.ErrClosedPipe, "write output"), KindIO, "IoError: write output: io: read/write on closed pipe"},
		{"format", FormatErrorf("bad signature %q", "XX"), KindFormat, `FormatError: bad signature "XX"`},
		{"wrapped format", WrapFormat(io.ErrUnexpectedEOF, "read rows"), KindFormat, "FormatError: read rows: unexpected EOF"},
		{"argument", ArgumentErrorf("thread count must be positive, got %d", 0), KindArgument, "ArgumentError: thread count must be positive, got 0"},
		{"plain", errors.New("boom"), KindUnknown, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.text, tt.err.Error())
		})
	}
}

func TestNilPassThrough(t *testing.T) {
	assert.NoError(t, IOError(nil, "open"))
	assert.NoError(t, WrapFormat(nil, "decode"))
	assert.False(t, Is(nil, KindIO))
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := IOError(io.ErrUnexpectedEOF, "read")
	require.True(t, Is(err, KindIO))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))

	outer := errors.Wrap(err, "load input")
	assert.Equal(t, KindIO, KindOf(outer))
}

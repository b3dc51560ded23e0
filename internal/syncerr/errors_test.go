package syncerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := Transientf("fetch", "connection reset")
	wrapped := fmt.Errorf("sync AAPL: %w", base)

	assert.Equal(t, Transient, KindOf(wrapped))
	assert.True(t, Is(wrapped, Transient))
	assert.False(t, Is(wrapped, NoData))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, Transient))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(CircuitOpenError(51)))
	assert.True(t, IsFatal(New(StoreFatal, "insert", errors.New("conn refused"))))
	assert.False(t, IsFatal(New(Store, "insert", errors.New("check violation"))))
	assert.False(t, IsFatal(NoDataf("parse", "marker missing")))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestCircuitOpenMessageCarriesCount(t *testing.T) {
	err := CircuitOpenError(51)
	assert.Equal(t, "too many errors: 51", err.Error())
	assert.Equal(t, 51, err.Count)
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("bad float")
	err := New(Parse, "overview", cause)
	assert.Equal(t, "overview: parse: bad float", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "circuit_open", CircuitOpen.String())
}

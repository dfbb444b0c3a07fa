package compileerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorsIsMatchesSentinel(t *testing.T) {
	err := New(UnknownType, "Ghost", "no model declares this entity type")
	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.False(t, errors.Is(err, ErrUnknownColumn))
}

func TestAtIncludesPosition(t *testing.T) {
	err := At(ParseError, "cu", 3, 12, "expected MATCH")
	msg := err.Error()
	assert.Contains(t, msg, "cu")
	assert.Contains(t, msg, "line 3")
	assert.Contains(t, msg, "column 12")
	assert.Contains(t, msg, "expected MATCH")
}

func TestNewWithoutPositionOmitsIt(t *testing.T) {
	err := New(NoPrimary, "Customer", "")
	msg := err.Error()
	assert.NotContains(t, msg, "line")
	assert.Contains(t, msg, "NoPrimary")
}

func TestUnwrapUnknownKindReturnsNil(t *testing.T) {
	err := &CompileError{Kind: "SomethingElse", Ident: "x"}
	assert.Nil(t, err.Unwrap())
}

package serrors_test

import (
	"errors"
	"fmt"
	"subhunt/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestKindsDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrInvalidDomain,
		serrors.ErrUpstreamUnavailable,
		serrors.ErrMalformedResponse,
		serrors.ErrInternal,
	}
	seen := map[serrors.Kind]bool{}
	for i, k := range kinds {
		require.NotNil(t, k, "kind at index %d is nil", i)
		require.False(t, seen[k], "kind at index %d is duplicate: %v", i, k)
		seen[k] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("connection refused")

	e1 := serrors.With(serrors.ErrInvalidDomain, "invalid domain format: %s", "-bad.example.com")
	require.Equal(t, "invalid domain format: -bad.example.com", e1.Error())

	e2 := serrors.Wrap(serrors.ErrUpstreamUnavailable, base, "could not reach crt.sh")
	require.Equal(t, "could not reach crt.sh: connection refused", e2.Error())

	e3 := &serrors.Error{}
	require.Equal(t, "unknown error", e3.Error())
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	base := customError{"root cause"}
	e := serrors.Wrap(serrors.ErrUpstreamUnavailable, base, "fetching")

	require.ErrorIs(t, e, serrors.ErrUpstreamUnavailable)
	require.ErrorIs(t, e, base)
	require.NotErrorIs(t, e, serrors.ErrInvalidDomain)

	// still matches once wrapped again with fmt
	wrapped := fmt.Errorf("could not discover: %w", e)
	require.ErrorIs(t, wrapped, serrors.ErrUpstreamUnavailable)
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := serrors.Wrap(serrors.ErrMalformedResponse, base, "decoding")

	var k serrors.Kind
	require.ErrorAs(t, e, &k)
	require.Equal(t, serrors.ErrMalformedResponse, k)

	var ce *customError
	require.ErrorAs(t, e, &ce)
	require.Equal(t, base, ce)
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrUpstreamUnavailable, base, "no route")
	require.Equal(t, serrors.ErrUpstreamUnavailable, e.Kind())
	require.Equal(t, "no route: boom", e.Error())
	require.Equal(t, base, errors.Unwrap(e))
}

func TestKindOf(t *testing.T) {
	require.Nil(t, serrors.KindOf(nil))
	require.Equal(t, serrors.ErrInternal, serrors.KindOf(errors.New("plain")))

	e := serrors.With(serrors.ErrInvalidDomain, "bad")
	require.Equal(t, serrors.ErrInvalidDomain, serrors.KindOf(e))
	require.Equal(t, serrors.ErrInvalidDomain, serrors.KindOf(fmt.Errorf("outer: %w", e)))
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"validation":      {Validation("bad"), http.StatusBadRequest},
		"unauthenticated": {Unauthenticated("who"), http.StatusUnauthorized},
		"forbidden":       {Forbidden("no"), http.StatusForbidden},
		"not found":       {NotFound("gone"), http.StatusNotFound},
		"conflict":        {Conflict("dup"), http.StatusConflict},
		"internal":        {Internal("op", errors.New("boom")), http.StatusInternalServerError},
		"foreign error":   {errors.New("plain"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("join ride: %w", Conflict("Ride is already full"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(nil, KindConflict))
	assert.Equal(t, "Ride is already full", PublicMessage(err))
}

func TestInternalMessageDoesNotLeak(t *testing.T) {
	err := Internal("accept ride", errors.New("pq: connection reset"))

	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("raw")))
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := UnknownEntity("constituency", "Atlantis")
	wrapped := Wrap(base, "map click")

	assert.Equal(t, CodeUnknownEntity, GetCode(wrapped))
	assert.True(t, Is(wrapped, CodeUnknownEntity))
	assert.Contains(t, wrapped.Error(), "Atlantis")
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrapf(fmt.Errorf("boom"), "fetch %s", "parties")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "fetch parties: boom", wrapped.Error())
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetCode(Wrapf(NotFound("parties.json"), "loading %s", "parties")))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.True(t, Is(fmt.Errorf("fetch: %w", NotFound("parties.json")), CodeNotFound))
	assert.False(t, Is(fmt.Errorf("plain"), CodeNotFound))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown route", UnknownRoute("#nowhere"), http.StatusNotFound},
		{"unknown entity", UnknownEntity("party", "whigs"), http.StatusNotFound},
		{"invalid input", InvalidInput("missing name"), http.StatusBadRequest},
		{"upstream", ExternalServiceError("results api", fmt.Errorf("502")), http.StatusBadGateway},
		{"render", RenderFailure("nav", fmt.Errorf("bad template")), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

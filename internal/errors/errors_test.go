package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"gotercih/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCode_DomainSentinels(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{core.ErrInvalidTolerance, CodeInvalidQuery, http.StatusBadRequest},
		{core.NewQueryError("İLÇE", "unknown"), CodeInvalidQuery, http.StatusBadRequest},
		{core.NewMissingColumnError("ALAN", "category"), CodeSchemaInvalid, http.StatusBadGateway},
		{core.NewSourceError("okullar.csv", stderrors.New("no such file")), CodeSourceError, http.StatusBadGateway},
		{fmt.Errorf("match: %w", core.ErrNotLoaded), CodeNotLoaded, http.StatusServiceUnavailable},
		{stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{InvalidInput("bad body"), CodeInvalidInput, http.StatusBadRequest},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, GetCode(tc.err), "err %v", tc.err)
		assert.Equal(t, tc.status, HTTPStatus(tc.err), "err %v", tc.err)
	}
}

func TestWrap_KeepsCodeAndChain(t *testing.T) {
	err := Wrap(core.ErrInvalidCenter, "failed to build query")
	assert.Equal(t, CodeInvalidQuery, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrInvalidQuery))
	assert.Equal(t, "failed to build query: invalid query: center", err.Error())

	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, CodeConfigInvalid, GetCode(Wrapf(ConfigInvalid("PORT"), "load %d", 1)))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("missing"))
	assert.True(t, IsAppError(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

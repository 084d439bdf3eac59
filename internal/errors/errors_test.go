package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/raw-labs/machine-prediction-demo/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCodeFromDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"not found", core.NewNotFoundError("dataset", "x"), CodeNotFound, http.StatusNotFound},
		{"invalid parameter", core.NewInvalidParameterError("classifier", "out of range"), CodeInvalidParameter, http.StatusBadRequest},
		{"insufficient data", core.NewInsufficientDataError("no failures"), CodeInsufficientData, http.StatusUnprocessableEntity},
		{"inconsistent schema", core.NewInconsistentSchemaError(3, 2, 4), CodeInconsistentSchema, http.StatusUnprocessableEntity},
		{"upstream", &core.UpstreamError{Status: 500, Message: "boom"}, CodeUpstreamQuery, http.StatusBadGateway},
		{"plain", stderrors.New("disk full"), CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrapKeepsDomainCode(t *testing.T) {
	err := Wrap(fmt.Errorf("loading: %w", core.ErrDatasetNotFound), "train request failed")

	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrNotFound))
	assert.Contains(t, err.Error(), "train request failed")
}

func TestWithCodeOverrides(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad json"))

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.True(t, IsAppError(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

package ui

import (
	stderrors "errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	apperrors "github.com/raw-labs/machine-prediction-demo/internal/errors"
)

// errorBody is the JSON shape of every failed request
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// fail aborts the request with the status mapped from err
func (s *Server) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	switch {
	case core.IsUpstreamError(err):
		s.logger.Warn("%s %s: upstream: %v", c.Request.Method, c.FullPath(), err)
	case status >= 500:
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	default:
		s.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error(), Code: apperrors.GetCode(err)})
}

// bindJSON decodes the request body, reporting malformed JSON as invalid
// input and failed binding rules as invalid parameters.
func (s *Server) bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("failed %q validation", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
		}
		s.fail(c, core.NewInvalidParameterError(fe.Field(), reason))
		return false
	}
	s.fail(c, apperrors.InvalidInput("malformed request body: "+err.Error()))
	return false
}

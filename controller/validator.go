package controller

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/timera-ai/timera-api/common/tools"
)

// toolid rejects requests naming a tool that is not in the catalog before
// they reach the service layer.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("toolid", func(fl validator.FieldLevel) bool {
		return tools.GetById(fl.Field().String()) != nil
	})
}

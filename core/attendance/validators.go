package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	dateOnlyTag  = "dateonly"
	dateOnlyText = "date must be formatted as YYYY-MM-DD"

	hourSlotTag  = "hourslot"
	hourSlotText = "hour must be between 0 and 23"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(dateOnlyTag, dateOnlyValidation)
	core.RegisterCustomTranslation(dateOnlyTag, dateOnlyText)

	_ = core.Validate.RegisterValidation(hourSlotTag, hourSlotValidation)
	core.RegisterCustomTranslation(hourSlotTag, hourSlotText)
}

// dateOnlyValidation only allows calendar dates without a time component.
func dateOnlyValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateFormat, fl.Field().String())
	return err == nil
}

func hourSlotValidation(fl validator.FieldLevel) bool {
	h := fl.Field().Int()
	return 0 <= h && h <= 23
}

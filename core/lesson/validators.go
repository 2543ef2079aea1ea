package lesson

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	endAfterStartTag  = "endafterstart"
	endAfterStartText = "end_time must be after start_time"
)

// InitValidators registers this package's custom validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(timeSlotStructValidation, TimeSlot{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

// timeSlotStructValidation rejects windows that do not end strictly after they
// start. Field-level `timeofday` checks run first, so Window only fails here
// when a time field is already reported invalid.
func timeSlotStructValidation(sl validator.StructLevel) {
	slot := sl.Current().Interface().(TimeSlot)
	start, end, err := slot.Window()
	if err != nil {
		return
	}
	if !end.After(start) {
		sl.ReportError(slot.EndTime, "EndTime", "end_time", endAfterStartTag, "")
	}
}

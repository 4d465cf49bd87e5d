package callmanager

import "github.com/arzzra/call_manager/pkg/call"

// Экстренные номера, распознаваемые без обращения к сети.
// Полная классификация с учетом SIM-карты живет на нижнем уровне.
var emergencyNumbers = map[string]bool{
	"112": true,
	"911": true,
	"110": true,
	"119": true,
	"120": true,
	"122": true,
	"999": true,
	"000": true,
	"08":  true,
}

// IsEmergencyNumber классифицирует номер как экстренный. Ошибка
// классификации не запрещает набор, вызывающая сторона решает сама.
func IsEmergencyNumber(number string, slotID int) (bool, error) {
	if number == "" {
		return false, call.NewValidationError(call.CodePhoneNumberEmpty,
			"пустой номер для классификации")
	}
	if slotID < 0 {
		return false, call.NewValidationError(call.CodeInvalidSlotID,
			"недопустимый слот %d", slotID)
	}
	return emergencyNumbers[number], nil
}

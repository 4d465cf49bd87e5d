package call

// Лимит участников конференции для IMS-вызовов. IMS-ядро допускает
// больше участников, чем канальная коммутация.
const imsConferenceLimit = 8

// imsDialingProcess проверка начала набора для IMS-вызова
func (c *Call) imsDialingProcess() error {
	if c.phoneNumber == "" {
		return NewValidationError(CodePhoneNumberEmpty,
			"пустой номер у исходящего IMS-вызова").WithCallID(c.callID)
	}
	return nil
}

// imsConferencePartyLimit возвращает лимит участников для IMS-конференции
func (c *Call) imsConferencePartyLimit() int {
	return imsConferenceLimit
}

package call

// Лимит участников конференции для CS-вызовов, включая главный вызов.
// Значение навязано оператором канальной коммутации.
const csConferenceLimit = 5

// csDialingProcess проверка начала набора для CS-вызова
func (c *Call) csDialingProcess() error {
	if c.phoneNumber == "" {
		return NewValidationError(CodePhoneNumberEmpty,
			"пустой номер у исходящего CS-вызова").WithCallID(c.callID)
	}
	return nil
}

// csConferencePartyLimit возвращает лимит участников для CS-конференции
func (c *Call) csConferencePartyLimit() int {
	return csConferenceLimit
}

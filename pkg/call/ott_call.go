package call

// OTT-вызовы не сливаются в операторскую конференцию: приложение само
// управляет своими группами. Лимит 0 запрещает CombineConference.
const ottConferenceLimit = 0

// ottDialingProcess проверка начала набора для OTT-вызова.
// OTT-вызов обязан нести имя приложения-инициатора.
func (c *Call) ottDialingProcess() error {
	if c.phoneNumber == "" {
		return NewValidationError(CodePhoneNumberEmpty,
			"пустой номер у исходящего OTT-вызова").WithCallID(c.callID)
	}
	if c.bundleName == "" {
		return NewValidationError(CodeStateMismatch,
			"OTT-вызов без bundleName").WithCallID(c.callID)
	}
	return nil
}

// ottConferencePartyLimit возвращает лимит участников для OTT-конференции
func (c *Call) ottConferencePartyLimit() int {
	return ottConferenceLimit
}

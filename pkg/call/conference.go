package call

// Конференция моделируется отношением на записях вызовов: один главный
// вызов и множество подчиненных. Запись состоит не более чем в одной
// конференции. Межзаписное связывание (добавление подчиненного в список
// главного) выполняет реконсилятор, владеющий реестром; здесь только
// локальная для записи часть.

// ConferenceState возвращает состояние участия в конференции
func (c *Call) ConferenceState() TelConferenceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conferenceState
}

// SetTelConferenceState устанавливает состояние участия в конференции
func (c *Call) SetTelConferenceState(state TelConferenceState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conferenceState = state
}

// GetMainCallID возвращает id главного вызова конференции.
// Для главного вызова это собственный id, вне конференции ErrID.
func (c *Call) GetMainCallID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mainCallID == 0 {
		return ErrID
	}
	return c.mainCallID
}

// GetSubCallIDList возвращает список подчиненных вызовов.
// Непустой только у главного вызова.
func (c *Call) GetSubCallIDList() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.subCallIDs))
	for id := range c.subCallIDs {
		ids = append(ids, id)
	}
	return ids
}

// GetCallIDListForConference возвращает всех участников конференции,
// включая главный вызов
func (c *Call) GetCallIDListForConference() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mainCallID == 0 {
		return nil
	}
	ids := make([]int, 0, len(c.subCallIDs)+1)
	ids = append(ids, c.mainCallID)
	for id := range c.subCallIDs {
		ids = append(ids, id)
	}
	return ids
}

// MarkConferencePending помечает вызов целью слияния: когда нижний уровень
// переведет его в активное состояние, LaunchConference свяжет его с главным
func (c *Call) MarkConferencePending(mainCallID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingMainID = mainCallID
}

// LaunchConference завершает отложенное слияние при переходе в активное
// состояние. Возвращает id главного вызова, с которым надо связаться.
func (c *Call) LaunchConference() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingMainID == 0 {
		return ErrID, NewPolicyError(CodeNotConferenceMember,
			"вызов %d не ожидает слияния в конференцию", c.callID).WithCallID(c.callID)
	}
	mainID := c.pendingMainID
	c.pendingMainID = 0
	c.mainCallID = mainID
	c.conferenceState = TelConferenceActive
	return mainID, nil
}

// PromoteToMain делает вызов главным в конференции
func (c *Call) PromoteToMain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mainCallID = c.callID
	c.conferenceState = TelConferenceActive
}

// AddSubCall добавляет подчиненный вызов (только у главного)
func (c *Call) AddSubCall(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subCallIDs[id] = true
}

// RemoveSubCall убирает подчиненный вызов из списка главного
func (c *Call) RemoveSubCall(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subCallIDs, id)
}

// HoldConference обрабатывает постановку участника конференции на
// удержание: главный вызов на удержании выводит конференцию из активного
// режима, остальное не трогаем
func (c *Call) HoldConference() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mainCallID == 0 {
		return NewPolicyError(CodeNotConferenceMember,
			"вызов %d не состоит в конференции", c.callID).WithCallID(c.callID)
	}
	if c.conferenceState == TelConferenceActive {
		c.conferenceState = TelConferenceHolding
	}
	return nil
}

// ExitConference отвязывает вызов от конференции при его завершении или
// разделении. Возвращает id бывшего главного вызова, чтобы вызывающая
// сторона убрала запись из его списка подчиненных.
func (c *Call) ExitConference() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mainCallID == 0 || c.mainCallID == c.callID {
		return ErrID, NewPolicyError(CodeNotConferenceMember,
			"вызов %d не является подчиненным в конференции", c.callID).WithCallID(c.callID)
	}
	mainID := c.mainCallID
	c.mainCallID = 0
	c.conferenceState = TelConferenceIdle
	return mainID, nil
}

// DropConferenceRelation полностью сбрасывает отношение конференции.
// Используется, когда главный вызов завершает конференцию.
func (c *Call) DropConferenceRelation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mainCallID = 0
	c.pendingMainID = 0
	c.conferenceState = TelConferenceIdle
	c.subCallIDs = make(map[int]bool)
}

// conferencePartyLimit возвращает навязанный оператором лимит участников
func (c *Call) conferencePartyLimit() int {
	switch c.callType {
	case TypeCS:
		return c.csConferencePartyLimit()
	case TypeIMS:
		return c.imsConferencePartyLimit()
	default:
		return c.ottConferencePartyLimit()
	}
}

// CanCombineConference проверяет, может ли вызов стать главным в
// конференции с еще одним участником
func (c *Call) CanCombineConference() error {
	limit := c.conferencePartyLimit()
	if limit == 0 {
		return NewPolicyError(CodeConferenceNotAllowed,
			"вызовы типа %s не поддерживают операторскую конференцию", c.callType).WithCallID(c.callID)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Главный + уже собранные подчиненные + новый участник
	if len(c.subCallIDs)+2 > limit {
		return NewPolicyError(CodeConferenceLimit,
			"превышен лимит участников конференции (%d)", limit).WithCallID(c.callID)
	}
	return nil
}

// CanSeparateConference проверяет, можно ли отделить вызов от конференции
func (c *Call) CanSeparateConference() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mainCallID == 0 {
		return NewPolicyError(CodeNotConferenceMember,
			"вызов %d не состоит в конференции", c.callID).WithCallID(c.callID)
	}
	if c.mainCallID == c.callID {
		return NewPolicyError(CodeConferenceNotAllowed,
			"главный вызов %d нельзя отделить от собственной конференции", c.callID).WithCallID(c.callID)
	}
	return nil
}

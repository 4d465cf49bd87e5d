package callmanager

import (
	"github.com/arzzra/call_manager/pkg/call"
)

// SettingsManager операции уровня слота: ожидание вызова, запреты,
// переадресация, конфигурация IMS, режим LTE-enhance. Состояния вызовов
// не требуется, только валидный слот; сами запросы уходят нижнему
// уровню через воркер.
type SettingsManager struct {
	policy *CallPolicy
	worker *RequestWorker
	core   CoreService
}

// NewSettingsManager создает менеджер настроек
func NewSettingsManager(policy *CallPolicy, worker *RequestWorker, core CoreService) *SettingsManager {
	return &SettingsManager{policy: policy, worker: worker, core: core}
}

// submit общий путь: проверка слота, проверка зависимости, очередь
func (sm *SettingsManager) submit(slotID int, op string, fn func() error) error {
	if err := sm.policy.SlotPolicy(slotID); err != nil {
		return err
	}
	if sm.core == nil {
		return call.NewDependencyError("нижний уровень не инициализирован")
	}
	return sm.worker.Submit(op, fn)
}

// GetCallWaiting запрашивает состояние ожидания вызова
func (sm *SettingsManager) GetCallWaiting(slotID int) error {
	return sm.submit(slotID, "get_call_waiting", func() error {
		return sm.core.GetCallWaiting(slotID)
	})
}

// SetCallWaiting включает или выключает ожидание вызова
func (sm *SettingsManager) SetCallWaiting(slotID int, activate bool) error {
	return sm.submit(slotID, "set_call_waiting", func() error {
		return sm.core.SetCallWaiting(slotID, activate)
	})
}

// GetCallRestriction запрашивает состояние запрета вызовов
func (sm *SettingsManager) GetCallRestriction(slotID int, restrictionType CallRestrictionType) error {
	return sm.submit(slotID, "get_call_restriction", func() error {
		return sm.core.GetCallRestriction(slotID, restrictionType)
	})
}

// SetCallRestriction устанавливает запрет вызовов
func (sm *SettingsManager) SetCallRestriction(slotID int, info CallRestrictionInfo) error {
	return sm.submit(slotID, "set_call_restriction", func() error {
		return sm.core.SetCallRestriction(slotID, info)
	})
}

// GetCallTransferInfo запрашивает параметры переадресации
func (sm *SettingsManager) GetCallTransferInfo(slotID int, transferType CallTransferType) error {
	return sm.submit(slotID, "get_call_transfer", func() error {
		return sm.core.GetCallTransferInfo(slotID, transferType)
	})
}

// SetCallTransferInfo устанавливает переадресацию
func (sm *SettingsManager) SetCallTransferInfo(slotID int, info CallTransferInfo) error {
	if info.Enable && info.TransferNum == "" {
		return call.NewValidationError(call.CodePhoneNumberEmpty,
			"пустой номер переадресации")
	}
	if len(info.TransferNum) > call.MaxNumberLen {
		return call.NewValidationError(call.CodeNumberOutOfRange,
			"номер переадресации длиннее лимита %d", call.MaxNumberLen)
	}
	return sm.submit(slotID, "set_call_transfer", func() error {
		return sm.core.SetCallTransferInfo(slotID, info)
	})
}

// GetImsConfig запрашивает параметр IMS
func (sm *SettingsManager) GetImsConfig(slotID int, item ImsConfigItem) error {
	return sm.submit(slotID, "get_ims_config", func() error {
		return sm.core.GetImsConfig(slotID, item)
	})
}

// SetImsConfig устанавливает параметр IMS
func (sm *SettingsManager) SetImsConfig(slotID int, item ImsConfigItem, value string) error {
	return sm.submit(slotID, "set_ims_config", func() error {
		return sm.core.SetImsConfig(slotID, item, value)
	})
}

// GetImsFeatureValue запрашивает значение возможности IMS
func (sm *SettingsManager) GetImsFeatureValue(slotID int, featureType FeatureType) error {
	return sm.submit(slotID, "get_ims_feature", func() error {
		return sm.core.GetImsFeatureValue(slotID, featureType)
	})
}

// SetImsFeatureValue устанавливает значение возможности IMS
func (sm *SettingsManager) SetImsFeatureValue(slotID int, featureType FeatureType, value int) error {
	return sm.submit(slotID, "set_ims_feature", func() error {
		return sm.core.SetImsFeatureValue(slotID, featureType, value)
	})
}

// EnableImsSwitch включает VoLTE
func (sm *SettingsManager) EnableImsSwitch(slotID int) error {
	return sm.submit(slotID, "enable_ims_switch", func() error {
		return sm.core.EnableImsSwitch(slotID)
	})
}

// DisableImsSwitch выключает VoLTE
func (sm *SettingsManager) DisableImsSwitch(slotID int) error {
	return sm.submit(slotID, "disable_ims_switch", func() error {
		return sm.core.DisableImsSwitch(slotID)
	})
}

// IsImsSwitchEnabled запрашивает состояние VoLTE
func (sm *SettingsManager) IsImsSwitchEnabled(slotID int) error {
	return sm.submit(slotID, "is_ims_switch_enabled", func() error {
		return sm.core.IsImsSwitchEnabled(slotID)
	})
}

// SetLteEnhanceMode устанавливает режим LTE-enhance
func (sm *SettingsManager) SetLteEnhanceMode(slotID int, value bool) error {
	return sm.submit(slotID, "set_lte_enhance_mode", func() error {
		return sm.core.SetLteEnhanceMode(slotID, value)
	})
}

// GetLteEnhanceMode запрашивает режим LTE-enhance
func (sm *SettingsManager) GetLteEnhanceMode(slotID int) error {
	return sm.submit(slotID, "get_lte_enhance_mode", func() error {
		return sm.core.GetLteEnhanceMode(slotID)
	})
}

package callmanager_test

import (
	"sync"

	"github.com/arzzra/call_manager/pkg/call"
	"github.com/arzzra/call_manager/pkg/callmanager"
)

// fakeCore фиксирует команды, пересланные нижнему уровню
type fakeCore struct {
	mu  sync.Mutex
	ops []string

	failAll bool
}

func newFakeCore() *fakeCore {
	return &fakeCore{}
}

func (f *fakeCore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	if f.failAll {
		return call.NewDependencyError("нижний уровень недоступен")
	}
	return nil
}

func (f *fakeCore) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeCore) OpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

func (f *fakeCore) Dial(para call.DialParaInfo) error { return f.record("dial:" + para.Number) }
func (f *fakeCore) Answer(callID int, videoState call.VideoStateType) error {
	return f.record("answer")
}
func (f *fakeCore) Reject(callID int, sendSms bool, content string) error {
	return f.record("reject")
}
func (f *fakeCore) HangUp(callID int) error            { return f.record("hangup") }
func (f *fakeCore) Hold(callID int) error              { return f.record("hold") }
func (f *fakeCore) UnHold(callID int) error            { return f.record("unhold") }
func (f *fakeCore) SwitchCall(callID int) error        { return f.record("switch") }
func (f *fakeCore) CombineConference(mainID int) error { return f.record("combine") }
func (f *fakeCore) SeparateConference(callID int) error {
	return f.record("separate")
}
func (f *fakeCore) JoinConference(callID int, numbers []string) error {
	return f.record("join")
}
func (f *fakeCore) StartDtmf(callID int, digit rune) error { return f.record("start_dtmf") }
func (f *fakeCore) StopDtmf(callID int) error              { return f.record("stop_dtmf") }
func (f *fakeCore) StartRtt(callID int, msg string) error  { return f.record("start_rtt") }
func (f *fakeCore) StopRtt(callID int) error               { return f.record("stop_rtt") }
func (f *fakeCore) UpdateImsCallMode(callID int, mode callmanager.ImsCallMode) error {
	return f.record("update_ims_call_mode")
}
func (f *fakeCore) GetCallWaiting(slotID int) error { return f.record("get_call_waiting") }
func (f *fakeCore) SetCallWaiting(slotID int, activate bool) error {
	return f.record("set_call_waiting")
}
func (f *fakeCore) GetCallRestriction(slotID int, t callmanager.CallRestrictionType) error {
	return f.record("get_call_restriction")
}
func (f *fakeCore) SetCallRestriction(slotID int, info callmanager.CallRestrictionInfo) error {
	return f.record("set_call_restriction")
}
func (f *fakeCore) GetCallTransferInfo(slotID int, t callmanager.CallTransferType) error {
	return f.record("get_call_transfer")
}
func (f *fakeCore) SetCallTransferInfo(slotID int, info callmanager.CallTransferInfo) error {
	return f.record("set_call_transfer")
}
func (f *fakeCore) GetImsConfig(slotID int, item callmanager.ImsConfigItem) error {
	return f.record("get_ims_config")
}
func (f *fakeCore) SetImsConfig(slotID int, item callmanager.ImsConfigItem, value string) error {
	return f.record("set_ims_config")
}
func (f *fakeCore) GetImsFeatureValue(slotID int, t callmanager.FeatureType) error {
	return f.record("get_ims_feature")
}
func (f *fakeCore) SetImsFeatureValue(slotID int, t callmanager.FeatureType, value int) error {
	return f.record("set_ims_feature")
}
func (f *fakeCore) EnableImsSwitch(slotID int) error  { return f.record("enable_ims_switch") }
func (f *fakeCore) DisableImsSwitch(slotID int) error { return f.record("disable_ims_switch") }
func (f *fakeCore) IsImsSwitchEnabled(slotID int) error {
	return f.record("is_ims_switch_enabled")
}
func (f *fakeCore) SetLteEnhanceMode(slotID int, value bool) error {
	return f.record("set_lte_enhance_mode")
}
func (f *fakeCore) GetLteEnhanceMode(slotID int) error { return f.record("get_lte_enhance_mode") }

// fakeAudio фиксирует звуковые побочные эффекты
type fakeAudio struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudio) act(a string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
}

func (f *fakeAudio) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.actions))
	copy(out, f.actions)
	return out
}

func (f *fakeAudio) SetVolumeAudible() { f.act("volume_audible") }
func (f *fakeAudio) SetMute(mute bool) error {
	if mute {
		f.act("mute")
	} else {
		f.act("unmute")
	}
	return nil
}
func (f *fakeAudio) MuteRinger() error { f.act("mute_ringer"); return nil }
func (f *fakeAudio) SetAudioDevice(device callmanager.AudioDevice) error {
	f.act("set_device")
	return nil
}

// recordingObserver фиксирует рассылку событий; опционально паникует
type recordingObserver struct {
	name   string
	panics bool

	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) event(e string) {
	if o.panics {
		panic("наблюдатель " + o.name + " сломан")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	copy(out, o.events)
	return out
}

func (o *recordingObserver) NewCallCreated(c *call.Call) { o.event("created:" + c.PhoneNumber()) }
func (o *recordingObserver) CallDestroyed(cause int32)   { o.event("destroyed") }
func (o *recordingObserver) CallStateUpdated(c *call.Call, prior, next call.TelCallState) {
	o.event("updated:" + prior.String() + "->" + next.String())
}
func (o *recordingObserver) IncomingCallActivated(c *call.Call) { o.event("activated") }
func (o *recordingObserver) IncomingCallHungUp(c *call.Call, sendSms bool, content string) {
	o.event("hung_up")
}
func (o *recordingObserver) CallEventUpdated(info callmanager.CallEventInfo) {
	o.event("event:" + info.EventID.String())
}

// fakeFilterProvider черный список и отложенная классификация
type fakeFilterProvider struct {
	blocked []string
	pending map[string]bool
}

func (f *fakeFilterProvider) LoadBlocked() []string { return f.blocked }
func (f *fakeFilterProvider) Classify(number string) callmanager.FilterResult {
	if f.pending[number] {
		return callmanager.FilterPending
	}
	return callmanager.FilterAllow
}

// newTestManager собирает плоскость управления с фейковыми зависимостями
func newTestManager(core *fakeCore, audio *fakeAudio) *callmanager.CallManager {
	cfg := callmanager.Config{
		Core:      core,
		SlotCount: 2,
	}
	if audio != nil {
		cfg.Audio = audio
	}
	m, err := callmanager.New(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

package event

// Api
type ApiEvent struct {
	Result chan ApiEventResult
	Data   interface{}
}

type ApiEventResult struct {
	DisplayOn bool
	Err       error
}

type ApiEventDisplaySwitchData struct{}

type ApiEventDisplayPowerData struct {
	On bool
}

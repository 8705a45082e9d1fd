package api

// Response is the envelope every endpoint answers with.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// LightInfo describes one light in API responses.
type LightInfo struct {
	Name       string `json:"name"`
	UniqueID   string `json:"unique_id"`
	On         bool   `json:"on"`
	Brightness uint8  `json:"brightness"`
	Fading     bool   `json:"fading"`
}

// LightListResponse lists every registered light.
type LightListResponse struct {
	Lights []LightInfo `json:"lights"`
	Total  int         `json:"total"`
}

// TurnOnRequest asks for a light to be switched on. Brightness is in the
// usual 0-255 home automation units and defaults to full. Transition is the
// fade time in seconds.
type TurnOnRequest struct {
	Brightness *uint8  `json:"brightness"`
	Transition float64 `json:"transition"`
}

// TurnOffRequest asks for a light to be switched off.
type TurnOffRequest struct {
	Transition float64 `json:"transition"`
}

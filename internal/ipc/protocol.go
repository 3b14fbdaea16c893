package ipc

import "encoding/json"

// Request is one client command. Text carries recognized or spoken text;
// Args carries command flags such as a category or room id.
type Request struct {
	Command string            `json:"command"`
	Text    string            `json:"text,omitempty"`
	Args    map[string]string `json:"args,omitempty"`
}

// Arg returns the named argument or an empty string.
func (r Request) Arg(name string) string {
	if r.Args == nil {
		return ""
	}
	return r.Args[name]
}

// Response is the owner's reply. Data holds a command-specific JSON payload
// such as a transcript snapshot or the current feedback.
type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WithData returns resp carrying v encoded as JSON. An encoding failure
// turns the response into an error.
func (resp Response) WithData(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		resp.OK = false
		resp.Error = "encode response data: " + err.Error()
		return resp
	}
	resp.Data = raw
	return resp
}

// DecodeData unmarshals the response payload into v.
func (resp Response) DecodeData(v any) error {
	if len(resp.Data) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Data, v)
}

package model

type ResponseType string

const (
	ResponseText           ResponseType = "text"
	ResponseMultipleChoice ResponseType = "multiple_choice"
	ResponseFillIn         ResponseType = "fill_in"
)

// TurnResponse is the JSON body returned for every turn, including soft failures.
type TurnResponse struct {
	ResponseType ResponseType `json:"response_type"`
	Response     string       `json:"response,omitempty"`
	Prompt       string       `json:"prompt,omitempty"`
	Options      []string     `json:"options,omitempty"`
	Placeholder  string       `json:"placeholder,omitempty"`
}

func TextResponse(text string) *TurnResponse {
	return &TurnResponse{ResponseType: ResponseText, Response: text}
}

func ChoiceResponse(prompt string, options []string, placeholder string) *TurnResponse {
	return &TurnResponse{
		ResponseType: ResponseMultipleChoice,
		Prompt:       prompt,
		Options:      append([]string(nil), options...),
		Placeholder:  placeholder,
	}
}

func FillInResponse(prompt, placeholder string) *TurnResponse {
	return &TurnResponse{ResponseType: ResponseFillIn, Prompt: prompt, Placeholder: placeholder}
}

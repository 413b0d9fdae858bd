package voice

import (
	"encoding/xml"
	"fmt"
)

// TwiML-ответы для сценария голосового подтверждения.
// Структуры сериализуются в XML, который Twilio проигрывает оператору.

type gatherResponse struct {
	XMLName xml.Name `xml:"Response"`
	Gather  gather   `xml:"Gather"`
	Say     string   `xml:"Say"`
}

type gather struct {
	NumDigits int    `xml:"numDigits,attr"`
	Action    string `xml:"action,attr"`
	Method    string `xml:"method,attr"`
	Say       string `xml:"Say"`
}

type sayResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     string   `xml:"Say"`
}

// ApprovalPrompt строит TwiML с запросом одной клавиши.
// actionURL уже содержит crisis_id в параметрах запроса.
func ApprovalPrompt(prompt, actionURL string) ([]byte, error) {
	resp := gatherResponse{
		Gather: gather{
			NumDigits: 1,
			Action:    actionURL,
			Method:    "POST",
			Say:       prompt,
		},
		Say: "No input received. Goodbye.",
	}
	out, err := xml.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approval prompt: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// SayResponse строит TwiML с одной голосовой фразой
func SayResponse(text string) ([]byte, error) {
	out, err := xml.Marshal(sayResponse{Say: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal say response: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

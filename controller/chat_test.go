package controller

import "testing"

func TestChatTurnTokens(t *testing.T) {
	promptTokens, completionTokens := chatTurnTokens(
		"Draft me a script about night markets in Taipei",
		"Sure. Night markets in Taipei come alive after sunset, and the food tells the city's story.",
	)
	if promptTokens <= 0 {
		t.Errorf("promptTokens = %d, want > 0", promptTokens)
	}
	if completionTokens <= 0 {
		t.Errorf("completionTokens = %d, want > 0", completionTokens)
	}
	if completionTokens <= promptTokens {
		t.Errorf("longer reply should cost more: prompt=%d completion=%d", promptTokens, completionTokens)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	messages := []ChatMessage{
		{Role: "user", Content: "an idea"},
		{Role: "assistant", Content: "a reply"},
	}
	decoded := decodeMessages(encodeMessages(messages))
	if len(decoded) != 2 || decoded[0].Content != "an idea" || decoded[1].Role != "assistant" {
		t.Errorf("decoded = %+v", decoded)
	}
	if got := decodeMessages(""); got != nil {
		t.Errorf("decodeMessages(\"\") = %+v, want nil", got)
	}
}

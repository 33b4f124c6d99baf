package vkteamsbot

import (
	"encoding/json"
	"testing"
)

func TestEventUnmarshalNewMessage(t *testing.T) {
	raw := `{
		"eventId": 42,
		"type": "newMessage",
		"payload": {
			"msgId": "msg-1",
			"chat": {"chatId": "chat-1", "type": "private"},
			"from": {"userId": "user-1", "firstName": "Ada"},
			"text": "hello",
			"timestamp": 1700000000
		}
	}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventID != 42 {
		t.Errorf("EventID = %d, want 42", ev.EventID)
	}
	p, ok := ev.Payload.(NewMessagePayload)
	if !ok {
		t.Fatalf("Payload type = %T, want NewMessagePayload", ev.Payload)
	}
	if p.Text != "hello" || p.Chat.ChatID != "chat-1" || p.From.UserID != "user-1" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestEventUnmarshalCallbackQuery(t *testing.T) {
	raw := `{"eventId": 7, "type": "callbackQuery", "payload": {
		"queryId": "q1", "from": {"userId": "u1"}, "chat": {"chatId": "c1"},
		"callbackData": "noop"
	}}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p, ok := ev.Payload.(CallbackQueryPayload)
	if !ok {
		t.Fatalf("Payload type = %T, want CallbackQueryPayload", ev.Payload)
	}
	if p.CallbackData != "noop" {
		t.Errorf("CallbackData = %q, want noop", p.CallbackData)
	}
}

func TestEventUnmarshalUnknownType(t *testing.T) {
	raw := `{"eventId": 1, "type": "somethingNew", "payload": {"x": 1}}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := ev.Payload.(map[string]interface{}); !ok {
		t.Fatalf("expected unknown payload to decode to map, got %T", ev.Payload)
	}
}

func TestBuildFormatGroupsByKind(t *testing.T) {
	spans := []Span{
		{Kind: SpanBold, Offset: 0, Length: 5},
		{Kind: SpanBold, Offset: 10, Length: 3},
		{Kind: SpanLink, Offset: 0, Length: 5, URL: "https://example.com"},
	}
	f := BuildFormat(spans)
	if len(f["bold"]) != 2 {
		t.Errorf("bold spans = %d, want 2", len(f["bold"]))
	}
	if len(f["link"]) != 1 || f["link"][0].URL != "https://example.com" {
		t.Errorf("link span wrong: %+v", f["link"])
	}
}

func TestBuildFormatEmpty(t *testing.T) {
	if BuildFormat(nil) != nil {
		t.Error("expected nil Format for no spans")
	}
}

func TestInlineKeyboardEncode(t *testing.T) {
	kb := InlineKeyboard{
		{{Text: "Yes", CallbackData: "yes"}, {Text: "No", CallbackData: "no"}},
	}
	s, err := kb.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded InlineKeyboard
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		t.Fatalf("decode back: %v", err)
	}
	if len(decoded) != 1 || len(decoded[0]) != 2 || decoded[0][0].Text != "Yes" {
		t.Errorf("roundtrip mismatch: %+v", decoded)
	}
}

func TestInlineKeyboardEncodeEmpty(t *testing.T) {
	var kb InlineKeyboard
	s, err := kb.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if s != "" {
		t.Errorf("Encode() of empty keyboard = %q, want empty", s)
	}
}

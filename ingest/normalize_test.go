package ingest

import (
	"encoding/json"
	"testing"

	vkteamsbot "github.com/vkteams-go/bot"
)

func TestEventCapturesChatAndUser(t *testing.T) {
	ev := vkteamsbot.Event{
		EventID: 7,
		Type:    vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID:     "m1",
			Chat:      vkteamsbot.Chat{ChatID: "c1"},
			From:      vkteamsbot.From{UserID: "u1"},
			Text:      "hi",
			Timestamp: 1700000000,
		},
	}
	row := Event(ev, json.RawMessage(`{}`))
	if row.EventIDWire != "7" {
		t.Errorf("EventIDWire = %q, want 7", row.EventIDWire)
	}
	if row.ChatID != "c1" || row.UserID != "u1" {
		t.Errorf("got chat=%q user=%q", row.ChatID, row.UserID)
	}
	if row.EventType != vkteamsbot.EventTypeNewMessage {
		t.Errorf("EventType = %q", row.EventType)
	}
}

func TestMessageFromNewMessage(t *testing.T) {
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID:     "m1",
			Chat:      vkteamsbot.Chat{ChatID: "c1"},
			From:      vkteamsbot.From{UserID: "u1"},
			Text:      "hello @bob",
			Timestamp: 1700000000,
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok=true for NewMessage")
	}
	if row.MessageID != "m1" || row.ChatID != "c1" || row.UserID != "u1" {
		t.Errorf("unexpected row: %+v", row)
	}
	if !row.HasMentions {
		t.Error("expected HasMentions=true")
	}
	if row.Mentions != `["bob"]` {
		t.Errorf("Mentions = %q, want [\"bob\"]", row.Mentions)
	}
}

func TestMessageNoMentions(t *testing.T) {
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			Text: "no mentions here",
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok")
	}
	if row.HasMentions || row.Mentions != "" {
		t.Errorf("expected no mentions, got %+v", row)
	}
}

func TestMessageFromEditedMessage(t *testing.T) {
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeEditedMessage,
		Payload: vkteamsbot.EditedMessagePayload{
			MsgID: "m2",
			Text:  "edited",
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok for EditedMessage")
	}
	if row.MessageID != "m2" {
		t.Errorf("MessageID = %q, want m2", row.MessageID)
	}
}

func TestMessageRejectsNonMessageVariant(t *testing.T) {
	ev := vkteamsbot.Event{
		Type:    vkteamsbot.EventTypePinnedMessage,
		Payload: vkteamsbot.PinnedMessagePayload{},
	}
	if _, ok := Message(ev); ok {
		t.Error("expected ok=false for a non-message variant")
	}
}

func TestMessageAttachmentsFromParts(t *testing.T) {
	filePayload, _ := json.Marshal(vkteamsbot.FilePart{FileID: "f1", Caption: "report.pdf"})
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID: "m1",
			Text:  "see attached",
			Parts: []vkteamsbot.Part{
				{Type: vkteamsbot.PartTypeFile, Payload: filePayload},
			},
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok")
	}
	if row.FileAttachments == "" {
		t.Error("expected non-empty FileAttachments")
	}
}

func TestMessageReplyPart(t *testing.T) {
	replyPayload, _ := json.Marshal(map[string]string{"msgId": "parent-1"})
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID: "m1",
			Text:  "reply text",
			Parts: []vkteamsbot.Part{
				{Type: vkteamsbot.PartTypeReply, Payload: replyPayload},
			},
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok")
	}
	if row.ReplyToMessageID != "parent-1" {
		t.Errorf("ReplyToMessageID = %q, want parent-1", row.ReplyToMessageID)
	}
}

func TestMessageMentionPartAugmentsTextScan(t *testing.T) {
	mentionPayload, _ := json.Marshal(map[string]string{"userId": "u-42"})
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID: "m1",
			Text:  "hey @alice check this out",
			Parts: []vkteamsbot.Part{
				{Type: vkteamsbot.PartTypeMention, Payload: mentionPayload},
			},
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok")
	}
	if !row.HasMentions {
		t.Fatal("expected HasMentions=true")
	}
	if row.Mentions != `["alice","u-42"]` {
		t.Errorf("Mentions = %q, want both the text handle and the part's user ID", row.Mentions)
	}
}

func TestMessageMentionPartAloneSetsHasMentions(t *testing.T) {
	mentionPayload, _ := json.Marshal(map[string]string{"userId": "u-7"})
	ev := vkteamsbot.Event{
		Type: vkteamsbot.EventTypeNewMessage,
		Payload: vkteamsbot.NewMessagePayload{
			MsgID: "m1",
			Text:  "no handle in the text",
			Parts: []vkteamsbot.Part{
				{Type: vkteamsbot.PartTypeMention, Payload: mentionPayload},
			},
		},
	}
	row, ok := Message(ev)
	if !ok {
		t.Fatal("expected ok")
	}
	if !row.HasMentions || row.Mentions != `["u-7"]` {
		t.Errorf("HasMentions=%v Mentions=%q, want true and [\"u-7\"]", row.HasMentions, row.Mentions)
	}
}

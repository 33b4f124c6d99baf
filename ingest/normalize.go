// Package ingest turns wire Events into the flat rows the relational store
// persists: one EventRow per event, and a derived MessageRow for the
// variants that carry message content.
package ingest

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// EventRow is the insert-only audit record of every event received.
type EventRow struct {
	EventIDWire string
	EventType   string
	ChatID      string
	UserID      string // empty when the event has no associated user
	Timestamp   time.Time
	RawPayload  json.RawMessage
}

// MessageRow is derived from NewMessage and EditedMessage events only.
type MessageRow struct {
	MessageID            string
	ChatID               string
	UserID               string
	Text                 string
	FormattedText        string // JSON-serialized Format, empty when absent
	ReplyToMessageID     string
	ForwardFromChatID    string
	ForwardFromMessageID string
	FileAttachments      string // JSON array, empty when none
	HasMentions          bool
	Mentions             string // JSON array of matched handles, empty when none
	Timestamp            time.Time
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Event builds the audit row for any event, regardless of variant.
func Event(ev vkteamsbot.Event, raw json.RawMessage) EventRow {
	row := EventRow{
		EventIDWire: eventIDString(ev.EventID),
		EventType:   ev.Type,
		RawPayload:  raw,
		Timestamp:   time.Now().UTC(),
	}

	switch p := ev.Payload.(type) {
	case vkteamsbot.NewMessagePayload:
		row.ChatID = string(p.Chat.ChatID)
		row.UserID = string(p.From.UserID)
		row.Timestamp = unixToTime(p.Timestamp)
	case vkteamsbot.EditedMessagePayload:
		row.ChatID = string(p.Chat.ChatID)
		row.UserID = string(p.From.UserID)
		row.Timestamp = unixToTime(p.Timestamp)
	case vkteamsbot.DeleteMessagePayload:
		row.ChatID = string(p.Chat.ChatID)
		row.Timestamp = unixToTime(p.Timestamp)
	case vkteamsbot.PinnedMessagePayload:
		row.ChatID = string(p.Chat.ChatID)
		row.UserID = string(p.From.UserID)
	case vkteamsbot.UnpinnedMessagePayload:
		row.ChatID = string(p.Chat.ChatID)
	case vkteamsbot.NewChatMembersPayload:
		row.ChatID = string(p.Chat.ChatID)
	case vkteamsbot.LeftChatMembersPayload:
		row.ChatID = string(p.Chat.ChatID)
	case vkteamsbot.CallbackQueryPayload:
		row.ChatID = string(p.Chat.ChatID)
		row.UserID = string(p.From.UserID)
		if p.Message != nil {
			row.Timestamp = time.Now().UTC()
		}
	}
	return row
}

// Message derives a MessageRow from a NewMessage or EditedMessage event.
// ok is false for every other variant.
func Message(ev vkteamsbot.Event) (MessageRow, bool) {
	switch p := ev.Payload.(type) {
	case vkteamsbot.NewMessagePayload:
		row := MessageRow{
			MessageID: string(p.MsgID),
			ChatID:    string(p.Chat.ChatID),
			UserID:    string(p.From.UserID),
			Text:      p.Text,
			Timestamp: unixToTime(p.Timestamp),
		}
		if p.Format != nil {
			row.FormattedText = marshalOrEmpty(*p.Format)
		}
		handles := textMentions(p.Text)
		handles = append(handles, applyParts(&row, p.Parts)...)
		applyMentions(&row, handles)
		return row, true

	case vkteamsbot.EditedMessagePayload:
		row := MessageRow{
			MessageID: string(p.MsgID),
			ChatID:    string(p.Chat.ChatID),
			UserID:    string(p.From.UserID),
			Text:      p.Text,
			Timestamp: unixToTime(p.Timestamp),
		}
		applyMentions(&row, textMentions(p.Text))
		return row, true

	default:
		return MessageRow{}, false
	}
}

// textMentions scans text for @handle references.
func textMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		handles = append(handles, m[1])
	}
	return handles
}

// applyMentions records the text-scanned @handles followed by the mention
// parts' user IDs; a handle found both ways appears twice.
func applyMentions(row *MessageRow, handles []string) {
	if len(handles) == 0 {
		return
	}
	row.HasMentions = true
	row.Mentions = marshalOrEmpty(handles)
}

// attachment is the stored shape of a File/Sticker/Voice part.
type attachment struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename,omitempty"`
}

type replyPart struct {
	MsgID string `json:"msgId"`
}

type forwardPart struct {
	ChatID string `json:"chatId"`
	MsgID  string `json:"msgId"`
}

// mentionPart is a Mention part's payload: the mentioned user, identified
// independently of the @handle text scan.
type mentionPart struct {
	UserID string `json:"userId"`
}

// applyParts fills in attachment/reply/forward fields from the parts list
// and returns the handles named by Mention parts, which augment (not
// replace) the @handle regex scan over the message text.
func applyParts(row *MessageRow, parts []vkteamsbot.Part) []string {
	var attachments []attachment
	var mentionHandles []string
	for _, part := range parts {
		switch part.Type {
		case vkteamsbot.PartTypeFile, vkteamsbot.PartTypeSticker, vkteamsbot.PartTypeVoice:
			var fp vkteamsbot.FilePart
			if err := json.Unmarshal(part.Payload, &fp); err == nil {
				attachments = append(attachments, attachment{
					Type:     part.Type,
					FileID:   string(fp.FileID),
					Filename: fp.Caption,
				})
			}
		case vkteamsbot.PartTypeReply:
			var rp replyPart
			if err := json.Unmarshal(part.Payload, &rp); err == nil {
				row.ReplyToMessageID = rp.MsgID
			}
		case vkteamsbot.PartTypeForward:
			var fw forwardPart
			if err := json.Unmarshal(part.Payload, &fw); err == nil {
				row.ForwardFromChatID = fw.ChatID
				row.ForwardFromMessageID = fw.MsgID
			}
		case vkteamsbot.PartTypeMention:
			var mp mentionPart
			if err := json.Unmarshal(part.Payload, &mp); err == nil && mp.UserID != "" {
				mentionHandles = append(mentionHandles, mp.UserID)
			}
		}
	}
	if len(attachments) > 0 {
		row.FileAttachments = marshalOrEmpty(attachments)
	}
	return mentionHandles
}

func marshalOrEmpty(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unixToTime(ts vkteamsbot.Timestamp) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func eventIDString(id vkteamsbot.EventId) string {
	return strconv.FormatUint(uint64(id), 10)
}

package vkteamsbot

import (
	"encoding/json"
	"fmt"
)

// --- Identifiers ---
//
// VK Teams identifiers are server-issued strings except EventID, which is a
// monotonically increasing counter scoped to the bot's event stream.

type ChatId string
type UserId string
type MsgId string
type FileId string
type QueryId string
type EventId uint32

// Timestamp is a Unix second count, as used throughout the bot API wire format.
type Timestamp int64

// --- Chat / user wire fragments, shared across payloads ---

type Chat struct {
	ChatID ChatId `json:"chatId"`
	Type   string `json:"type,omitempty"` // "private", "group", "channel"
	Title  string `json:"title,omitempty"`
}

type From struct {
	UserID    UserId `json:"userId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// --- Events ---
//
// Event is the tagged union returned by GET /events/get. Payload holds one
// of the *Payload types below, selected by Type.
type Event struct {
	EventID EventId     `json:"eventId"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventTypeNewMessage        = "newMessage"
	EventTypeEditedMessage     = "editedMessage"
	EventTypeDeleteMessage     = "deleteMessage"
	EventTypePinnedMessage     = "pinnedMessage"
	EventTypeUnpinnedMessage   = "unpinnedMessage"
	EventTypeNewChatMembers    = "newChatMembers"
	EventTypeLeftChatMembers   = "leftChatMembers"
	EventTypeCallbackQuery     = "callbackQuery"
)

type NewMessagePayload struct {
	MsgID     MsgId      `json:"msgId"`
	Chat      Chat       `json:"chat"`
	From      From       `json:"from"`
	Text      string     `json:"text"`
	Format    *Format    `json:"format,omitempty"`
	Parts     []Part     `json:"parts,omitempty"`
	Timestamp Timestamp  `json:"timestamp"`
}

type EditedMessagePayload struct {
	MsgID     MsgId     `json:"msgId"`
	Chat      Chat      `json:"chat"`
	From      From      `json:"from"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

type DeleteMessagePayload struct {
	MsgID     MsgId     `json:"msgId"`
	Chat      Chat      `json:"chat"`
	Timestamp Timestamp `json:"timestamp"`
}

type PinnedMessagePayload struct {
	MsgID MsgId `json:"msgId"`
	Chat  Chat  `json:"chat"`
	From  From  `json:"from"`
}

type UnpinnedMessagePayload struct {
	MsgID MsgId `json:"msgId"`
	Chat  Chat  `json:"chat"`
}

type NewChatMembersPayload struct {
	Chat       Chat   `json:"chat"`
	NewMembers []From `json:"newMembers"`
	AddedBy    *From  `json:"addedBy,omitempty"`
}

type LeftChatMembersPayload struct {
	Chat        Chat   `json:"chat"`
	LeftMembers []From `json:"leftMembers"`
	RemovedBy   *From  `json:"removedBy,omitempty"`
}

type CallbackQueryPayload struct {
	QueryID   QueryId `json:"queryId"`
	From      From    `json:"from"`
	Chat      Chat    `json:"chat"`
	Message   *struct {
		MsgID MsgId `json:"msgId"`
		Text  string `json:"text"`
	} `json:"message,omitempty"`
	CallbackData string `json:"callbackData"`
}

// UnmarshalJSON decodes Event.Payload into the concrete type selected by Type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		EventID EventId         `json:"eventId"`
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ErrSerialization{Op: "unmarshal event", Err: err}
	}
	e.EventID = raw.EventID
	e.Type = raw.Type

	var target interface{}
	switch raw.Type {
	case EventTypeNewMessage:
		target = &NewMessagePayload{}
	case EventTypeEditedMessage:
		target = &EditedMessagePayload{}
	case EventTypeDeleteMessage:
		target = &DeleteMessagePayload{}
	case EventTypePinnedMessage:
		target = &PinnedMessagePayload{}
	case EventTypeUnpinnedMessage:
		target = &UnpinnedMessagePayload{}
	case EventTypeNewChatMembers:
		target = &NewChatMembersPayload{}
	case EventTypeLeftChatMembers:
		target = &LeftChatMembersPayload{}
	case EventTypeCallbackQuery:
		target = &CallbackQueryPayload{}
	default:
		var m map[string]interface{}
		if err := json.Unmarshal(raw.Payload, &m); err != nil {
			return &ErrSerialization{Op: "unmarshal unknown payload", Err: err}
		}
		e.Payload = m
		return nil
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, target); err != nil {
			return &ErrSerialization{Op: fmt.Sprintf("unmarshal %s payload", raw.Type), Err: err}
		}
	}
	e.Payload = derefPayload(target)
	return nil
}

// derefPayload returns the pointed-to value so callers can type-switch on the
// value type (NewMessagePayload) rather than the pointer type.
func derefPayload(p interface{}) interface{} {
	switch v := p.(type) {
	case *NewMessagePayload:
		return *v
	case *EditedMessagePayload:
		return *v
	case *DeleteMessagePayload:
		return *v
	case *PinnedMessagePayload:
		return *v
	case *UnpinnedMessagePayload:
		return *v
	case *NewChatMembersPayload:
		return *v
	case *LeftChatMembersPayload:
		return *v
	case *CallbackQueryPayload:
		return *v
	default:
		return p
	}
}

// --- Message parts (incoming attachments) ---

// Part is an element of an incoming message's "parts" array — a sticker,
// file, reply, or forward attached alongside the text.
type Part struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	PartTypeSticker = "sticker"
	PartTypeFile    = "file"
	PartTypeVoice   = "voice"
	PartTypeReply   = "reply"
	PartTypeForward = "forward"
	PartTypeMention = "mention"
)

type FilePart struct {
	FileID   FileId `json:"fileId"`
	Caption  string `json:"caption,omitempty"`
	Type     string `json:"type,omitempty"`
}

// --- Outgoing formatting ---

// ParseMode selects how the "text" field of an outgoing message is interpreted.
// VK Teams has no native Markdown; ParseModeMarkdownV2 is a client-side
// convenience that this package renders into explicit (text, format) spans
// before the request is sent.
type ParseMode string

const (
	ParseModeNone       ParseMode = ""
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
)

// SpanKind identifies one formatting instruction in a Format span list.
type SpanKind int

const (
	SpanBold SpanKind = iota
	SpanItalic
	SpanUnderline
	SpanStrikethrough
	SpanLink
	SpanMention
	SpanInlineCode
	SpanPre
	SpanOrderedList
	SpanUnOrderedList
	SpanQuote
	SpanPlain
)

func (k SpanKind) wireName() string {
	switch k {
	case SpanBold:
		return "bold"
	case SpanItalic:
		return "italic"
	case SpanUnderline:
		return "underline"
	case SpanStrikethrough:
		return "strikethrough"
	case SpanLink:
		return "link"
	case SpanMention:
		return "mention"
	case SpanInlineCode:
		return "inline"
	case SpanPre:
		return "pre"
	case SpanOrderedList:
		return "ordered_list"
	case SpanUnOrderedList:
		return "unordered_list"
	case SpanQuote:
		return "quote"
	default:
		return "plain"
	}
}

// Span is one formatting instruction over a [Offset, Offset+Length) range of
// the plain-text body. Link and Mention carry an extra payload.
type Span struct {
	Kind   SpanKind
	Offset int
	Length int
	URL    string // SpanLink
	UserID UserId // SpanMention
}

// Format is the wire shape of a message's formatting spans, grouped by kind
// the way the bot API's "format" request parameter expects.
type Format map[string][]formatRange

type formatRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	UserID UserId `json:"userId,omitempty"`
}

// BuildFormat groups a flat span list into the wire Format map.
func BuildFormat(spans []Span) Format {
	if len(spans) == 0 {
		return nil
	}
	f := make(Format)
	for _, s := range spans {
		name := s.Kind.wireName()
		f[name] = append(f[name], formatRange{
			Offset: s.Offset,
			Length: s.Length,
			URL:    s.URL,
			UserID: s.UserID,
		})
	}
	return f
}

// FormattedText is plain text paired with the formatting spans computed over it.
type FormattedText struct {
	Text   string
	Spans  []Span
}

// --- Inline keyboards ---

// KeyboardButton is one button in an InlineKeyboard grid.
type KeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callbackData,omitempty"`
	Style        string `json:"style,omitempty"` // "primary", "attention", "base"
}

// InlineKeyboard is a grid of buttons: InlineKeyboard[row][col].
type InlineKeyboard [][]KeyboardButton

// Encode renders the keyboard as the bot API expects: a JSON string
// containing the button grid, itself embedded as a request parameter.
func (k InlineKeyboard) Encode() (string, error) {
	if len(k) == 0 {
		return "", nil
	}
	b, err := json.Marshal(k)
	if err != nil {
		return "", &ErrSerialization{Op: "marshal inline keyboard", Err: err}
	}
	return string(b), nil
}

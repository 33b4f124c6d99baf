package vkteamsbot

import (
	"encoding/json"
	"net/url"
	"strconv"
)

func jsonMarshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &ErrSerialization{Op: "marshal format", Err: err}
	}
	return b, nil
}

// envelope is embedded in every bot API response. ok=false means Description
// carries the server's error message, which apiError wraps as ErrAPI.
type envelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (e envelope) apiError(status int) error {
	if e.OK {
		return nil
	}
	return &ErrAPI{Status: status, Description: e.Description}
}

// request is implemented by every typed bot API call. method returns the
// HTTP verb and the path appended to the bot API base URL (e.g. "/messages/sendText").
type request interface {
	method() (verb, path string)
	values() (url.Values, error)
}

// chatScoped is implemented by requests the per-chat rate limiter keys on.
type chatScoped interface {
	chatID() (ChatId, bool)
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setBool(v url.Values, key string, b bool) {
	v.Set(key, strconv.FormatBool(b))
}

// --- messages/sendText ---

type SendTextRequest struct {
	ChatID         ChatId
	Text           string
	ParseMode      ParseMode // when set, Text is rendered with Format before sending
	Format         Format    // set by SendText after Markdown rendering; callers should not set this directly
	ReplyMsgID     MsgId
	ForwardChatID  ChatId
	ForwardMsgID   MsgId
	InlineKeyboard InlineKeyboard
}

type SendTextResponse struct {
	envelope
	MsgID MsgId `json:"msgId"`
}

func (r SendTextRequest) method() (string, string) { return "GET", "/messages/sendText" }
func (r SendTextRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r SendTextRequest) values() (url.Values, error) {
	if r.ChatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	v.Set("text", r.Text)
	setIf(v, "replyMsgId", string(r.ReplyMsgID))
	setIf(v, "forwardChatId", string(r.ForwardChatID))
	setIf(v, "forwardMsgId", string(r.ForwardMsgID))
	if len(r.Format) > 0 {
		b, err := jsonMarshal(r.Format)
		if err != nil {
			return nil, err
		}
		v.Set("format", string(b))
	}
	if kb, err := r.InlineKeyboard.Encode(); err != nil {
		return nil, err
	} else {
		setIf(v, "inlineKeyboardMarkup", kb)
	}
	return v, nil
}

// formattedTextRequest sends pre-rendered (text, Format) spans — the result
// of RenderMarkdown — rather than a plain string.
type formattedTextRequest struct {
	ChatID ChatId
	Text   string
	Format Format
}

func (r formattedTextRequest) method() (string, string) { return "GET", "/messages/sendText" }
func (r formattedTextRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r formattedTextRequest) values() (url.Values, error) {
	if r.ChatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	v.Set("text", r.Text)
	if len(r.Format) > 0 {
		b, err := jsonMarshal(r.Format)
		if err != nil {
			return nil, err
		}
		v.Set("format", string(b))
	}
	return v, nil
}

// --- messages/sendTextWithDeepLink ---

type SendTextWithDeepLinkRequest struct {
	ChatID   ChatId
	Text     string
	DeepLink string
}

func (r SendTextWithDeepLinkRequest) method() (string, string) {
	return "GET", "/messages/sendTextWithDeepLink"
}
func (r SendTextWithDeepLinkRequest) chatID() (ChatId, bool) { return r.ChatID, r.ChatID != "" }

func (r SendTextWithDeepLinkRequest) values() (url.Values, error) {
	if r.ChatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	v.Set("text", r.Text)
	v.Set("deeplink", r.DeepLink)
	return v, nil
}

// --- messages/sendFile, messages/sendVoice ---
//
// These are multipart POSTs. values() returns the non-file form fields;
// the attachment itself travels through Multipart (see multipart.go).

type SendFileRequest struct {
	ChatID     ChatId
	Caption    string
	ReplyMsgID MsgId
	File       Multipart
}

type SendFileResponse struct {
	envelope
	MsgID  MsgId  `json:"msgId"`
	FileID FileId `json:"fileId"`
}

func (r SendFileRequest) method() (string, string) { return "POST", "/messages/sendFile" }
func (r SendFileRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r SendFileRequest) values() (url.Values, error) {
	if r.ChatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	if err := r.File.Validate(); err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	setIf(v, "caption", r.Caption)
	setIf(v, "replyMsgId", string(r.ReplyMsgID))
	return v, nil
}

type SendVoiceRequest struct {
	ChatID     ChatId
	ReplyMsgID MsgId
	Voice      Multipart
}

func (r SendVoiceRequest) method() (string, string) { return "POST", "/messages/sendVoice" }
func (r SendVoiceRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r SendVoiceRequest) values() (url.Values, error) {
	if r.ChatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	if err := r.Voice.Validate(); err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	setIf(v, "replyMsgId", string(r.ReplyMsgID))
	return v, nil
}

// --- messages/editText ---

type EditTextRequest struct {
	ChatID ChatId
	MsgID  MsgId
	Text   string
}

func (r EditTextRequest) method() (string, string) { return "GET", "/messages/editText" }
func (r EditTextRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r EditTextRequest) values() (url.Values, error) {
	if r.ChatID == "" || r.MsgID == "" {
		return nil, &ErrValidation{Field: "ChatID/MsgID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	v.Set("msgId", string(r.MsgID))
	v.Set("text", r.Text)
	return v, nil
}

// --- messages/deleteMessages ---

type DeleteMessagesRequest struct {
	ChatID ChatId
	MsgIDs []MsgId
}

func (r DeleteMessagesRequest) method() (string, string) { return "GET", "/messages/deleteMessages" }
func (r DeleteMessagesRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }

func (r DeleteMessagesRequest) values() (url.Values, error) {
	if r.ChatID == "" || len(r.MsgIDs) == 0 {
		return nil, &ErrValidation{Field: "ChatID/MsgIDs", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(r.ChatID))
	for _, id := range r.MsgIDs {
		v.Add("msgId", string(id))
	}
	return v, nil
}

// --- messages/answerCallbackQuery ---

type AnswerCallbackQueryRequest struct {
	QueryID   QueryId
	Text      string
	ShowAlert bool
	URL       string
}

func (r AnswerCallbackQueryRequest) method() (string, string) {
	return "GET", "/messages/answerCallbackQuery"
}

func (r AnswerCallbackQueryRequest) values() (url.Values, error) {
	if r.QueryID == "" {
		return nil, &ErrValidation{Field: "QueryID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("queryId", string(r.QueryID))
	setIf(v, "text", r.Text)
	setBool(v, "showAlert", r.ShowAlert)
	setIf(v, "url", r.URL)
	return v, nil
}

// --- chats/* ---

type ChatGetInfoRequest struct{ ChatID ChatId }

func (r ChatGetInfoRequest) method() (string, string) { return "GET", "/chats/getInfo" }
func (r ChatGetInfoRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatGetInfoRequest) values() (url.Values, error) {
	return simpleChatValues(r.ChatID)
}

type ChatGetAdminsRequest struct{ ChatID ChatId }

func (r ChatGetAdminsRequest) method() (string, string)   { return "GET", "/chats/getAdmins" }
func (r ChatGetAdminsRequest) chatID() (ChatId, bool)      { return r.ChatID, r.ChatID != "" }
func (r ChatGetAdminsRequest) values() (url.Values, error) { return simpleChatValues(r.ChatID) }

type ChatGetMembersRequest struct {
	ChatID ChatId
	Cursor string
}

func (r ChatGetMembersRequest) method() (string, string) { return "GET", "/chats/getMembers" }
func (r ChatGetMembersRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatGetMembersRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	setIf(v, "cursor", r.Cursor)
	return v, nil
}

type ChatGetBlockedUsersRequest struct{ ChatID ChatId }

func (r ChatGetBlockedUsersRequest) method() (string, string) { return "GET", "/chats/getBlockedUsers" }
func (r ChatGetBlockedUsersRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatGetBlockedUsersRequest) values() (url.Values, error) {
	return simpleChatValues(r.ChatID)
}

type ChatGetPendingUsersRequest struct{ ChatID ChatId }

func (r ChatGetPendingUsersRequest) method() (string, string) { return "GET", "/chats/getPendingUsers" }
func (r ChatGetPendingUsersRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatGetPendingUsersRequest) values() (url.Values, error) {
	return simpleChatValues(r.ChatID)
}

type ChatBlockUserRequest struct {
	ChatID      ChatId
	UserID      UserId
	DeleteLastMessages bool
}

func (r ChatBlockUserRequest) method() (string, string) { return "GET", "/chats/blockUser" }
func (r ChatBlockUserRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatBlockUserRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, &ErrValidation{Field: "UserID", Message: "must not be empty"}
	}
	v.Set("userId", string(r.UserID))
	setBool(v, "delLastMessages", r.DeleteLastMessages)
	return v, nil
}

type ChatUnblockUserRequest struct {
	ChatID ChatId
	UserID UserId
}

func (r ChatUnblockUserRequest) method() (string, string) { return "GET", "/chats/unblockUser" }
func (r ChatUnblockUserRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatUnblockUserRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, &ErrValidation{Field: "UserID", Message: "must not be empty"}
	}
	v.Set("userId", string(r.UserID))
	return v, nil
}

type ChatResolvePendingRequest struct {
	ChatID   ChatId
	UserID   UserId // empty means "everyone"
	Approve  bool
}

func (r ChatResolvePendingRequest) method() (string, string) { return "GET", "/chats/resolvePending" }
func (r ChatResolvePendingRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatResolvePendingRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	setIf(v, "userId", string(r.UserID))
	if r.UserID == "" {
		v.Set("everyone", "true")
	}
	setBool(v, "approve", r.Approve)
	return v, nil
}

type ChatMembersDeleteRequest struct {
	ChatID ChatId
	UserID UserId
}

func (r ChatMembersDeleteRequest) method() (string, string) { return "GET", "/chats/members/delete" }
func (r ChatMembersDeleteRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatMembersDeleteRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, &ErrValidation{Field: "UserID", Message: "must not be empty"}
	}
	v.Set("userId", string(r.UserID))
	return v, nil
}

type ChatSetTitleRequest struct {
	ChatID ChatId
	Title  string
}

func (r ChatSetTitleRequest) method() (string, string) { return "GET", "/chats/setTitle" }
func (r ChatSetTitleRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatSetTitleRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	v.Set("title", r.Title)
	return v, nil
}

type ChatSetAboutRequest struct {
	ChatID ChatId
	About  string
}

func (r ChatSetAboutRequest) method() (string, string) { return "GET", "/chats/setAbout" }
func (r ChatSetAboutRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatSetAboutRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	v.Set("about", r.About)
	return v, nil
}

type ChatSetRulesRequest struct {
	ChatID ChatId
	Rules  string
}

func (r ChatSetRulesRequest) method() (string, string) { return "GET", "/chats/setRules" }
func (r ChatSetRulesRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatSetRulesRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	v.Set("rules", r.Rules)
	return v, nil
}

type ChatPinMessageRequest struct {
	ChatID ChatId
	MsgID  MsgId
}

func (r ChatPinMessageRequest) method() (string, string) { return "GET", "/chats/pinMessage" }
func (r ChatPinMessageRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatPinMessageRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.MsgID == "" {
		return nil, &ErrValidation{Field: "MsgID", Message: "must not be empty"}
	}
	v.Set("msgId", string(r.MsgID))
	return v, nil
}

type ChatUnpinMessageRequest struct {
	ChatID ChatId
	MsgID  MsgId
}

func (r ChatUnpinMessageRequest) method() (string, string) { return "GET", "/chats/unpinMessage" }
func (r ChatUnpinMessageRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatUnpinMessageRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.MsgID == "" {
		return nil, &ErrValidation{Field: "MsgID", Message: "must not be empty"}
	}
	v.Set("msgId", string(r.MsgID))
	return v, nil
}

const (
	ActionLooking = "looking"
	ActionTyping  = "typing"
)

type ChatSendActionsRequest struct {
	ChatID ChatId
	Action string
}

func (r ChatSendActionsRequest) method() (string, string) { return "GET", "/chats/sendActions" }
func (r ChatSendActionsRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatSendActionsRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if r.Action == "" {
		return nil, &ErrValidation{Field: "Action", Message: "must not be empty"}
	}
	v.Set("actions", r.Action)
	return v, nil
}

type ChatAvatarSetRequest struct {
	ChatID ChatId
	Avatar Multipart
}

func (r ChatAvatarSetRequest) method() (string, string) { return "POST", "/chats/avatar/set" }
func (r ChatAvatarSetRequest) chatID() (ChatId, bool)    { return r.ChatID, r.ChatID != "" }
func (r ChatAvatarSetRequest) values() (url.Values, error) {
	v, err := simpleChatValues(r.ChatID)
	if err != nil {
		return nil, err
	}
	if err := r.Avatar.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func simpleChatValues(chatID ChatId) (url.Values, error) {
	if chatID == "" {
		return nil, &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("chatId", string(chatID))
	return v, nil
}

// --- files/getInfo ---

type FilesGetInfoRequest struct{ FileID FileId }

func (r FilesGetInfoRequest) method() (string, string) { return "GET", "/files/getInfo" }
func (r FilesGetInfoRequest) values() (url.Values, error) {
	if r.FileID == "" {
		return nil, &ErrValidation{Field: "FileID", Message: "must not be empty"}
	}
	v := url.Values{}
	v.Set("fileId", string(r.FileID))
	return v, nil
}

type FilesGetInfoResponse struct {
	envelope
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// --- self/get ---

type SelfGetRequest struct{}

func (r SelfGetRequest) method() (string, string)     { return "GET", "/self/get" }
func (r SelfGetRequest) values() (url.Values, error)  { return url.Values{}, nil }

type SelfGetResponse struct {
	envelope
	UserID      UserId `json:"userId"`
	Nick        string `json:"nick"`
	FirstName   string `json:"firstName"`
	About       string `json:"about,omitempty"`
	Photo       []struct {
		URL string `json:"url"`
	} `json:"photo,omitempty"`
}

// --- events/get ---

type EventsGetRequest struct {
	LastEventID EventId
	PollTime    int // seconds; server-side long-poll duration
}

func (r EventsGetRequest) method() (string, string) { return "GET", "/events/get" }
func (r EventsGetRequest) values() (url.Values, error) {
	v := url.Values{}
	v.Set("lastEventId", strconv.FormatUint(uint64(r.LastEventID), 10))
	if r.PollTime > 0 {
		v.Set("pollTime", strconv.Itoa(r.PollTime))
	}
	return v, nil
}

type EventsGetResponse struct {
	envelope
	Events []Event `json:"events"`
}

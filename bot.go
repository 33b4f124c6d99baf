package vkteamsbot

import (
	"context"
	"os"
	"sync/atomic"
)

// Bot is the VK Teams Bot API facade: a pooled, retrying HTTP transport plus
// typed methods for every bot API call, a per-chat rate limiter, and the
// cursor state needed to long-poll /events/get.
type Bot struct {
	transport     *transport
	transportOpts []TransportOption
	limiter       *chatLimiter
	lastEventID   uint32 // atomic
}

// Option configures a Bot at construction time.
type Option func(*Bot)

// WithRateLimitPerMinute caps outgoing requests to n per chat per minute.
// Zero (the default) disables the limiter.
func WithRateLimitPerMinute(n int) Option {
	return func(b *Bot) { b.limiter = newChatLimiter(n) }
}

// WithRateLimit configures the per-chat limiter with an explicit window,
// retry delay, and retry attempt cap, rather than the one-minute-window-only
// shorthand WithRateLimitPerMinute provides.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(b *Bot) { b.limiter = newChatLimiterWithConfig(cfg) }
}

// WithTransportOptions forwards options to the underlying transport
// (retry tuning, logger, connection pool sizing is fixed at construction).
func WithTransportOptions(opts ...TransportOption) Option {
	return func(b *Bot) {
		// New builds the transport after every Bot option has run, so these
		// options apply regardless of where WithTransportOptions appears.
		b.transportOpts = opts
	}
}

// New constructs a Bot talking to baseURL with the given API token.
func New(baseURL, token string, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, &ErrConfig{Key: "token", Message: "must not be empty"}
	}
	if baseURL == "" {
		return nil, &ErrConfig{Key: "baseURL", Message: "must not be empty"}
	}
	b := &Bot{limiter: newChatLimiter(0)}
	for _, opt := range opts {
		opt(b)
	}
	b.transport = newTransport(baseURL, token, b.transportOpts...)
	return b, nil
}

// NewFromEnv builds a Bot from VKTEAMS_BOT_API_TOKEN and VKTEAMS_BOT_API_URL.
func NewFromEnv(opts ...Option) (*Bot, error) {
	token := os.Getenv("VKTEAMS_BOT_API_TOKEN")
	if token == "" {
		return nil, &ErrConfig{Key: "VKTEAMS_BOT_API_TOKEN", Message: "not set"}
	}
	baseURL := os.Getenv("VKTEAMS_BOT_API_URL")
	if baseURL == "" {
		return nil, &ErrConfig{Key: "VKTEAMS_BOT_API_URL", Message: "not set"}
	}
	return New(baseURL, token, opts...)
}

// DefaultChatID returns VKTEAMS_BOT_CHAT_ID, or "" if unset.
func DefaultChatID() ChatId {
	return ChatId(os.Getenv("VKTEAMS_BOT_CHAT_ID"))
}

func (b *Bot) call(ctx context.Context, req request, out interface{}) error {
	if cs, ok := req.(chatScoped); ok {
		if chat, scoped := cs.chatID(); scoped {
			if err := b.limiter.wait(ctx, chat); err != nil {
				return err
			}
		}
	}
	return b.transport.do(ctx, req, out)
}

// --- messages/* ---

func (b *Bot) SendText(ctx context.Context, req SendTextRequest) (SendTextResponse, error) {
	if req.ParseMode == ParseModeMarkdownV2 {
		ft := RenderMarkdown(req.Text)
		req.Text = ft.Text
		req.Format = BuildFormat(ft.Spans)
		req.ParseMode = ParseModeNone
	}
	var resp SendTextResponse
	err := b.call(ctx, req, &resp)
	if err == nil {
		err = resp.apiError(200)
	}
	return resp, err
}

// SendFormattedText renders md with goldmark and sends the resulting spans
// alongside the plain-text body.
func (b *Bot) SendFormattedText(ctx context.Context, chatID ChatId, md string) (SendTextResponse, error) {
	ft := RenderMarkdown(md)
	fmtReq := formattedTextRequest{ChatID: chatID, Text: ft.Text, Format: BuildFormat(ft.Spans)}
	var resp SendTextResponse
	err := b.call(ctx, fmtReq, &resp)
	if err == nil {
		err = resp.apiError(200)
	}
	return resp, err
}

func (b *Bot) SendTextWithDeepLink(ctx context.Context, req SendTextWithDeepLinkRequest) (SendTextResponse, error) {
	var resp SendTextResponse
	err := b.call(ctx, req, &resp)
	if err == nil {
		err = resp.apiError(200)
	}
	return resp, err
}

func (b *Bot) SendFile(ctx context.Context, req SendFileRequest) (SendFileResponse, error) {
	var resp SendFileResponse
	err := b.call(ctx, req, &resp)
	if err == nil {
		err = resp.apiError(200)
	}
	return resp, err
}

func (b *Bot) SendVoice(ctx context.Context, req SendVoiceRequest) (SendFileResponse, error) {
	var resp SendFileResponse
	err := b.call(ctx, req, &resp)
	if err == nil {
		err = resp.apiError(200)
	}
	return resp, err
}

func (b *Bot) EditText(ctx context.Context, req EditTextRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) DeleteMessages(ctx context.Context, req DeleteMessagesRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

// --- chats/* ---

func (b *Bot) ChatGetInfo(ctx context.Context, req ChatGetInfoRequest) (ChatInfo, error) {
	var resp struct {
		envelope
		ChatInfo
	}
	if err := b.call(ctx, req, &resp); err != nil {
		return ChatInfo{}, err
	}
	return resp.ChatInfo, resp.apiError(200)
}

func (b *Bot) ChatGetAdmins(ctx context.Context, req ChatGetAdminsRequest) ([]From, error) {
	var resp struct {
		envelope
		Admins []From `json:"admins"`
	}
	if err := b.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Admins, resp.apiError(200)
}

func (b *Bot) ChatGetMembers(ctx context.Context, req ChatGetMembersRequest) ([]From, string, error) {
	var resp struct {
		envelope
		Members []From `json:"members"`
		Cursor  string `json:"cursor,omitempty"`
	}
	if err := b.call(ctx, req, &resp); err != nil {
		return nil, "", err
	}
	return resp.Members, resp.Cursor, resp.apiError(200)
}

func (b *Bot) ChatGetBlockedUsers(ctx context.Context, req ChatGetBlockedUsersRequest) ([]From, error) {
	var resp struct {
		envelope
		Users []From `json:"users"`
	}
	if err := b.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, resp.apiError(200)
}

func (b *Bot) ChatGetPendingUsers(ctx context.Context, req ChatGetPendingUsersRequest) ([]From, error) {
	var resp struct {
		envelope
		Users []From `json:"users"`
	}
	if err := b.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, resp.apiError(200)
}

func (b *Bot) ChatBlockUser(ctx context.Context, req ChatBlockUserRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatUnblockUser(ctx context.Context, req ChatUnblockUserRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatResolvePending(ctx context.Context, req ChatResolvePendingRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatMembersDelete(ctx context.Context, req ChatMembersDeleteRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatSetTitle(ctx context.Context, req ChatSetTitleRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatSetAbout(ctx context.Context, req ChatSetAboutRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatSetRules(ctx context.Context, req ChatSetRulesRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatPinMessage(ctx context.Context, req ChatPinMessageRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatUnpinMessage(ctx context.Context, req ChatUnpinMessageRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatSendActions(ctx context.Context, req ChatSendActionsRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

func (b *Bot) ChatAvatarSet(ctx context.Context, req ChatAvatarSetRequest) error {
	var resp struct{ envelope }
	if err := b.call(ctx, req, &resp); err != nil {
		return err
	}
	return resp.apiError(200)
}

// --- files/* ---

func (b *Bot) FilesGetInfo(ctx context.Context, req FilesGetInfoRequest) (FilesGetInfoResponse, error) {
	var resp FilesGetInfoResponse
	if err := b.call(ctx, req, &resp); err != nil {
		return resp, err
	}
	return resp, resp.apiError(200)
}

// --- self/* ---

func (b *Bot) SelfGet(ctx context.Context) (SelfGetResponse, error) {
	var resp SelfGetResponse
	if err := b.call(ctx, SelfGetRequest{}, &resp); err != nil {
		return resp, err
	}
	return resp, resp.apiError(200)
}

// --- events ---

// eventsGet fetches the next batch of events, advancing the cursor on success.
func (b *Bot) eventsGet(ctx context.Context, pollTime int) ([]Event, error) {
	last := EventId(atomic.LoadUint32(&b.lastEventID))
	req := EventsGetRequest{LastEventID: last, PollTime: pollTime}
	var resp EventsGetResponse
	if err := b.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.apiError(200); err != nil {
		return nil, err
	}
	for _, ev := range resp.Events {
		for {
			cur := atomic.LoadUint32(&b.lastEventID)
			if uint32(ev.EventID) <= cur {
				break
			}
			if atomic.CompareAndSwapUint32(&b.lastEventID, cur, uint32(ev.EventID)) {
				break
			}
		}
	}
	return resp.Events, nil
}

// ChatInfo is the decoded response of chats/getInfo.
type ChatInfo struct {
	ChatID      ChatId `json:"chatId"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	About       string `json:"about,omitempty"`
	Rules       string `json:"rules,omitempty"`
	InviteLink  string `json:"inviteLink,omitempty"`
}

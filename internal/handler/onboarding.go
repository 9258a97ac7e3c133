package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"giftgroup-onboarding/internal/models"
	"giftgroup-onboarding/internal/onboarding"
	"giftgroup-onboarding/internal/storage"
	"giftgroup-onboarding/internal/whatsapp"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Messenger delivers replies to a user
type Messenger interface {
	SendMessage(ctx context.Context, recipient, message string) error
}

type Config struct {
	GroupName string
	// LinkTimeout bounds an account linking attempt; zero waits forever
	LinkTimeout time.Duration
	Avatars     []string
	Now         func() time.Time
}

// OnboardingHandler runs one onboarding flow per sender over a chat
type OnboardingHandler struct {
	messenger Messenger
	storage   *storage.Storage
	linker    onboarding.Linker
	config    *Config
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	pending  sync.WaitGroup
}

// session is the per-sender flow plus the form state of the current step
type session struct {
	mu       sync.Mutex
	sender   string
	machine  *onboarding.Machine
	name     string
	avatar   string
	prefs    *onboarding.Preferences
	memberID string
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(messenger Messenger, storage *storage.Storage, linker onboarding.Linker, config *Config, log zerolog.Logger) *OnboardingHandler {
	cfg := *config
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Avatars) == 0 {
		cfg.Avatars = onboarding.DefaultAvatars
	}
	return &OnboardingHandler{
		messenger: messenger,
		storage:   storage,
		linker:    linker,
		config:    &cfg,
		log:       log.With().Str("component", "Onboarding").Logger(),
		sessions:  make(map[string]*session),
	}
}

// HandleMessage feeds an incoming WhatsApp message into the sender's flow
func (h *OnboardingHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return h.Handle(context.Background(), senderPhone(msg.Info), text)
}

// senderPhone returns the phone number of a message sender. Contacts
// addressed by LID carry their phone number JID in SenderAlt.
func senderPhone(info types.MessageInfo) string {
	jid := info.Sender
	if jid.Server == types.HiddenUserServer && !info.SenderAlt.IsEmpty() {
		jid = info.SenderAlt
	}
	return whatsapp.NormalizePhoneNumber(jid.User)
}

// Handle processes one line of user input and replies to the sender.
// Replies to one sender go out in the order their messages were handled.
func (h *OnboardingHandler) Handle(ctx context.Context, sender, text string) error {
	s, fresh := h.session(sender)

	s.mu.Lock()
	defer s.mu.Unlock()

	var reply string
	if fresh {
		reply = h.welcome(ctx, s, text)
	} else {
		reply = h.respond(ctx, s, text)
	}

	if err := h.messenger.SendMessage(ctx, sender, reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// Step returns where sender is in the flow
func (h *OnboardingHandler) Step(sender string) (models.Step, bool) {
	h.mu.Lock()
	s, ok := h.sessions[sender]
	h.mu.Unlock()
	if !ok {
		return "", false
	}
	return s.machine.Step(), true
}

// Record returns what sender has entered so far
func (h *OnboardingHandler) Record(sender string) (models.UserRecord, bool) {
	h.mu.Lock()
	s, ok := h.sessions[sender]
	h.mu.Unlock()
	if !ok {
		return models.UserRecord{}, false
	}
	return s.machine.Record(), true
}

// Wait blocks until all account linking attempts have finished
func (h *OnboardingHandler) Wait() {
	h.pending.Wait()
}

func (h *OnboardingHandler) session(sender string) (*session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[sender]; ok {
		return s, false
	}
	s := &session{
		sender: sender,
		machine: onboarding.NewMachine(h.linker,
			onboarding.WithAvatars(h.config.Avatars),
			onboarding.WithLogger(h.log),
		),
	}
	h.sessions[sender] = s
	h.log.Info().Str("sender", sender).Str("flow", s.machine.ID()).Msg("Onboarding started")
	return s, true
}

// welcome answers the first message of a flow; "join ABCD" skips the greeting
func (h *OnboardingHandler) welcome(ctx context.Context, s *session, text string) string {
	cmd, arg := parseCommand(text)
	if cmd == "join" && arg != "" {
		return h.join(ctx, s, arg)
	}
	return fmt.Sprintf("👋 Welcome! Let's get you set up for *%s*.\n\n%s", h.config.GroupName, h.prompt(s))
}

func (h *OnboardingHandler) respond(ctx context.Context, s *session, text string) string {
	cmd, arg := parseCommand(text)
	switch cmd {
	case "help":
		return h.prompt(s)
	case "back":
		if err := s.machine.Retreat(ctx); err != nil {
			return h.failure(err)
		}
		return h.prompt(s)
	}

	switch s.machine.Step() {
	case models.StepJoin:
		if cmd == "join" {
			return h.join(ctx, s, arg)
		}
		return h.join(ctx, s, text)
	case models.StepProfile:
		return h.profile(ctx, s, cmd, arg, text)
	case models.StepPreferences:
		return h.preferences(ctx, s, cmd, arg)
	case models.StepLinking:
		return h.linking(ctx, s, cmd)
	default:
		return h.complete(ctx, s)
	}
}

func (h *OnboardingHandler) join(ctx context.Context, s *session, code string) string {
	if err := s.machine.Advance(ctx, onboarding.JoinInput{GroupCode: code}); err != nil {
		return h.failure(err)
	}
	return fmt.Sprintf("✅ Joined group *%s*.\n\n%s", s.machine.Record().GroupCode, h.prompt(s))
}

func (h *OnboardingHandler) profile(ctx context.Context, s *session, cmd, arg, text string) string {
	switch cmd {
	case "name":
		return h.setName(s, arg)
	case "avatar":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(h.config.Avatars) {
			return fmt.Sprintf("⚠️ Please select an avatar between 1 and %d", len(h.config.Avatars))
		}
		s.avatar = h.config.Avatars[n-1]
		return fmt.Sprintf("🖼️ Avatar %d (%s) selected. Reply *next* to continue.", n, avatarLabel(s.avatar))
	case "next":
		if err := s.machine.Advance(ctx, onboarding.ProfileInput{Name: s.name, Avatar: s.avatar}); err != nil {
			return h.failure(err)
		}
		if s.prefs == nil {
			s.prefs = onboarding.NewPreferences(h.config.Now())
		}
		return h.prompt(s)
	}
	// anything else is taken as the name
	return h.setName(s, text)
}

func (h *OnboardingHandler) setName(s *session, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "⚠️ Please enter your name"
	}
	s.name = name
	if s.avatar == "" {
		return fmt.Sprintf("Nice to meet you, %s! Now pick an avatar:\n%s", name, avatarList(h.config.Avatars))
	}
	return fmt.Sprintf("Nice to meet you, %s! Reply *next* to continue.", name)
}

func (h *OnboardingHandler) preferences(ctx context.Context, s *session, cmd, arg string) string {
	if s.prefs == nil {
		s.prefs = onboarding.NewPreferences(h.config.Now())
	}
	p := s.prefs
	switch cmd {
	case "occasions":
		all := p.Catalog.Occasions()
		return "📅 Occasions:\n" + occasionList(all, all)
	case "search":
		found := p.Catalog.Search(arg)
		if len(found) == 0 {
			return fmt.Sprintf("No occasion matches %q. Reply *custom %s* to add it.", arg, arg)
		}
		return "📅 Matching occasions:\n" + occasionList(p.Catalog.Occasions(), found)
	case "occasion":
		o, err := h.pickOccasion(p.Catalog, arg)
		if err != nil {
			return h.failure(err)
		}
		return fmt.Sprintf("🎯 %s selected. Now send *gift <name>*.", occasionLabel(o))
	case "custom":
		o, err := p.Catalog.ProposeCustom(arg)
		if err != nil {
			return h.failure(err)
		}
		if o.ID == "" {
			return "Send *custom <occasion name>* to add your own occasion."
		}
		return fmt.Sprintf("📅 When is %s? Reply *date YYYY-MM-DD*.", o.Label)
	case "date":
		date, err := time.ParseInLocation(models.DateLayout, arg, h.config.Now().Location())
		if err != nil {
			if _, pending := p.Catalog.Pending(); !pending {
				return h.failure(onboarding.ErrNoPendingOccasion)
			}
			return "⚠️ Please send the date as YYYY-MM-DD"
		}
		o, err := p.Catalog.CommitCustomDate(date)
		if err != nil {
			return h.failure(err)
		}
		return fmt.Sprintf("✅ Added %s and selected it. Now send *gift <name>*.", occasionLabel(o))
	case "gift":
		p.SetGiftText(arg)
		e, err := p.AddGift()
		if err != nil {
			return h.failure(err)
		}
		return fmt.Sprintf("🎁 Added %s: %s\n\n%s", occasionLabel(e.Occasion), e.Gift, giftList(p.Ledger.Entries()))
	case "remove":
		n, err := strconv.Atoi(arg)
		if err != nil || !p.Ledger.RemoveAt(n-1) {
			return fmt.Sprintf("⚠️ There is no gift number %s. Reply *list* to see your gifts.", arg)
		}
		return "🗑️ Removed.\n\n" + giftList(p.Ledger.Entries())
	case "list":
		return giftList(p.Ledger.Entries())
	case "next":
		if err := s.machine.Advance(ctx, onboarding.PreferencesInput{Ledger: p.Ledger}); err != nil {
			return h.failure(err)
		}
		return h.prompt(s)
	}
	return h.prompt(s)
}

// pickOccasion accepts a list number, an id or a label
func (h *OnboardingHandler) pickOccasion(c *onboarding.Catalog, arg string) (models.Occasion, error) {
	all := c.Occasions()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(all) {
		return c.Select(all[n-1].ID)
	}
	for _, o := range all {
		if strings.EqualFold(o.Label, arg) {
			return c.Select(o.ID)
		}
	}
	return c.Select(strings.ToLower(arg))
}

func (h *OnboardingHandler) linking(ctx context.Context, s *session, cmd string) string {
	switch cmd {
	case "connect":
		return h.startLink(ctx, s)
	case "skip":
		if err := s.machine.SkipLinking(ctx); err != nil {
			return h.failure(err)
		}
		return h.complete(ctx, s)
	}
	if s.machine.Busy() {
		return h.failure(onboarding.ErrBusy)
	}
	return h.prompt(s)
}

func (h *OnboardingHandler) startLink(ctx context.Context, s *session) string {
	linkCtx := context.WithoutCancel(ctx)
	cancel := func() {}
	if h.config.LinkTimeout > 0 {
		linkCtx, cancel = context.WithTimeout(linkCtx, h.config.LinkTimeout)
	}

	done, err := s.machine.StartLink(linkCtx)
	if err != nil {
		cancel()
		return h.failure(err)
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		defer cancel()
		h.finishLink(context.WithoutCancel(ctx), s, <-done)
	}()
	return "⏳ Connecting to Amazon..."
}

func (h *OnboardingHandler) finishLink(ctx context.Context, s *session, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reply string
	if err != nil {
		reply = h.failure(err)
	} else {
		reply = "✅ Successfully connected to Amazon\n\n" + h.complete(ctx, s)
	}
	if err := h.messenger.SendMessage(ctx, s.sender, reply); err != nil {
		h.log.Error().Err(err).Str("sender", s.sender).Msg("Failed to send linking result")
	}
}

// complete stores the member the first time and returns the summary
func (h *OnboardingHandler) complete(ctx context.Context, s *session) string {
	record, err := s.machine.Summary()
	if err != nil {
		return h.failure(err)
	}

	if s.memberID == "" && h.storage != nil {
		member, err := h.storage.AddMember(ctx, models.Member{Phone: s.sender, Record: record})
		if err != nil {
			h.log.Error().Err(err).Str("sender", s.sender).Msg("Failed to save member")
		} else {
			s.memberID = member.ID
			h.log.Info().
				Str("sender", s.sender).
				Str("member", member.ID).
				Str("group", record.GroupCode).
				Msg("Onboarding complete")
		}
	}
	return summary(record)
}

// failure turns an error into a message for the user
func (h *OnboardingHandler) failure(err error) string {
	var ve *onboarding.ValidationError
	switch {
	case errors.As(err, &ve):
		return "⚠️ " + ve.Reason
	case errors.Is(err, onboarding.ErrBusy):
		return "⏳ Still connecting to Amazon, please wait."
	case errors.Is(err, onboarding.ErrLinkDeclined):
		return "❌ Amazon did not confirm the connection. Reply *connect* to try again or *skip*."
	case errors.Is(err, onboarding.ErrLinkFailed):
		return "❌ Could not reach Amazon. Reply *connect* to try again or *skip*."
	case errors.Is(err, onboarding.ErrFlowComplete):
		return "🎉 You're already all set."
	case errors.Is(err, onboarding.ErrInvalidTransition):
		return "You can't do that here. Reply *help* to see your options."
	case errors.Is(err, onboarding.ErrNoPendingOccasion):
		return "⚠️ Add an occasion first with *custom <name>*."
	case errors.Is(err, onboarding.ErrUnknownOccasion):
		return "⚠️ I don't know that occasion. Reply *occasions* to see the list."
	}
	h.log.Error().Err(err).Msg("Unexpected onboarding error")
	return "Something went wrong, please try again."
}

// parseCommand splits "gift Warm socks" into ("gift", "Warm socks")
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	cmd, arg, _ := strings.Cut(text, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

package promote

import (
	"fmt"
	"log"
	"sync"
	"time"

	"pin-archive-bot/archive"
	"pin-archive-bot/guildconfig"
	"pin-archive-bot/models"
	"pin-archive-bot/pins"

	"github.com/bwmarrin/discordgo"
)

// PinEmoji is the reaction that votes a message toward promotion, and the
// marker the bot leaves on messages it has promoted.
const PinEmoji = "📌"

// Session is the subset of discordgo.Session the engine needs.
type Session interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// ArchiveIndex records successful promotions. May be nil to disable indexing.
type ArchiveIndex interface {
	Insert(rec models.ArchiveRecord) error
}

// Engine decides whether an incoming event promotes a message. There is no
// stored per-message state: the message's position in the state machine
// (unconfigured / below threshold / eligible / already pinned) is recomputed
// from the platform on every event, with the channel's native pin list as the
// authoritative already-pinned guard. Promotion decisions for one message are
// serialized through a per-message lock so overlapping events cannot both
// observe "not yet pinned".
type Engine struct {
	session    Session
	store      *guildconfig.Store
	slots      *pins.Manager
	dispatcher *archive.Dispatcher
	index      ArchiveIndex
	prefix     string

	mu       sync.Mutex
	inflight map[string]*messageLock
	noticed  map[string]bool // guilds already sent the init notice
}

type messageLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine wires the engine. prefix is the command prefix, used only to
// phrase the instructional notice for unconfigured guilds.
func NewEngine(session Session, store *guildconfig.Store, slots *pins.Manager, dispatcher *archive.Dispatcher, index ArchiveIndex, prefix string) *Engine {
	return &Engine{
		session:    session,
		store:      store,
		slots:      slots,
		dispatcher: dispatcher,
		index:      index,
		prefix:     prefix,
		inflight:   make(map[string]*messageLock),
		noticed:    make(map[string]bool),
	}
}

// InitNotice is the instructional message sent when a guild has no archive
// channel configured.
func (e *Engine) InitNotice() string {
	return fmt.Sprintf("Bot not initialized. Use %sinit <pin archive channel> to initialize.", e.prefix)
}

// HandleReaction processes a pin-emoji reaction event. The caller has already
// filtered to the pin emoji and dropped the bot's own reactions.
func (e *Engine) HandleReaction(guildID, channelID, messageID string) {
	unlock := e.lockMessage(messageID)
	defer unlock()

	archiveChannel, configured, err := e.store.ArchiveChannel(guildID)
	if err != nil {
		log.Printf("Error reading archive channel for guild %s: %v", guildID, err)
		return
	}
	if !configured {
		e.noticeOnce(guildID, channelID)
		return
	}
	// Reactions inside the archive channel never trigger promotion; the
	// marker reaction the bot leaves there would otherwise feed back.
	if channelID == archiveChannel {
		return
	}

	// Fetch live: the event payload's count can be stale under concurrent
	// reactions.
	message, err := e.session.ChannelMessage(channelID, messageID)
	if err != nil {
		log.Printf("Failed to fetch message %s in channel %s, dropping event: %v", messageID, channelID, err)
		return
	}

	count := pinReactionCount(message)
	if count == 0 {
		return
	}

	threshold, err := e.store.ReactionCount(guildID)
	if err != nil {
		log.Printf("Error reading reaction threshold for guild %s: %v", guildID, err)
		return
	}
	if int64(count) < threshold {
		return
	}

	pinned, err := e.isNativelyPinned(channelID, messageID)
	if err != nil {
		log.Printf("Failed to check pin list for channel %s, dropping event: %v", channelID, err)
		return
	}
	if pinned {
		return
	}

	if err := e.slots.EnsureCapacity(channelID); err != nil {
		log.Printf("Pin capacity check failed for channel %s: %v", channelID, err)
	}
	if err := e.session.ChannelMessagePin(channelID, messageID); err != nil {
		log.Printf("Failed to pin message %s in channel %s: %v", messageID, channelID, err)
		return
	}
	e.setMarker(message)
	e.deliver(message, guildID, archiveChannel)
}

// HandlePinnedMessage processes a message that the platform reports as newly
// pinned (system pins-add message or a pins-update notification). The
// reaction count is not consulted: the pin already happened through some
// other route, e.g. a moderator. The bot's own marker reaction is the dedup
// guard here, since by definition the message is already in the pin list.
func (e *Engine) HandlePinnedMessage(guildID, channelID, messageID string) {
	unlock := e.lockMessage(messageID)
	defer unlock()

	archiveChannel, configured, err := e.store.ArchiveChannel(guildID)
	if err != nil {
		log.Printf("Error reading archive channel for guild %s: %v", guildID, err)
		return
	}
	if configured && channelID == archiveChannel {
		return
	}

	message, err := e.session.ChannelMessage(channelID, messageID)
	if err != nil {
		log.Printf("Failed to fetch pinned message %s in channel %s, dropping event: %v", messageID, channelID, err)
		return
	}

	if hasOwnMarker(message) {
		return
	}

	if !configured {
		e.noticeOnce(guildID, channelID)
		return
	}

	e.setMarker(message)
	e.deliver(message, guildID, archiveChannel)

	if err := e.slots.EnsureCapacity(channelID); err != nil {
		log.Printf("Pin capacity check failed for channel %s: %v", channelID, err)
	}
}

// HandlePinsUpdate resolves the most recently pinned message in a channel and
// runs it through the pinned-message path.
func (e *Engine) HandlePinsUpdate(guildID, channelID string) {
	pinned, err := e.session.ChannelMessagesPinned(channelID)
	if err != nil {
		log.Printf("Failed to list pins for channel %s, dropping event: %v", channelID, err)
		return
	}
	if len(pinned) == 0 {
		return
	}
	// Newest first.
	e.HandlePinnedMessage(guildID, channelID, pinned[0].ID)
}

// Archive force-archives a message without pinning it, for the archive
// command. An unconfigured guild always gets the instructional notice.
func (e *Engine) Archive(message *discordgo.Message, guildID, originChannelID string) {
	archiveChannel, configured, err := e.store.ArchiveChannel(guildID)
	if err != nil {
		log.Printf("Error reading archive channel for guild %s: %v", guildID, err)
		return
	}
	if !configured {
		if _, err := e.session.ChannelMessageSend(originChannelID, e.InitNotice()); err != nil {
			log.Printf("Failed to send init notice to channel %s: %v", originChannelID, err)
		}
		return
	}
	e.deliver(message, guildID, archiveChannel)
}

// deliver formats the message and posts it through the guild's archive
// webhook, then records it in the archive index. Delivery is best effort.
func (e *Engine) deliver(message *discordgo.Message, guildID, archiveChannel string) {
	channelName := ""
	if ch, err := e.session.Channel(message.ChannelID); err == nil {
		channelName = ch.Name
	}

	payload := archive.BuildPayload(message, guildID, channelName)

	webhookURL, err := e.dispatcher.EnsureWebhook(guildID, archiveChannel)
	if err != nil {
		log.Printf("Failed to resolve archive webhook for guild %s: %v", guildID, err)
		return
	}
	if err := e.dispatcher.Send(webhookURL, payload); err != nil {
		log.Printf("Failed to deliver archive payload for message %s: %v", message.ID, err)
		return
	}

	if e.index != nil {
		rec := models.ArchiveRecord{
			MessageID:  message.ID,
			GuildID:    guildID,
			ChannelID:  message.ChannelID,
			Permalink:  archive.MessageLink(guildID, message.ChannelID, message.ID),
			ArchivedAt: time.Now().Unix(),
		}
		if message.Author != nil {
			rec.AuthorID = message.Author.ID
			rec.AuthorName = message.Author.Username
		}
		if err := e.index.Insert(rec); err != nil {
			log.Printf("Failed to record archive index entry for message %s: %v", message.ID, err)
		}
	}
}

// noticeOnce sends the instructional notice at most once per guild, so a
// burst of reactions in an unconfigured guild does not spam the channel.
func (e *Engine) noticeOnce(guildID, channelID string) {
	e.mu.Lock()
	seen := e.noticed[guildID]
	e.noticed[guildID] = true
	e.mu.Unlock()
	if seen {
		return
	}
	if _, err := e.session.ChannelMessageSend(channelID, e.InitNotice()); err != nil {
		log.Printf("Failed to send init notice to channel %s: %v", channelID, err)
	}
}

// setMarker leaves the bot's reaction on a promoted message. If the reaction
// slots are full, fall back to joining the first existing reaction, as some
// marker is better than none.
func (e *Engine) setMarker(message *discordgo.Message) {
	err := e.session.MessageReactionAdd(message.ChannelID, message.ID, PinEmoji)
	if err == nil {
		return
	}
	if len(message.Reactions) > 0 {
		if err := e.session.MessageReactionAdd(message.ChannelID, message.ID, message.Reactions[0].Emoji.APIName()); err != nil {
			log.Printf("Unable to leave marker reaction on message %s: %v", message.ID, err)
		}
		return
	}
	log.Printf("Unable to leave marker reaction on message %s: %v", message.ID, err)
}

func (e *Engine) isNativelyPinned(channelID, messageID string) (bool, error) {
	pinnedMessages, err := e.session.ChannelMessagesPinned(channelID)
	if err != nil {
		return false, err
	}
	for _, m := range pinnedMessages {
		if m.ID == messageID {
			return true, nil
		}
	}
	return false, nil
}

// lockMessage serializes promotion decisions per message ID. The returned
// func releases the lock and drops the entry once no handler holds it.
func (e *Engine) lockMessage(messageID string) func() {
	e.mu.Lock()
	l, ok := e.inflight[messageID]
	if !ok {
		l = &messageLock{}
		e.inflight[messageID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.inflight, messageID)
		}
		e.mu.Unlock()
	}
}

// pinReactionCount returns the live count of pin-emoji reactions on a message.
func pinReactionCount(message *discordgo.Message) int {
	for _, r := range message.Reactions {
		if r.Emoji != nil && r.Emoji.Name == PinEmoji {
			return r.Count
		}
	}
	return 0
}

// hasOwnMarker reports whether the bot already reacted to the message with
// anything, which marks it as promoted.
func hasOwnMarker(message *discordgo.Message) bool {
	for _, r := range message.Reactions {
		if r.Me {
			return true
		}
	}
	return false
}

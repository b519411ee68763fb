package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pin-archive-bot/archive"
	"pin-archive-bot/config"
	"pin-archive-bot/database"
	"pin-archive-bot/guildconfig"
	"pin-archive-bot/pins"
	"pin-archive-bot/promote"
	"pin-archive-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state and wired components.
type Bot struct {
	Session    *discordgo.Session
	Store      *guildconfig.Store
	Index      *database.Index
	Slots      *pins.Manager
	Dispatcher *archive.Dispatcher
	Engine     *promote.Engine
}

// NewBot creates and initializes a new Bot instance from the given startup
// config file.
func NewBot(configFile string) (*Bot, error) {
	if err := config.Load(configFile); err != nil {
		return nil, err
	}

	token := viper.GetString(config.KeyToken)
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMessageReactions

	configPath := viper.GetString(config.KeyConfigPath)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config path %s: %w", configPath, err)
	}
	store := guildconfig.NewStore(configPath)

	index, err := database.Open(viper.GetString(config.KeyDatabasePath))
	if err != nil {
		return nil, err
	}

	slots := pins.NewManager(dg)
	dispatcher := archive.NewDispatcher(dg, store)
	engine := promote.NewEngine(dg, store, slots, dispatcher, index, viper.GetString(config.KeyPrefix))

	return &Bot{
		Session:    dg,
		Store:      store,
		Index:      index,
		Slots:      slots,
		Dispatcher: dispatcher,
		Engine:     engine,
	}, nil
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	utils.InitLogger(b.Session)
	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session and the archive index.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.Index != nil {
		if err := b.Index.Close(); err != nil {
			log.Printf("Error closing archive index: %v", err)
		}
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(configFile string, registerHandlers func(*Bot)) {
	bot, err := NewBot(configFile)
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}

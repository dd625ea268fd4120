package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"huskybot/pkg/bot"
	"huskybot/pkg/cache"
	"huskybot/pkg/config"
	"huskybot/pkg/lexicon"
	"huskybot/pkg/llm"
	"huskybot/pkg/media"
	"huskybot/pkg/search"
	"huskybot/pkg/session"
)

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	token := os.Getenv("DISCORD_TOKEN")
	apiBase := os.Getenv("OPENAI_API_BASE")
	apiKey := os.Getenv("OPENAI_API_KEY")
	modelName := os.Getenv("OPENAI_MODEL_NAME")

	// Check each required environment variable individually for better error messages
	if token == "" {
		log.Fatal("Missing required environment variable: DISCORD_TOKEN")
	}
	if apiBase == "" {
		log.Fatal("Missing required environment variable: OPENAI_API_BASE")
	}
	if apiKey == "" {
		log.Fatal("Missing required environment variable: OPENAI_API_KEY")
	}
	if modelName == "" {
		log.Fatal("Missing required environment variable: OPENAI_MODEL_NAME")
	}

	// Initialize Clients
	llmClient := llm.NewClient(apiBase, apiKey, modelName, cfg.ModelSettings.Temperature)
	searcher := search.NewDuckDuckGoClient()
	fetcher := media.NewFetcher()

	// Optional Redis cache for investigative web searches
	var searchCache bot.SearchCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL, "huskybot")
		if err != nil {
			log.Printf("Redis unavailable, search caching disabled: %v", err)
		} else {
			defer redisCache.Close()
			searchCache = redisCache
			log.Println("Redis search cache initialized")
		}
	} else {
		log.Println("REDIS_URL not set, search caching disabled")
	}

	// Load the tag lexicon and the prompt-writing guide
	lex := lexicon.Load(
		cfg.Lexicon.ClassifiedPath,
		cfg.Lexicon.MergedPath,
		cfg.Lexicon.KnowledgeBasePath,
		cfg.Lexicon.RawLexiconPath,
	)
	log.Printf("Lexicon loaded: %d terms in %d categories", lex.Len(), len(lex.Categories()))

	guide := ""
	if data, err := os.ReadFile(cfg.Lexicon.PromptGuidePath); err == nil {
		guide = string(data)
	} else {
		log.Printf("Prompt guide not found at %s, continuing without it", cfg.Lexicon.PromptGuidePath)
	}

	sessions := session.NewStore(time.Duration(cfg.Chat.SessionTimeoutSeconds) * time.Second)

	// Initialize Bot Handler
	handler := bot.NewHandler(
		llmClient,
		searcher,
		fetcher,
		searchCache,
		lex,
		sessions,
		bot.NewRandomPolicy(),
		cfg,
		guide,
	)

	// Create Discord Session
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent

	// Register Handlers
	dg.AddHandler(handler.MessageCreate)
	dg.AddHandler(handler.GuildMemberAdd)

	// Open Connection
	if err := dg.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	// Set bot identity in handler (so it can ignore itself and hear its name)
	botName := dg.State.User.GlobalName
	if botName == "" {
		botName = dg.State.User.Username
	}
	handler.SetBotIdentity(dg.State.User.ID, botName)

	log.Printf("%s is now running. Press CTRL-C to exit.", botName)

	// Set Custom Status
	err = dg.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name:  "Custom Status",
				Type:  discordgo.ActivityTypeCustom,
				State: "sniffing out prompts in the snow ❄️",
			},
		},
		Status: "online",
	})
	if err != nil {
		log.Printf("Error setting custom status: %v", err)
	}

	// Wait for signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	dg.Close()
}

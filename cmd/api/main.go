package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxlane/callpilot/backend/internal/config"
	"github.com/voxlane/callpilot/backend/internal/handler"
	conversationService "github.com/voxlane/callpilot/backend/internal/service/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/intent"
	"github.com/voxlane/callpilot/backend/internal/service/session"
	speechService "github.com/voxlane/callpilot/backend/internal/service/speech"
	"github.com/voxlane/callpilot/backend/internal/service/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Session store: Redis when configured, in-process memory otherwise.
	var store session.Store
	if cfg.Session.RedisEnabled() {
		redisStore, err := session.NewRedisStore(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB, cfg.Session.TTL)
		if err != nil {
			log.Fatalf("failed to connect to Redis at %s: %v", cfg.Session.RedisAddr, err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Printf("session store: redis (%s)", cfg.Session.RedisAddr)
	} else {
		memStore := session.NewMemoryStore(cfg.Session.TTL)
		defer memStore.Close()
		store = memStore
		log.Println("session store: in-memory")
	}

	// Conversation providers, both riding the same chat model.
	var classifier conversationService.Classifier
	var generator conversationService.Generator
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without AI functionality - check the Azure OpenAI environment variables")
		} else {
			intentSvc, err := intent.NewService(ctx, chatModel)
			if err != nil {
				log.Printf("warning: failed to initialize intent classifier: %v", err)
			} else {
				classifier = intentSvc
			}
			llmGen, err := conversationService.NewLLMGenerator(ctx, chatModel)
			if err != nil {
				log.Printf("warning: failed to initialize response generator: %v", err)
			} else {
				generator = llmGen
			}
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Azure OpenAI credentials not configured, skipping AI initialization")
	}
	aiEnabled := classifier != nil && generator != nil

	orchestrator := conversationService.NewService(store, classifier, generator)

	// Speech providers are optional and fail soft per request.
	var stt *speechService.AzureSTTClient
	if cfg.Speech.Enabled() {
		stt = speechService.NewAzureSTTClient(cfg.Speech.Key, cfg.Speech.Region, cfg.Speech.Language, cfg.Speech.Timeout)
		log.Println("Azure speech recognition initialized successfully")
	} else {
		log.Println("Azure speech credentials not configured, skipping transcription initialization")
	}
	var tts *speechService.ElevenLabsClient
	if cfg.TTS.Enabled() {
		tts = speechService.NewElevenLabsClient(cfg.TTS.APIKey, cfg.TTS.VoiceID, cfg.TTS.ModelID, cfg.Speech.Timeout)
		log.Println("ElevenLabs synthesis initialized successfully")
	} else {
		log.Println("ElevenLabs credentials not configured, skipping synthesis initialization")
	}
	speechSvc := speechService.NewService(stt, tts)

	accumulator := transcript.New(speechSvc, cfg.Session.TTL)
	defer accumulator.Close()

	router := handler.NewRouter(store, orchestrator, accumulator, speechSvc, aiEnabled)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("CallPilot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

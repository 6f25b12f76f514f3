package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/chat"
	"github.com/thaifoodie/chat-backend/internal/config"
	"github.com/thaifoodie/chat-backend/internal/types"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	cfg, err := config.LoadClient()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	tokens := chat.NewStaticTokens(cfg.Token)
	backend := chat.NewHTTPBackend(cfg.ServerURL, tokens)
	history := chat.NewHistoryGateway(cfg.ServerURL, tokens, logger)
	store := chat.NewStore()
	controller := chat.NewController(backend, store, history, nil, tokens, logger, cfg.Language)

	ctx := context.Background()
	if tokens.SignedIn() {
		controller.RefreshConversations(ctx)
	}

	fmt.Println("Thai Foodie chat. Type a dish, or /help for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, controller, store, line); quit {
				return
			}
			continue
		}

		if err := controller.SendTurn(ctx, line, ""); err != nil {
			logger.WithError(err).Warn("turn failed")
		}
		printLatest(store)
	}
}

func runCommand(ctx context.Context, controller *chat.Controller, store *chat.Store, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		controller.StartNewChat()
		fmt.Println("started a new chat")
	case "/list":
		controller.RefreshConversations(ctx)
		conversations := store.Conversations()
		if len(conversations) == 0 {
			fmt.Println("no saved conversations")
			return false
		}
		for i, conv := range conversations {
			fmt.Printf("%2d. %s (%s)\n", i+1, conv.Title, conv.CreatedAt.Format("2006-01-02"))
		}
	case "/open":
		conv, ok := pickConversation(store, fields)
		if !ok {
			return false
		}
		controller.SelectConversation(ctx, conv.ID)
		printTranscript(store)
	case "/delete":
		conv, ok := pickConversation(store, fields)
		if !ok {
			return false
		}
		controller.DeleteConversation(ctx, conv.ID)
		fmt.Println("deleted", conv.Title)
	case "/clear":
		controller.ClearHistory(ctx)
		fmt.Println("history cleared")
	case "/help":
		fmt.Println("commands: /new /list /open N /delete N /clear /quit")
	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

func pickConversation(store *chat.Store, fields []string) (types.Conversation, bool) {
	if len(fields) < 2 {
		fmt.Println("usage:", fields[0], "N")
		return types.Conversation{}, false
	}
	n, err := strconv.Atoi(fields[1])
	conversations := store.Conversations()
	if err != nil || n < 1 || n > len(conversations) {
		fmt.Println("no such conversation")
		return types.Conversation{}, false
	}
	return conversations[n-1], true
}

func printLatest(store *chat.Store) {
	messages := store.Messages()
	if len(messages) == 0 {
		return
	}
	printMessage(messages[len(messages)-1])
}

func printTranscript(store *chat.Store) {
	for _, msg := range store.Messages() {
		printMessage(msg)
	}
}

func printMessage(msg types.ChatMessage) {
	prefix := "you"
	if msg.Role == types.RoleModel {
		prefix = "bot"
	}
	if msg.Text != "" {
		fmt.Printf("[%s] %s\n", prefix, msg.Text)
	}
	if msg.Recipe != nil {
		printRecipe(msg.Recipe)
	}
	for _, v := range msg.Videos {
		fmt.Printf("      video: %s (%s)\n", v.Title, v.ChannelTitle)
	}
}

func printRecipe(r *types.Recipe) {
	fmt.Printf("      %s", r.DishName)
	if r.Calories != "" {
		fmt.Printf(" (%s)", r.Calories)
	}
	fmt.Println()
	fmt.Println("      ingredients:")
	for _, ing := range r.Ingredients {
		fmt.Printf("        - %s %s\n", ing.Name, ing.Amount)
	}
	fmt.Println("      steps:")
	for i, step := range r.Instructions {
		fmt.Printf("        %d. %s\n", i+1, step)
	}
}

// Command chat is a terminal client for the portfolio chat assistant.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sanity-io/litter"

	"portfolio-backend/internal/chatclient"
	"portfolio-backend/internal/models"
)

func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("CHAT_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	apiURL := flag.String("url", defaultURL, "base URL of the portfolio backend")
	withContext := flag.Bool("context", true, "fetch the portfolio context before chatting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport := chatclient.NewHTTPTransport(*apiURL, nil)

	var portfolioContext string
	if *withContext {
		c, err := transport.FetchContext(ctx)
		if err != nil {
			fmt.Println("Could not load portfolio context:", err)
		}
		portfolioContext = c
	}

	session := chatclient.NewSession(transport, portfolioContext)
	unsubscribe := session.Subscribe(render)
	defer unsubscribe()

	fmt.Println("=== AI Portfolio Assistant ===")
	fmt.Println("Ask me anything about Ramien's work and experience.")
	fmt.Println("Not sure where to start? Try asking:")
	fmt.Println(`  "What projects has Ramien built?"`)
	fmt.Println(`  "What is Ramien's background in healthcare?"`)
	fmt.Println(`  "What technologies does Ramien work with?"`)
	fmt.Println("Commands: /history, /exit")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\n> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		input = strings.TrimRight(input, "\r\n")

		switch strings.TrimSpace(input) {
		case "/exit", "/quit":
			fmt.Println("Goodbye.")
			return
		case "/history":
			fmt.Println(litter.Sdump(session.Turns()))
			continue
		}

		session.Submit(ctx, input)
		if ctx.Err() != nil {
			return
		}
	}
}

// render prints the newest turn after each state change.
func render(snap chatclient.Snapshot) {
	if snap.State == chatclient.AwaitingResponse {
		fmt.Println("Thinking...")
		return
	}
	if len(snap.Turns) == 0 {
		return
	}
	last := snap.Turns[len(snap.Turns)-1]
	if last.Role == models.RoleAssistant {
		fmt.Println(last.Content)
	}
}

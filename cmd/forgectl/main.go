package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kashif-saeed1122/contentforge-go/pkg/contentforge"
)

// forgectl is a small operational CLI around the client: log in, inspect
// articles and campaigns, and follow a generation to completion.
func main() {
	baseURL := flag.String("api", "", "API base URL (overrides CONTENTFORGE_API_URL)")
	email := flag.String("email", os.Getenv("CONTENTFORGE_EMAIL"), "Account email")
	password := flag.String("password", os.Getenv("CONTENTFORGE_PASSWORD"), "Account password")
	limit := flag.Int("limit", 20, "Max items for list commands")
	timeout := flag.Duration("timeout", 10*time.Minute, "How long watch/generate wait for a terminal status")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := contentforge.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Bad environment: %v", err)
	}
	opts := &contentforge.ClientOptions{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		SentryDSN: cfg.SentryDSN,
	}
	if *baseURL != "" {
		opts.BaseURL = *baseURL
	}
	if *verbose {
		opts.Logger = contentforge.NewZerologLogger(os.Stderr)
	}

	client, err := contentforge.NewClient(opts)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if *email == "" || *password == "" {
		log.Fatal("Credentials required: set -email/-password or CONTENTFORGE_EMAIL/CONTENTFORGE_PASSWORD")
	}
	session, err := client.Auth.Login(ctx, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Printf("Logged in as %s\n", session.User.Username)

	switch flag.Arg(0) {
	case "articles":
		runArticles(ctx, client, *limit)
	case "watch":
		runWatch(ctx, client, flag.Arg(1), *timeout)
	case "generate":
		runGenerate(ctx, client, flag.Arg(1), *timeout)
	case "campaigns":
		runCampaigns(ctx, client)
	case "credits":
		runCredits(ctx, client, *limit)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: forgectl [flags] <command> [args]

Commands:
  articles              List recent articles
  watch <article-id>    Poll an article until it reaches a terminal status
  generate <topic>      Enqueue a generation and wait for the article list to update
  campaigns             List campaigns
  credits               Show credit balance and recent transactions

Flags:`)
	flag.PrintDefaults()
}

func runArticles(ctx context.Context, client *contentforge.Client, limit int) {
	articles, err := client.Articles.List(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list articles: %v", err)
	}

	now := time.Now()
	for _, a := range articles {
		marker := string(a.Status)
		if a.IsScheduled(now) {
			marker = fmt.Sprintf("scheduled for %s", a.ScheduledAt.Local().Format(time.RFC822))
		}
		fmt.Printf("%-36s  %-40.40s  %s\n", a.ID, a.Topic, marker)
	}

	stats := contentforge.ComputeArticleStats(articles, now)
	fmt.Printf("\n%d total: %d processing, %d completed, %d scheduled\n",
		stats.Total, stats.Processing, stats.Completed, stats.Scheduled)
}

func runWatch(ctx context.Context, client *contentforge.Client, articleID string, timeout time.Duration) {
	if articleID == "" {
		log.Fatal("watch requires an article id")
	}

	watch, err := client.Articles.Watch(ctx, articleID, 0)
	if err != nil {
		log.Fatalf("Failed to start watch: %v", err)
	}
	defer watch.Stop()

	go func() {
		for a := range watch.Updates() {
			fmt.Printf("%s  status=%s\n", time.Now().Format(time.TimeOnly), a.Status)
		}
	}()

	article, err := watch.Wait(ctx, timeout)
	if err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
	fmt.Printf("Article %s finished with status %s (%d tokens)\n", article.ID, article.Status, article.TokensUsed)
}

func runGenerate(ctx context.Context, client *contentforge.Client, topic string, timeout time.Duration) {
	if topic == "" {
		log.Fatal("generate requires a topic")
	}

	err := client.Articles.Generate(ctx, &contentforge.GenerateParams{
		QueryExplanation: topic,
		Category:         "General",
	})
	if err != nil {
		log.Fatalf("Failed to enqueue generation: %v", err)
	}
	fmt.Println("Generation enqueued, following the article list...")

	watch, err := client.Articles.WatchList(ctx, 10, 0)
	if err != nil {
		log.Fatalf("Failed to watch article list: %v", err)
	}
	defer watch.Stop()

	deadline := time.After(timeout)
	for {
		select {
		case articles := <-watch.Updates():
			for _, a := range articles {
				if a.Status == contentforge.ArticleStatusProcessing {
					fmt.Printf("Processing: %s (%s)\n", a.Topic, a.ID)
				}
			}
		case <-deadline:
			fmt.Println("Stopped following; generation continues server-side")
			return
		}
	}
}

func runCampaigns(ctx context.Context, client *contentforge.Client) {
	campaigns, err := client.Campaigns.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list campaigns: %v", err)
	}

	for _, c := range campaigns {
		fmt.Printf("%-36s  %-30.30s  %-9s  %d/day  generated=%d posted=%d\n",
			c.ID, c.Name, c.Status, c.ArticlesPerDay, c.ArticlesGenerated, c.ArticlesPosted)
	}
}

func runCredits(ctx context.Context, client *contentforge.Client, limit int) {
	balance, err := client.Credits.Balance(ctx)
	if err != nil {
		log.Fatalf("Failed to get balance: %v", err)
	}
	fmt.Printf("Balance: %d credits (lifetime used: %d)\n\n", balance.Balance, balance.TotalUsed)

	transactions, err := client.Credits.Transactions(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list transactions: %v", err)
	}
	for _, tx := range transactions {
		fmt.Printf("%s  %+5d  %-12s  %s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), tx.Amount, tx.Type, tx.Description)
	}
}

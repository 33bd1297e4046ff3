package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propwatch/internal/app"
	"propwatch/internal/config"

	"github.com/google/uuid"
)

// One-shot crawl runner: executes a single saved search, or every active
// one, without standing up the HTTP server. Meant for cron and for
// running from a residential network when the datacenter IP is blocked.
func main() {
	searchID := flag.String("search", "", "saved search id (empty runs every active search)")
	maxPerPortal := flag.Int("max-per-portal", 100, "cap on listings discovered per portal")
	scrapePending := flag.Bool("scrape-pending", false, "drain the pending queue instead of discovering")
	limit := flag.Int("limit", 50, "pending items to scrape with -scrape-pending")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if *scrapePending {
		report, err := c.Monitor.ScrapePending(ctx, nil, *limit)
		if err != nil {
			log.Fatalf("scrape pending failed: %v", err)
		}
		log.Printf("scrape pending done | scraped=%d errors=%d", report.Scraped, report.Errors)
		return
	}

	if *searchID != "" {
		id, err := uuid.Parse(*searchID)
		if err != nil {
			log.Fatalf("invalid search id: %v", err)
		}
		summary, err := c.Monitor.ExecuteSearch(ctx, id, *maxPerPortal)
		if err != nil {
			log.Fatalf("execute failed: %v", err)
		}
		log.Printf("run done | search=%s found=%d new=%d dup=%d scraped=%d pending=%d errors=%d",
			summary.SearchName, summary.TotalFound, summary.NewProperties,
			summary.Duplicates, summary.Scraped, summary.Pending, len(summary.Errors))
		return
	}

	summaries, err := c.Monitor.ExecuteAllActive(ctx, *maxPerPortal)
	if err != nil {
		log.Fatalf("execute all failed: %v", err)
	}
	for _, s := range summaries {
		log.Printf("run done | search=%s found=%d new=%d dup=%d scraped=%d pending=%d errors=%d",
			s.SearchName, s.TotalFound, s.NewProperties,
			s.Duplicates, s.Scraped, s.Pending, len(s.Errors))
	}
}

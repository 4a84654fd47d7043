package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mqforge/busadmin/pkg/admin"
	"github.com/mqforge/busadmin/pkg/auth"
	"github.com/mqforge/busadmin/pkg/logging"
)

// busadmin lists namespace entities as JSON lines.
//
//	busadmin queues [continuation-token]
//	busadmin topics [continuation-token]
//
// With a continuation token the listing resumes page mode from that point and
// prints the next token on stderr, so large namespaces can be walked in
// slices.
func main() {
	// Configuration from environment
	connectionString := os.Getenv("NAMESPACE_CONNECTION_STRING")
	redisURL := os.Getenv("REDIS_URL")
	pageSize := getEnvInt("PAGE_SIZE", admin.DefaultPageSize)
	logLevel := getEnv("LOG_LEVEL", "warn")

	logging.Setup(logging.Config{Level: logging.LogLevel(logLevel), Output: os.Stderr})

	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s queues|topics [continuation-token]", os.Args[0])
	}
	resource := os.Args[1]
	token := ""
	if len(os.Args) > 2 {
		token = os.Args[2]
	}

	if connectionString == "" {
		log.Fatal("NAMESPACE_CONNECTION_STRING is required")
	}

	provider, endpoint, err := auth.ParseConnectionString(connectionString)
	if err != nil {
		log.Fatalf("Invalid connection string: %v", err)
	}
	cfg := admin.DefaultConfig(endpoint, provider)
	cfg.PageSize = pageSize
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cancel()
		cfg.Redis = redisClient
	}

	client, err := admin.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create admin client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := &admin.ListOptions{MaxPageSize: pageSize, ContinuationToken: token}
	var nextToken string
	switch resource {
	case "queues":
		nextToken, err = listQueues(ctx, os.Stdout, client, opts)
	case "topics":
		nextToken, err = listTopics(ctx, os.Stdout, client, opts)
	default:
		log.Fatalf("Unknown resource %q, want queues or topics", resource)
	}
	if err != nil {
		log.Fatalf("Listing failed: %v", err)
	}
	if nextToken != "" {
		fmt.Fprintf(os.Stderr, "continuation-token: %s\n", nextToken)
	}
}

// listQueues prints one page of queues when resuming from a token, the whole
// namespace otherwise. It returns the token of the next page, if any.
func listQueues(ctx context.Context, w io.Writer, client *admin.Client, opts *admin.ListOptions) (string, error) {
	if opts.ContinuationToken != "" {
		pager, err := client.ListQueuesByPage(opts)
		if err != nil {
			return "", err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for i := range page.Items {
			if err := printJSON(w, page.Items[i]); err != nil {
				return "", err
			}
		}
		return page.ContinuationToken, nil
	}

	items, err := client.ListQueues(opts)
	if err != nil {
		return "", err
	}
	for items.Next(ctx) {
		if err := printJSON(w, items.Item()); err != nil {
			return "", err
		}
	}
	return "", items.Err()
}

// listTopics mirrors listQueues for topics.
func listTopics(ctx context.Context, w io.Writer, client *admin.Client, opts *admin.ListOptions) (string, error) {
	if opts.ContinuationToken != "" {
		pager, err := client.ListTopicsByPage(opts)
		if err != nil {
			return "", err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for i := range page.Items {
			if err := printJSON(w, page.Items[i]); err != nil {
				return "", err
			}
		}
		return page.ContinuationToken, nil
	}

	items, err := client.ListTopics(opts)
	if err != nil {
		return "", err
	}
	for items.Next(ctx) {
		if err := printJSON(w, items.Item()); err != nil {
			return "", err
		}
	}
	return "", items.Err()
}

func printJSON(w io.Writer, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(line))
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/equipviz/backend/internal/client"
	"github.com/joho/godotenv"
)

const usage = `Usage: equipctl <command> [args]

Commands:
  upload <file.csv>       upload a CSV and show its statistics and type chart
  history                 list the most recent uploads
  report [-o report.pdf]  download the PDF report for the newest upload
  health                  check the backend health endpoint

Environment:
  EQUIPVIZ_URLS           comma separated base URLs, tried in order
  API_USERNAME / API_PASSWORD
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	c := client.New(baseURLs(), getEnv("API_USERNAME", "admin"), getEnv("API_PASSWORD", "admin123"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "upload":
		err = runUpload(ctx, c, args)
	case "history":
		err = runHistory(ctx, c)
	case "report":
		err = runReport(ctx, c, args)
	case "health":
		err = runHealth(ctx, c)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "❌ Server returned error:\n%s\n", apiErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		os.Exit(1)
	}
}

func runUpload(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("upload needs exactly one CSV file")
	}

	result, err := c.Upload(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("✅ Upload successful (%s)\n\n", c.BaseURL())
	client.RenderSummary(os.Stdout, result)
	fmt.Println()
	client.RenderBarChart(os.Stdout, result.TypeDistribution, 40)
	fmt.Println()

	// Refresh history like the upload screen does
	return runHistory(ctx, c)
}

func runHistory(ctx context.Context, c *client.Client) error {
	items, err := c.History(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Recent Uploads")
	return client.RenderHistory(os.Stdout, items)
}

func runReport(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	out := fs.String("o", "report.pdf", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.CreateTemp(".", ".report-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	n, err := c.Report(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to generate report, make sure data is uploaded: %w", err)
	}

	if err := os.Rename(f.Name(), *out); err != nil {
		return err
	}
	fmt.Printf("✅ Report saved to: %s (%d bytes)\n", *out, n)
	return nil
}

func runHealth(ctx context.Context, c *client.Client) error {
	fmt.Printf("🔍 Testing health endpoint: %s/health\n", c.BaseURL())

	health, err := c.Health(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Health check passed!\n")
	fmt.Printf("   Endpoint: %s\n", c.BaseURL())
	fmt.Printf("   Status: %v\n", health["status"])
	fmt.Printf("   Version: %v\n", health["version"])
	fmt.Printf("   Timestamp: %v\n", health["timestamp"])
	return nil
}

func baseURLs() []string {
	raw := os.Getenv("EQUIPVIZ_URLS")
	if raw == "" {
		return nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

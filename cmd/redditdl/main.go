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

	"golang.org/x/term"

	"github.com/jubnl/RedditDownloader/pkg/auth"
	"github.com/jubnl/RedditDownloader/pkg/config"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/scraper"
)

var (
	configFile     = flag.String("config", "", "Path to configuration file")
	subreddits     = flag.String("subreddits", "", "Comma-separated list of subreddits to download from")
	amount         = flag.Int("amount", 0, "Number of images to download per subreddit")
	nsfw           = flag.Bool("nsfw", false, "Download NSFW posts instead of SFW ones")
	scalePreset    = flag.String("scale", "", "Resize preset to apply to downloaded images")
	replaceResized = flag.Bool("replace-resized", true, "Replace originals with resized images")
	outputDir      = flag.String("output", "", "Output directory for downloads")
	clientID       = flag.String("client-id", "", "Reddit API client ID")
	clientSecret   = flag.String("client-secret", "", "Reddit API client secret")
	userAgent      = flag.String("user-agent", "", "User agent for Reddit API requests")
	logLevel       = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	quiet          = flag.Bool("quiet", false, "Suppress progress output")
	login          = flag.Bool("login", false, "Store Reddit API credentials and exit")
)

func main() {
	flag.Parse()

	if *login {
		if err := runLogin(); err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			os.Exit(1)
		}
		return
	}

	// Build command line flags map
	flags := make(map[string]interface{})
	if *subreddits != "" {
		flags["subreddits"] = *subreddits
	}
	if args := flag.Args(); len(args) > 0 {
		flags["subreddits"] = strings.Join(args, ",")
	}
	if *amount > 0 {
		flags["amount"] = *amount
	}
	if *nsfw {
		flags["nsfw"] = true
	}
	if *scalePreset != "" {
		flags["scale"] = *scalePreset
	}
	if !*replaceResized {
		flags["replace-resized"] = false
	}
	if *outputDir != "" {
		flags["output"] = *outputDir
	}
	if *clientID != "" {
		flags["client-id"] = *clientID
	}
	if *clientSecret != "" {
		flags["client-secret"] = *clientSecret
	}
	if *userAgent != "" {
		flags["user-agent"] = *userAgent
	}
	if *logLevel != "" {
		flags["log-level"] = *logLevel
	}
	if *quiet {
		flags["quiet"] = true
	}

	// Load configuration
	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("subreddits", strings.Join(cfg.Download.Subreddits, ",")).Info("Reddit downloader starting")

	// Fall back to stored credentials when none were provided
	if cfg.Reddit.ClientID == "" || cfg.Reddit.ClientSecret == "" {
		if creds, err := storedCredentials(); err == nil {
			cfg.Reddit.ClientID = creds.ClientID
			cfg.Reddit.ClientSecret = creds.ClientSecret
			if creds.UserAgent != "" && cfg.Reddit.UserAgent == config.DefaultConfig().Reddit.UserAgent {
				cfg.Reddit.UserAgent = creds.UserAgent
			}
			logger.WithField("credentials", creds.Name).Debug("using stored credentials")
		}
	}

	if cfg.Reddit.ClientID == "" || cfg.Reddit.ClientSecret == "" {
		logger.GetLogger().Error("Missing Reddit API credentials")
		fmt.Fprintln(os.Stderr, "Missing Reddit API credentials.")
		fmt.Fprintln(os.Stderr, "Provide them via --client-id/--client-secret flags, REDDIT_CLIENT_ID/REDDIT_CLIENT_SECRET env vars, or run redditdl -login.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialize downloader")
		fmt.Fprintln(os.Stderr, "failed to initialize downloader:", err)
		os.Exit(1)
	}

	summary, err := s.Run(ctx, cfg.Download.Subreddits)
	if err != nil {
		logger.WithError(err).Error("download run failed")
		fmt.Fprintln(os.Stderr, "download run failed:", err)
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"downloaded": summary.Total,
		"failed":     summary.Failed,
	}).Info("download run completed")
}

// runLogin prompts for Reddit API credentials and stores them with the
// credential manager.
func runLogin() error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Credential name [default]: ")
	name, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	fmt.Print("Reddit client ID: ")
	id, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)

	fmt.Print("Reddit client secret: ")
	secretBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	fmt.Print("User agent (optional): ")
	ua, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	creds := &auth.Credentials{
		Name:         name,
		ClientID:     id,
		ClientSecret: strings.TrimSpace(string(secretBytes)),
		UserAgent:    strings.TrimSpace(ua),
	}

	if err := manager.Store(creds); err != nil {
		return err
	}

	fmt.Printf("Credentials %q stored.\n", name)
	return nil
}

func storedCredentials() (*auth.Credentials, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	return manager.RetrieveDefault()
}

// locpipe is an incremental localization pipeline for i18next JSON
// translation files, translating with DeepL and Google Translate.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/locpipe/locpipe/cache"
	"github.com/locpipe/locpipe/config"
	"github.com/locpipe/locpipe/i18next"
	"github.com/locpipe/locpipe/langmeta"
	"github.com/locpipe/locpipe/override"
	"github.com/locpipe/locpipe/pipeline"
	"github.com/locpipe/locpipe/settings"
	"github.com/locpipe/locpipe/translate"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors. Cleared at startup when stderr is not a terminal or
// NO_COLOR is set.
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func init() {
	_, noColor := os.LookupEnv("NO_COLOR")
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if noColor || !tty {
		colorReset, colorRed, colorGreen, colorYellow, colorBlue = "", "", "", "", ""
	}
}

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locpipe",
		Short: "Incremental translation pipeline for i18next JSON files",
		Long: `locpipe translates i18next JSON translation files incrementally.

It reads a source-language file such as common.en.json, translates every
string into the requested target languages and writes one JSON file per
language. Each translated string is stored together with an md5 hash of
its source text, so later runs only re-translate strings whose source
changed. Manual corrections come from an override file and always win.

Commands:
  status      Show per-language translation statistics
  translate   Translate the source file into the target languages
  auth        Manage provider API keys
  version     Show version information

Providers:
  deepl       DeepL REST v2, primary (DEEPL_AUTH_KEY)
  google      Google Cloud Translation v2, fallback (GOOGLE_API_KEY)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory (location of .locpipe.yaml)")

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locpipe version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: project info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var (
		source string
		outDir string
		langs  string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-language translation statistics",
		Long: `Show translation statistics against the current source strings.

A translation counts as up to date when the source hash stored next to it
still matches the md5 of the current source text. Stale entries carry an
old hash and are re-translated on the next run; missing entries have not
been translated at all. Does not modify any files.`,
		Run: func(cmd *cobra.Command, args []string) {
			runStatus(source, outDir, langs)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source-language JSON file")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory with translated files")
	cmd.Flags().StringVar(&langs, "langs", "", "Languages to inspect (comma-separated, default: files found in the output directory)")

	return cmd
}

func runStatus(source, outDir, langs string) {
	cfg := &config.Config{
		SourceFile: source,
		OutDir:     outDir,
		Languages:  splitLangs(langs),
	}
	if err := assembleConfig(cfg); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	root, err := i18next.ParseFile(cfg.SourceFile)
	if err != nil {
		logError("Cannot read source file %s: %v", cfg.SourceFile, err)
		os.Exit(1)
	}
	flat, err := i18next.Flatten(root)
	if err != nil {
		logError("Cannot flatten %s: %v", cfg.SourceFile, err)
		os.Exit(1)
	}

	translatable := 0
	for _, key := range flat.Keys() {
		if node, ok := flat.Get(key); ok && node.Kind == i18next.KindText {
			translatable++
		}
	}

	// Project info header
	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	srcMeta := langmeta.Resolve(cfg.SourceLang)
	fmt.Fprintf(os.Stderr, "  Source:      %s\n", cfg.SourceFile)
	fmt.Fprintf(os.Stderr, "  Namespace:   %s\n", cfg.Namespace)
	fmt.Fprintf(os.Stderr, "  Source lang: %s (%s)\n", cfg.SourceLang, srcMeta.Name)
	fmt.Fprintf(os.Stderr, "  Out dir:     %s\n", cfg.OutDir)
	if cfg.CacheDir != cfg.OutDir {
		fmt.Fprintf(os.Stderr, "  Cache dir:   %s\n", cfg.CacheDir)
	}
	if cfg.OverridesFile != "" {
		fmt.Fprintf(os.Stderr, "  Overrides:   %s\n", cfg.OverridesFile)
	}
	fmt.Fprintf(os.Stderr, "  Keys:        %d (%d translatable)\n", flat.Len(), translatable)
	fmt.Fprintln(os.Stderr)

	statusLangs := cfg.Languages
	if len(statusLangs) == 0 {
		statusLangs = detectLanguages(cfg)
	}
	if len(statusLangs) == 0 {
		logInfo("No language files found in %s. Run 'locpipe translate' to create them.", cfg.OutDir)
		return
	}

	showStatsTable(cfg, flat, translatable, statusLangs)
}

func showStatsTable(cfg *config.Config, flat *i18next.FlatMap, translatable int, langs []string) {
	fmt.Fprintf(os.Stderr, "%sTranslation Statistics%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-12s %-8s %-8s %s\n", "Lang", "Up to date", "Stale", "Missing", "Progress")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	needsWork := false
	for _, lang := range langs {
		snap, err := cache.Load(cfg.OutputPath(lang))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%-10s %-12s %-8s %-8s %s\n", lang, "no file", "-", "-", progressBar(0, 10))
			needsWork = true
			continue
		}

		fresh, stale, missing := snap.Stats(flat)
		percent := 0
		if translatable > 0 {
			percent = fresh * 100 / translatable
		}

		flag := langmeta.Resolve(lang).Flag
		fmt.Fprintf(os.Stderr, "%-10s %-12d %-8d %-8d %s %s\n", lang, fresh, stale, missing, progressBar(percent, 10), flag)
		if stale > 0 || missing > 0 {
			needsWork = true
		}
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))
	fmt.Fprintf(os.Stderr, "Translatable strings: %d\n", translatable)

	if needsWork {
		fmt.Fprintln(os.Stderr)
		logInfo("Run 'locpipe translate' to update stale and missing translations")
	}
	fmt.Fprintln(os.Stderr)
}

// progressBar renders a fixed-width completion bar: red below 50%,
// yellow below 100%, green at 100%. Percent is clamped to [0, 100].
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	color := colorRed
	if percent == 100 {
		color = colorGreen
	} else if percent >= 50 {
		color = colorYellow
	}

	filled := width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// detectLanguages scans the output directory for language files written
// by earlier runs. The source language is skipped: the source file often
// lives in the same directory and is not a translation.
func detectLanguages(cfg *config.Config) []string {
	entries, err := os.ReadDir(cfg.OutDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")

		var lang string
		switch {
		case strings.HasPrefix(name, cfg.Namespace+"."):
			lang = strings.TrimPrefix(name, cfg.Namespace+".")
		case !strings.Contains(name, "."):
			lang = name
		default:
			continue
		}

		if lang == cfg.SourceLang || !langmeta.Known(lang) {
			continue
		}
		langs = append(langs, lang)
	}

	sort.Strings(langs)
	return langs
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		// Input and output
		source    string
		outDir    string
		langs     string
		cacheDir  string
		overrides string

		// Provider keys
		deeplKey  string
		googleKey string

		// Translation behavior
		chunkSize   int
		retranslate bool
		dryRun      bool
		verbose     bool

		// Network
		timeout    time.Duration
		proxy      string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the source file into the target languages",
		Long: `Translate the source-language JSON file into the target languages.

Strings whose stored source hash still matches the current source text
are reused from the previous output without calling any provider. DeepL
is the primary provider; Google Translate handles languages DeepL does
not support and any batch DeepL fails on. When both providers fail the
previous translation is kept and the key is retried on the next run.

Examples:
  # Translate common.en.json into every supported language
  locpipe translate --source locales/common.en.json --out-dir locales

  # Only German and French, with manual overrides
  locpipe translate --source common.en.json --out-dir out --langs de,fr --overrides fixes.json

  # Show what would be translated without calling any provider
  locpipe translate --source common.en.json --out-dir out --dry-run`,
		Run: func(cmd *cobra.Command, args []string) {
			runTranslate(translateArgs{
				source: source, outDir: outDir, langs: langs,
				cacheDir: cacheDir, overrides: overrides,
				deeplKey: deeplKey, googleKey: googleKey,
				chunkSize: chunkSize, retranslate: retranslate,
				dryRun: dryRun, verbose: verbose,
				timeout: timeout, proxy: proxy, maxRetries: maxRetries,
			})
		},
	}

	// Input and output
	cmd.Flags().StringVar(&source, "source", "", "Source-language JSON file (required unless set in .locpipe.yaml)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory for translated files (required unless set in .locpipe.yaml)")
	cmd.Flags().StringVar(&langs, "langs", "", "Target languages (comma-separated, default: all languages DeepL supports)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory with previous outputs to reuse (default: out-dir)")
	cmd.Flags().StringVar(&overrides, "overrides", "", "JSON file with manual translation overrides")

	// Provider keys
	cmd.Flags().StringVar(&deeplKey, "deepl-key", "", "DeepL API key (or DEEPL_AUTH_KEY env var)")
	cmd.Flags().StringVar(&googleKey, "google-key", "", "Google Translate API key (or GOOGLE_API_KEY env var)")

	// Translation behavior
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Texts per provider request (default 50)")
	cmd.Flags().BoolVar(&retranslate, "retranslate", false, "Re-translate every key, ignoring cached source hashes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling providers")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable detailed logging")

	// Network
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Maximum retries on rate limit (429)")

	return cmd
}

type translateArgs struct {
	source, outDir, langs string
	cacheDir, overrides   string
	deeplKey, googleKey   string
	chunkSize             int
	retranslate, dryRun   bool
	verbose               bool
	timeout               time.Duration
	proxy                 string
	maxRetries            int
}

func runTranslate(a translateArgs) {
	cfg := &config.Config{
		SourceFile:    a.source,
		OutDir:        a.outDir,
		Languages:     splitLangs(a.langs),
		CacheDir:      a.cacheDir,
		OverridesFile: a.overrides,
		Proxy:         a.proxy,
		Timeout:       a.timeout,
		MaxRetries:    a.maxRetries,
		ChunkSize:     a.chunkSize,
		DryRun:        a.dryRun,
		Retranslate:   a.retranslate,
		Verbose:       a.verbose,
	}
	if err := assembleConfig(cfg); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	// API keys: flag beats environment beats the stored credential
	cfg.DeepLKey = settings.ResolveAPIKey("deepl", a.deeplKey)
	cfg.GoogleKey = settings.ResolveAPIKey("google", a.googleKey)

	// Default to every target the primary provider can produce
	if len(cfg.Languages) == 0 {
		cfg.Languages = translate.SupportedTargets()
	}
	for _, lang := range cfg.Languages {
		if !langmeta.Known(lang) {
			logError("Unknown language code '%s' in --langs", lang)
			os.Exit(1)
		}
	}

	switch {
	case cfg.DeepLKey != "" && cfg.GoogleKey != "":
		logInfo("Providers: DeepL (primary), Google Translate (fallback)")
	case cfg.DeepLKey != "":
		logInfo("Provider: DeepL, no fallback configured")
	case cfg.GoogleKey != "":
		logInfo("Provider: Google Translate, no primary configured")
	default:
		logWarning("No API keys found. Run 'locpipe auth login' or set DEEPL_AUTH_KEY / GOOGLE_API_KEY.")
	}
	logInfo("Targets: %s", strings.Join(cfg.Languages, ", "))

	var overrideTable *override.Table
	if cfg.OverridesFile != "" {
		var err error
		overrideTable, err = override.Load(cfg.OverridesFile)
		if err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		logInfo("Loaded %d override(s) from %s", overrideTable.Len(), cfg.OverridesFile)
	}

	service := translate.NewService(translate.Options{
		DeepLKey:   cfg.DeepLKey,
		GoogleKey:  cfg.GoogleKey,
		Proxy:      cfg.Proxy,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Verbose:    cfg.Verbose,
		OnLog: func(format string, args ...any) {
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			logWarning(format, args...)
		},
	})

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, saving progress...")
		cancel()
	}()

	err := pipeline.Run(ctx, pipeline.Options{
		Config:    cfg,
		Service:   service,
		Overrides: overrideTable,
		OnLog: func(format string, args ...any) {
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			logError(format, args...)
		},
		OnProgress: func(lang string, done, total int) {
			logInfo("  %s: %d/%d", lang, done, total)
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			logWarning("Translation interrupted, partial progress saved")
			os.Exit(0)
		}
		logError("%v", err)
		os.Exit(1)
	}

	if cfg.DryRun {
		logInfo("Dry run, no files written")
		return
	}
	logSuccess("Translation complete!")
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage stored API keys for the translation providers.

Providers:
  deepl    DeepL REST v2, the primary provider (free keys end in :fx)
  google   Google Cloud Translation v2, the fallback

Keys are stored in the user data directory (auth.json, mode 0600). A key
passed via --deepl-key / --google-key or the DEEPL_AUTH_KEY /
GOOGLE_API_KEY environment variables takes precedence over the store.

Examples:
  locpipe auth login --provider deepl
  locpipe auth list
  locpipe auth logout --provider google`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// apiProviders is the ordered list of providers for the interactive menu.
var apiProviders = []struct {
	id   string
	name string
	desc string
}{
	{"deepl", "DeepL", "REST v2, primary provider (free keys end in :fx)"},
	{"google", "Google Translate", "Cloud Translation v2, fallback provider"},
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		Long: `Store an API key for a translation provider.

If --provider is not specified, you will be prompted to choose.

Providers:
  deepl     DeepL API key (https://www.deepl.com/your-account/keys)
  google    Google Cloud API key with the Translation API enabled`,
		Run: func(cmd *cobra.Command, args []string) {
			// If no provider specified, prompt user
			if provider == "" {
				fmt.Fprintln(os.Stderr, "")
				fmt.Fprintf(os.Stderr, "%sSelect provider:%s\n\n", colorBlue, colorReset)
				for i, p := range apiProviders {
					fmt.Fprintf(os.Stderr, "  %d. %s%-8s%s %s\n", i+1, colorYellow, p.id, colorReset, p.desc)
				}
				fmt.Fprintln(os.Stderr)
				fmt.Fprintf(os.Stderr, "Enter choice (number or name): ")

				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() {
					logError("No input received")
					os.Exit(1)
				}
				choice := strings.TrimSpace(scanner.Text())

				found := false
				for i, p := range apiProviders {
					if choice == fmt.Sprintf("%d", i+1) || choice == p.id {
						provider = p.id
						found = true
						break
					}
				}
				if !found {
					logError("Invalid choice. Use: locpipe auth login --provider PROVIDER")
					os.Exit(1)
				}
			}

			switch provider {
			case "deepl", "google":
				authLoginAPIKey(provider)
			default:
				logError("Unknown provider '%s'. Run 'locpipe auth login' for options.", provider)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to authenticate")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		completions := make([]string, 0, len(apiProviders))
		for _, p := range apiProviders {
			completions = append(completions, fmt.Sprintf("%s\t%s", p.id, p.name))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func authLoginAPIKey(providerID string) {
	providerInfo := map[string]struct {
		name    string
		helpURL string
	}{
		"deepl": {
			name:    "DeepL",
			helpURL: "https://www.deepl.com/your-account/keys",
		},
		"google": {
			name:    "Google Translate",
			helpURL: "https://console.cloud.google.com/apis/credentials",
		},
	}

	info := providerInfo[providerID]

	fmt.Fprintf(os.Stderr, "\n%s%s API Key Setup%s\n", colorBlue, info.name, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	fmt.Fprintf(os.Stderr, "  Get your API key from: %s%s%s\n\n", colorGreen, info.helpURL, colorReset)

	// Check if already configured
	existing := settings.GetAPIKey(providerID)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Enter API key: ")
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		logError("No input received")
		os.Exit(1)
	}
	key := strings.TrimSpace(scanner.Text())

	if key == "" {
		if existing != "" {
			logInfo("Keeping existing key")
			return
		}
		logError("No API key provided")
		os.Exit(1)
	}

	if err := settings.SetAPIKey(providerID, key); err != nil {
		logError("Failed to save API key: %v", err)
		os.Exit(1)
	}

	logSuccess("%s API key saved!", info.name)
	fmt.Fprintf(os.Stderr, "\n  You can now run: locpipe translate --source common.en.json --out-dir locales\n\n")
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API keys",
		Long: `Remove stored API keys for one or all providers.

If --provider is not specified, keys for ALL providers are removed.

Examples:
  locpipe auth logout                     Remove all stored keys
  locpipe auth logout --provider deepl    Remove only the DeepL key`,
		Run: func(cmd *cobra.Command, args []string) {
			if provider != "" {
				switch provider {
				case "deepl", "google":
					if err := settings.Remove(provider); err != nil {
						logError("Failed to remove %s key: %v", provider, err)
						os.Exit(1)
					}
					logSuccess("%s key removed", provider)
				default:
					logError("Unknown provider '%s'. Run 'locpipe auth list' to see providers.", provider)
					os.Exit(1)
				}
				return
			}

			if err := settings.RemoveAll(); err != nil {
				logError("Failed to remove stored keys: %v", err)
				os.Exit(1)
			}
			logSuccess("All stored keys removed")
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		completions := make([]string, 0, len(apiProviders))
		for _, p := range apiProviders {
			completions = append(completions, fmt.Sprintf("%s\t%s", p.id, p.name))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored API keys and status",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%sStored API Keys%s\n", colorBlue, colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			fmt.Fprintf(os.Stderr, "  Store: %s\n", settings.FilePath())

			fmt.Fprintf(os.Stderr, "\n  %sProviders%s\n", colorYellow, colorReset)
			for _, p := range apiProviders {
				if key := settings.GetAPIKey(p.id); key != "" {
					fmt.Fprintf(os.Stderr, "  %-8s %sconfigured%s (key: %s)\n", p.id, colorGreen, colorReset, settings.MaskKey(key))
				} else {
					fmt.Fprintf(os.Stderr, "  %-8s %snot configured%s\n", p.id, colorRed, colorReset)
				}
			}

			fmt.Fprintf(os.Stderr, "\n  %sEnvironment Variables%s\n", colorYellow, colorReset)
			for _, p := range apiProviders {
				envVar := settings.EnvVarForProvider(p.id)
				if val := os.Getenv(envVar); val != "" {
					fmt.Fprintf(os.Stderr, "  %s: %s%s%s (overrides stored key)\n", envVar, colorGreen, settings.MaskKey(val), colorReset)
				} else {
					fmt.Fprintf(os.Stderr, "  %s: %snot set%s\n", envVar, colorRed, colorReset)
				}
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// assembleConfig layers environment variables and the project file under
// the flag-provided values, then normalizes. Precedence: flag, then
// environment, then .locpipe.yaml, then defaults.
func assembleConfig(cfg *config.Config) error {
	cfg.ApplyEnv(config.FromEnv())

	file, err := config.LoadFile(rootDir)
	if err != nil {
		return err
	}
	if file != nil {
		resolveProjectPaths(file)
		cfg.ApplyFile(file)
	}

	return cfg.Normalize()
}

// resolveProjectPaths re-bases relative paths from .locpipe.yaml onto the
// project root. Paths given on the command line stay relative to the
// working directory.
func resolveProjectPaths(f *config.File) {
	f.Source = joinRoot(f.Source)
	f.OutDir = joinRoot(f.OutDir)
	f.CacheDir = joinRoot(f.CacheDir)
	f.Overrides = joinRoot(f.Overrides)
}

func joinRoot(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

// splitLangs parses a comma-separated language list, dropping empty
// elements and surrounding whitespace.
func splitLangs(s string) []string {
	if s == "" {
		return nil
	}
	var langs []string
	for _, lang := range strings.Split(s, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}

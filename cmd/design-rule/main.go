package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	designrule "github.com/kataras/design-rule"
	"github.com/kataras/design-rule/pkg/config"
	"github.com/kataras/design-rule/pkg/extractor"
	"github.com/kataras/design-rule/pkg/server"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const version = designrule.Version

var (
	imageSource    string
	outputFile     string
	configFile     string
	stride         int
	alphaThreshold int
	maxColors      int
	serveAddr      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "design-rule",
		Short: "Generate a design rule from a UI design image",
		Long:  "A tool to extract a color palette, typography, spacing and component styles from a design image and write them as a Cursor design rule",
		RunE:  run,

		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML config file (default $XDG_CONFIG_HOME/design-rule/config.toml)")

	rootCmd.Flags().StringVarP(&imageSource, "image", "i", "", "Design image path or http(s) URL: png, jpg, jpeg, webp (required)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output markdown file, \"-\" for stdout (default from config: DESIGN_RULE.md)")
	rootCmd.Flags().IntVar(&stride, "stride", 0, "Sample every Nth pixel (default from config: 10)")
	rootCmd.Flags().IntVar(&alphaThreshold, "alpha-threshold", 0, "Skip pixels with a lower alpha (default from config: 128)")
	rootCmd.Flags().IntVar(&maxColors, "max-colors", 0, "Number of dominant colors to keep (default from config: 6)")

	rootCmd.MarkFlagRequired("image")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the drop page and upload API over HTTP",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config: :8080)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration as TOML",
		Long:  "Write the effective configuration (defaults, config file and DESIGNRULE_* environment) to the config file path, or to stdout with --print",
		RunE:  writeConfig,
	}
	configCmd.Flags().Bool("print", false, "Print the configuration instead of writing it")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("design-rule version %s\n", version)
		},
	}

	rootCmd.AddCommand(serveCmd, configCmd, versionCmd)

	// Ctrl-C cancels a running analysis, including download retries, and stops the server.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if stride > 0 {
		cfg.Extraction.Stride = stride
	}
	if alphaThreshold > 0 {
		cfg.Extraction.AlphaThreshold = alphaThreshold
	}
	if maxColors > 0 {
		cfg.Extraction.MaxColors = maxColors
	}
	if outputFile != "" {
		cfg.Output.File = outputFile
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	return cfg, cfg.Validate()
}

func extractionOptions(cfg *config.Config) extractor.Options {
	return extractor.Options{
		Stride:         cfg.Extraction.Stride,
		AlphaThreshold: cfg.Extraction.AlphaThreshold,
		MaxColors:      cfg.Extraction.MaxColors,
	}
}

func run(cmd *cobra.Command, args []string) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	cmd.SilenceUsage = true
	toStdout := outputFile == "-"

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var logger designrule.Logger = &cliLogger{}
	if toStdout {
		logger = nil
	} else {
		cyan.Println("\n🎨 Design Rule Generator")
		cyan.Println("========================")
		cyan.Println()
	}

	result, err := designrule.Run(cmd.Context(), designrule.Options{
		ImagePath:  imageSource,
		Extraction: extractionOptions(cfg),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if toStdout {
		fmt.Print(result.Markdown)
		return nil
	}

	// Display extracted stats.
	elements := result.Elements
	cyan.Println("\n📊 Extraction Summary:")
	if result.Fallback {
		fmt.Printf("  • Colors: %d (fallback palette)\n", len(elements.Colors))
	} else {
		fmt.Printf("  • Colors: %d\n", len(elements.Colors))
	}
	for _, hex := range elements.Colors {
		fmt.Printf("      %s %s\n", swatch(hex), hex)
	}
	fmt.Printf("  • Font Families: %d\n", len(elements.Typography.FontFamily))
	fmt.Printf("  • Font Sizes: %d\n", len(elements.Typography.FontSizes))
	fmt.Printf("  • Spacing Values: %d\n", len(elements.Spacing))
	fmt.Printf("  • Border Radii: %d\n", len(elements.BorderRadius))
	fmt.Printf("  • Components: %d\n", len(elements.Components))

	// Write markdown to file.
	green.Printf("\n💾 Writing to %s... ", cfg.Output.File)
	if err := os.WriteFile(cfg.Output.File, []byte(result.Markdown), 0644); err != nil {
		red.Printf("✗\n")
		return err
	}
	green.Println("✓")

	green.Printf("\n✨ Successfully generated the design rule in %s\n\n", cfg.Output.File)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Extraction:     extractionOptions(cfg),
		Logger:         &cliLogger{},
	})

	color.New(color.FgCyan).Printf("Starting server at http://%s\n", displayAddr(cfg.Server.Addr))
	return srv.Start(cmd.Context())
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		return cfg.Encode(os.Stdout)
	}

	path := configFile
	if path == "" {
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("Wrote %s\n", path)
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// swatch renders a block in the given hex color on truecolor terminals.
func swatch(hex string) string {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return "  "
	}
	return color.RGB(r, g, b).Sprint("██")
}

// cliLogger implements designrule.Logger with colored terminal output.
type cliLogger struct{}

func (l *cliLogger) Infof(format string, args ...any) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}

func (l *cliLogger) Warnf(format string, args ...any) {
	color.New(color.FgYellow).Printf("⚠ "+format+"\n", args...)
}

func (l *cliLogger) Errorf(format string, args ...any) {
	color.New(color.FgRed).Printf("✗ "+format+"\n", args...)
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change configuration.

Values come from environment variables (and a .env file), then the config
file, then built-in defaults. Subcommands write to the config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long: `Choose the embedding provider and model.

Changing the model or dimensions makes an existing index incompatible;
delete the index directory and re-run "index" afterwards.`,
	RunE: runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	Long:  `Choose the provider and model that answer questions.`,
	RunE:  runConfigLLM,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

// providers lists the selectable providers in menu order.
var providers = []domain.AIProvider{domain.AIProviderOpenAI, domain.AIProviderOllama}

var defaultEmbeddingModels = map[domain.AIProvider]string{
	domain.AIProviderOpenAI: "text-embedding-3-small",
	domain.AIProviderOllama: "nomic-embed-text",
}

var defaultLLMModels = map[domain.AIProvider]string{
	domain.AIProviderOpenAI: "gpt-4o-mini",
	domain.AIProviderOllama: "llama3.2",
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	if configInfo.Path != "" {
		cmd.Printf("File: %s\n", configInfo.Path)
	}
	if configInfo.Overrides != nil {
		if keys := configInfo.Overrides(); len(keys) > 0 {
			cmd.Printf("From environment: %s\n", strings.Join(keys, ", "))
		}
	}
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Target dir: %s\n", settings.Source.TargetDir)
	if len(settings.Source.SkipPatterns) > 0 {
		cmd.Printf("  Skip patterns: %s\n", strings.Join(settings.Source.SkipPatterns, ", "))
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Path: %s\n", settings.Index.Path)
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Chunker.ChunkSize, settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s (%d dimensions)\n", settings.Embedding.Model, settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Batch size: %d, concurrency: %d, attempts: %d, rate: %.1f/s\n",
		settings.Embedding.BatchSize, settings.Embedding.Concurrency,
		settings.Embedding.MaxAttempts, settings.Embedding.RequestsPerSecond)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Query]")
	cmd.Printf("  Passages per question: %d\n", settings.Query.K)
	cmd.Printf("  Session window: %d turns\n", settings.Session.Window)
	cmd.Printf("  Server address: %s\n", settings.Server.Addr)
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Debounce: %s\n", settings.Watch.Debounce)
	cmd.Printf("  Prune deleted: %t\n", settings.Watch.PruneDeleted)

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(stdin))
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureLLMProvider(cmd, bufio.NewReader(stdin))
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	provider := chooseProvider(cmd, reader, "Select Embedding Provider")

	defaultModel := defaultEmbeddingModels[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	defaultDims := embeddingDimensions(model)
	cmd.Printf("Enter dimensions [%d]: ", defaultDims)
	dims := parsePositive(readLine(reader), defaultDims)

	apiKey, err := readAPIKey(cmd, reader, provider, settings.Embedding.APIKey)
	if err != nil {
		return err
	}

	identityChanged := settings.Embedding.Model != model || settings.Embedding.Dimensions != dims
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.Dimensions = dims
	settings.Embedding.APIKey = apiKey

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s, %d dimensions)\n", provider.Description(), model, dims)
	if identityChanged {
		cmd.Printf("The index at %s was built with a different model; delete it and re-run \"index\".\n",
			settings.Index.Path)
	}
	cmd.Println(`Run "sercha-rag doctor" to check connectivity.`)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	provider := chooseProvider(cmd, reader, "Select LLM Provider")

	defaultModel := defaultLLMModels[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	apiKey, err := readAPIKey(cmd, reader, provider, settings.LLM.APIKey)
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	settings.LLM.APIKey = apiKey

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println(`Run "sercha-rag doctor" to check connectivity.`)
	return nil
}

func chooseProvider(cmd *cobra.Command, reader *bufio.Reader, title string) domain.AIProvider {
	cmd.Println(title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	return providers[idx-1]
}

// readAPIKey prompts for a key when the provider needs one. An empty entry
// keeps the current key.
func readAPIKey(cmd *cobra.Command, reader *bufio.Reader, provider domain.AIProvider, current string) (string, error) {
	if !provider.RequiresAPIKey() {
		return "", nil
	}
	if current != "" {
		cmd.Printf("Enter API key [%s]: ", maskAPIKey(current))
	} else {
		cmd.Print("Enter API key: ")
	}
	key := readPassword(reader)
	cmd.Println()
	if key == "" {
		key = current
	}
	if key == "" {
		return "", errors.New("API key is required for this provider")
	}
	return key, nil
}

// embeddingDimensions returns the default dimensions for a model. Models
// that support shortened output use 256.
func embeddingDimensions(model string) int {
	if strings.HasPrefix(model, "text-embedding-3-") {
		return 256
	}
	if dims, ok := domain.EmbeddingDimensions()[model]; ok {
		return dims
	}
	return 768
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parsePositive(input string, defaultVal int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

func readPassword(reader *bufio.Reader) string {
	// Try to read password without echo
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

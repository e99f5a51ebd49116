package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings stored in config.toml.

Keys:
  ingest.workers          files processed concurrently by ingest
  watch.interval          time between checks, e.g. 30s
  watch.local.path        directory used by watch all
  watch.drive.folder_id   Drive folder used by watch all
  embedding.model         embedding model (EMBEDDING_MODEL wins)
  embedding.dimensions    embedding size override
  index.batch_size        rows or chunks per store call
  retry.max_attempts      attempts per store or embedding call
  retry.backoff_factor    base of the exponential wait in seconds`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	values := a.settings.Values()
	cmd.Println("Settings:")
	for _, k := range a.settings.Keys() {
		v := values[k]
		if v == "" || v == "0" {
			v = "(not set)"
		}
		cmd.Printf("  %-22s %s\n", k, v)
	}

	cmd.Println("\nEnvironment:")
	cmd.Printf("  %-22s %s\n", "store", a.env.Store)
	cmd.Printf("  %-22s %s\n", "state", a.env.State)
	cmd.Printf("  %-22s %s\n", "embedder", a.env.Embedder)
	cmd.Printf("  %-22s %s\n", "data dir", a.dataPath())
	cmd.Printf("  %-22s %s\n", "api key", maskKey(a.env.EmbeddingAPIKey()))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	v, ok := a.settings.Values()[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	cmd.Println(v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.settings.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], a.settings.Values()[args[0]])
	return nil
}

// maskKey hides all but the last four characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

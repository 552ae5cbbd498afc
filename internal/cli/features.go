package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xrplgo/goxrpld/internal/config"
	"github.com/xrplgo/goxrpld/internal/core/protocolfeature"
	"github.com/xrplgo/goxrpld/internal/core/protocolfeature/journal"
)

var featuresJournalPath string

// featuresCmd reports the compiled-in feature catalog and, if a journal
// path is given, the activation log replayed from it. It is read-only:
// activation is decided on-chain, never by an operator command, so there
// is no "features enable" subcommand here.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List recognized protocol features and their activation status",
	Long: `Show the node's compiled-in protocol feature catalog.

With --conf, applies the [features] overrides from the given config file
before building the catalog.

With --journal, also replays the on-disk activation journal and reports
each feature's activation block, the same log a consensus rule consults
via IsBuiltinActivated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var overrides map[string]protocolfeature.BuiltinOverride
		if configFile != "" {
			cfg, err := config.LoadConfig(config.ConfigPaths{Main: configFile})
			if err != nil {
				return fmt.Errorf("loading config from %s: %w", configFile, err)
			}
			overrides, err = cfg.Features.BuiltinOverrides()
			if err != nil {
				return err
			}
		}

		catalog, err := protocolfeature.NewDefaultCatalogWithOverrides(overrides)
		if err != nil {
			return fmt.Errorf("building protocol feature catalog: %w", err)
		}

		var manager *protocolfeature.Manager
		if featuresJournalPath != "" {
			store, err := journal.Open(featuresJournalPath)
			if err != nil {
				return fmt.Errorf("opening journal at %s: %w", featuresJournalPath, err)
			}
			defer store.Close()

			records, err := store.Load()
			if err != nil {
				return fmt.Errorf("loading journal: %w", err)
			}

			manager = protocolfeature.NewManager(catalog)
			if err := manager.Init(records); err != nil {
				return fmt.Errorf("replaying journal: %w", err)
			}
		}

		snapshot := protocolfeature.SnapshotJSON(catalog, manager)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	},
}

// journalCmd inspects a persisted activation journal without building a
// catalog around it — useful to sanity-check a journal file independent
// of which builtins the running binary recognizes.
var journalCmd = &cobra.Command{
	Use:   "journal <path>",
	Short: "Inspect a persisted protocol feature activation journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := journal.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening journal at %s: %w", args[0], err)
		}
		defer store.Close()

		records, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading journal: %w", err)
		}

		for i, rec := range records {
			fmt.Printf("%d: digest=%s block=%d\n", i, rec.Digest, rec.ActivationBlockNum)
		}
		fmt.Printf("%d activation(s)\n", len(records))
		return nil
	},
}

func init() {
	featuresCmd.Flags().StringVar(&featuresJournalPath, "journal", "", "path to a persisted activation journal to replay")
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(journalCmd)
}

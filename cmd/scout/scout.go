// Package scout implements the command that runs a batch of part
// requests to completion and prints the aggregated offers.
package scout

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/partscout/partscout/cmd/common"
	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/output"
	"github.com/partscout/partscout/internal/parts"
	"github.com/partscout/partscout/internal/scheduler"
)

// Command returns the scout command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		partsFile  string
		jsonOut    bool
		showOffers bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "scout [part name]",
		Short: "Fetch marketplace offers for one part or a parts file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			requests, err := collectParts(args, partsFile)
			if err != nil {
				return err
			}

			opts := scheduler.BatchOptions{MaxWorkers: workers}
			return runBatch(cmd, deps, requests, opts, jsonOut, showOffers)
		},
	}

	cmd.Flags().StringVarP(&partsFile, "file", "f", "", "parts file (.csv, .yml, .yaml)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&showOffers, "offers", false, "print every offer, not just the summary")
	cmd.Flags().IntVar(&workers, "workers", 0, "override the configured worker count for this batch")
	return cmd
}

func collectParts(args []string, partsFile string) ([]domain.PartRequest, error) {
	if partsFile != "" {
		return parts.LoadFile(partsFile)
	}
	if len(args) == 1 {
		part, err := domain.PartRequest{Name: args[0]}.Normalize()
		if err != nil {
			return nil, err
		}
		return []domain.PartRequest{part}, nil
	}
	return nil, errors.New("a part name argument or --file is required")
}

func runBatch(
	cmd *cobra.Command,
	deps *common.CommandDeps,
	requests []domain.PartRequest,
	opts scheduler.BatchOptions,
	jsonOut, showOffers bool,
) error {
	snap, err := deps.Scheduler.Submit(requests, opts)
	if err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}
	deps.Logger.Info("batch running", "batch_id", snap.BatchID, "parts", snap.Total)

	// Ctrl-C cancels the batch; already finished parts keep results.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = deps.Scheduler.Cancel(snap.BatchID)
	}()

	final, err := deps.Scheduler.Wait(cmd.Context(), snap.BatchID)
	if err != nil {
		return fmt.Errorf("wait for batch: %w", err)
	}

	results := make(map[string]*domain.OfferSet, final.Total)
	for _, part := range final.Parts {
		set, _, offerErr := deps.Scheduler.OfferSet(final.BatchID, part.Part.ID)
		if offerErr != nil {
			if !errors.Is(offerErr, scheduler.ErrNoResult) {
				output.PrintErrorf("lookup %s: %v", part.Part.Name, offerErr)
			}
			continue
		}
		results[part.Part.ID] = set
	}

	if jsonOut {
		return output.NewJSONRenderer(cmd.OutOrStdout()).RenderBatch(final, results)
	}

	renderer := output.NewTableRenderer(cmd.OutOrStdout())
	renderer.RenderBatch(final, results)
	if showOffers {
		for _, part := range final.Parts {
			if set, ok := results[part.Part.ID]; ok && len(set.Offers) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", part.Part.Name)
				renderer.RenderOffers(set)
			}
		}
	}
	return nil
}

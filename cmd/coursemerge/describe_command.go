package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coursemerge/internal/describe"
	"coursemerge/internal/logging"
	"coursemerge/internal/notifications"
	"coursemerge/internal/services/llm"
	"coursemerge/internal/sessions"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Generate descriptions for the session's packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var generator describe.Generator
			if cfg.LLM.Enabled {
				generator = llm.NewClient(llm.Config(cfg.GetLLM()))
			}
			pipeline := describe.NewPipeline(generator, describe.Options{
				MinExistingLength: cfg.Describe.MinExistingLength,
				ItemDelay:         time.Duration(cfg.Describe.ItemDelayMS) * time.Millisecond,
			}, logger)

			return ctx.withStore(func(store *sessions.Store) error {
				sessionID := ctx.sessionID()
				packages, err := store.ListBySession(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				if len(packages) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Session %s has no packages.\n", sessionID)
					return nil
				}

				out := cmd.OutOrStdout()
				pipeline.Start(sessionID, packages,
					func(event describe.ProgressEvent) {
						fmt.Fprintf(out, "[%3d%%] %s\n", event.Progress, event.Message)
					},
					func(event describe.ItemEvent) {
						source := "generated"
						if event.Fallback {
							source = "heuristic"
						}
						fmt.Fprintf(out, "  %d/%d %s (%s)\n", event.Completed, event.Total, event.PackageID, source)
					})

				snap := waitForTask(pipeline, sessionID)
				for id, description := range pipeline.Results(sessionID) {
					if err := store.UpdateDescription(cmd.Context(), sessionID, id, description); err != nil {
						logger.Warn("persist description failed",
							logging.String(logging.FieldPackage, id), logging.Error(err))
					}
				}
				pipeline.Cleanup(sessionID)

				switch snap.Status {
				case describe.StatusCompleted:
					notifier := notifications.NewService(cfg)
					if err := notifier.NotifyDescriptionsCompleted(cmd.Context(), sessionID, snap.Total); err != nil {
						logger.Warn("notify failed", logging.Error(err))
					}
					fmt.Fprintf(out, "Described %d package(s).\n", snap.Total)
					return nil
				case describe.StatusFailed:
					return fmt.Errorf("description task failed: %s", snap.Error)
				default:
					return fmt.Errorf("description task ended with status %s", snap.Status)
				}
			})
		},
	}
}

// waitForTask polls until the background task leaves the running state. The
// CLI runs the pipeline in the foreground, so this is a bounded busy-wait
// rather than a callback dance.
func waitForTask(pipeline *describe.Pipeline, sessionID string) describe.Snapshot {
	for {
		snap := pipeline.StatusOf(sessionID)
		if snap.Status != describe.StatusRunning {
			return snap
		}
		time.Sleep(50 * time.Millisecond)
	}
}

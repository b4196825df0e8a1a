package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"coursemerge/internal/course"
	"coursemerge/internal/logging"
	"coursemerge/internal/merge"
	"coursemerge/internal/notifications"
	"coursemerge/internal/sampler"
	"coursemerge/internal/sessions"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var keepOrder bool

	cmd := &cobra.Command{
		Use:   "merge [archive.zip...]",
		Short: "Merge packages into a single SCORM archive",
		Long: `Merge combines course packages into one SCORM 2004 archive with a
generated menu. With archive arguments the packages are merged in the order
given; without arguments the session's packages are merged, sorted
alphabetically by display title (use --keep-order to merge in upload order).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var packages []*course.Package
			if len(args) > 0 {
				packages, err = parseArchiveArgs(cfg.Sampler.MaxSampleLength, cfg.Sampler.MaxFallbackFiles, args)
				if err != nil {
					return err
				}
			} else {
				err = ctx.withStore(func(store *sessions.Store) error {
					stored, err := store.ListBySession(cmd.Context(), ctx.sessionID())
					if err != nil {
						return err
					}
					packages = includedPackages(stored)
					return nil
				})
				if err != nil {
					return err
				}
				if !keepOrder {
					sort.SliceStable(packages, func(i, j int) bool {
						return strings.ToLower(packages[i].DisplayTitle()) < strings.ToLower(packages[j].DisplayTitle())
					})
				}
			}

			if len(packages) == 0 {
				return fmt.Errorf("no valid packages to merge in session %s", ctx.sessionID())
			}

			out := cmd.OutOrStdout()
			notifier := notifications.NewService(cfg)
			merger := merge.NewMerger(cfg, logger)

			outputPath, err := merger.Merge(cmd.Context(), packages, func(step string, progress int) {
				fmt.Fprintf(out, "[%3d%%] %s\n", progress, step)
			})
			if err != nil {
				if notifyErr := notifier.NotifyMergeFailed(cmd.Context(), err); notifyErr != nil {
					logger.Warn("notify failed", logging.Error(notifyErr))
				}
				return err
			}

			if notifyErr := notifier.NotifyMergeCompleted(cmd.Context(), len(packages), outputPath); notifyErr != nil {
				logger.Warn("notify failed", logging.Error(notifyErr))
			}
			fmt.Fprintf(out, "Merged %d package(s) into %s\n", len(packages), outputPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepOrder, "keep-order", false, "Merge session packages in upload order instead of alphabetically")
	return cmd
}

func parseArchiveArgs(maxSampleLength, maxFallbackFiles int, args []string) ([]*course.Package, error) {
	opts := sampler.Options{MaxLength: maxSampleLength, MaxFallbackFiles: maxFallbackFiles}
	packages := make([]*course.Package, 0, len(args))
	for _, arg := range args {
		archivePath, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, err)
		}
		if _, err := os.Stat(archivePath); err != nil {
			return nil, fmt.Errorf("archive %s: %w", arg, err)
		}
		pkg, err := course.ValidateAndParsePackage(archivePath, filepath.Base(archivePath), opts)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", arg, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func includedPackages(packages []*course.Package) []*course.Package {
	included := make([]*course.Package, 0, len(packages))
	for _, pkg := range packages {
		if !pkg.Excluded() {
			included = append(included, pkg)
		}
	}
	return included
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"coursemerge/internal/course"
	"coursemerge/internal/manifest"
	"coursemerge/internal/sampler"
	"coursemerge/internal/sessions"
	"coursemerge/internal/textutil"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <archive.zip> [archive.zip...]",
		Short: "Validate course archives and add them to the session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			samplerOpts := sampler.Options{
				MaxLength:        cfg.Sampler.MaxSampleLength,
				MaxFallbackFiles: cfg.Sampler.MaxFallbackFiles,
			}

			return ctx.withStore(func(store *sessions.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					archivePath, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve %s: %w", arg, err)
					}
					if _, err := os.Stat(archivePath); err != nil {
						return fmt.Errorf("archive %s: %w", arg, err)
					}
					filename := filepath.Base(archivePath)

					pkg, err := course.ValidateAndParsePackage(archivePath, filename, samplerOpts)
					switch {
					case err == nil:
						// ok
					case manifest.IsParseError(err):
						// Parse failures are recorded, not fatal: the package
						// lands in the session as excluded.
						pkg = &course.Package{
							Identifier: "EXCLUDED-" + textutil.SanitizeToken(filename),
							Title:      textutil.TitleFromFilename(filename),
							Filename:   filename,
							Path:       archivePath,
							Error:      err.Error(),
						}
					default:
						return fmt.Errorf("read %s: %w", arg, err)
					}

					if err := store.Add(cmd.Context(), ctx.sessionID(), pkg); err != nil {
						return err
					}
					if pkg.Excluded() {
						fmt.Fprintf(out, "excluded %s: %s\n", filename, pkg.Error)
					} else {
						fmt.Fprintf(out, "added %s (%s, %s)\n", pkg.DisplayTitle(), pkg.Version, filename)
					}
				}
				return nil
			})
		},
	}
}

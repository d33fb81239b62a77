package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lenscap/internal/api"
	"lenscap/internal/gallery"
)

// syncPageSize is how many files each backend listing request asks for.
const syncPageSize = 200

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local gallery from the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := resumeSession(cmd, sess); err != nil {
				return err
			}

			total, analyzed, err := syncGallery(cmd.Context(), sess)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"total": total, "analyzed": analyzed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d photos (%d analyzed)\n", total, analyzed)
			return nil
		},
	}
}

// syncGallery replaces the local cache with the backend's full listing and
// reports the cache totals afterwards.
func syncGallery(ctx context.Context, sess *appSession) (total, analyzed int, err error) {
	files, err := fetchAllFiles(ctx, sess)
	if err != nil {
		return 0, 0, err
	}

	store, err := gallery.Open(sess.cfg.GalleryDBPath())
	if err != nil {
		return 0, 0, err
	}
	defer store.Close()

	photos := make([]gallery.Photo, 0, len(files))
	for _, file := range files {
		photos = append(photos, gallery.FromAPI(file))
	}
	if err := store.ReplaceAll(ctx, photos); err != nil {
		return 0, 0, err
	}
	return store.Stats(ctx)
}

func fetchAllFiles(ctx context.Context, sess *appSession) ([]api.File, error) {
	var all []api.File
	for offset := 0; ; offset += syncPageSize {
		page, err := sess.client.ListFiles(ctx, syncPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < syncPageSize {
			return all, nil
		}
	}
}

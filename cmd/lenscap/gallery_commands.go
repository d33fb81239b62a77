package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lenscap/internal/config"
	"lenscap/internal/gallery"
	"lenscap/internal/storage"
	"lenscap/internal/validate"
)

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	galleryCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse and manage the local photo gallery",
	}

	galleryCmd.AddCommand(newGalleryListCommand(ctx))
	galleryCmd.AddCommand(newGallerySearchCommand(ctx))
	galleryCmd.AddCommand(newGalleryEditCommand(ctx))
	galleryCmd.AddCommand(newGalleryRemoveCommand(ctx))
	galleryCmd.AddCommand(newGalleryDownloadCommand(ctx))

	return galleryCmd
}

func newGalleryListCommand(ctx *commandContext) *cobra.Command {
	var limit, page int
	var sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGalleryListing(cmd, ctx, "", limit, page, sort)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Photos per page (persisted as the new default)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order: newest, oldest, or name (persisted)")
	return cmd
}

func newGallerySearchCommand(ctx *commandContext) *cobra.Command {
	var limit, page int
	var sort string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cached photos by name, caption, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGalleryListing(cmd, ctx, args[0], limit, page, sort)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Photos per page (persisted as the new default)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order: newest, oldest, or name (persisted)")
	return cmd
}

func runGalleryListing(cmd *cobra.Command, ctx *commandContext, query string, limit, page int, sort string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	store, err := gallery.Open(cfg.GalleryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	prefs := galleryPrefs(cfg)
	if limit > 0 {
		if err := prefs.SetPageSize(limit); err != nil {
			return err
		}
	} else if limit, err = prefs.PageSize(); err != nil {
		return err
	}
	if sort != "" {
		if err := prefs.SetSortOrder(sort); err != nil {
			return err
		}
	} else if sort, err = prefs.SortOrder(); err != nil {
		return err
	}
	if err := prefs.SetLastQuery(query); err != nil {
		return err
	}

	if page < 1 {
		page = 1
	}
	opts := gallery.ListOptions{
		Sort:   sort,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	photos, err := store.Search(cmd.Context(), query, opts)
	if err != nil {
		return err
	}

	if ctx.jsonOutput() {
		return writeGalleryJSON(cmd, photos)
	}

	out := cmd.OutOrStdout()
	if len(photos) == 0 {
		if query != "" {
			fmt.Fprintf(out, "No photos match %q\n", query)
		} else {
			fmt.Fprintln(out, "Gallery is empty; upload photos or run 'lenscap sync'")
		}
		return nil
	}

	rows := make([][]string, 0, len(photos))
	for _, photo := range photos {
		caption := photo.Caption
		if caption == "" && !photo.Analyzed {
			caption = "(processing)"
		}
		rows = append(rows, []string{
			photo.RemoteID,
			photo.FileName,
			truncate(caption, 48),
			strings.Join(photo.Tags, ", "),
			formatSize(photo.SizeBytes),
			formatUploadedAt(photo.UploadedAt),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Caption", "Tags", "Size", "Uploaded"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func writeGalleryJSON(cmd *cobra.Command, photos []gallery.Photo) error {
	type jsonPhoto struct {
		ID         string   `json:"id"`
		FileName   string   `json:"file_name"`
		Caption    string   `json:"caption"`
		Tags       []string `json:"tags"`
		SizeBytes  int64    `json:"size_bytes"`
		UploadedAt string   `json:"uploaded_at"`
		Analyzed   bool     `json:"analyzed"`
	}
	items := make([]jsonPhoto, 0, len(photos))
	for _, photo := range photos {
		items = append(items, jsonPhoto{
			ID:         photo.RemoteID,
			FileName:   photo.FileName,
			Caption:    photo.Caption,
			Tags:       photo.Tags,
			SizeBytes:  photo.SizeBytes,
			UploadedAt: photo.UploadedAt.UTC().Format(time.RFC3339),
			Analyzed:   photo.Analyzed,
		})
	}
	return writeJSON(cmd, map[string]any{"photos": items})
}

func newGalleryEditCommand(ctx *commandContext) *cobra.Command {
	var caption string
	var tags []string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a photo's caption and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("caption") && !cmd.Flags().Changed("tags") {
				return fmt.Errorf("nothing to change; pass --caption and/or --tags")
			}

			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := resumeSession(cmd, sess); err != nil {
				return err
			}

			store, err := gallery.Open(sess.cfg.GalleryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			// Unchanged fields keep their cached value.
			if cached, err := store.Get(cmd.Context(), args[0]); err == nil {
				if !cmd.Flags().Changed("caption") {
					caption = cached.Caption
				}
				if !cmd.Flags().Changed("tags") {
					tags = cached.Tags
				}
			}

			file, err := sess.client.UpdateFile(cmd.Context(), args[0], caption, tags)
			if err != nil {
				return err
			}
			if err := store.Upsert(cmd.Context(), gallery.FromAPI(*file)); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"file": file})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", file.FileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "New caption")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "New tags (comma separated)")
	return cmd
}

func newGalleryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete photos from the backend and the local gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := resumeSession(cmd, sess); err != nil {
				return err
			}

			if err := sess.client.DeleteFiles(cmd.Context(), args); err != nil {
				return err
			}

			store, err := gallery.Open(sess.cfg.GalleryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), args...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d photos\n", len(args))
			return nil
		},
	}
}

func newGalleryDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the original photo bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := resumeSession(cmd, sess); err != nil {
				return err
			}

			target, err := resolveDownloadTarget(cmd, sess, args[0], output)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create download directory: %w", err)
			}

			dst, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			if err := sess.client.DownloadFile(cmd.Context(), args[0], dst); err != nil {
				_ = dst.Close()
				_ = os.Remove(target)
				return err
			}
			if err := dst.Close(); err != nil {
				return fmt.Errorf("finish %s: %w", target, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to the download directory)")
	return cmd
}

// resolveDownloadTarget picks a destination path, preferring the cached file
// name so downloads land with recognizable names.
func resolveDownloadTarget(cmd *cobra.Command, sess *appSession, id, output string) (string, error) {
	if output != "" {
		return config.ExpandPath(output)
	}

	name := id
	if store, err := gallery.Open(sess.cfg.GalleryDBPath()); err == nil {
		if photo, err := store.Get(cmd.Context(), id); err == nil {
			name = photo.FileName
		}
		_ = store.Close()
	}
	name = validate.SanitizeFileName(name)
	if name == "" {
		name = id
	}
	return filepath.Join(sess.cfg.Paths.DownloadDir, name), nil
}

func galleryPrefs(cfg *config.Config) *gallery.Prefs {
	return gallery.NewPrefs(
		storage.NewFileStore(cfg.SessionStatePath()),
		cfg.Gallery.PageSize,
		cfg.Gallery.SortOrder,
	)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lenscap/internal/logging"
	"lenscap/internal/uploader"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload photos for captioning",
		Long: `Upload one or more photos as a single batch. Every file is validated
before anything touches the network; a batch with any invalid file is
rejected with the full list of problems.

By default the command waits for the backend to finish captioning the
batch, then refreshes the local gallery. Use --no-wait to return as soon
as the upload is accepted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}

			limits := uploader.Limits{
				MaxFileSize:       int64(sess.cfg.Upload.MaxFileSizeMiB) << 20,
				AllowedExtensions: sess.cfg.Upload.AllowedExtensions,
			}
			batch, err := uploader.NewBatch(args, limits)
			if err != nil {
				return err
			}

			if err := resumeSession(cmd, sess); err != nil {
				return err
			}

			files, closer, err := batch.Open()
			if err != nil {
				return err
			}
			start := time.Now()
			result, uploadErr := sess.client.BulkUpload(cmd.Context(), files)
			if closeErr := closer.Close(); closeErr != nil {
				sess.logger.Warn("close batch files", logging.Error(closeErr))
			}
			if uploadErr != nil {
				if notifyErr := sess.notifier.NotifyError(cmd.Context(), uploadErr, "upload"); notifyErr != nil {
					sess.logger.Debug("notify error failed", logging.Error(notifyErr))
				}
				return uploadErr
			}

			out := cmd.OutOrStdout()
			succeeded := result.SuccessfulUploads
			sess.logger.Info("batch uploaded",
				logging.String(logging.FieldBatchID, batch.ID),
				logging.Int("files", succeeded),
				logging.Duration("elapsed", time.Since(start)),
			)
			var failures []string
			for _, item := range result.Results {
				if !item.Success {
					failures = append(failures, fmt.Sprintf("%s: %s", item.FileName, item.Error))
				}
			}

			if len(failures) > 0 {
				fmt.Fprintf(out, "Uploaded %d of %d files\n", succeeded, len(batch.Items))
				for _, failure := range failures {
					fmt.Fprintf(out, "  failed: %s\n", failure)
				}
				if err := sess.notifier.NotifyBatchPartial(cmd.Context(), succeeded, len(failures)); err != nil {
					sess.logger.Debug("notify partial failed", logging.Error(err))
				}
			} else {
				fmt.Fprintf(out, "Uploaded %d files\n", succeeded)
				if err := sess.notifier.NotifyBatchComplete(cmd.Context(), succeeded, time.Since(start)); err != nil {
					sess.logger.Debug("notify complete failed", logging.Error(err))
				}
			}

			if succeeded == 0 {
				return fmt.Errorf("all %d uploads failed", len(failures))
			}
			if noWait {
				fmt.Fprintln(out, "Captions are generated in the background; run 'lenscap sync' later to fetch them.")
				return nil
			}

			return waitForCaptions(cmd, sess, succeeded)
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the upload is accepted instead of waiting for captions")
	return cmd
}

// waitForCaptions polls the analysis endpoint until the batch is verified
// complete, the attempt budget runs out, or the command is interrupted. On
// verified completion the local gallery is refreshed in the same breath.
func waitForCaptions(cmd *cobra.Command, sess *appSession, count int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Waiting for %d captions...\n", count)

	refresh := func(verified bool) {
		if _, _, err := syncGallery(cmd.Context(), sess); err != nil {
			sess.logger.Warn("gallery refresh failed", logging.Error(err))
		}
		if verified {
			if err := sess.notifier.NotifyAnalysisComplete(cmd.Context(), count); err != nil {
				sess.logger.Debug("notify analysis failed", logging.Error(err))
			}
		}
	}

	poller := uploader.NewPoller(sess.client.RecentFilesAnalyzed, refresh, sess.logger,
		uploader.WithInterval(time.Duration(sess.cfg.Upload.PollInterval)*time.Second),
		uploader.WithInitialDelay(time.Duration(sess.cfg.Upload.PollInitialDelay)*time.Second),
		uploader.WithMaxAttempts(sess.cfg.Upload.PollMaxAttempts),
	)
	poller.Start(cmd.Context(), count)

	switch state := poller.Wait(cmd.Context()); state {
	case uploader.StateComplete:
		fmt.Fprintln(out, "All captions ready; gallery updated.")
		return nil
	case uploader.StateExhausted:
		fmt.Fprintln(out, "Captions are still processing; run 'lenscap sync' later to fetch them.")
		return nil
	default:
		return cmd.Context().Err()
	}
}

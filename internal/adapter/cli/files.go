package cli

import (
	"fmt"
	"time"

	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <paths...>",
	Short: "Upload files and print their IDs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List, inspect or delete uploaded files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded files with their expiry",
	Args:  cobra.NoArgs,
	RunE:  runFilesList,
}

var filesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize uploaded files by type and status",
	Args:  cobra.NoArgs,
	RunE:  runFilesStats,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <file-id...>",
	Short: "Delete uploaded files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilesDelete,
}

func init() {
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesStatsCmd)
	filesCmd.AddCommand(filesDeleteCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := newContainer("upload", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	files, err := readLocalFiles(args)
	if err != nil {
		return err
	}
	records := c.Uploader.Upload(cmd.Context(), files)

	failed := 0
	for _, r := range records {
		if r.Status != entity.UploadStatusUploaded {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files were not uploaded", failed, len(records))
	}
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	c, err := newContainer("files", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	files, err := c.Manus.ListFiles(cmd.Context())
	if err != nil {
		return err
	}
	c.Console.ShowRemoteFiles(files, c.Config.FileExpiry(), time.Now())
	return nil
}

func runFilesStats(cmd *cobra.Command, args []string) error {
	c, err := newContainer("files", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	files, err := c.Manus.ListFiles(cmd.Context())
	if err != nil {
		return err
	}
	a := service.AnalyzeFiles(files)
	out := c.Console.Out()
	fmt.Fprintf(out, "Files:       %d\n", a.Total)
	fmt.Fprintf(out, "Total size:  %s\n", service.FormatFileSize(a.TotalBytes))
	for ext, n := range a.ByType {
		fmt.Fprintf(out, "  .%-8s %d\n", ext, n)
	}
	for status, n := range a.ByStatus {
		fmt.Fprintf(out, "  %-10s %d\n", status, n)
	}
	return nil
}

// runFilesDelete deletes each file in turn and keeps going after a failure.
func runFilesDelete(cmd *cobra.Command, args []string) error {
	c, err := newContainer("files", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	failed := 0
	for _, id := range args {
		if err := c.Manus.DeleteFile(cmd.Context(), id); err != nil {
			c.Console.ShowError(err)
			failed++
			continue
		}
		c.Console.ShowInfo("Deleted %s", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(args))
	}
	return nil
}

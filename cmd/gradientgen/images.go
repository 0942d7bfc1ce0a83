package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gradientgen/internal/store"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage stored images",
	Long: `Manage images stored in the data directory by "generate --save" and by the server.
Each image is kept with the plan that produced it, so it can be inspected or reproduced.`,
}

var listImagesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored images",
	Long:  `Display all stored images with ID, creation time, algorithm, size, seed and file size.`,
	RunE:  runListImages,
}

var showImageCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored image record",
	Long:  `Print the record of one image, including its plan. A unique ID prefix is accepted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShowImage,
}

var cleanImagesCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old images",
	Long: `Delete old images based on retention policy.
You can keep only the newest N images or delete images older than N days.`,
	RunE: runCleanImages,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the generation journal",
	RunE:  runJournal,
}

func init() {
	rootCmd.AddCommand(imagesCmd)

	imagesCmd.AddCommand(listImagesCmd)
	imagesCmd.AddCommand(showImageCmd)
	imagesCmd.AddCommand(cleanImagesCmd)
	imagesCmd.AddCommand(journalCmd)

	cleanImagesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N images (0 = keep all)")
	cleanImagesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete images older than N days (0 = no age limit)")
	cleanImagesCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openImageStore() (*store.FSStore, error) {
	imageStore, err := store.NewFSStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}
	return imageStore, nil
}

func runListImages(cmd *cobra.Command, args []string) error {
	imageStore, err := openImageStore()
	if err != nil {
		return err
	}

	records, err := imageStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tALGORITHM\tSIZE\tSEED\tFORMAT\tFILE")
	fmt.Fprintln(w, "--\t-------\t---------\t----\t----\t------\t----")

	for _, record := range records {
		sizeStr := "unknown"
		if path, err := imageStore.ImagePath(record.ID); err == nil {
			if info, err := os.Stat(path); err == nil {
				sizeStr = formatBytes(info.Size())
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			shortID(record.ID),
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			record.Algorithm,
			record.Size,
			record.Seed,
			record.Format,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal images: %d\n", len(records))
	return nil
}

func runShowImage(cmd *cobra.Command, args []string) error {
	imageStore, err := openImageStore()
	if err != nil {
		return err
	}

	records, err := imageStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	record, err := findRecord(records, args[0])
	if err != nil {
		return err
	}

	path, err := imageStore.ImagePath(record.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Image: %s\n", record.ID)
	fmt.Printf("Created: %s\n", record.CreatedAt.Format(time.RFC3339))
	fmt.Printf("File: %s\n", path)
	fmt.Println()
	fmt.Printf("Algorithm: %s\n", record.Algorithm)
	fmt.Printf("Size: %dx%d\n", record.Size, record.Size)
	fmt.Printf("Seed: %d\n", record.Seed)
	fmt.Printf("Format: %s\n", record.Format)
	fmt.Printf("Render time: %s\n", record.Elapsed.Round(time.Microsecond))
	fmt.Println()

	plan, err := json.MarshalIndent(record.Plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format plan: %w", err)
	}
	fmt.Printf("Plan:\n%s\n", plan)
	return nil
}

// findRecord resolves an ID or a unique ID prefix.
func findRecord(records []store.Record, id string) (*store.Record, error) {
	var matches []store.Record
	for _, r := range records {
		if r.ID == id {
			return &r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &store.NotFoundError{ID: id}
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous id prefix %q matches %d images", id, len(matches))
	}
}

func runCleanImages(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	imageStore, err := openImageStore()
	if err != nil {
		return err
	}

	records, err := imageStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No images to clean.")
		return nil
	}

	toDelete := selectImagesForDeletion(records, keepLast, olderThanDays, time.Now())

	if len(toDelete) == 0 {
		fmt.Println("No images match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d image(s) to delete:\n", len(toDelete))
	for _, record := range toDelete {
		fmt.Printf("  - %s (%s, %s)\n",
			shortID(record.ID),
			record.Algorithm,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, record := range toDelete {
		if err := imageStore.DeleteImage(record.ID); err != nil {
			slog.Error("Failed to delete image", "id", record.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted image", "id", record.ID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d image(s), %d failed.\n", deleted, failed)
	return nil
}

// selectImagesForDeletion applies the retention policy: records older than
// olderThanDays, plus everything beyond the newest keepLast. Zero disables a rule.
// The result is ordered oldest first.
func selectImagesForDeletion(records []store.Record, keepLast int, olderThanDays int, now time.Time) []store.Record {
	sorted := make([]store.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	cutoff := now.AddDate(0, 0, -olderThanDays)
	var toDelete []store.Record
	for i, record := range sorted {
		beyondKeep := keepLast > 0 && i >= keepLast
		tooOld := olderThanDays > 0 && record.CreatedAt.Before(cutoff)
		if beyondKeep || tooOld {
			toDelete = append(toDelete, record)
		}
	}

	for i, j := 0, len(toDelete)-1; i < j; i, j = i+1, j-1 {
		toDelete[i], toDelete[j] = toDelete[j], toDelete[i]
	}
	return toDelete
}

func runJournal(cmd *cobra.Command, args []string) error {
	entries, err := store.ReadJournal(cfg.DataDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Journal is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tID\tALGORITHM\tSIZE\tSEED\tELAPSED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			shortID(e.ID),
			e.Algorithm,
			e.Size,
			e.Seed,
			e.Elapsed.Round(time.Microsecond),
		)
	}
	return w.Flush()
}

// shortID truncates an ID for display
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

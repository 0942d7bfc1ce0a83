package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/imageio"
	"github.com/cwbudde/gradientgen/internal/store"
)

var (
	outPath   string
	algorithm string
	count     int
	save      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate gradient images",
	Long: `Draws a random gradient and writes it to --out.
With --count N, N images are written using seeds seed..seed+N-1.
With --save, images are also stored in the data directory and journaled.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&outPath, "out", "", "Output image path (default gradient.<ext>)")
	generateCmd.Flags().Int("size", gradient.DefaultSize, "Canvas side length in pixels")
	generateCmd.Flags().Int64("seed", 0, "Random seed (0 = time-based)")
	generateCmd.Flags().String("format", "png", "Output format: png, jpeg, bmp, tiff")
	generateCmd.Flags().Int("workers", 0, "Render goroutines (0 = GOMAXPROCS)")
	generateCmd.Flags().StringVar(&algorithm, "algorithm", "", "Force an algorithm: linear, radial, channel_strength")
	generateCmd.Flags().IntVar(&count, "count", 1, "Number of images to generate")
	generateCmd.Flags().BoolVar(&save, "save", false, "Also store images in the data directory")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}

	format := cfg.ImageFormat()
	if outPath != "" && !cmd.Flags().Changed("format") {
		format = imageio.FormatFromPath(outPath, format)
	}

	opts := []gradient.Option{
		gradient.WithWorkers(cfg.Workers),
		gradient.WithLogger(logger),
	}
	if algorithm != "" {
		a, err := gradient.ParseAlgorithm(algorithm)
		if err != nil {
			return err
		}
		opts = append(opts, gradient.WithAlgorithm(a))
	}

	var (
		imageStore *store.FSStore
		journal    *store.JournalWriter
	)
	if save {
		var err error
		imageStore, err = store.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create image store: %w", err)
		}
		journal, err = store.OpenJournal(cfg.DataDir)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	slog.Info("Generating gradients", "count", count, "size", cfg.Size, "seed", seed, "format", string(format))

	for i := 0; i < count; i++ {
		imageSeed := seed + int64(i)

		generator, err := gradient.NewGenerator(cfg.Size, rand.New(rand.NewSource(imageSeed)), opts...)
		if err != nil {
			return err
		}

		start := time.Now()
		canvas, plan, err := generator.Generate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to generate image %d: %w", i+1, err)
		}
		elapsed := time.Since(start)

		path := outputPath(outPath, format, i, count)
		if err := imageio.WriteFile(path, canvas.Image(), format); err != nil {
			return err
		}

		if imageStore != nil {
			record, err := store.NewRecord(plan, cfg.Size, imageSeed, format, elapsed)
			if err != nil {
				return err
			}
			if err := imageStore.SaveImage(record, canvas.Image()); err != nil {
				return err
			}
			if err := journal.Write(store.EntryFromRecord(record)); err != nil {
				return err
			}
			slog.Info("Stored image", "id", record.ID, "dir", imageStore.BaseDir())
		}

		slog.Info("Generated gradient",
			"path", path,
			"algorithm", plan.Algorithm().String(),
			"seed", imageSeed,
			"elapsed", elapsed,
		)
		fmt.Printf("Wrote %s (%s, seed %d, %s)\n", path, plan.Algorithm(), imageSeed, elapsed.Round(time.Millisecond))
	}

	return nil
}

// outputPath picks the file name for image i of total.
// Batches get a 1-based index suffix before the extension.
func outputPath(out string, format imageio.Format, i, total int) string {
	if out == "" {
		out = "gradient" + format.Extension()
	}
	if total <= 1 {
		return out
	}

	ext := filepath.Ext(out)
	base := strings.TrimSuffix(out, ext)
	width := len(fmt.Sprint(total))
	return fmt.Sprintf("%s-%0*d%s", base, width, i+1, ext)
}

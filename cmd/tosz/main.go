package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/formats/gra"
	"github.com/dargueta/tosz/utilities/compression"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	err := app.Run(os.Args)
	if err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tosz",
		Usage: "Pack and unpack TempleOS compressed files and GRA images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages",
				EnvVars: []string{"TOSZ_VERBOSE"},
			},
			&cli.Uint64Flag{
				Name:    "max-expanded-size",
				Usage:   "refuse to expand anything claiming to be this many bytes or more",
				Value:   compression.DefaultMaxExpandedSize,
				EnvVars: []string{"TOSZ_MAX_EXPANDED_SIZE"},
			},
		},
		Before: setUpLogging,
		Commands: []*cli.Command{
			{
				Name:      "pack",
				Usage:     "Compress a file",
				Action:    packFile,
				ArgsUsage: "INPUT_FILE  OUTPUT_FILE",
			},
			{
				Name:      "unpack",
				Usage:     "Expand a compressed file",
				Action:    unpackFile,
				ArgsUsage: "INPUT_FILE  OUTPUT_FILE",
			},
			{
				Name:      "info",
				Usage:     "Show the header of one or more compressed files",
				Action:    showInfo,
				ArgsUsage: "FILE...",
			},
			{
				Name:  "stats",
				Usage: "Compress every matching file in memory and report how well it packs",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "write the report as CSV"},
				},
				Action:    showStats,
				ArgsUsage: "PATTERN...",
			},
			{
				Name:      "gra-body",
				Usage:     "Extract the raw pixel bytes of a GRA image",
				Action:    extractGraBody,
				ArgsUsage: "GRA_FILE  OUTPUT_FILE",
			},
		},
	}
}

func setUpLogging(context *cli.Context) error {
	level := slog.LevelInfo
	if context.Bool("verbose") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(context.App.ErrWriter, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func codecFromFlags(context *cli.Context) compression.ArcCodec {
	return compression.ArcCodec{MaxExpandedSize: context.Uint64("max-expanded-size")}
}

func requireArgs(context *cli.Context, count int) error {
	if context.NArg() != count {
		return tosz.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("%s takes %d arguments, got %d", context.Command.Name, count, context.NArg()))
	}
	return nil
}

func packFile(context *cli.Context) error {
	err := requireArgs(context, 2)
	if err != nil {
		return err
	}
	inputPath := context.Args().Get(0)
	outputPath := context.Args().Get(1)

	source, err := os.ReadFile(inputPath)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}

	container := codecFromFlags(context).Compress(source)
	err = os.WriteFile(outputPath, container, 0o644)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}

	header, _ := compression.ParseHeader(container)
	slog.Info(
		"packed",
		"path", inputPath,
		"expandedSize", len(source),
		"compressedSize", len(container),
		"compressionType", header.CompressionType.String(),
	)
	return nil
}

func unpackFile(context *cli.Context) error {
	err := requireArgs(context, 2)
	if err != nil {
		return err
	}
	inputPath := context.Args().Get(0)
	outputPath := context.Args().Get(1)

	container, err := os.ReadFile(inputPath)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}

	expanded, n, err := codecFromFlags(context).Decompress(container)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}

	err = os.WriteFile(outputPath, expanded, 0o644)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}
	slog.Info("unpacked", "path", inputPath, "expandedSize", n)
	return nil
}

func showInfo(context *cli.Context) error {
	if context.NArg() == 0 {
		return tosz.ErrInvalidArgument.WithMessage("no files given")
	}

	limit := context.Uint64("max-expanded-size")
	for _, path := range context.Args().Slice() {
		container, err := os.ReadFile(path)
		if err != nil {
			return tosz.ErrIOFailed.Wrap(err)
		}

		header, err := compression.ParseHeader(container)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		status := "ok"
		err = header.Validate(len(container), limit)
		if err != nil {
			status = err.Error()
		}

		fmt.Fprintf(
			context.App.Writer,
			"%s\ttype=%s\texpanded=%d\tcompressed=%d\tstatus=%s\n",
			path,
			header.CompressionType,
			header.ExpandedSize,
			header.CompressedSize,
			status,
		)
	}
	return nil
}

func extractGraBody(context *cli.Context) error {
	err := requireArgs(context, 2)
	if err != nil {
		return err
	}
	inputPath := context.Args().Get(0)
	outputPath := context.Args().Get(1)

	file, err := os.Open(inputPath)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}
	defer file.Close()

	image, err := gra.Read(file, gra.Options{Codec: codecFromFlags(context)})
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}

	err = os.WriteFile(outputPath, image.Body[:image.PixelCount()], 0o644)
	if err != nil {
		return tosz.ErrIOFailed.Wrap(err)
	}

	fmt.Fprintf(
		context.App.Writer,
		"%s: %dx%d (internal width %d), flags 0x%02x, %d pixel bytes\n",
		inputPath,
		image.Width,
		image.Height,
		image.WidthInternal,
		image.Flags,
		image.PixelCount(),
	)
	return nil
}

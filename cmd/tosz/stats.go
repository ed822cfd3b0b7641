package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/utilities/compression"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
)

// statRow is one line of the `stats` report.
type statRow struct {
	Path            string  `csv:"path"`
	ExpandedSize    int     `csv:"expanded_size"`
	CompressedSize  int     `csv:"compressed_size"`
	CompressionType string  `csv:"compression_type"`
	Ratio           float64 `csv:"ratio"`
	Digest          string  `csv:"xxhash64"`
}

// expandPatterns resolves every glob pattern to a sorted, de-duplicated list of
// regular files. `**` matches any number of directories.
func expandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	paths := []string{}

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, tosz.ErrInvalidArgument.WithMessage(
				fmt.Sprintf("bad pattern %q: %s", pattern, err))
		}
		if len(matches) == 0 {
			slog.Warn("patternMatchedNothing", "pattern", pattern)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// measureFile compresses the file at `path`, expands the result again, and
// checks that the round trip reproduced the original bytes.
func measureFile(path string, codec tosz.BodyCodec) (statRow, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return statRow{}, tosz.ErrIOFailed.Wrap(err)
	}

	container := codec.Compress(source)
	header, err := compression.ParseHeader(container)
	if err != nil {
		return statRow{}, err
	}

	expanded, _, err := codec.Decompress(container)
	if err != nil {
		return statRow{}, fmt.Errorf("%s: round trip failed: %w", path, err)
	}

	digest := xxhash.Sum64(source)
	if xxhash.Sum64(expanded) != digest {
		return statRow{}, tosz.ErrCorrupted.WithMessage(
			fmt.Sprintf("%s: expanded data doesn't match the original", path))
	}

	ratio := 0.0
	if len(source) > 0 {
		ratio = float64(len(container)) / float64(len(source))
	}

	return statRow{
		Path:            path,
		ExpandedSize:    len(source),
		CompressedSize:  len(container),
		CompressionType: header.CompressionType.String(),
		Ratio:           ratio,
		Digest:          fmt.Sprintf("%016x", digest),
	}, nil
}

func collectStats(patterns []string, codec tosz.BodyCodec) ([]*statRow, error) {
	paths, err := expandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	rows := make([]*statRow, 0, len(paths))
	for _, path := range paths {
		row, err := measureFile(path, codec)
		if err != nil {
			return nil, err
		}
		slog.Debug("measured", "path", path, "ratio", row.Ratio)
		rows = append(rows, &row)
	}
	return rows, nil
}

func writeStatsTable(output io.Writer, rows []*statRow) {
	fmt.Fprintf(output, "%-40s %10s %10s %-11s %6s %16s\n",
		"PATH", "SIZE", "PACKED", "TYPE", "RATIO", "XXHASH64")
	for _, row := range rows {
		fmt.Fprintf(
			output,
			"%-40s %10d %10d %-11s %6.3f %16s\n",
			row.Path,
			row.ExpandedSize,
			row.CompressedSize,
			row.CompressionType,
			row.Ratio,
			row.Digest,
		)
	}
}

func showStats(context *cli.Context) error {
	if context.NArg() == 0 {
		return tosz.ErrInvalidArgument.WithMessage("no patterns given")
	}

	rows, err := collectStats(context.Args().Slice(), codecFromFlags(context))
	if err != nil {
		return err
	}

	if context.Bool("csv") {
		return gocsv.Marshal(rows, context.App.Writer)
	}
	writeStatsTable(context.App.Writer, rows)
	return nil
}

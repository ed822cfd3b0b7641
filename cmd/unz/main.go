package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/utilities/compression"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(
			os.Stderr,
			"Expand a TempleOS compressed file.\nUsage: %s input-file [output-file]\n",
			os.Args[0])
		os.Exit(1)
	}

	sourceFilePath := os.Args[1]
	outputFilePath, err := outputPathFor(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	sourceFile, errSrc := os.Open(sourceFilePath)
	if errSrc != nil {
		fmt.Fprintf(
			os.Stderr, "Failed to open file for reading: `%v`: %s\n", sourceFilePath, errSrc)
		os.Exit(1)
	}
	defer sourceFile.Close()

	outFile, errOut := os.Create(outputFilePath)
	if errOut != nil {
		fmt.Fprintf(
			os.Stderr, "Failed to open file for writing: `%v`: %s\n", outputFilePath, errOut)
		os.Exit(1)
	}
	defer outFile.Close()

	nWritten, err := compression.DecompressStream(sourceFile, outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding file: %s\n", err)
		outFile.Close()
		os.Remove(outputFilePath)
		os.Exit(2)
	}

	fmt.Printf("Expanded `%v` to %d bytes.\n", outputFilePath, nWritten)
}

// outputPathFor picks where to write the expanded file: the explicit second
// argument if there is one, otherwise the input path without its ".Z" suffix.
func outputPathFor(args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}

	sourceFilePath := args[0]
	outputFilePath := strings.TrimSuffix(sourceFilePath, ".Z")
	if outputFilePath == sourceFilePath || outputFilePath == "" {
		return "", tosz.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't guess an output name for `%v`; give one explicitly", sourceFilePath))
	}
	return outputFilePath, nil
}

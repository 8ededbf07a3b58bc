package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const csvRequired = "CSV content required (use --csv, --file, or stdin)"

// readInputSource reads a file, or stdin for "-", and trims the result.
func readInputSource(source string, stdin io.Reader) (string, error) {
	data, err := readRawInput(source, stdin)
	return strings.TrimSpace(data), err
}

// readRawInput reads a file, or stdin for "-", byte for byte. CSV cells
// may carry meaningful surrounding whitespace.
func readRawInput(source string, stdin io.Reader) (string, error) {
	path := strings.TrimSpace(source)
	if path == "" {
		return "", errors.New("empty input source")
	}

	r := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer file.Close()
		r = file
	} else if r == nil {
		r = os.Stdin
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// inputHasData reports whether r may have piped content. Only an
// interactive terminal is ruled out.
func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	file, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := file.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice == 0
}

// readCSVFromFlags returns CSV text from --csv, --file (path or -) or
// piped stdin, in that order. Blank content is rejected.
func readCSVFromFlags(source, content string, stdin io.Reader) (string, error) {
	hasSource := strings.TrimSpace(source) != ""
	if hasSource && content != "" {
		return "", errors.New("use only one of --csv or --file")
	}

	text := content
	switch {
	case content != "":
	case hasSource:
		read, err := readRawInput(source, stdin)
		if err != nil {
			return "", err
		}
		text = read
	case inputHasData(stdin):
		read, err := readRawInput("-", stdin)
		if err != nil {
			return "", err
		}
		text = read
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New(csvRequired)
	}
	return text, nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/serverless-sim/internal/app"
	"github.com/andresuchdata/serverless-sim/internal/workspace"
)

// menu is the interactive front end; one choice per line of input.
type menu struct {
	app *app.App
	in  *bufio.Scanner
	out io.Writer
}

func newMenu(a *app.App, in io.Reader, out io.Writer) *menu {
	return &menu{app: a, in: bufio.NewScanner(in), out: out}
}

func (m *menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) Run(ctx context.Context) error {
	samplesDir := m.app.Config.App.SamplesDir
	for {
		hr(m.out, "SERVERLESS FILE UPLOAD & ANALYSIS (SIMULATED) ⚡")
		fmt.Fprintln(m.out, "1) Upload sample file")
		fmt.Fprintln(m.out, "2) Choose a sample file to upload")
		fmt.Fprintln(m.out, "3) Upload a custom file (enter path)")
		fmt.Fprintln(m.out, "4) Show DynamoDB (mock) records")
		fmt.Fprintln(m.out, "5) Show Lambda logs")
		fmt.Fprintln(m.out, "6) Run full demo on all samples")
		fmt.Fprintln(m.out, "0) Exit")

		choice, ok := m.prompt("\nSelect an option: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			printResponse(m.out, m.app.Uploads.UploadFile(ctx, filepath.Join(samplesDir, workspace.SampleName)))
		case "2":
			if err := m.chooseSample(ctx, samplesDir); err != nil {
				return err
			}
		case "3":
			path, ok := m.prompt("Enter full path to a local file: ")
			if !ok {
				return nil
			}
			printResponse(m.out, m.app.Uploads.UploadFile(ctx, expandHome(path)))
		case "4":
			hr(m.out, "DYNAMODB (MOCK) RECORDS")
			if err := showRecords(ctx, m.out, m.app); err != nil {
				return err
			}
		case "5":
			hr(m.out, "LAMBDA LOGS")
			if err := showLogs(m.out, m.app); err != nil {
				return err
			}
		case "6":
			hr(m.out, "RUN DEMO")
			responses, err := m.app.Uploads.RunDemo(ctx, samplesDir)
			if err != nil {
				return err
			}
			if len(responses) == 0 {
				fmt.Fprintln(m.out, "No sample files found.")
			}
			for _, resp := range responses {
				printResponse(m.out, resp)
			}
		case "0", "7", "q", "exit":
			fmt.Fprintln(m.out, "Goodbye! 👋")
			return nil
		default:
			fmt.Fprintln(m.out, "Unknown option.")
		}

		if _, ok := m.prompt("\nPress Enter to continue..."); !ok {
			return nil
		}
	}
}

func (m *menu) chooseSample(ctx context.Context, samplesDir string) error {
	files, err := workspace.ListSamples(samplesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(m.out, "No sample files found.")
		return nil
	}
	for i, f := range files {
		fmt.Fprintf(m.out, "%d) %s\n", i+1, filepath.Base(f))
	}

	idx, ok := m.prompt("Pick a file number: ")
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 1 || n > len(files) {
		fmt.Fprintln(m.out, "Invalid selection.")
		return nil
	}
	printResponse(m.out, m.app.Uploads.UploadFile(ctx, files[n-1]))
	return nil
}

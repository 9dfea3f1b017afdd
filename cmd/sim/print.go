package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/serverless-sim/internal/app"
	"github.com/andresuchdata/serverless-sim/internal/domain"
)

const ruleWidth = 70

// hr prints "title ────" padded to ruleWidth, or a bare rule without a title.
func hr(w io.Writer, title string) {
	if title == "" {
		fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
		return
	}
	pad := max(0, ruleWidth-utf8.RuneCountInString(title)-2)
	fmt.Fprintf(w, "%s %s\n", title, strings.Repeat("─", pad))
}

func printResponse(w io.Writer, resp domain.Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(w, "%d %s\n", resp.StatusCode, resp.Body)
	}
}

func showObjects(ctx context.Context, w io.Writer, a *app.App, prefix string) error {
	objects, err := a.Uploads.Objects(ctx, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Fprintln(w, "Bucket is empty.")
		return nil
	}
	for _, obj := range objects {
		fmt.Fprintf(w, "%s  •  %d bytes  •  %s\n", obj.Key, obj.Size, obj.LastModified.UTC().Format(domain.ProcessedTimeFormat))
	}
	return nil
}

func invokeFile(ctx context.Context, w io.Writer, a *app.App, path string) error {
	raw, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("read event file: %w", err)
	}
	printResponse(w, a.Uploads.Invoke(ctx, raw))
	return nil
}

func showRecords(ctx context.Context, w io.Writer, a *app.App) error {
	items, err := a.Uploads.Records(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No records yet.")
		return nil
	}
	for i, it := range items {
		fmt.Fprintf(w, "[%d] %s  •  %d bytes  •  %s  •  %s\n", i+1, it.Filename, it.SizeBytes, it.MimeType, it.ProcessedUTC)
	}
	fmt.Fprintln(w)

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	fmt.Fprintln(w, string(payload))
	return nil
}

func showLogs(w io.Writer, a *app.App) error {
	logs, err := a.Uploads.Logs()
	if err != nil {
		return err
	}
	if logs == "" {
		logs = "(empty logs)\n"
	}
	fmt.Fprint(w, logs)
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

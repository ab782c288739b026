package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/analyzer"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/internal/repository"
	"github.com/anime-shed/ai-image-inspector-go/internal/storage"
	"github.com/anime-shed/ai-image-inspector-go/pkg/validation"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

func main() {
	var (
		filePath  = flag.String("file", "", "Path to a single image")
		dirPath   = flag.String("dir", "", "Directory of images to analyze recursively")
		urlPath   = flag.String("url", "", "URL of an image to download and analyze")
		jsonOut   = flag.Bool("json", false, "Print the raw analysis document as JSON")
		verbose   = flag.Bool("verbose", false, "Show metadata and debug logs")
		maxPixels = flag.Int64("max-pixels", 50_000_000, "Reject images with more pixels than this")
		timeout   = flag.Duration("timeout", 30*time.Second, "Download timeout for -url")
	)
	flag.Parse()

	targets := flag.Args()
	if *filePath == "" && *dirPath == "" && *urlPath == "" && len(targets) == 0 {
		fmt.Println("Usage:")
		fmt.Println("  inspect -file <image>")
		fmt.Println("  inspect -dir <directory>")
		fmt.Println("  inspect -url <url>")
		fmt.Println("  inspect <image-or-url>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("error")
	}

	r := &runner{
		analyzer: analyzer.NewImageAnalyzer(analyzer.DefaultOptions().WithMaxImagePixels(*maxPixels)),
		images: repository.NewRemoteImageRepository(
			storage.NewHTTPImageFetcher(storage.HTTPFetcherOptions{Timeout: *timeout}),
			validation.NewURLValidator(),
		),
		printer: newPrinter(os.Stdout, *jsonOut, *verbose),
		timeout: *timeout,
	}

	if *filePath != "" {
		targets = append(targets, *filePath)
	}
	if *urlPath != "" {
		targets = append(targets, *urlPath)
	}
	if *dirPath != "" {
		files, err := collectImages(*dirPath)
		if err != nil {
			r.printer.Error("Error walking directory %s: %v", *dirPath, err)
			os.Exit(1)
		}
		targets = append(targets, files...)
	}

	failures := 0
	for _, target := range targets {
		if !r.inspect(target) {
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

type runner struct {
	analyzer analyzer.ImageAnalyzer
	images   repository.ImageRepository
	printer  *printer
	timeout  time.Duration
}

// inspect analyzes one path or URL and reports whether it succeeded.
func (r *runner) inspect(target string) bool {
	data, err := r.read(target)
	if err != nil {
		r.printer.Error("Failed to read %s: %v", target, err)
		return false
	}

	result, err := r.analyzer.Analyze(data)
	if err != nil {
		r.printer.Error("Invalid image %s: %v", target, err)
		return false
	}
	if err := r.printer.Result(target, result); err != nil {
		r.printer.Error("Failed to print result for %s: %v", target, err)
		return false
	}
	return true
}

func (r *runner) read(target string) ([]byte, error) {
	if isURL(target) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.images.FetchImage(ctx, target)
	}
	return os.ReadFile(target)
}

func isURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// collectImages walks dirPath in lexical order and returns image files by extension.
func collectImages(dirPath string) ([]string, error) {
	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(info.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

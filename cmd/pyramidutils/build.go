package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"

	"github.com/nyzil/tilepyramid/archive"
	"github.com/nyzil/tilepyramid/catalog"
	"github.com/nyzil/tilepyramid/decoder"
	"github.com/nyzil/tilepyramid/downsample"
	"github.com/nyzil/tilepyramid/export"
	"github.com/nyzil/tilepyramid/pyramid"
)

type buildCmd struct {
	sourcePath     string
	archivePath    string
	exportPattern  string
	catalogPath    string
	decoderKind       string
	downsampleKind    string
	levels            int
	flushDiskCache    bool
	memoryConstrained bool
}

func (c *buildCmd) Name() string     { return "build" }
func (c *buildCmd) Synopsis() string { return "build a tile pyramid from an image" }
func (c *buildCmd) Usage() string {
	return "pyramidutils build -i <image> -o <archive> [-export <pattern>] [-catalog <db>]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sourcePath, "i", "", "Source image path")
	f.StringVar(&c.archivePath, "o", "", "Output archive path")
	f.StringVar(&c.exportPattern, "export", "", "Optional XYZ export pattern, e.g. out/{level}/{row}/{col}.png")
	f.StringVar(&c.catalogPath, "catalog", "", "Optional build catalog database path")
	f.StringVar(&c.decoderKind, "decoder", "CgStyleOneShot", "Decoder kind: CgStyleOneShot, OneShotTurbo")
	f.StringVar(&c.downsampleKind, "downsample", "Decimate", "Downsample kind: Decimate, HighQuality")
	f.IntVar(&c.levels, "levels", 0, "Number of zoom levels to build (0 = build down to 1x1)")
	f.BoolVar(&c.flushDiskCache, "flush-disk-cache", false, "Lower the flush throttle threshold to a quarter of the default")
	f.BoolVar(&c.memoryConstrained, "memory-constrained", false, "Throttle new level allocations on outstanding flushes")
}

func parseDecoderKind(s string) decoder.Kind {
	if s == "OneShotTurbo" {
		return decoder.OneShotTurbo
	}
	return decoder.CgStyleOneShot
}

func parseDownsampleKind(s string) downsample.Kind {
	if s == "HighQuality" {
		return downsample.HighQualityKind
	}
	return downsample.Decimate
}

func (c *buildCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.sourcePath == "" || c.archivePath == "" {
		log.Println("both -i and -o are required")
		return subcommands.ExitUsageError
	}

	opts := []pyramid.Option{
		pyramid.WithDecoderKind(parseDecoderKind(c.decoderKind)),
		pyramid.WithDownsampleStrategy(parseDownsampleKind(c.downsampleKind)),
	}
	if c.levels > 0 {
		opts = append(opts, pyramid.WithLevels(c.levels))
	}
	if c.flushDiskCache {
		opts = append(opts, pyramid.WithFlushDiskCache(true))
	}
	if c.memoryConstrained {
		opts = append(opts, pyramid.WithMemoryConstrained(true))
	}
	p, err := pyramid.NewFromPath(c.sourcePath, opts...)
	if err != nil {
		log.Println("build:", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	width, height, err := p.ImageSize()
	if err != nil {
		log.Println("build:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("built %d levels from %dx%d source\n", p.LevelCount(), width, height)

	if err := archive.PackPyramid(p, c.archivePath); err != nil {
		log.Println("build: pack:", err)
		return subcommands.ExitFailure
	}

	if c.exportPattern != "" {
		bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
		count, err := export.ExportTiles(p, c.exportPattern, export.PNG)
		bar.Add(count)
		bar.Finish()
		fmt.Println()
		if err != nil {
			log.Println("build: export:", err)
			return subcommands.ExitFailure
		}
	}

	if c.catalogPath != "" {
		cat, err := catalog.OpenCatalog(c.catalogPath)
		if err != nil {
			log.Println("build: catalog:", err)
			return subcommands.ExitFailure
		}
		defer cat.Close()

		if _, err := cat.RecordBuild(catalog.BuildRecord{
			SourcePath:     c.sourcePath,
			Width:          width,
			Height:         height,
			LevelCount:     p.LevelCount(),
			ArchivePath:    c.archivePath,
			DecoderKind:    c.decoderKind,
			DownsampleKind: c.downsampleKind,
		}); err != nil {
			log.Println("build: catalog:", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

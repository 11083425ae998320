package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/nyzil/tilepyramid/archive"
	"github.com/nyzil/tilepyramid/tile"
)

type tileAtCmd struct {
	archivePath string
	level       int
	row         int
	col         int
	outPath     string
}

func (c *tileAtCmd) Name() string     { return "tile-at" }
func (c *tileAtCmd) Synopsis() string { return "read one tile out of a packaged archive" }
func (c *tileAtCmd) Usage() string {
	return "pyramidutils tile-at -archive <path> -level <n> -row <n> -col <n> -o <path>\n"
}
func (c *tileAtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.archivePath, "archive", "", "Archive path")
	f.IntVar(&c.level, "level", 0, "Level index")
	f.IntVar(&c.row, "row", 0, "Tile row")
	f.IntVar(&c.col, "col", 0, "Tile column")
	f.StringVar(&c.outPath, "o", "", "Output raw pixel file path")
}

func (c *tileAtCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.archivePath == "" || c.outPath == "" {
		log.Println("both -archive and -o are required")
		return subcommands.ExitUsageError
	}

	a, err := archive.OpenArchive(c.archivePath)
	if err != nil {
		log.Println("tile-at:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	addr := tile.Addr{Level: uint32(c.level), Row: uint32(c.row), Col: uint32(c.col)}
	data, err := a.ReadTile(addr)
	if err != nil {
		log.Println("tile-at:", err)
		return subcommands.ExitFailure
	}

	if err := os.WriteFile(c.outPath, data, 0o644); err != nil {
		log.Println("tile-at:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

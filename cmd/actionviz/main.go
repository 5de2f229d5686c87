package main

import (
	"context"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/actionengine/catalog"
	"github.com/milk9111/actionengine/logging"
	"github.com/milk9111/actionengine/server"
)

func main() {
	dir := flag.String("catalog", "", "catalog directory (default: embedded content)")
	watch := flag.Bool("watch", false, "reload the catalog directory when it changes")
	flag.Parse()

	logger := logging.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	var (
		content *catalog.Catalog
		err     error
	)
	if *dir != "" {
		content, err = catalog.LoadDir(*dir)
	} else {
		content, err = catalog.Default()
	}
	if err != nil {
		log.Fatal(err)
	}

	game := NewGame(content, logger)

	if *watch && *dir != "" {
		watcher, err := catalog.NewWatcher(*dir)
		if err != nil {
			log.Fatal(err)
		}
		defer func() { _ = watcher.Close() }()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go server.WatchCatalog(ctx, game.world, watcher, *dir)
	}

	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("actionviz")
	ebiten.SetTPS(tps)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/movieverse/catalog/services/archive"
	syncs "github.com/movieverse/catalog/services/sync"
	"github.com/movieverse/catalog/services/tmdb"
)

func makeSyncCMD() cli.Command {
	syncCMD := cli.Command{
		Name:    "sync",
		Aliases: []string{"sc"},
		Usage:   "Syncs video registry with archive uploads",
		Action:  sync,
	}
	configureSync(&syncCMD)
	return syncCMD
}

func configureSync(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = archive.RegisterFlags(c.Flags)
	c.Flags = tmdb.RegisterFlags(c.Flags)
}

func sync(c *cli.Context) error {
	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	err := pgMigrate(c)
	if err != nil {
		return err
	}

	// Setting HTTP Client
	cl := http.DefaultClient

	// Setting Archive API
	archiveApi := archive.New(c, cl)

	// Setting TMDB API
	var resolver syncs.Resolver
	if tmdbApi := tmdb.New(c, cl); tmdbApi != nil {
		resolver = tmdbApi
	}

	// Setting Syncer
	syncer := syncs.New(archiveApi, resolver, syncs.NewPGRegistry(pg))

	summary, err := syncer.Run(context.Background())
	if err != nil {
		return err
	}
	log.Infof("scanned %v items: %v added, %v duplicates skipped",
		summary.TotalScanned, summary.NewVideosAdded, summary.DuplicatesSkipped)
	return nil
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	ch "github.com/movieverse/catalog/handlers/collection"
	sh "github.com/movieverse/catalog/handlers/sync"
	vh "github.com/movieverse/catalog/handlers/videos"
	"github.com/movieverse/catalog/services/archive"
	syncs "github.com/movieverse/catalog/services/sync"
	"github.com/movieverse/catalog/services/tmdb"
	w "github.com/movieverse/catalog/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterPprofFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = archive.RegisterFlags(c.Flags)
	c.Flags = tmdb.RegisterFlags(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := http.DefaultClient

	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	err := pgMigrate(c)
	if err != nil {
		return err
	}

	var servers []cs.Servable

	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Pprof
	pprof := cs.NewPprof(c)
	if pprof != nil {
		servers = append(servers, pprof)
		defer pprof.Close()
	}

	// Setting Gin
	r := gin.Default()
	r.RedirectTrailingSlash = false

	// Setting Web
	web := w.New(c, r)
	servers = append(servers, web)
	defer web.Close()

	// Setting Archive API
	archiveApi := archive.New(c, cl)

	// Setting TMDB API
	var resolver syncs.Resolver
	if tmdbApi := tmdb.New(c, cl); tmdbApi != nil {
		resolver = tmdbApi
	}

	// Setting Syncer
	syncer := syncs.New(archiveApi, resolver, syncs.NewPGRegistry(pg))

	// Setting SyncHandler
	sh.RegisterHandler(r, syncer)

	// Setting CollectionHandler
	ch.RegisterHandler(r, archiveApi)

	// Setting VideosHandler
	vh.RegisterHandler(r, pg, archiveApi)

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}

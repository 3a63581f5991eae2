package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	apiHostFlag    = "archive-api-host"
	apiPortFlag    = "archive-api-port"
	apiSecureFlag  = "archive-api-secure"
	accessKeyFlag  = "archive-access-key"
	collectionFlag = "archive-collection"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   apiHostFlag,
			Usage:  "archive api host",
			EnvVar: "ARCHIVE_API_HOST",
			Value:  "archive.org",
		},
		cli.IntFlag{
			Name:   apiPortFlag,
			Usage:  "archive api port",
			EnvVar: "ARCHIVE_API_PORT",
			Value:  443,
		},
		cli.BoolTFlag{
			Name:   apiSecureFlag,
			Usage:  "archive api secure (https)",
			EnvVar: "ARCHIVE_API_SECURE",
		},
		cli.StringFlag{
			Name:   accessKeyFlag,
			Usage:  "archive account whose uploads are scanned",
			Value:  "",
			EnvVar: "ARCHIVE_ACCESS_KEY",
		},
		cli.StringFlag{
			Name:   collectionFlag,
			Usage:  "public archive collection",
			Value:  "movieverse-uploads",
			EnvVar: "ARCHIVE_COLLECTION",
		},
	)
}

const (
	inventoryPageSize  = 50
	collectionPageSize = 100

	videoExtension   = ".mp4"
	lowBitrateMarker = "_512kb"
)

// Item is a single work in the archive search index.
type Item struct {
	Identifier  string     `json:"identifier"`
	Title       FlexString `json:"title"`
	Description FlexString `json:"description"`
	PublicDate  string     `json:"publicdate"`
	ItemSize    int64      `json:"item_size"`
}

// CollectionItem carries the extra fields requested for collection listings.
type CollectionItem struct {
	Identifier  string     `json:"identifier"`
	Title       FlexString `json:"title"`
	Description FlexString `json:"description"`
	ItemSize    int64      `json:"item_size"`
	Runtime     FlexString `json:"runtime"`
	AddedDate   string     `json:"addeddate"`
}

// File is one file belonging to an archive item.
type File struct {
	Name   string     `json:"name"`
	Size   FlexString `json:"size"`
	Format string     `json:"format"`
}

func (f *File) SizeBytes() int64 {
	n, err := strconv.ParseInt(f.Size.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ItemMeta is the per-item metadata document.
type ItemMeta struct {
	Files    []File     `json:"files"`
	Metadata MetaFields `json:"metadata"`
}

type MetaFields struct {
	Description FlexString `json:"description"`
	Runtime     FlexString `json:"runtime"`
}

type searchResponse struct {
	Response struct {
		Docs []Item `json:"docs"`
	} `json:"response"`
}

type collectionResponse struct {
	Response struct {
		Docs []CollectionItem `json:"docs"`
	} `json:"response"`
}

type Api struct {
	url        string
	accessKey  string
	collection string
	cl         *http.Client
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(apiHostFlag)
	port := c.Int(apiPortFlag)
	secure := c.BoolT(apiSecureFlag)
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, port)
	log.Infof("archive api endpoint %v", u)
	return &Api{
		url:        u,
		accessKey:  c.String(accessKeyFlag),
		collection: c.String(collectionFlag),
		cl:         cl,
	}
}

func (api *Api) Collection() string {
	return api.collection
}

// ListUploads returns the latest movie uploads of the configured account,
// newest first, one page deep.
func (api *Api) ListUploads(ctx context.Context) ([]Item, error) {
	if api.accessKey == "" {
		return nil, errors.New("no archive access key configured")
	}
	query := fmt.Sprintf("uploader:%v AND mediatype:movies", api.accessKey)
	var res searchResponse
	err := api.search(ctx, query, "identifier,title,description,publicdate,item_size", "publicdate desc", inventoryPageSize, &res)
	if err != nil {
		return nil, err
	}
	return res.Response.Docs, nil
}

// ListCollection returns the items of the configured public collection.
func (api *Api) ListCollection(ctx context.Context) ([]CollectionItem, error) {
	query := fmt.Sprintf("collection:%v", api.collection)
	var res collectionResponse
	err := api.search(ctx, query, "identifier,title,description,item_size,runtime,addeddate", "addeddate desc", collectionPageSize, &res)
	if err != nil {
		return nil, err
	}
	return res.Response.Docs, nil
}

func (api *Api) search(ctx context.Context, query, fields, sort string, rows int, res any) error {
	reqURL := fmt.Sprintf("%v/advancedsearch.php", api.url)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Add("fl[]", fields)
	q.Add("sort[]", sort)
	q.Set("rows", strconv.Itoa(rows))
	q.Set("page", "1")
	q.Set("output", "json")
	req.URL.RawQuery = q.Encode()

	resp, err := api.cl.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("archive search failed: %v", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// ItemMetadata fetches the per-item metadata document (file listing and
// descriptive fields).
func (api *Api) ItemMetadata(ctx context.Context, identifier string) (*ItemMeta, error) {
	reqURL := fmt.Sprintf("%v/metadata/%v", api.url, url.PathEscape(identifier))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := api.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("metadata fetch failed for %v: %v", identifier, resp.Status)
	}

	var meta ItemMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &meta, nil
}

// SelectVideoFile picks the first playable file: an .mp4 that is not a
// low-bitrate derivative.
func SelectVideoFile(files []File) *File {
	for i := range files {
		name := files[i].Name
		if strings.HasSuffix(name, videoExtension) && !strings.Contains(name, lowBitrateMarker) {
			return &files[i]
		}
	}
	return nil
}

func (api *Api) DownloadURL(identifier, name string) string {
	return fmt.Sprintf("%v/download/%v/%v", api.url, url.PathEscape(identifier), url.PathEscape(name))
}

func (api *Api) EmbedURL(identifier string) string {
	return fmt.Sprintf("%v/embed/%v", api.url, url.PathEscape(identifier))
}

func (api *Api) DetailsURL(identifier string) string {
	return fmt.Sprintf("%v/details/%v", api.url, url.PathEscape(identifier))
}

package sources

import (
	"context"
	"iter"
	"net/url"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/paginate"
)

type spigotAuthor struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

func (a *spigotAuthor) Key() string { return itoa(a.ID) }

// Watermark is the author id. Authors carry no update time, so an update
// crawl walks ids downwards and stops at the highest id already stored.
func (a *spigotAuthor) Watermark() int64 { return int64(a.ID) }

// SpigotAuthors crawls Spigot authors. Resources reference authors, so authors
// are ingested first.
type SpigotAuthors struct {
	opts  options
	pager *paginate.Paginator[spigotRequest, spigotPage[*spigotAuthor]]
}

var _ Adapter = (*SpigotAuthors)(nil)

// NewSpigotAuthors creates the Spigot author adapter
func NewSpigotAuthors(client httpclient.Client, limiter paginate.Limiter, opts ...Option) *SpigotAuthors {
	o := newOptions(DefaultSpigotBaseURL, defaultSpigotPageSize*10, opts)
	return &SpigotAuthors{
		opts: o,
		pager: paginate.New[spigotRequest, spigotPage[*spigotAuthor]](limiter, spigotStrategy[*spigotAuthor]{},
			fetchSpigotPage[*spigotAuthor](client, o.baseURL+"/authors", url.Values{"fields": {"id,name"}})),
	}
}

// Registry implements Adapter
func (*SpigotAuthors) Registry() Registry { return Spigot }

// Item implements Adapter
func (*SpigotAuthors) Item() ItemKind { return KindAuthor }

// Populate implements Adapter
func (a *SpigotAuthors) Populate(ctx context.Context) iter.Seq2[[]Item, error] {
	req := spigotRequest{page: 1, size: a.opts.pageSize, sort: "+id"}
	return itemPages(a.pager.ReadAhead(ctx, req, a.opts.readAhead), spigotItems[*spigotAuthor])
}

// Update implements Adapter
func (a *SpigotAuthors) Update(ctx context.Context) iter.Seq2[[]Item, error] {
	req := spigotRequest{page: 1, size: a.opts.pageSize, sort: "-id"}
	return itemPages(a.pager.Sequential(ctx, req), spigotItems[*spigotAuthor])
}

// Convert implements Adapter
func (*SpigotAuthors) Convert(_ context.Context, item Item) (Record, error) {
	raw, ok := item.(*spigotAuthor)
	if !ok {
		return nil, wrongItem(Spigot, item)
	}
	return &SpigotAuthor{ID: raw.ID, Name: raw.Name}, nil
}

package jellyfin

import (
	"fmt"

	"github.com/samber/mo"
)

// ItemType is the catalog's type discriminator.
type ItemType string

const (
	TypeMovie   ItemType = "Movie"
	TypeSeries  ItemType = "Series"
	TypeSeason  ItemType = "Season"
	TypeEpisode ItemType = "Episode"
)

// MediaSource describes one playable file of a leaf item.
type MediaSource struct {
	ID        string `json:"Id"`
	Container string `json:"Container"`
	Size      int64  `json:"Size"`
	Path      string `json:"Path,omitempty"`
}

// Info holds the fields shared by every catalog item.
type Info struct {
	ID             string
	Name           string
	Type           ItemType
	ProductionYear mo.Option[int]
}

// ItemInfo returns the shared fields.
func (i Info) ItemInfo() Info { return i }

// Item is one of *Movie, *Series, *Season or *Episode. The set is closed.
type Item interface {
	ItemInfo() Info
	sealed()
}

// Leaf is a directly downloadable item: *Movie or *Episode.
type Leaf interface {
	Item
	Sources() []MediaSource
}

type Movie struct {
	Info
	MediaSources []MediaSource
}

type Series struct {
	Info
}

type Season struct {
	Info
	SeriesID   string
	SeriesName string
}

type Episode struct {
	Info
	SeriesID          string
	SeriesName        string
	SeasonID          string
	IndexNumber       mo.Option[int]
	ParentIndexNumber mo.Option[int]
	MediaSources      []MediaSource
}

func (*Movie) sealed()   {}
func (*Series) sealed()  {}
func (*Season) sealed()  {}
func (*Episode) sealed() {}

func (m *Movie) Sources() []MediaSource   { return m.MediaSources }
func (e *Episode) Sources() []MediaSource { return e.MediaSources }

// PrimarySource returns the authoritative media source of a leaf.
func PrimarySource(l Leaf) (MediaSource, error) {
	sources := l.Sources()
	if len(sources) == 0 {
		return MediaSource{}, &MalformedResponseError{
			Reason: fmt.Sprintf("item %s has no media sources", l.ItemInfo().ID),
		}
	}
	return sources[0], nil
}

// wireItem is the JSON shape of every item the server returns.
type wireItem struct {
	ID                string        `json:"Id"`
	Name              string        `json:"Name"`
	Type              string        `json:"Type"`
	ProductionYear    *int          `json:"ProductionYear"`
	SeriesID          string        `json:"SeriesId"`
	SeriesName        string        `json:"SeriesName"`
	SeasonID          string        `json:"SeasonId"`
	IndexNumber       *int          `json:"IndexNumber"`
	ParentIndexNumber *int          `json:"ParentIndexNumber"`
	MediaSources      []MediaSource `json:"MediaSources"`
}

// classify turns a decoded record into its variant.
func (w wireItem) classify() (Item, error) {
	if w.ID == "" {
		return nil, &MalformedResponseError{Reason: "item without Id"}
	}
	info := Info{
		ID:             w.ID,
		Name:           w.Name,
		Type:           ItemType(w.Type),
		ProductionYear: mo.PointerToOption(w.ProductionYear),
	}

	switch info.Type {
	case TypeMovie:
		return &Movie{Info: info, MediaSources: w.MediaSources}, nil
	case TypeSeries:
		return &Series{Info: info}, nil
	case TypeSeason:
		return &Season{Info: info, SeriesID: w.SeriesID, SeriesName: w.SeriesName}, nil
	case TypeEpisode:
		return &Episode{
			Info:              info,
			SeriesID:          w.SeriesID,
			SeriesName:        w.SeriesName,
			SeasonID:          w.SeasonID,
			IndexNumber:       mo.PointerToOption(w.IndexNumber),
			ParentIndexNumber: mo.PointerToOption(w.ParentIndexNumber),
			MediaSources:      w.MediaSources,
		}, nil
	default:
		return nil, &UnknownItemTypeError{ID: w.ID, Type: w.Type}
	}
}

package downloader

import (
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keanucz/jellysync/internal/jellyfin"
)

// maxStemBytes leaves room for an extension within the common 255-byte name limit.
const maxStemBytes = 240

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\x7F]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Device names Windows refuses regardless of extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeComponent makes name safe to use as a single path element on any
// common filesystem.
func SanitizeComponent(name string) string {
	name = whitespace.ReplaceAllString(name, " ")
	name = invalidChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	// Windows drops trailing dots and spaces; this also turns "." and ".." into "".
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "_"
	}

	stem, _, _ := strings.Cut(name, ".")
	if reservedNames[strings.ToUpper(strings.TrimSpace(stem))] {
		name = "_" + name
	}
	return name
}

// PlanPath maps a leaf to its path relative to the media directory:
//
//	Shows/{series}/Season {ss}/{series} - S{ss}E{ee} - {name}.{container}
//	Movies/{name} ({year})/{name} ({year}).{container}
func PlanPath(item jellyfin.Leaf) (string, error) {
	src, err := jellyfin.PrimarySource(item)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(src.Container) == "" {
		return "", &jellyfin.MalformedResponseError{
			Reason: fmt.Sprintf("item %s has no container", item.ItemInfo().ID),
		}
	}
	ext := SanitizeComponent(src.Container)

	switch it := item.(type) {
	case *jellyfin.Episode:
		season, hasSeason := it.ParentIndexNumber.Get()
		episode, hasEpisode := it.IndexNumber.Get()
		if !hasSeason || !hasEpisode {
			return "", &jellyfin.MalformedResponseError{
				Reason: fmt.Sprintf("episode %s has no season or episode number", it.ID),
			}
		}
		stem := episodeStem(it.SeriesName, it.Name, season, episode)
		return filepath.Join(
			"Shows",
			component(it.SeriesName),
			fmt.Sprintf("Season %02d", season),
			fileName(stem, ext),
		), nil

	case *jellyfin.Movie:
		title := it.Name
		if year, ok := it.ProductionYear.Get(); ok {
			title = fmt.Sprintf("%s (%d)", it.Name, year)
		}
		return filepath.Join("Movies", component(title), fileName(title, ext)), nil

	default:
		info := item.ItemInfo()
		return "", &jellyfin.UnknownItemTypeError{ID: info.ID, Type: string(info.Type)}
	}
}

// episodeStem shortens the series and episode names separately so the
// SxxEyy marker always survives truncation.
func episodeStem(series, name string, season, episode int) string {
	marker := fmt.Sprintf(" - S%02dE%02d - ", season, episode)
	budget := maxStemBytes - len(marker)
	series = truncate(series, max(budget/2, budget-len(name)))
	name = truncate(name, budget-len(series))
	return series + marker + name
}

func component(name string) string {
	return SanitizeComponent(truncate(name, maxStemBytes))
}

func fileName(stem, ext string) string {
	return component(stem) + "." + ext
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FilenameFromContentDisposition extracts the filename parameter of a
// Content-Disposition header as a single sanitized path element.
func FilenameFromContentDisposition(header string) (string, error) {
	if header == "" {
		return "", &jellyfin.MalformedResponseError{Reason: "missing Content-Disposition"}
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", &jellyfin.MalformedResponseError{Reason: fmt.Sprintf("parse Content-Disposition: %v", err)}
	}
	name := params["filename"]
	if name == "" {
		return "", &jellyfin.MalformedResponseError{Reason: "Content-Disposition has no filename"}
	}
	// Only the last element counts; servers sometimes send full paths.
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	return SanitizeComponent(name), nil
}

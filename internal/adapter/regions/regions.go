// Package regions loads the named region polygons and answers
// point-in-polygon lookups against them.
package regions

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

var (
	ErrMissingField = errors.New("region field missing from polygon layer")
	ErrNoPolygons   = errors.New("polygon layer contains no polygons")
)

type region struct {
	geom.Polygonal
	name  string
	order int
}

// Index is an R-tree over region polygons in WGS 84. It is read-only after
// Load and safe for concurrent lookups.
type Index struct {
	tree  *rtree.Rtree
	names []string
}

// Load decodes the shapefile at path, reads each polygon's name from field,
// and transforms every polygon with tr (typically British National Grid to
// WGS 84). A nil tr keeps the file's coordinates.
func Load(path, field string, tr proj.Transformer) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open region layer %s: %w", path, err)
	}
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open region layer %s: %w", path, err)
	}
	defer dec.Close()

	idx := &Index{tree: rtree.NewTree(25, 50)}
	seen := map[string]struct{}{}
	for n := 0; ; n++ {
		g, fields, more := dec.DecodeRowFields(field)
		if !more {
			break
		}
		raw, ok := fields[field]
		if !ok {
			return nil, fmt.Errorf("%s: %q: %w", path, field, ErrMissingField)
		}
		name := cleanField(raw)

		if tr != nil {
			if g, err = g.Transform(tr); err != nil {
				return nil, fmt.Errorf("reproject region %q: %w", name, err)
			}
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("region %q: geometry %T is not polygonal", name, g)
		}
		idx.tree.Insert(&region{Polygonal: poly, name: name, order: n})
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			idx.names = append(idx.names, name)
		}
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode region layer %s: %w", path, err)
	}
	if len(idx.names) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPolygons)
	}
	return idx, nil
}

// Locate returns the name of a region containing (lon, lat). Points on a
// boundary count as inside; when several regions match, the one read first
// from the file wins.
func (x *Index) Locate(lon, lat float64) (string, bool) {
	pt := geom.Point{X: lon, Y: lat}
	hits := x.tree.SearchIntersect(pt.Bounds())
	if len(hits) == 0 {
		return "", false
	}
	candidates := make([]*region, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, h.(*region))
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].order < candidates[j].order })

	for _, r := range candidates {
		if pt.Within(r.Polygonal) != geom.Outside {
			return r.name, true
		}
	}
	return "", false
}

// Names lists the distinct region names in file order.
func (x *Index) Names() []string {
	return append([]string(nil), x.names...)
}

// dBase pads text fields with spaces and sometimes NULs.
func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

package domain

import (
	"fmt"
	"image/color"
	"strings"
)

// LandCover is a UKCEH land-cover class code.
type LandCover uint8

// UKCEH land-cover classes.
const (
	Unclassified LandCover = iota
	DeciduousWoodland
	ConiferousWoodland
	Arable
	ImprovedGrassland
	NeutralGrassland
	CalcareousGrassland
	AcidGrassland
	Fen
	Heather
	HeatherGrassland
	Bog
	InlandRock
	Saltwater
	Freshwater
	SupralittoralRock
	SupralittoralSediment
	LittoralRock
	LittoralSediment
	Saltmarsh
	Urban
	Suburban
)

// MinLandCover and MaxLandCover bound the valid class codes.
const (
	MinLandCover = DeciduousWoodland
	MaxLandCover = Suburban
)

var landCoverNames = [...]string{
	Unclassified:          "Unclassified",
	DeciduousWoodland:     "Deciduous woodland",
	ConiferousWoodland:    "Coniferous woodland",
	Arable:                "Arable",
	ImprovedGrassland:     "Improved grassland",
	NeutralGrassland:      "Neutral grassland",
	CalcareousGrassland:   "Calcareous grassland",
	AcidGrassland:         "Acid grassland",
	Fen:                   "Fen",
	Heather:               "Heather",
	HeatherGrassland:      "Heather grassland",
	Bog:                   "Bog",
	InlandRock:            "Inland rock",
	Saltwater:             "Saltwater",
	Freshwater:            "Freshwater",
	SupralittoralRock:     "Supralittoral rock",
	SupralittoralSediment: "Supralittoral sediment",
	LittoralRock:          "Littoral rock",
	LittoralSediment:      "Littoral sediment",
	Saltmarsh:             "Saltmarsh",
	Urban:                 "Urban",
	Suburban:              "Suburban",
}

// Figure palette (matplotlib "tab" colours). Classes without an entry fall
// back to grey.
var (
	tabOrange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	tabBlue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	tabGreen  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	tabPurple = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	tabPink   = color.RGBA{R: 227, G: 119, B: 194, A: 255}
	tabBrown  = color.RGBA{R: 140, G: 86, B: 75, A: 255}
	tabOlive  = color.RGBA{R: 188, G: 189, B: 34, A: 255}
	tabRed    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	tabGrey   = color.RGBA{R: 127, G: 127, B: 127, A: 255}

	landCoverColors = map[LandCover]color.RGBA{
		Unclassified:       {R: 255, G: 255, B: 255, A: 255},
		DeciduousWoodland:  tabGreen,
		ConiferousWoodland: tabBlue,
		Arable:             tabOlive,
		ImprovedGrassland:  tabOlive,
		AcidGrassland:      tabOrange,
		Heather:            tabPink,
		HeatherGrassland:   tabBrown,
		Bog:                tabPurple,
		Suburban:           tabRed,
	}
)

// ParseLandCover validates an integer class code.
func ParseLandCover(code int) (LandCover, error) {
	if code < int(MinLandCover) || code > int(MaxLandCover) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownLandCover, code)
	}
	return LandCover(code), nil
}

// Valid reports whether lc is one of the 21 mapped classes.
func (lc LandCover) Valid() bool {
	return lc >= MinLandCover && lc <= MaxLandCover
}

// Name returns the UKCEH class name.
func (lc LandCover) Name() string {
	if int(lc) < len(landCoverNames) {
		return landCoverNames[lc]
	}
	return fmt.Sprintf("LandCover(%d)", lc)
}

// ShortName returns the name broken over two lines for axis labels,
// e.g. "Deciduous\nwoodland".
func (lc LandCover) ShortName() string {
	return strings.Replace(lc.Name(), " ", "\n", 1)
}

// Color returns the figure colour for the class.
func (lc LandCover) Color() color.RGBA {
	if c, ok := landCoverColors[lc]; ok {
		return c
	}
	return tabGrey
}

// Hex returns Color as "#rrggbb".
func (lc LandCover) Hex() string {
	c := lc.Color()
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (lc LandCover) String() string {
	return lc.Name()
}

// AllLandCovers returns classes 1..21 in order.
func AllLandCovers() []LandCover {
	out := make([]LandCover, 0, MaxLandCover)
	for lc := MinLandCover; lc <= MaxLandCover; lc++ {
		out = append(out, lc)
	}
	return out
}

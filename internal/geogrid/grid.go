// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

// Package geogrid maps WGS84 coordinates onto a fixed 0.1 degree grid.
//
// A Cell is stored as two scaled integers (decidegrees), so neighbor
// arithmetic is exact and no decimal rounding is involved:
//
//	c := geogrid.CellOf(41.05, 29.05) // {LatGrid: 410, LngGrid: 290}
//	c.Key()                           // "41.0:29.0"
//	geogrid.RoomName(c)               // "location:41.0:29.0"
//
// Coordinates are not range checked. Values outside [-90,90] x [-180,180]
// yield cells that no real position maps to, and longitude does not wrap
// at the antimeridian.
package geogrid

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Scale is the number of grid steps per degree.
const Scale = 10

// CellSize is the edge length of a cell in degrees.
const CellSize = 1.0 / Scale

// RoomPrefix prefixes every room name.
const RoomPrefix = "location:"

// ErrInvalidKey is returned by ParseCell for malformed keys.
var ErrInvalidKey = errors.New("geogrid: invalid cell key")

// Cell is one grid square identified by its south-west corner in decidegrees.
type Cell struct {
	LatGrid int64
	LngGrid int64
}

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb.Point, which is ordered (lng, lat).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// CellOf returns the cell containing (lat, lng). Each axis is floored toward
// negative infinity, so -0.05 lands in the -0.1 row and 0.05 in the 0.0 row.
func CellOf(lat, lng float64) Cell {
	return Cell{
		LatGrid: floorGrid(lat),
		LngGrid: floorGrid(lng),
	}
}

// CellOfCoordinate is CellOf for a Coordinate.
func CellOfCoordinate(c Coordinate) Cell {
	return CellOf(c.Lat, c.Lng)
}

func floorGrid(v float64) int64 {
	return int64(math.Floor(v * Scale))
}

// Key formats the cell as "<lat>:<lng>" with exactly one decimal per axis.
func (c Cell) Key() string {
	return formatGrid(c.LatGrid) + ":" + formatGrid(c.LngGrid)
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	return c.Key()
}

func formatGrid(g int64) string {
	sign := ""
	if g < 0 {
		sign = "-"
		g = -g
	}
	return fmt.Sprintf("%s%d.%d", sign, g/Scale, g%Scale)
}

// ParseCell parses a key produced by Cell.Key.
func ParseCell(key string) (Cell, error) {
	latStr, lngStr, ok := strings.Cut(key, ":")
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	lat, err := parseGrid(latStr)
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	lng, err := parseGrid(lngStr)
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return Cell{LatGrid: lat, LngGrid: lng}, nil
}

// parseGrid accepts exactly "[-]<int>.<digit>".
func parseGrid(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || whole == "" || len(frac) != 1 || frac[0] < '0' || frac[0] > '9' {
		return 0, ErrInvalidKey
	}
	if whole[0] < '0' || whole[0] > '9' {
		return 0, ErrInvalidKey
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	g := w*Scale + int64(frac[0]-'0')
	if neg {
		g = -g
	}
	return g, nil
}

// RoomName returns the pub/sub room for a cell.
func RoomName(c Cell) string {
	return RoomPrefix + c.Key()
}

// RoomOf returns the room for (lat, lng).
func RoomOf(lat, lng float64) string {
	return RoomName(CellOf(lat, lng))
}

// CellFromRoom parses a room name back into its cell.
func CellFromRoom(room string) (Cell, error) {
	key, ok := strings.CutPrefix(room, RoomPrefix)
	if !ok {
		return Cell{}, fmt.Errorf("%w: room %q", ErrInvalidKey, room)
	}
	return ParseCell(key)
}

// neighborOffsets is the 3x3 block around a cell, without the center.
var neighborOffsets = [8][2]int64{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Neighbors returns the 8 cells adjacent to c. The result never contains c.
func Neighbors(c Cell) [8]Cell {
	var out [8]Cell
	for i, off := range neighborOffsets {
		out[i] = Cell{LatGrid: c.LatGrid + off[0], LngGrid: c.LngGrid + off[1]}
	}
	return out
}

// NeighborKeys returns the keys of Neighbors(c).
func NeighborKeys(c Cell) []string {
	ns := Neighbors(c)
	keys := make([]string, len(ns))
	for i, n := range ns {
		keys[i] = n.Key()
	}
	return keys
}

// TargetCells returns c followed by its 8 neighbors.
func TargetCells(c Cell) []Cell {
	out := make([]Cell, 0, 9)
	out = append(out, c)
	ns := Neighbors(c)
	return append(out, ns[:]...)
}

// IsNeighbor reports whether a and b are distinct and touch, including diagonally.
func IsNeighbor(a, b Cell) bool {
	if a == b {
		return false
	}
	return abs(a.LatGrid-b.LatGrid) <= 1 && abs(a.LngGrid-b.LngGrid) <= 1
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Bound returns the rectangle covered by the cell.
func (c Cell) Bound() orb.Bound {
	minLat := float64(c.LatGrid) / Scale
	minLng := float64(c.LngGrid) / Scale
	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{minLng + CellSize, minLat + CellSize},
	}
}

// Center returns the midpoint of the cell.
func (c Cell) Center() orb.Point {
	return c.Bound().Center()
}

// MaxCellsWithin caps CellsWithin. Larger areas return nil and callers
// should fall back to a full scan.
const MaxCellsWithin = 400

// CellsWithin returns every cell whose bound may intersect the circle of
// radiusMeters around center, sorted by key. It returns nil when the circle
// would cover more than MaxCellsWithin cells or radiusMeters is negative.
func CellsWithin(center Coordinate, radiusMeters float64) []Cell {
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return nil
	}
	bound := geo.NewBoundAroundPoint(center.Point(), radiusMeters)
	lo := CellOf(bound.Min.Lat(), bound.Min.Lon())
	hi := CellOf(bound.Max.Lat(), bound.Max.Lon())

	rows := hi.LatGrid - lo.LatGrid + 1
	cols := hi.LngGrid - lo.LngGrid + 1
	if rows <= 0 || cols <= 0 || rows*cols > MaxCellsWithin {
		return nil
	}

	cells := make([]Cell, 0, rows*cols)
	for lat := lo.LatGrid; lat <= hi.LatGrid; lat++ {
		for lng := lo.LngGrid; lng <= hi.LngGrid; lng++ {
			cells = append(cells, Cell{LatGrid: lat, LngGrid: lng})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Key() < cells[j].Key()
	})
	return cells
}

// DistanceMeters is the haversine distance between two coordinates.
func DistanceMeters(a, b Coordinate) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}

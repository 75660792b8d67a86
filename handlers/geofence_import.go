package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/utils"
)

// KML geometries we care about for geofence import. Points become circular
// fences with an explicit or default radius; polygons are reduced to their
// centroid and bounding radius.
type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	OuterBoundary struct {
		LinearRing kmlLinearRing `xml:"LinearRing"`
	} `xml:"outerBoundaryIs"`
}

type kmlExtendedData struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
}

type kmlPlacemark struct {
	XMLName      xml.Name         `xml:"Placemark"`
	Name         string           `xml:"name"`
	Description  string           `xml:"description"`
	ExtendedData *kmlExtendedData `xml:"ExtendedData"`
	Point        *kmlPoint        `xml:"Point"`
	Polygon      *kmlPolygon      `xml:"Polygon"`
}

type kmlFolder struct {
	XMLName    xml.Name       `xml:"Folder"`
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDocument struct {
	XMLName    xml.Name       `xml:"Document"`
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Document kmlDocument `xml:"Document"`
}

// DefaultImportRadiusM is the fence radius used for point placemarks that
// carry no radius property.
const DefaultImportRadiusM = 250.0

// GeofenceImporter turns uploaded KMZ/KML site maps into circular geofences.
type GeofenceImporter struct {
	db *gorm.DB
}

func NewGeofenceImporter(db *gorm.DB) *GeofenceImporter {
	return &GeofenceImporter{db: db}
}

// ImportedFence is one candidate fence parsed from the archive.
type ImportedFence struct {
	Name      string  `json:"name"`
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
	RadiusM   float64 `json:"radiusM"`
	Source    string  `json:"source"` // point, polygon
}

// extractKML pulls the first .kml entry out of a KMZ archive; bare KML input
// passes through untouched.
func extractKML(data []byte) ([]byte, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return data, nil
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open KMZ archive: %w", err)
	}
	for _, f := range reader.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open KML entry: %w", err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("no KML file found in KMZ archive")
}

func parseCoordinates(s string) []utils.Coordinate {
	var coords []utils.Coordinate
	for _, pair := range strings.Fields(strings.TrimSpace(s)) {
		parts := strings.Split(pair, ",")
		if len(parts) < 2 {
			continue
		}
		lng, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		coords = append(coords, utils.Coordinate{Lat: lat, Lng: lng})
	}
	return coords
}

func placemarkRadius(pm *kmlPlacemark) float64 {
	if pm.ExtendedData == nil {
		return DefaultImportRadiusM
	}
	for _, d := range pm.ExtendedData.Data {
		key := strings.ToLower(d.Name)
		if key == "radius" || key == "radius_m" {
			if r, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64); err == nil && r > 0 {
				return r
			}
		}
	}
	return DefaultImportRadiusM
}

func collectPlacemarks(doc *kmlDocument) []kmlPlacemark {
	placemarks := append([]kmlPlacemark{}, doc.Placemarks...)
	var walk func(folder *kmlFolder)
	walk = func(folder *kmlFolder) {
		placemarks = append(placemarks, folder.Placemarks...)
		for i := range folder.Folders {
			walk(&folder.Folders[i])
		}
	}
	for i := range doc.Folders {
		walk(&doc.Folders[i])
	}
	return placemarks
}

// Parse reads a KMZ or KML payload and returns the candidate fences without
// persisting anything.
func (gi *GeofenceImporter) Parse(data []byte) ([]ImportedFence, error) {
	kmlData, err := extractKML(data)
	if err != nil {
		return nil, err
	}

	var root kmlRoot
	if err := xml.Unmarshal(kmlData, &root); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	var fences []ImportedFence
	for _, pm := range collectPlacemarks(&root.Document) {
		name := strings.TrimSpace(pm.Name)
		if name == "" {
			name = strings.TrimSpace(pm.Description)
		}
		if name == "" {
			continue
		}

		if pm.Point != nil {
			coords := parseCoordinates(pm.Point.Coordinates)
			if len(coords) == 0 {
				continue
			}
			if err := utils.ValidateCoordinate(coords[0]); err != nil {
				continue
			}
			fences = append(fences, ImportedFence{
				Name:      name,
				CenterLat: coords[0].Lat,
				CenterLng: coords[0].Lng,
				RadiusM:   placemarkRadius(&pm),
				Source:    "point",
			})
			continue
		}

		if pm.Polygon != nil {
			ring := parseCoordinates(pm.Polygon.OuterBoundary.LinearRing.Coordinates)
			if len(ring) < 3 {
				continue
			}
			center := utils.CalculateCentroid(ring)
			radius := utils.BoundingRadius(center, ring)
			if radius <= 0 {
				radius = DefaultImportRadiusM
			}
			fences = append(fences, ImportedFence{
				Name:      name,
				CenterLat: center.Lat,
				CenterLng: center.Lng,
				RadiusM:   radius,
				Source:    "polygon",
			})
		}
	}
	return fences, nil
}

// Import parses the payload and persists each fence, skipping names that
// already exist. Returns the created geofences.
func (gi *GeofenceImporter) Import(data []byte) ([]models.Geofence, error) {
	fences, err := gi.Parse(data)
	if err != nil {
		return nil, err
	}

	var created []models.Geofence
	err = gi.db.Transaction(func(tx *gorm.DB) error {
		for _, fence := range fences {
			var existing int64
			if err := tx.Model(&models.Geofence{}).Where("name = ?", fence.Name).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			g := models.Geofence{
				Name:      fence.Name,
				CenterLat: fence.CenterLat,
				CenterLng: fence.CenterLng,
				RadiusM:   fence.RadiusM,
				IsActive:  true,
			}
			if err := tx.Create(&g).Error; err != nil {
				return err
			}
			created = append(created, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AsFeatureCollection renders parsed fences as GeoJSON for map previews.
func AsFeatureCollection(fences []ImportedFence) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, fence := range fences {
		feature := geojson.NewFeature(orb.Point{fence.CenterLng, fence.CenterLat})
		feature.Properties = geojson.Properties{
			"name":     fence.Name,
			"radius_m": fence.RadiusM,
			"source":   fence.Source,
		}
		fc.Features = append(fc.Features, feature)
	}
	return fc
}

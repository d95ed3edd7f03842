/*
Copyright © 2021 the InMAP authors.
This file is part of geotiff.

geotiff is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotiff is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotiff.  If not, see <http://www.gnu.org/licenses/>.
*/

package tiff

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Metadata is the content of the GDAL_METADATA tag.
type Metadata struct {
	XMLName xml.Name       `xml:"GDALMetadata"`
	Items   []MetadataItem `xml:"Item"`
}

// MetadataItem is one metadata entry. Sample is empty for dataset-level
// items and holds the 0-based band index otherwise.
type MetadataItem struct {
	Name   string `xml:"name,attr"`
	Sample string `xml:"sample,attr,omitempty"`
	Role   string `xml:"role,attr,omitempty"`
	Value  string `xml:",chardata"`
}

// Metadata decodes the GDAL_METADATA tag of d. It returns nil without an
// error when the tag is absent.
func (d *Dir) Metadata() (*Metadata, error) {
	if !d.Has(TagGDALMetadata) {
		return nil, nil
	}
	s, err := d.Text(TagGDALMetadata)
	if err != nil {
		return nil, err
	}
	m := new(Metadata)
	if err := xml.Unmarshal([]byte(s), m); err != nil {
		return nil, formatErrorf("GDAL metadata: %v", err)
	}
	return m, nil
}

// Band returns the value of the item called name for the 0-based band.
func (m *Metadata) Band(band int, name string) (string, bool) {
	if m == nil {
		return "", false
	}
	sample := strconv.Itoa(band)
	for _, it := range m.Items {
		if it.Sample == sample && strings.EqualFold(it.Name, name) {
			return strings.TrimSpace(it.Value), true
		}
	}
	return "", false
}

// BandFloat returns the numeric value of the item called name for the
// 0-based band.
func (m *Metadata) BandFloat(band int, name string) (float64, bool) {
	s, ok := m.Band(band, name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Unit returns the unit type of the 0-based band.
func (m *Metadata) Unit(band int) string {
	if m == nil {
		return ""
	}
	sample := strconv.Itoa(band)
	for _, it := range m.Items {
		if it.Sample == sample && (it.Role == "unittype" || strings.EqualFold(it.Name, "UNITTYPE")) {
			return strings.TrimSpace(it.Value)
		}
	}
	return ""
}

// NoData decodes the GDAL_NODATA tag of d, which GDAL applies to every band.
func (d *Dir) NoData() (float64, bool, error) {
	if !d.Has(TagGDALNoData) {
		return 0, false, nil
	}
	s, err := d.Text(TagGDALNoData)
	if err != nil {
		return 0, false, err
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, formatErrorf("GDAL_NODATA value %q: %v", s, err)
	}
	return v, true, nil
}

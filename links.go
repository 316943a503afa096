package terrainrgb

import (
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
)

func formatLatLng(point orb.Point) string {
	return strconv.FormatFloat(point.Lat(), 'f', 5, 64) + "," + strconv.FormatFloat(point.Lon(), 'f', 5, 64)
}

// RoundLatLng returns point with its coordinates rounded to the 5 decimals
// shown in map links.
func RoundLatLng(point orb.Point) orb.Point {
	return orb.Point{round5(point.Lon()), round5(point.Lat())}
}

func round5(value float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(value, 'f', 5, 64), 64)
	return rounded
}

// GoogleMapsURL returns a Google Maps URL showing point. If language is not
// empty, the page is shown in that language.
func GoogleMapsURL(point orb.Point, language string) string {
	values := url.Values{}
	values.Set("q", formatLatLng(point))
	setLanguage(values, language)
	return "https://www.google.com/maps?" + values.Encode()
}

// StreetViewURL returns a Google Street View URL looking from point.
func StreetViewURL(point orb.Point, language string) string {
	values := url.Values{}
	values.Set("api", "1")
	values.Set("map_action", "pano")
	values.Set("viewpoint", formatLatLng(point))
	setLanguage(values, language)
	return "https://www.google.com/maps/@?" + values.Encode()
}

func setLanguage(values url.Values, language string) {
	if language != "" {
		values.Set("hl", language)
	}
}

package importer

import (
	"math"

	"github.com/green-ecolution/demo-plugin/internal/errors"
)

// EPSGWGS84 is the geographic WGS 84 system (latitude/longitude in degrees).
const EPSGWGS84 = 4326

// Coord is a coordinate pair as it appears in the register: North is the
// Hochwert column (northing in metres, or latitude), East the Rechtswert
// column (easting in metres, or longitude).
type Coord struct {
	North float64
	East  float64
}

type ellipsoid struct {
	a float64 // semi-major axis
	f float64 // flattening
}

var (
	wgs84 = ellipsoid{a: 6378137, f: 1 / 298.257223563}
	grs80 = ellipsoid{a: 6378137, f: 1 / 298.257222101}
)

// crs is a supported coordinate reference system.
type crs struct {
	epsg       int
	geographic bool
	zone       int
	south      bool
	ellipsoid  ellipsoid
}

// lookupCRS supports geographic WGS 84 and the UTM families. ETRS89 is
// treated as coincident with WGS 84; the datums differ by well under a
// metre, below the register's survey precision.
func lookupCRS(epsg int) (crs, bool) {
	switch {
	case epsg == EPSGWGS84:
		return crs{epsg: epsg, geographic: true, ellipsoid: wgs84}, true
	case epsg >= 25801 && epsg <= 25860:
		return crs{epsg: epsg, zone: epsg - 25800, ellipsoid: grs80}, true
	case epsg >= 32601 && epsg <= 32660:
		return crs{epsg: epsg, zone: epsg - 32600, ellipsoid: wgs84}, true
	case epsg >= 32701 && epsg <= 32760:
		return crs{epsg: epsg, zone: epsg - 32700, south: true, ellipsoid: wgs84}, true
	}
	return crs{}, false
}

// Transformer converts coordinates between two supported systems.
type Transformer struct {
	from crs
	to   crs
}

// NewTransformer returns a transformer from one EPSG code to another.
// Unsupported codes fail with P063.
func NewTransformer(fromEPSG, toEPSG int) (*Transformer, error) {
	from, ok := lookupCRS(fromEPSG)
	if !ok {
		return nil, errors.New("P063").WithDetailf("source EPSG:%d", fromEPSG)
	}
	to, ok := lookupCRS(toEPSG)
	if !ok {
		return nil, errors.New("P063").WithDetailf("target EPSG:%d", toEPSG)
	}
	return &Transformer{from: from, to: to}, nil
}

// Identity reports whether Transform returns its input unchanged.
func (t *Transformer) Identity() bool {
	return t.from.epsg == t.to.epsg
}

// Transform converts c, going through geographic coordinates when neither
// side is geographic.
func (t *Transformer) Transform(c Coord) Coord {
	if t.Identity() {
		return c
	}

	lat, lon := c.North, c.East
	if !t.from.geographic {
		lat, lon = t.from.inverse(c.East, c.North)
	}
	if t.to.geographic {
		return Coord{North: lat, East: lon}
	}
	easting, northing := t.to.forward(lat, lon)
	return Coord{North: northing, East: easting}
}

const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

func (c crs) centralMeridian() float64 {
	return float64(c.zone-1)*6 - 180 + 3
}

// meridionalCoefficients returns the series coefficients for the meridian
// arc length M(φ) = a(m0·φ − m2·sin2φ + m4·sin4φ − m6·sin6φ).
func (e ellipsoid) meridionalCoefficients() (e2, m0, m2, m4, m6 float64) {
	e2 = e.f * (2 - e.f)
	e4 := e2 * e2
	e6 := e4 * e2
	m0 = 1 - e2/4 - 3*e4/64 - 5*e6/256
	m2 = 3*e2/8 + 3*e4/32 + 45*e6/1024
	m4 = 15*e4/256 + 45*e6/1024
	m6 = 35 * e6 / 3072
	return
}

// forward projects latitude/longitude in degrees to UTM easting/northing.
func (c crs) forward(latDeg, lonDeg float64) (easting, northing float64) {
	a := c.ellipsoid.a
	e2, m0, m2, m4, m6 := c.ellipsoid.meridionalCoefficients()
	ep2 := e2 / (1 - e2)

	phi := latDeg * math.Pi / 180
	dLambda := (lonDeg - c.centralMeridian()) * math.Pi / 180

	sin, cos, tan := math.Sin(phi), math.Cos(phi), math.Tan(phi)
	n := a / math.Sqrt(1-e2*sin*sin)
	t := tan * tan
	cc := ep2 * cos * cos
	aa := cos * dLambda
	m := a * (m0*phi - m2*math.Sin(2*phi) + m4*math.Sin(4*phi) - m6*math.Sin(6*phi))

	easting = utmFalseEasting + utmScale*n*(aa+
		(1-t+cc)*math.Pow(aa, 3)/6+
		(5-18*t+t*t+72*cc-58*ep2)*math.Pow(aa, 5)/120)

	northing = utmScale * (m + n*tan*(aa*aa/2+
		(5-t+9*cc+4*cc*cc)*math.Pow(aa, 4)/24+
		(61-58*t+t*t+600*cc-330*ep2)*math.Pow(aa, 6)/720))
	if c.south {
		northing += utmFalseNorthing
	}
	return easting, northing
}

// inverse converts UTM easting/northing to latitude/longitude in degrees.
func (c crs) inverse(easting, northing float64) (latDeg, lonDeg float64) {
	a := c.ellipsoid.a
	e2, m0, _, _, _ := c.ellipsoid.meridionalCoefficients()
	ep2 := e2 / (1 - e2)

	x := easting - utmFalseEasting
	y := northing
	if c.south {
		y -= utmFalseNorthing
	}

	mu := y / utmScale / (a * m0)
	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin, cos, tan := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	n1 := a / math.Sqrt(1-e2*sin*sin)
	t1 := tan * tan
	c1 := ep2 * cos * cos
	r1 := a * (1 - e2) / math.Pow(1-e2*sin*sin, 1.5)
	d := x / (n1 * utmScale)

	phi := phi1 - (n1*tan/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lambda := (d -
		(1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cos

	return phi * 180 / math.Pi, c.centralMeridian() + lambda*180/math.Pi
}

// Package prayer computes daily Islamic prayer times from solar
// position for a geographic location.
package prayer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidLocation is returned for coordinates outside the valid range.
var ErrInvalidLocation = errors.New("latitude must be in [-90, 90] and longitude in [-180, 180]")

// Method selects the calculation convention for Fajr and Isha angles.
type Method int

const (
	// MWL is the Muslim World League convention (Fajr 18°, Isha 17°).
	MWL Method = iota
	// ISNA is the Islamic Society of North America (15°/15°).
	ISNA
	// Karachi is the University of Islamic Sciences, Karachi (18°/18°).
	Karachi
	// UmmAlQura is the Umm al-Qura University, Makkah (Fajr 18.5°,
	// Isha fixed 90 minutes after Maghrib).
	UmmAlQura
	// Egypt is the Egyptian General Authority of Survey (19.5°/17.5°).
	Egypt
)

func (m Method) String() string {
	switch m {
	case MWL:
		return "mwl"
	case ISNA:
		return "isna"
	case Karachi:
		return "karachi"
	case UmmAlQura:
		return "ummalqura"
	case Egypt:
		return "egypt"
	}
	return "unknown"
}

// ParseMethod maps a config/CLI string to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "mwl", "":
		return MWL, nil
	case "isna":
		return ISNA, nil
	case "karachi":
		return Karachi, nil
	case "ummalqura":
		return UmmAlQura, nil
	case "egypt":
		return Egypt, nil
	}
	return MWL, fmt.Errorf("unknown calculation method %q", s)
}

type methodParams struct {
	fajrAngle  float64
	ishaAngle  float64
	ishaOffset time.Duration // fixed offset after Maghrib, 0 means angle-based
}

func (m Method) params() methodParams {
	switch m {
	case ISNA:
		return methodParams{fajrAngle: 15, ishaAngle: 15}
	case Karachi:
		return methodParams{fajrAngle: 18, ishaAngle: 18}
	case UmmAlQura:
		return methodParams{fajrAngle: 18.5, ishaOffset: 90 * time.Minute}
	case Egypt:
		return methodParams{fajrAngle: 19.5, ishaAngle: 17.5}
	default:
		return methodParams{fajrAngle: 18, ishaAngle: 17}
	}
}

// AsrShadow selects the Asr shadow-length convention.
type AsrShadow int

const (
	// AsrStandard is the Shafi'i convention (shadow factor 1).
	AsrStandard AsrShadow = 1
	// AsrHanafi uses shadow factor 2.
	AsrHanafi AsrShadow = 2
)

// Times holds the six daily times for one date at one location.
type Times struct {
	Date    time.Time `json:"date"`
	Fajr    time.Time `json:"fajr"`
	Sunrise time.Time `json:"sunrise"`
	Dhuhr   time.Time `json:"dhuhr"`
	Asr     time.Time `json:"asr"`
	Maghrib time.Time `json:"maghrib"`
	Isha    time.Time `json:"isha"`
}

// Next returns the name and time of the first prayer after t, falling
// back to the day's Fajr when t is past Isha (caller recomputes for
// the next day in that case).
func (pt Times) Next(t time.Time) (string, time.Time, bool) {
	order := []struct {
		name string
		at   time.Time
	}{
		{"fajr", pt.Fajr},
		{"sunrise", pt.Sunrise},
		{"dhuhr", pt.Dhuhr},
		{"asr", pt.Asr},
		{"maghrib", pt.Maghrib},
		{"isha", pt.Isha},
	}
	for _, p := range order {
		if p.at.After(t) {
			return p.name, p.at, true
		}
	}
	return "", time.Time{}, false
}

// Calculator computes prayer times for a fixed location and method.
type Calculator struct {
	latitude  float64
	longitude float64
	method    Method
	asr       AsrShadow
}

// Option is a functional option for the calculator.
type Option func(*Calculator)

// WithMethod sets the calculation method (default MWL).
func WithMethod(m Method) Option {
	return func(c *Calculator) { c.method = m }
}

// WithAsrShadow sets the Asr shadow convention (default standard).
func WithAsrShadow(s AsrShadow) Option {
	return func(c *Calculator) { c.asr = s }
}

// NewCalculator validates the location and builds a calculator.
func NewCalculator(latitude, longitude float64, opts ...Option) (*Calculator, error) {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, ErrInvalidLocation
	}
	c := &Calculator{
		latitude:  latitude,
		longitude: longitude,
		method:    MWL,
		asr:       AsrStandard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TimesFor computes the prayer times for the calendar date of t,
// expressed in t's location (time zone).
func (c *Calculator) TimesFor(t time.Time) Times {
	loc := t.Location()
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	jd := julianDay(year, int(month), day)
	decl, eqt := solarPosition(jd)
	p := c.method.params()

	// All intermediate times are fractional hours UTC.
	_, offset := midnight.Zone()
	tzHours := float64(offset) / 3600

	noon := 12 + tzHours - c.longitude/15 - eqt

	sunriseHA := hourAngle(c.latitude, decl, 0.833)
	fajrHA := hourAngle(c.latitude, decl, p.fajrAngle)

	times := Times{Date: midnight}
	times.Dhuhr = clockTime(midnight, noon)
	times.Sunrise = clockTime(midnight, noon-sunriseHA)
	times.Maghrib = clockTime(midnight, noon+sunriseHA)
	times.Fajr = clockTime(midnight, noon-fajrHA)
	times.Asr = clockTime(midnight, noon+asrHourAngle(c.latitude, decl, float64(c.asr)))

	if p.ishaOffset > 0 {
		times.Isha = times.Maghrib.Add(p.ishaOffset)
	} else {
		times.Isha = clockTime(midnight, noon+hourAngle(c.latitude, decl, p.ishaAngle))
	}
	return times
}

// julianDay converts a calendar date to the astronomical Julian day
// number at 0h UT.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + b - 1524.5
}

// solarPosition returns the sun's declination (degrees) and the
// equation of time (hours) for the given Julian day. Low-precision
// series, accurate to well under a minute.
func solarPosition(jd float64) (declination, equationOfTime float64) {
	d := jd - 2451545.0

	g := normalizeDeg(357.529 + 0.98560028*d)  // mean anomaly
	q := normalizeDeg(280.459 + 0.98564736*d)  // mean longitude
	l := normalizeDeg(q + 1.915*sinDeg(g) + 0.020*sinDeg(2*g)) // ecliptic longitude

	e := 23.439 - 0.00000036*d // obliquity

	ra := atan2Deg(cosDeg(e)*sinDeg(l), cosDeg(l)) / 15
	ra = normalizeHours(ra)

	declination = asinDeg(sinDeg(e) * sinDeg(l))
	equationOfTime = q/15 - ra
	// Keep the equation of time in [-12, 12) hours
	if equationOfTime > 12 {
		equationOfTime -= 24
	} else if equationOfTime < -12 {
		equationOfTime += 24
	}
	return declination, equationOfTime
}

// hourAngle returns the half day-arc (hours) for the sun reaching
// `angle` degrees below the horizon. NaN at extreme latitudes where
// the sun never reaches the angle.
func hourAngle(lat, decl, angle float64) float64 {
	cosHA := (-sinDeg(angle) - sinDeg(lat)*sinDeg(decl)) / (cosDeg(lat) * cosDeg(decl))
	return acosDeg(cosHA) / 15
}

// asrHourAngle returns the hour angle for the Asr shadow factor.
func asrHourAngle(lat, decl, shadow float64) float64 {
	alt := atanDeg(1 / (shadow + tanDeg(math.Abs(lat-decl))))
	cosHA := (sinDeg(alt) - sinDeg(lat)*sinDeg(decl)) / (cosDeg(lat) * cosDeg(decl))
	return acosDeg(cosHA) / 15
}

// clockTime converts fractional hours past midnight into a timestamp.
func clockTime(midnight time.Time, hours float64) time.Time {
	if math.IsNaN(hours) {
		return time.Time{}
	}
	return midnight.Add(time.Duration(hours * float64(time.Hour)))
}

func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func normalizeHours(h float64) float64 {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	return h
}

func sinDeg(d float64) float64  { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64  { return math.Cos(d * math.Pi / 180) }
func tanDeg(d float64) float64  { return math.Tan(d * math.Pi / 180) }
func asinDeg(x float64) float64 { return math.Asin(x) * 180 / math.Pi }
func acosDeg(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
func atanDeg(x float64) float64 { return math.Atan(x) * 180 / math.Pi }

func atan2Deg(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }

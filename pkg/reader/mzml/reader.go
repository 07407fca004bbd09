// Package mzml provides a streaming reader for centroided mzML spectra
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

var (
	// ErrUnsupportedCompression is returned for MS-Numpress encoded arrays.
	ErrUnsupportedCompression = errors.New("unsupported binary compression")
	// ErrArrayLength is returned when decoded arrays disagree with
	// defaultArrayLength.
	ErrArrayLength = errors.New("binary array length mismatch")
)

// CV accessions used by the reader
const (
	cvMSLevel       = "MS:1000511"
	cvProfile       = "MS:1000128"
	cvScanStartTime = "MS:1000016"
	cvSelectedIonMZ = "MS:1000744"
	cvChargeState   = "MS:1000041"
	cvZlib          = "MS:1000574"
	cvMZArray       = "MS:1000514"
	cvIntensArray   = "MS:1000515"
	cvFloat64       = "MS:1000523"
	unitMinute      = "UO:0000031"
)

type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

type binaryDataArray struct {
	CvPar  []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

type selectedIon struct {
	CvPar []cvParam `xml:"cvParam"`
}

type scan struct {
	CvPar []cvParam `xml:"cvParam"`
}

type xmlSpectrum struct {
	Index              int               `xml:"index,attr"`
	ID                 string            `xml:"id,attr"`
	DefaultArrayLength int               `xml:"defaultArrayLength,attr"`
	CvPar              []cvParam         `xml:"cvParam"`
	Scans              []scan            `xml:"scanList>scan"`
	SelectedIons       []selectedIon     `xml:"precursorList>precursor>selectedIonList>selectedIon"`
	BinaryDataArrays   []binaryDataArray `xml:"binaryDataArrayList>binaryDataArray"`
}

// Options select which spectra are returned.
type Options struct {
	MSLevel      int  // Only spectra of this MS level (0 = all)
	AllowProfile bool // Also return profile mode spectra
}

// Reader provides streaming access to the spectra of an mzML file
type Reader struct {
	decoder     *xml.Decoder
	opts        Options
	source      string
	currentSpec *core.Spectrum
	skipped     int
	err         error
}

// NewReader creates a new mzML reader. source is recorded as SourceFile on
// every spectrum.
func NewReader(r io.Reader, source string, opts Options) *Reader {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return &Reader{
		decoder: d,
		opts:    opts,
		source:  source,
	}
}

// Next advances to the next selected spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil
	if r.err != nil {
		return false
	}

	for {
		t, err := r.decoder.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}
		start, ok := t.(xml.StartElement)
		// Only spectrum elements are of interest; chromatograms and the
		// index of indexedmzML are skipped
		if !ok || start.Name.Local != "spectrum" {
			continue
		}

		var xs xmlSpectrum
		if err := r.decoder.DecodeElement(&xs, &start); err != nil {
			r.err = err
			return false
		}
		if !r.selected(&xs) {
			r.skipped++
			continue
		}

		spec, err := r.convert(&xs)
		if err != nil {
			r.err = fmt.Errorf("spectrum %s: %w", xs.ID, err)
			return false
		}
		r.currentSpec = spec
		return true
	}
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Skipped returns how many spectra were skipped by the options so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// ReadAll reads every remaining selected spectrum.
func (r *Reader) ReadAll() ([]*core.Spectrum, error) {
	var out []*core.Spectrum
	for r.Next() {
		out = append(out, r.Spectrum())
	}
	return out, r.Err()
}

func findCV(params []cvParam, accession string) (cvParam, bool) {
	for _, p := range params {
		if p.Accession == accession {
			return p, true
		}
	}
	return cvParam{}, false
}

func msLevel(xs *xmlSpectrum) int {
	if p, ok := findCV(xs.CvPar, cvMSLevel); ok {
		if lvl, err := strconv.Atoi(p.Value); err == nil {
			return lvl
		}
	}
	return 1 // If nothing else, guess it's MS1
}

func (r *Reader) selected(xs *xmlSpectrum) bool {
	if r.opts.MSLevel > 0 && msLevel(xs) != r.opts.MSLevel {
		return false
	}
	if !r.opts.AllowProfile {
		if _, ok := findCV(xs.CvPar, cvProfile); ok {
			return false
		}
	}
	return true
}

func (r *Reader) convert(xs *xmlSpectrum) (*core.Spectrum, error) {
	n := xs.DefaultArrayLength
	if n < 0 {
		return nil, fmt.Errorf("%w: negative defaultArrayLength %d", ErrArrayLength, n)
	}

	// Arrays are decoded before any peak is allocated, so n is only
	// trusted once the binary data agrees with it.
	var mz, intensity []float64
	for i := range xs.BinaryDataArrays {
		kind, values, err := decodeArray(&xs.BinaryDataArrays[i])
		if err != nil {
			return nil, err
		}
		if kind == arrayOther {
			continue
		}
		if len(values) != n {
			return nil, fmt.Errorf("%w: %d values, expected %d", ErrArrayLength, len(values), n)
		}
		if kind == arrayMZ {
			mz = values
		} else {
			intensity = values
		}
	}
	if n > 0 && mz == nil {
		return nil, fmt.Errorf("%w: no m/z array for %d peaks", ErrArrayLength, n)
	}

	spec := &core.Spectrum{
		Name:         xs.ID,
		SourceFile:   r.source,
		SourceFormat: "mzml",
		Peaks:        make([]core.Peak, n),
	}
	for i := range spec.Peaks {
		spec.Peaks[i].MZ = mz[i]
		if intensity != nil {
			spec.Peaks[i].Intensity = intensity[i]
		}
	}

	for _, sc := range xs.Scans {
		if p, ok := findCV(sc.CvPar, cvScanStartTime); ok {
			rt, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid scan start time %q: %w", p.Value, err)
			}
			// Retention times are kept in seconds
			if p.UnitAccession == unitMinute || p.UnitAccession == "MS:1000038" {
				rt *= 60
			}
			spec.RetentionTime = &rt
			break
		}
	}

	if len(xs.SelectedIons) > 0 {
		ion := xs.SelectedIons[0].CvPar
		if p, ok := findCV(ion, cvSelectedIonMZ); ok {
			spec.PrecursorMZ, _ = strconv.ParseFloat(p.Value, 64)
		}
		if p, ok := findCV(ion, cvChargeState); ok {
			spec.Charge, _ = strconv.Atoi(p.Value)
		}
	}
	return spec, nil
}

type arrayKind int

const (
	arrayOther arrayKind = iota
	arrayMZ
	arrayIntensity
)

// decodeArray decodes one binary data array. Arrays other than m/z and
// intensity are reported as arrayOther and not decoded.
func decodeArray(bda *binaryDataArray) (arrayKind, []float64, error) {
	zlibCompression := false // Default: no compression
	bits64 := false          // Default: 32 bits
	kind := arrayOther
	for _, p := range bda.CvPar {
		switch p.Accession {
		case cvZlib:
			zlibCompression = true
		case cvMZArray:
			kind = arrayMZ
		case cvIntensArray:
			kind = arrayIntensity
		case cvFloat64:
			bits64 = true
		case "MS:1002312", "MS:1002313", "MS:1002314",
			"MS:1002746", "MS:1002747", "MS:1002748":
			return arrayOther, nil, fmt.Errorf("%w: CV term %s", ErrUnsupportedCompression, p.Accession)
		}
	}
	if kind == arrayOther {
		return arrayOther, nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(bda.Binary))
	if err != nil {
		return kind, nil, err
	}
	if zlibCompression {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return kind, nil, err
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return kind, nil, err
		}
	}

	size := 4
	if bits64 {
		size = 8
	}
	if len(data)%size != 0 {
		return kind, nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrArrayLength, len(data), size)
	}

	values := make([]float64, len(data)/size)
	for i := range values {
		if bits64 {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		} else {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	return kind, values, nil
}

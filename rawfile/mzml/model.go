package mzml

import "strings"

// PSI-MS controlled vocabulary accessions read by this package.
const (
	accMSLevel        = "MS:1000511"
	accPositiveScan   = "MS:1000130"
	accNegativeScan   = "MS:1000129"
	accFilterString   = "MS:1000512"
	accScanStartTime  = "MS:1000016"
	accLowestMZ       = "MS:1000528"
	accHighestMZ      = "MS:1000527"
	accWindowLower    = "MS:1000501"
	accWindowUpper    = "MS:1000500"
	accTIC            = "MS:1000285"
	accBasePeakMZ     = "MS:1000504"
	accBasePeakIntens = "MS:1000505"
	accSelectedIonMZ  = "MS:1000744"
	accChargeState    = "MS:1000041"
	accMZArray        = "MS:1000514"
	accIntensityArray = "MS:1000515"
	accFloat32        = "MS:1000521"
	accFloat64        = "MS:1000523"
	accInt32          = "MS:1000519"
	accInt64          = "MS:1000522"
	accZlib           = "MS:1000574"
	accNoCompression  = "MS:1000576"

	unitMinute = "UO:0000031"
	unitSecond = "UO:0000010"
)

// thermoTrailerPrefix is how converters label vendor trailer fields kept
// as userParams.
const thermoTrailerPrefix = "[Thermo Trailer Extra]"

type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
	UnitName      string `xml:"unitName,attr"`
}

type userParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type groupRef struct {
	Ref string `xml:"ref,attr"`
}

// params is the cvParam/userParam/referenceableParamGroupRef triple that
// most mzML elements carry.
type params struct {
	CV   []cvParam   `xml:"cvParam"`
	User []userParam `xml:"userParam"`
	Refs []groupRef  `xml:"referenceableParamGroupRef"`
}

type paramGroup struct {
	ID string `xml:"id,attr"`
	params
}

type spectrum struct {
	Index              int    `xml:"index,attr"`
	ID                 string `xml:"id,attr"`
	DefaultArrayLength int    `xml:"defaultArrayLength,attr"`
	params
	Scans      []scan            `xml:"scanList>scan"`
	Precursors []precursor       `xml:"precursorList>precursor"`
	Arrays     []binaryDataArray `xml:"binaryDataArrayList>binaryDataArray"`
}

type scan struct {
	params
	Windows []params `xml:"scanWindowList>scanWindow"`
}

type precursor struct {
	SelectedIons []params `xml:"selectedIonList>selectedIon"`
}

type binaryDataArray struct {
	ArrayLength int `xml:"arrayLength,attr"`
	params
	Binary string `xml:"binary"`
}

// groups resolves referenceableParamGroupRef elements.
type groups map[string][]cvParam

func (g groups) cv(p params) []cvParam {
	if len(p.Refs) == 0 {
		return p.CV
	}
	out := append([]cvParam(nil), p.CV...)
	for _, r := range p.Refs {
		out = append(out, g[r.Ref]...)
	}
	return out
}

func find(cv []cvParam, acc string) (cvParam, bool) {
	for _, p := range cv {
		if p.Accession == acc {
			return p, true
		}
	}
	return cvParam{}, false
}

func has(cv []cvParam, acc string) bool {
	_, ok := find(cv, acc)
	return ok
}

func findUser(ps []userParam, name string) (userParam, bool) {
	for _, p := range ps {
		if p.Name == name || p.Name == thermoTrailerPrefix+name {
			return p, true
		}
	}
	return userParam{}, false
}

func isMinutes(p cvParam) bool {
	return p.UnitAccession == unitMinute || strings.EqualFold(p.UnitName, "minute")
}

func isSeconds(p cvParam) bool {
	return p.UnitAccession == unitSecond || strings.EqualFold(p.UnitName, "second")
}

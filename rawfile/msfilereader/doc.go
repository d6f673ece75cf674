// Package msfilereader opens Thermo RAW files through the MSFileReader
// COM library (XRawfile2.dll). It only works on Windows with
// MSFileReader installed and registered; on other platforms Open fails
// with rawfile.ErrUnsupported.
//
// MSFileReader ships as a 32-bit and a 64-bit build. The process must
// match the registered one (GOARCH=386 for the 32-bit build).
package msfilereader

// ProgID is the COM class that implements IXRawfile.
const ProgID = "MSFileReader.XRawfile"

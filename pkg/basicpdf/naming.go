package basicpdf

import "path/filepath"

const (
	SplitPrefix         = "extraido_"
	MergeOutputName     = "combinado_pdfmaster.pdf"
	SignedPrefix        = "firmado_"
	DigitalSignedPrefix = "firmado_digital_"
	subsetQualifier     = "solo_paginas_"
	defaultDocumentName = "documento.pdf"
)

// OutputName builds the download name of a stamped document.
func OutputName(kind StampKind, subset bool, source string) string {
	prefix := SignedPrefix
	if kind == StampCertificate {
		prefix = DigitalSignedPrefix
	}
	if subset {
		prefix += subsetQualifier
	}
	return prefix + baseName(source)
}

// SplitOutputName is the download name of pages extracted from source.
func SplitOutputName(source string) string {
	return SplitPrefix + baseName(source)
}

func baseName(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return defaultDocumentName
	}
	return name
}

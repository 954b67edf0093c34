package analyzer

import "regexp"

var (
	pdfNameRe  = regexp.MustCompile(`reports/(\S+\.pdf)`)
	jsonNameRe = regexp.MustCompile(`json_output/(\S+\.json)`)
)

// ReportNames holds the artifact filenames a run announced on its streams.
// Either field may be empty independently.
type ReportNames struct {
	PDFFile  string
	JSONFile string
}

// ExtractReportNames scans combined process output for path fragments
// referencing generated report files and returns the last occurrence of each
// kind. The analyzer echoes relative paths as it writes artifacts, so the
// last mention wins. This is the preferred naming source; the directory
// snapshot heuristic is the fallback.
func ExtractReportNames(output string) ReportNames {
	var names ReportNames

	if m := pdfNameRe.FindAllStringSubmatch(output, -1); len(m) > 0 {
		names.PDFFile = m[len(m)-1][1]
	}
	if m := jsonNameRe.FindAllStringSubmatch(output, -1); len(m) > 0 {
		names.JSONFile = m[len(m)-1][1]
	}

	return names
}
